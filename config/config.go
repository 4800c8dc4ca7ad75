// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package config holds the JSON-overridable configuration structs for both
// reference front-ends, mirroring the teacher's server/config.go and
// client/config.go: a plain struct with json tags, loaded by ParseJSON over
// whatever urfave/cli flags already populated.
package config

import (
	"encoding/json"
	"os"
)

// ServerConfig configures the server/default CLI mode.
type ServerConfig struct {
	Listen        string `json:"listen"`
	DiscoveryAddr string `json:"discovery"`
	DownloadsDir  string `json:"downloads"`
	Hostname      string `json:"hostname"`
	MaxPacket     int    `json:"maxpacket"`
	NoDiscovery   bool   `json:"nodiscovery"`
	Log           string `json:"log"`
	MetricsAddr   string `json:"metricsaddr"`
	Quiet         bool   `json:"quiet"`
}

// ClientConfig configures the `client` CLI mode.
type ClientConfig struct {
	Host      string `json:"host"`
	Port      string `json:"port"`
	Path      string `json:"path"`
	Hostname  string `json:"hostname"`
	MaxPacket int    `json:"maxpacket"`
	Log       string `json:"log"`
	Quiet     bool   `json:"quiet"`
}

// ParseJSON decodes path's JSON contents onto v (a *ServerConfig or
// *ClientConfig), overriding whatever the CLI flags already set.
func ParseJSON(v interface{}, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(v)
}
