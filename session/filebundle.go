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

package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileBundle names one transfer's file on disk: its path, basename, and
// declared size (§3.4). The sender builds one from os.Stat; the receiver
// rebuilds one from the first PUT's NAME+LENGTH headers. Path is not made
// absolute: it is the path the sender was given, or the downloads directory
// joined with the name on the receiver, relative if that directory is.
type FileBundle struct {
	Path string
	Name string
	Size uint32
}

// NewSendBundle stats path and builds the bundle a CONNECT/PUT sequence
// advertises.
func NewSendBundle(path string) (FileBundle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileBundle{}, err
	}
	if info.IsDir() {
		return FileBundle{}, fmt.Errorf("groundlift: %s is a directory, not a file", path)
	}
	return FileBundle{
		Path: path,
		Name: filepath.Base(path),
		Size: uint32(info.Size()),
	}, nil
}

// sanitizeFilename strips path separators and control bytes from name
// before it is ever joined with the downloads directory (§6.4), so a
// malicious NAME header can't escape the download root or inject control
// sequences into a terminal listing it.
func sanitizeFilename(name string) string {
	name = filepath.Base(filepath.Clean("/" + name))
	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || r == 0x7f || r == filepath.Separator {
			continue
		}
		b.WriteRune(r)
	}
	clean := b.String()
	if clean == "" || clean == "." || clean == ".." {
		clean = "unnamed"
	}
	return clean
}

// ResolveDownloadPath joins dir with a sanitized basename, applying the
// "N_" collision-renaming policy of §6.4: if a same-named file already
// exists, prefix "1_", "2_", ... until an unused name is found.
func ResolveDownloadPath(dir, name string) string {
	clean := sanitizeFilename(name)
	candidate := filepath.Join(dir, clean)
	for n := 1; ; n++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%d_%s", n, clean))
	}
}
