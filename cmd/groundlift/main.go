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

package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/nathanpc/groundlift-sub000/config"
	"github.com/nathanpc/groundlift-sub000/metrics"
	"github.com/nathanpc/groundlift-sub000/session"
)

// VERSION is populated via build flags when packaging official binaries.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	app := cli.NewApp()
	app.Name = "groundlift"
	app.Usage = "LAN peer-to-peer file transfer"
	app.Version = VERSION
	app.Flags = serverFlags()
	app.Action = runServer
	app.Commands = []cli.Command{
		{
			Name:      "client",
			Usage:     "send one file to a GroundLift server",
			ArgsUsage: "<host> <port> <path>",
			Flags:     clientFlags(),
			Action:    runClient,
		},
		{
			Name:   "list",
			Usage:  "broadcast discovery and print responders",
			Flags:  listFlags(),
			Action: runList,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Printf("%+v\n", err)
		os.Exit(1)
	}
}

func serverFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{Name: "listen, l", Value: ":" + session.DefaultPort, Usage: "TCP listen address"},
		cli.StringFlag{Name: "discovery-addr", Value: ":" + session.DefaultPort, Usage: "UDP discovery listen address"},
		cli.StringFlag{Name: "downloads, d", Value: "./downloads", Usage: "directory received files are written to"},
		cli.StringFlag{Name: "hostname", Value: defaultHostname(), Usage: "hostname advertised to peers"},
		cli.IntFlag{Name: "maxpacket", Value: int(session.DefaultMaxPacket), Usage: "advertised max packet size in bytes"},
		cli.BoolFlag{Name: "no-discovery", Usage: "do not answer UDP discovery requests"},
		cli.BoolFlag{Name: "auto-accept", Usage: "do not print the auto-accept warning; every incoming transfer is accepted either way, there is no prompt"},
		cli.StringFlag{Name: "metrics-addr", Value: "", Usage: "address to serve Prometheus metrics on, empty to disable"},
		cli.StringFlag{Name: "log", Value: "", Usage: "log file to write to, default stderr"},
		cli.StringFlag{Name: "c", Value: "", Usage: "JSON config file overriding the flags above"},
	}
}

func clientFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{Name: "hostname", Value: defaultHostname(), Usage: "hostname advertised to the receiver"},
		cli.IntFlag{Name: "maxpacket", Value: int(session.DefaultClientMaxPacket), Usage: "preferred max packet size in bytes"},
		cli.StringFlag{Name: "log", Value: "", Usage: "log file to write to, default stderr"},
		cli.StringFlag{Name: "c", Value: "", Usage: "JSON config file overriding the flags above"},
	}
}

func listFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{Name: "timeout", Value: 3, Usage: "seconds to wait for discovery replies"},
	}
}

func defaultHostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "groundlift"
	}
	return h
}

func redirectLog(path string) func() {
	if path == "" {
		return func() {}
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		log.Printf("%+v\n", err)
		os.Exit(1)
	}
	log.SetOutput(f)
	return func() { f.Close() }
}

func runServer(c *cli.Context) error {
	cfg := config.ServerConfig{
		Listen:        c.String("listen"),
		DiscoveryAddr: c.String("discovery-addr"),
		DownloadsDir:  c.String("downloads"),
		Hostname:      c.String("hostname"),
		MaxPacket:     c.Int("maxpacket"),
		NoDiscovery:   c.Bool("no-discovery"),
		Log:           c.String("log"),
		MetricsAddr:   c.String("metrics-addr"),
	}
	if path := c.String("c"); path != "" {
		if err := config.ParseJSON(&cfg, path); err != nil {
			log.Printf("%+v\n", err)
			os.Exit(1)
		}
	}

	closeLog := redirectLog(cfg.Log)
	defer closeLog()

	if err := os.MkdirAll(cfg.DownloadsDir, 0o755); err != nil {
		log.Printf("%+v\n", err)
		os.Exit(2)
	}

	autoAccept := c.Bool("auto-accept")
	events := &session.EventTable{
		OnStarted: func() { log.Println("server listening on", cfg.Listen) },
		OnAccepted: func(remote net.Addr) {
			log.Println("accepted connection from", remote)
		},
		OnConnectRequest: func(name string, size uint32, hostname string) {
			if !autoAccept {
				color.Yellow("%s (%s) wants to send %q (%d bytes) — no consent callback registered, auto-accepting", hostname, name, name, size)
			}
		},
		OnRefused: func(name, hostname string) {
			log.Printf("refused transfer of %q from %s", name, hostname)
		},
		OnDownloadSuccess: func(b session.FileBundle) {
			log.Printf("received %s (%d bytes) -> %s", b.Name, b.Size, b.Path)
		},
		OnCancelled: func() { log.Println("transfer cancelled") },
		OnError: func(r *session.Report) { log.Printf("%+v\n", r) },
	}

	srv := session.NewServer(session.ServerConfig{
		ListenAddr:    cfg.Listen,
		DiscoveryAddr: cfg.DiscoveryAddr,
		DownloadsDir:  cfg.DownloadsDir,
		Hostname:      cfg.Hostname,
		MaxPacket:     uint16(cfg.MaxPacket),
	}, events)

	if err := srv.Setup(); err != nil {
		log.Printf("%+v\n", err)
		os.Exit(2)
	}
	srv.Start()
	if !cfg.NoDiscovery {
		if err := srv.StartDiscovery(); err != nil {
			log.Printf("%+v\n", err)
		}
	}

	if cfg.MetricsAddr != "" {
		go func() {
			log.Println("metrics listening on", cfg.MetricsAddr)
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Printf("%+v\n", err)
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	srv.Stop()
	return nil
}

func runClient(c *cli.Context) error {
	if c.NArg() != 3 {
		return cli.NewExitError("usage: groundlift client <host> <port> <path>", 1)
	}

	cfg := config.ClientConfig{
		Host:      c.Args().Get(0),
		Port:      c.Args().Get(1),
		Path:      c.Args().Get(2),
		Hostname:  c.String("hostname"),
		MaxPacket: c.Int("maxpacket"),
		Log:       c.String("log"),
	}
	if path := c.String("c"); path != "" {
		if err := config.ParseJSON(&cfg, path); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
	}

	closeLog := redirectLog(cfg.Log)
	defer closeLog()

	bundle, err := session.NewSendBundle(cfg.Path)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	events := &session.EventTable{
		OnRefused:        func(name, hostname string) { log.Println("transfer refused by", hostname) },
		OnUploadProgress: func(b session.FileBundle, sent uint32) { log.Printf("sent %d/%d bytes", sent, b.Size) },
		OnUploadSuccess:  func(b session.FileBundle) { log.Println("transfer complete:", b.Name) },
		OnCancelled:      func() { log.Println("transfer cancelled") },
		OnError:          func(r *session.Report) { log.Printf("%+v\n", r) },
	}

	client := session.NewClient(bundle, uint16(cfg.MaxPacket), events)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-sig
		client.Cancel()
		cancel()
	}()

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	if err := client.Send(ctx, addr, cfg.Hostname); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return nil
}

func runList(c *cli.Context) error {
	timeout := c.Int("timeout")
	found := 0
	events := &session.EventTable{
		OnPeerDiscovered: func(p session.Peer) {
			found++
			fmt.Printf("%-20s %s\n", p.Hostname, p.Addr)
		},
	}
	if err := session.Discover(time.Duration(timeout)*time.Second, session.DefaultPort, events); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if found == 0 {
		fmt.Println("no responders")
	}
	return nil
}
