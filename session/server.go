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

// Package session implements the GroundLift session engine: the server
// accept loop and connection driver, the client send driver, and UDP
// discovery (§2.4, §2.5, §2.6). All blocking I/O lives here; fsm holds the
// pure state machines this package drives.
package session

import (
	"sync"
	"time"

	"github.com/nathanpc/groundlift-sub000/fsm"
	"github.com/nathanpc/groundlift-sub000/metrics"
	"github.com/nathanpc/groundlift-sub000/socket"
)

// DefaultPort is the shared TCP/UDP port for sessions and discovery (§6.1,
// §6.2).
const DefaultPort = "1650"

// DefaultMaxPacket is the server's advertised packet-size capacity when a
// front-end doesn't override it; it fits comfortably under the 16-bit size
// field's 64 KiB ceiling (§6.1).
const DefaultMaxPacket uint16 = 8192

// ServerConfig configures a Server before Setup.
type ServerConfig struct {
	// ListenAddr is the TCP session address, e.g. ":1650".
	ListenAddr string
	// DiscoveryAddr is the UDP discovery address, usually the same port.
	DiscoveryAddr string
	// DownloadsDir is where received files are written (§6.4).
	DownloadsDir string
	// Hostname is advertised in CONNECT's SUCCESS reply and in discovery
	// replies.
	Hostname string
	// MaxPacket is the server's advertised packet-size capacity (§4.3's
	// negotiation floor).
	MaxPacket uint16
	// Consent decides whether to accept an incoming CONNECT. A nil
	// Consent auto-accepts (§4.3: "if none registered, default = accept").
	Consent fsm.ConsentFunc
}

// Server owns the TCP listen socket, the UDP discovery socket, at most one
// active Connection, the accept goroutine, the discovery goroutine, and an
// EventTable (§3.5). Lifecycle: NewServer -> Setup -> Start ->
// StartDiscovery -> Stop/Wait.
type Server struct {
	cfg    ServerConfig
	events *EventTable

	muSock sync.Mutex
	tcp    *socket.Socket
	udp    *socket.Socket

	muConn sync.Mutex
	active *Connection

	wg       sync.WaitGroup
	stopOnce sync.Once
	done     chan struct{}
}

// NewServer builds a Server from cfg; Setup must be called before Start.
func NewServer(cfg ServerConfig, events *EventTable) *Server {
	if cfg.MaxPacket == 0 {
		cfg.MaxPacket = DefaultMaxPacket
	}
	return &Server{cfg: cfg, events: events, done: make(chan struct{})}
}

// Setup binds the TCP listen socket. Call StartDiscovery separately to also
// bind the UDP discovery socket; the two are independent so a front-end can
// run a session-only or discovery-only instance.
func (s *Server) Setup() error {
	s.muSock.Lock()
	defer s.muSock.Unlock()

	tcp := socket.NewTCP(s.cfg.ListenAddr)
	if err := tcp.Setup(true, 0); err != nil {
		return Push(SocketError, 0, "listen", err)
	}
	s.tcp = tcp
	return nil
}

// Addr returns the TCP listen socket's resolved local address. Only valid
// after a successful Setup.
func (s *Server) Addr() string {
	s.muSock.Lock()
	defer s.muSock.Unlock()
	if s.tcp == nil {
		return ""
	}
	return s.tcp.LocalAddr().String()
}

// Start spawns the accept-loop goroutine. The loop services one TCP
// connection fully before accepting the next (§5: "each server instance
// services at most one TCP connection at a time").
func (s *Server) Start() {
	s.events.started()
	s.wg.Add(1)
	go s.acceptLoop()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		s.muSock.Lock()
		tcp := s.tcp
		s.muSock.Unlock()
		if tcp == nil {
			return
		}

		conn, err := tcp.Accept()
		if err != nil {
			if err == socket.ErrShutdown {
				return
			}
			s.events.error(Push(SocketError, 0, "accept", err))
			continue
		}

		s.events.accepted(conn.RemoteAddr())
		s.serve(conn)

		select {
		case <-s.done:
			return
		default:
		}
	}
}

func (s *Server) serve(conn *socket.Socket) {
	c := newConnection(conn, s.cfg.DownloadsDir, s.cfg.MaxPacket, s.cfg.Hostname, s.cfg.Consent, s.events)

	s.muConn.Lock()
	s.active = c
	s.muConn.Unlock()
	metrics.ActiveConnections.Set(1)

	c.run()

	s.muConn.Lock()
	s.active = nil
	s.muConn.Unlock()
	metrics.ActiveConnections.Set(0)
}

// StartDiscovery binds the UDP discovery socket and spawns the responder
// goroutine (§4.5).
func (s *Server) StartDiscovery() error {
	s.muSock.Lock()
	udp := socket.NewUDP(s.cfg.DiscoveryAddr)
	if err := udp.Setup(true, 0); err != nil {
		s.muSock.Unlock()
		return Push(SocketError, 0, "listen-udp", err)
	}
	s.udp = udp
	s.muSock.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		RunDiscoveryResponder(udp, s.cfg.Hostname, s.events)
	}()
	return nil
}

// Stop idempotently tears the server down: it marks the running flag
// false, shuts both sockets (unblocking any pending Accept/RecvFrom),
// destroys the active connection under its mutex, and joins both
// goroutines (§5).
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)

		s.muSock.Lock()
		if s.tcp != nil {
			_ = s.tcp.Shutdown()
		}
		if s.udp != nil {
			_ = s.udp.Shutdown()
		}
		s.muSock.Unlock()

		s.muConn.Lock()
		if s.active != nil {
			_ = s.active.sock.Close()
		}
		s.muConn.Unlock()

		s.wg.Wait()
		s.events.stopped()
	})
}

// Wait blocks until both the accept loop and (if started) the discovery
// responder have returned, without itself requesting shutdown.
func (s *Server) Wait(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	if timeout <= 0 {
		<-done
		return
	}
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
