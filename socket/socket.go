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

// Package socket wraps the handful of net.Conn/net.PacketConn operations
// GroundLift needs behind one idempotent-close, shutdown-unblockable type,
// so the session package's goroutines never touch a raw net.Listener or
// net.PacketConn directly (§3.1, §4.6).
package socket

import (
	"context"
	"net"
	"sync"
	"time"
)

// Kind distinguishes a listening TCP socket from a bound UDP one; Send/Recv
// and Accept/Connect are only valid on the matching Kind.
type Kind int

const (
	TCP Kind = iota
	UDP
)

// Socket is a thin, close-once wrapper around exactly one of a
// net.Listener (TCP server), a net.Conn (TCP client or an accepted
// connection), or a net.PacketConn (UDP, either side).
type Socket struct {
	kind Kind
	addr string

	mu        sync.Mutex
	ln        net.Listener
	conn      net.Conn
	pconn     net.PacketConn
	closeOnce sync.Once
	closed    chan struct{}
}

// NewTCP builds an unconfigured TCP socket bound to addr. Call Setup to
// actually listen (server) or leave it for Connect (client).
func NewTCP(addr string) *Socket {
	return &Socket{kind: TCP, addr: addr, closed: make(chan struct{})}
}

// NewUDP builds an unconfigured UDP socket bound to addr.
func NewUDP(addr string) *Socket {
	return &Socket{kind: UDP, addr: addr, closed: make(chan struct{})}
}

// Setup binds the socket. A TCP server starts listening and a UDP socket
// binds, both with SO_REUSEADDR and SO_REUSEPORT set on unix platforms (the
// discovery responder needs both to share its port across processes, §4.5);
// Go's net package enables broadcast on UDP sockets. timeout, if non-zero,
// sets one absolute deadline (now + timeout) on a UDP socket that covers all
// later reads and writes together, not each call separately; a TCP listener
// gets no deadline. A TCP client socket (server == false) is left unbound;
// Connect dials it.
func (s *Socket) Setup(server bool, timeout time.Duration) error {
	lc := net.ListenConfig{Control: reuseAddrAndPort}

	switch s.kind {
	case TCP:
		if !server {
			return nil
		}
		ln, err := lc.Listen(context.Background(), "tcp", s.addr)
		if err != nil {
			return newError("listen", err)
		}
		s.mu.Lock()
		s.ln = ln
		s.mu.Unlock()
	case UDP:
		pconn, err := lc.ListenPacket(context.Background(), "udp4", s.addr)
		if err != nil {
			return newError("listen-packet", err)
		}
		s.mu.Lock()
		s.pconn = pconn
		s.mu.Unlock()
	}

	if timeout > 0 {
		s.setDeadline(timeout)
	}
	return nil
}

func (s *Socket) setDeadline(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		_ = s.conn.SetDeadline(deadline)
	}
	if s.pconn != nil {
		_ = s.pconn.SetDeadline(deadline)
	}
}

// Accept blocks for one incoming TCP connection and returns it wrapped in
// its own Socket, ready for Send/Recv. Closing s (via Shutdown) unblocks a
// pending Accept with ErrShutdown.
func (s *Socket) Accept() (*Socket, error) {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return nil, newError("accept", ErrClosed)
	}

	conn, err := ln.Accept()
	if err != nil {
		select {
		case <-s.closed:
			return nil, ErrShutdown
		default:
			return nil, newError("accept", err)
		}
	}

	return &Socket{kind: TCP, addr: conn.RemoteAddr().String(), conn: conn, closed: make(chan struct{})}, nil
}

// Connect dials a TCP peer, turning an unbound client Socket into a usable
// one.
func (s *Socket) Connect(ctx context.Context, timeout time.Duration) error {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return newError("dial", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	return nil
}

// Send writes the full buffer to the connected TCP peer.
func (s *Socket) Send(buf []byte) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return newError("send", ErrClosed)
	}
	_, err := conn.Write(buf)
	if err != nil {
		return newError("send", err)
	}
	return nil
}

// Recv reads into buf from the connected TCP peer, returning the number of
// bytes read.
func (s *Socket) Recv(buf []byte) (int, error) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return 0, newError("recv", ErrClosed)
	}
	n, err := conn.Read(buf)
	if err != nil {
		select {
		case <-s.closed:
			return n, ErrShutdown
		default:
			return n, err
		}
	}
	return n, nil
}

// Conn exposes the underlying net.Conn for callers (obex.ReadPacket/
// WritePacket) that need the io.Reader/io.Writer interface directly rather
// than the byte-slice Send/Recv above.
func (s *Socket) Conn() net.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// SendTo writes one UDP datagram to addr.
func (s *Socket) SendTo(buf []byte, addr net.Addr) error {
	s.mu.Lock()
	pconn := s.pconn
	s.mu.Unlock()
	if pconn == nil {
		return newError("sendto", ErrClosed)
	}
	_, err := pconn.WriteTo(buf, addr)
	if err != nil {
		return newError("sendto", err)
	}
	return nil
}

// RecvFrom reads one UDP datagram into buf, returning its length and
// source address. A Shutdown-closed socket returns ErrShutdown; a read
// past the configured deadline returns the net timeout error unmodified so
// callers (Discover) can tell "no more replies" apart from "socket died".
func (s *Socket) RecvFrom(buf []byte) (int, net.Addr, error) {
	s.mu.Lock()
	pconn := s.pconn
	s.mu.Unlock()
	if pconn == nil {
		return 0, nil, newError("recvfrom", ErrClosed)
	}
	n, addr, err := pconn.ReadFrom(buf)
	if err != nil {
		select {
		case <-s.closed:
			return n, addr, ErrShutdown
		default:
			return n, addr, err
		}
	}
	return n, addr, nil
}

// SetDeadline overrides the blocking deadline set by Setup, e.g. the
// discovery requester shortening its collection window per-call.
func (s *Socket) SetDeadline(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn.SetDeadline(t)
	}
	if s.pconn != nil {
		return s.pconn.SetDeadline(t)
	}
	return nil
}

// Shutdown closes the underlying fd to unblock any goroutine parked in
// Accept/Recv/RecvFrom, signalling them to return ErrShutdown rather than a
// bare net.ErrClosed. Safe to call from any goroutine, any number of times.
func (s *Socket) Shutdown() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.closeLocked()
	})
	return err
}

// Close is an alias for Shutdown kept for call sites (session.Connection)
// that close a per-transfer socket rather than shut one down mid-accept;
// the operation is identical either way.
func (s *Socket) Close() error {
	return s.Shutdown()
}

func (s *Socket) closeLocked() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	if s.conn != nil {
		if cerr := s.conn.Close(); err == nil {
			err = cerr
		}
	}
	if s.pconn != nil {
		if cerr := s.pconn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// LocalAddr returns the bound/connected local address, or nil before Setup
// or Connect has run.
func (s *Socket) LocalAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.ln != nil:
		return s.ln.Addr()
	case s.conn != nil:
		return s.conn.LocalAddr()
	case s.pconn != nil:
		return s.pconn.LocalAddr()
	default:
		return nil
	}
}

// RemoteAddr returns the connected peer's address for an accepted or
// dialed TCP socket, or nil for a listener/UDP socket.
func (s *Socket) RemoteAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn.RemoteAddr()
	}
	return nil
}
