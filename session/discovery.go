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
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/nathanpc/groundlift-sub000/metrics"
	"github.com/nathanpc/groundlift-sub000/obex"
	"github.com/nathanpc/groundlift-sub000/socket"
)

var expectDiscoverGet = []byte{obex.OpGet}
var expectDiscoverSuccess = []byte{obex.RespSuccess}

// RunDiscoveryResponder services one UDP socket, replying to well-formed
// discovery GETs with a SUCCESS/HOSTNAME until the socket is shut down
// (§4.5 Server). It is the body of the goroutine Server.StartDiscovery
// spawns, split out so it can also be driven directly by a standalone
// discovery-only front-end or a test.
func RunDiscoveryResponder(sock *socket.Socket, hostname string, events *EventTable) {
	buf := make([]byte, obex.MaxPacketSize)
	for {
		n, addr, err := sock.RecvFrom(buf)
		if err != nil {
			if err == socket.ErrShutdown {
				return
			}
			events.error(Push(SocketError, 0, "recvfrom", err))
			continue
		}

		p, err := obex.Decode(append([]byte(nil), buf[:n]...), obex.DecodeOptions{Expected: expectDiscoverGet})
		if err != nil {
			continue
		}
		if !obex.IsDiscoverGet(p) {
			continue
		}

		reply := obex.NewConnectlessSuccess(hostname)
		data, err := obex.Encode(reply)
		if err != nil {
			events.error(Push(ProtocolError, 0, "encode", err))
			continue
		}
		if err := sock.SendTo(data, addr); err != nil {
			events.error(Push(SocketError, 0, "sendto", err))
			continue
		}
		metrics.DiscoveryResponsesSent.Inc()
	}
}

// DefaultDiscoveryTimeout is the collection window a requester waits for
// replies once its broadcasts are sent (§4.5: "a configurable timeout,
// default a few seconds").
const DefaultDiscoveryTimeout = 3 * time.Second

// Discover broadcasts one GET/DISCOVER on every broadcast-capable interface
// and collects SUCCESS replies until timeout elapses, emitting one
// OnPeerDiscovered per reply (§4.5 Client).
func Discover(timeout time.Duration, port string, events *EventTable) error {
	if timeout <= 0 {
		timeout = DefaultDiscoveryTimeout
	}

	sock := socket.NewUDP(":0")
	if err := sock.Setup(true, 0); err != nil {
		return Push(SocketError, 0, "listen-udp", err)
	}
	defer sock.Close()

	broadcasts, err := socket.ListBroadcastInterfaces()
	if err != nil {
		return Push(SocketError, 0, "interfaces", err)
	}

	req := obex.NewDiscoverGet()
	data, err := obex.Encode(req)
	if err != nil {
		return Push(ProtocolError, 0, "encode", err)
	}

	exchangeID := uuid.NewString()
	for _, bcast := range broadcasts {
		addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(bcast, port))
		if err != nil {
			continue
		}
		if err := sock.SendTo(data, addr); err != nil {
			events.error(Push(SocketError, 0, "sendto", err))
			continue
		}
		metrics.DiscoveryRequestsSent.Inc()
	}

	deadline := time.Now().Add(timeout)
	buf := make([]byte, obex.MaxPacketSize)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		_ = sock.SetDeadline(time.Now().Add(remaining))

		n, addr, err := sock.RecvFrom(buf)
		if err != nil {
			if err == socket.ErrShutdown {
				return nil
			}
			// A deadline exceeded error means the collection window
			// closed with no further replies; that is not a failure.
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil
			}
			return Push(SocketError, 0, "recvfrom", err)
		}

		p, err := obex.Decode(append([]byte(nil), buf[:n]...), obex.DecodeOptions{Expected: expectDiscoverSuccess})
		if err != nil {
			continue
		}
		hostname, _ := obex.HostnameOf(p)
		udpAddr, _ := addr.(*net.UDPAddr)
		events.peerDiscovered(Peer{ID: exchangeID, Hostname: hostname, Addr: udpAddr})
	}
}
