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
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/nathanpc/groundlift-sub000/fsm"
	"github.com/nathanpc/groundlift-sub000/metrics"
	"github.com/nathanpc/groundlift-sub000/obex"
	"github.com/nathanpc/groundlift-sub000/socket"
)

// DefaultClientMaxPacket is the packet size a client proposes in CONNECT
// when the caller doesn't override it.
const DefaultClientMaxPacket uint16 = 8192

var expectConnectReply = []byte{obex.RespSuccess, obex.RespUnauthorized}
var expectPutReply = []byte{obex.RespContinue, obex.RespSuccess}

// Client drives one outgoing send (§3.6, §4.4). A Client is single-use:
// build one with NewClient per transfer.
type Client struct {
	mu     sync.Mutex
	sock   *socket.Socket
	events *EventTable
	maxPkt uint16
	bundle FileBundle
}

// NewClient builds a Client that will send bundle once Send is called.
// maxPacket is the client's preferred packet size proposed in CONNECT; 0
// selects DefaultClientMaxPacket.
func NewClient(bundle FileBundle, maxPacket uint16, events *EventTable) *Client {
	if maxPacket == 0 {
		maxPacket = DefaultClientMaxPacket
	}
	return &Client{events: events, maxPkt: maxPacket, bundle: bundle}
}

// Cancel shuts the client socket down, unblocking whatever Send is
// currently waiting on (§4.4 Cancellation); a read interrupted this way ends
// Send with OnCancelled. Calling it before Send has created its socket has
// no effect: a later Send dials and runs normally.
func (c *Client) Cancel() {
	c.mu.Lock()
	sock := c.sock
	c.mu.Unlock()
	if sock != nil {
		_ = sock.Shutdown()
	}
}

// Send performs one complete CONNECT -> stream PUT -> close cycle against
// addr (host:port), proposing hostname as this side's own HOSTNAME header.
func (c *Client) Send(ctx context.Context, addr string, hostname string) error {
	sock := socket.NewTCP(addr)
	c.mu.Lock()
	c.sock = sock
	c.mu.Unlock()

	if err := sock.Connect(ctx, 10*time.Second); err != nil {
		return Push(SocketError, 0, "dial", err)
	}
	defer sock.Close()

	f, err := os.Open(c.bundle.Path)
	if err != nil {
		return Push(IOError, 0, "open", err)
	}
	defer f.Close()

	connect := obex.NewConnect(c.maxPkt, c.bundle.Name, c.bundle.Size, hostname)
	if err := obex.WritePacket(sock.Conn(), connect); err != nil {
		return Push(SocketError, 0, "send", err)
	}

	reply, err := obex.ReadPacket(sock.Conn(), obex.DecodeOptions{Expected: expectConnectReply, WithParams: true})
	if err != nil {
		return c.reportRecvFailure(err)
	}

	state, ev := fsm.StepClientConnectReply(reply)
	switch state {
	case fsm.ClientRefused:
		c.events.refused(c.bundle.Name, ev.Hostname)
		return nil
	case fsm.ClientError:
		return Push(ProtocolError, int(ev.Opcode), "connect-reply", nil)
	}

	negotiated := ev.MaxPacket
	if negotiated == 0 || negotiated > c.maxPkt {
		negotiated = c.maxPkt
	}

	return c.stream(sock, f, negotiated)
}

func (c *Client) stream(sock *socket.Socket, f *os.File, negotiated uint16) error {
	var sent uint32
	first := true

	for {
		var extra []obex.Header
		if first {
			extra = []obex.Header{obex.NewNameHeader(c.bundle.Name), obex.NewLengthHeader(c.bundle.Size)}
		}
		capacity := chunkCapacity(negotiated, extra)
		buf := make([]byte, capacity)
		n, readErr := io.ReadFull(f, buf)
		if readErr == io.ErrUnexpectedEOF {
			readErr = nil
		}
		if readErr != nil && readErr != io.EOF {
			return Push(IOError, 0, "read", readErr)
		}
		chunk := buf[:n]
		final := sent+uint32(n) >= c.bundle.Size

		put := obex.NewPut(chunk, final, extra...)
		if err := obex.WritePacket(sock.Conn(), put); err != nil {
			return Push(SocketError, 0, "send", err)
		}

		reply, err := obex.ReadPacket(sock.Conn(), obex.DecodeOptions{Expected: expectPutReply})
		if err != nil {
			return c.reportRecvFailure(err)
		}

		state, ev := fsm.StepClientPutReply(reply, final)
		sent += uint32(n)
		first = false
		metrics.BytesSent.Add(float64(n))

		switch state {
		case fsm.ClientError:
			metrics.TransfersFailed.Inc()
			return Push(ProtocolError, int(ev.Opcode), "put-reply", nil)
		case fsm.ClientDone:
			metrics.TransfersSucceeded.Inc()
			c.events.uploadSuccess(c.bundle)
			return nil
		default:
			c.events.uploadProgress(c.bundle, sent)
		}
	}
}

func (c *Client) reportRecvFailure(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF || errors.Is(err, net.ErrClosed) {
		metrics.TransfersCancelled.Inc()
		c.events.cancelled()
		return nil
	}
	return Push(SocketError, 0, "recv", err)
}

// chunkCapacity returns how many body bytes fit in one PUT without
// exceeding maxPacket, accounting for whatever extra headers (NAME+LENGTH
// on the first chunk, §4.4 step 4) ride along with it.
func chunkCapacity(maxPacket uint16, extra []obex.Header) int {
	trial := obex.NewPut(nil, false, extra...)
	data, err := obex.Encode(trial)
	if err != nil {
		return 0
	}
	capacity := int(maxPacket) - len(data)
	if capacity < 1 {
		capacity = 1
	}
	return capacity
}
