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
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/nathanpc/groundlift-sub000/fsm"
	"github.com/nathanpc/groundlift-sub000/metrics"
	"github.com/nathanpc/groundlift-sub000/obex"
	"github.com/nathanpc/groundlift-sub000/socket"
)

var (
	expectConnect = []byte{obex.OpConnect}
	expectPut     = []byte{obex.OpPut}
)

// Connection drives one accepted TCP connection through fsm.ServerState
// (§3.2, §4.3). The socket and (while receiving) file handle it owns are
// released on every exit path: success, refusal, cancellation, or error.
type Connection struct {
	id       string
	sock     *socket.Socket
	dir      string
	maxPkt   uint16
	hostname string
	consent  fsm.ConsentFunc
	events   *EventTable

	file    *os.File
	bundle  FileBundle
	written uint32
}

func newConnection(sock *socket.Socket, dir string, maxPkt uint16, hostname string, consent fsm.ConsentFunc, events *EventTable) *Connection {
	if consent == nil {
		consent = func(name string, size uint32, peerHostname string) fsm.ConsentDecision {
			return fsm.ConsentDecision{Accept: true, ServerMaxPacket: maxPkt, Hostname: hostname}
		}
	}
	return &Connection{
		id:       uuid.NewString(),
		sock:     sock,
		dir:      dir,
		maxPkt:   maxPkt,
		hostname: hostname,
		consent:  consent,
		events:   events,
	}
}

// run drives the connection to completion, returning the terminal state. It
// never returns an error: failures are reported through the EventTable
// exactly as §7's propagation policy describes ("errors never propagate
// across worker-thread boundaries except via the join return path").
func (c *Connection) run() fsm.ServerState {
	defer c.release()

	state := fsm.Created
	decide := c.wrapConsent()

	for !state.Terminal() {
		expected := expectConnect
		if state == fsm.RecvFiles {
			expected = expectPut
		}

		in, err := obex.ReadPacket(c.sock.Conn(), obex.DecodeOptions{Expected: expected, WithParams: state == fsm.Created})
		if err != nil {
			if errors.Is(err, obex.ErrUnexpectedOpcode) {
				// ReadPacket consumed the whole packet, so the stream is still
				// in step: report the rogue opcode and keep reading.
				c.events.error(Push(ProtocolError, 0, "invalid-state-opcode", err))
				continue
			}
			if err == io.EOF || err == io.ErrUnexpectedEOF || errors.Is(err, net.ErrClosed) {
				next, _, events := fsm.Disconnect()
				c.dispatch(events)
				return next
			}
			c.events.error(Push(SocketError, 0, "recv", err))
			return fsm.Error
		}

		var next fsm.ServerState
		var out []*obex.Packet
		var events []fsm.Event

		if state == fsm.RecvFiles && in.Code() == obex.Code(obex.OpPut) && c.wouldOverflow(in) {
			next, out, events = fsm.Abort()
		} else {
			next, out, events = fsm.StepServer(state, in, decide)
			c.applyPut(next, in)
		}
		c.dispatch(events)

		for _, p := range out {
			if werr := obex.WritePacket(c.sock.Conn(), p); werr != nil {
				c.events.error(Push(SocketError, 0, "send", werr))
				return fsm.Error
			}
		}

		state = next
	}

	return state
}

// wouldOverflow reports whether appending in's body would exceed the file
// bundle's declared length (§4.3: "if the received bytes would exceed the
// declared length, transition to ERROR and abort the connection").
func (c *Connection) wouldOverflow(in *obex.Packet) bool {
	declared := c.bundle.Size
	if size, ok := obex.LengthOf(in); ok {
		declared = size
	}
	if in.Body == nil {
		return false
	}
	return c.written+uint32(len(in.Body.Data)) > declared
}

// applyPut performs the file I/O a successful PUT step calls for: opening
// the destination file on the first chunk, appending the body, and closing
// it once the connection reaches Done.
func (c *Connection) applyPut(next fsm.ServerState, in *obex.Packet) {
	if in.Code() != obex.Code(obex.OpPut) {
		return
	}

	if name, ok := obex.NameOf(in); ok {
		size, _ := obex.LengthOf(in)
		path := ResolveDownloadPath(c.dir, name)
		f, err := os.Create(path)
		if err != nil {
			c.events.error(Push(IOError, 0, "create", err))
			return
		}
		c.file = f
		c.bundle = FileBundle{Path: path, Name: filepath.Base(path), Size: size}
		c.written = 0
	}

	if in.Body == nil || c.file == nil {
		return
	}

	if _, err := c.file.Write(in.Body.Data); err != nil {
		c.events.error(Push(IOError, 0, "write", err))
		return
	}
	c.written += uint32(len(in.Body.Data))
	metrics.BytesReceived.Add(float64(len(in.Body.Data)))
	c.events.downloadProgress(c.bundle, c.written)

	if next == fsm.Done {
		err := c.file.Close()
		c.file = nil
		if err != nil {
			c.events.error(Push(IOError, 0, "close", err))
			return
		}
		metrics.TransfersSucceeded.Inc()
		c.events.downloadSuccess(c.bundle)
	}
}

func (c *Connection) wrapConsent() fsm.ConsentFunc {
	return func(name string, size uint32, hostname string) fsm.ConsentDecision {
		c.events.connectRequest(name, size, hostname)
		d := c.consent(name, size, hostname)
		if !d.Accept {
			c.events.refused(name, hostname)
		}
		return d
	}
}

func (c *Connection) dispatch(events []fsm.Event) {
	for _, ev := range events {
		switch ev.Kind {
		case fsm.EventInvalidStateOpcode:
			c.events.error(Push(ProtocolError, int(ev.Opcode), "invalid-state-opcode", nil))
		case fsm.EventCancelled:
			metrics.TransfersCancelled.Inc()
			c.events.cancelled()
		case fsm.EventLengthExceeded:
			metrics.TransfersFailed.Inc()
			c.events.error(Push(ProtocolError, 0, "length-exceeded", nil))
		}
	}
}

func (c *Connection) release() {
	if c.file != nil {
		_ = c.file.Close()
		c.file = nil
	}
	_ = c.sock.Close()
	c.events.closed()
}
