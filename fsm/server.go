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

// Package fsm holds the server and client connection state machines as pure
// functions: (state, incoming packet) -> (new state, outgoing packets,
// events). All file and socket I/O lives in the session package's drivers,
// which makes these functions directly table-driven-testable and fuzzable
// (§8.4, §9).
package fsm

import "github.com/nathanpc/groundlift-sub000/obex"

// ServerState is the server-side connection state (§3.7). Done is not
// listed in §3.7's enumeration but is required by §2's overview, which
// describes the transition target as CREATED -> RECV_FILES -> {DONE,
// ERROR}; this implementation keeps both terminal outcomes distinct (see
// DESIGN.md) rather than folding a successful completion into Cancelled.
type ServerState int

const (
	Created ServerState = iota
	RecvFiles
	Done
	Cancelled
	Error
)

func (s ServerState) String() string {
	switch s {
	case Created:
		return "CREATED"
	case RecvFiles:
		return "RECV_FILES"
	case Done:
		return "DONE"
	case Cancelled:
		return "CANCELLED"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further packets are legal in this state; the
// driver's loop exits once it observes one.
func (s ServerState) Terminal() bool {
	return s == Done || s == Cancelled || s == Error
}

// ConsentDecision is the registered consent callback's verdict on an
// incoming CONNECT, plus the server's own advertised capacity so the FSM
// can negotiate the max packet size (§4.3: "min of the server's advertised
// capacity and the client's proposed parameter").
type ConsentDecision struct {
	Accept          bool
	ServerMaxPacket uint16
	Hostname        string
}

// ConsentFunc decides whether to accept an incoming CONNECT. It must be
// non-blocking and side-effect-free from the FSM's point of view — exactly
// the "non-blocking and short" callback contract in §5 — so that StepServer
// stays a deterministic function of its three inputs.
type ConsentFunc func(name string, size uint32, hostname string) ConsentDecision

// StepServer advances the server connection FSM by one incoming packet.
// Terminal states accept no further input and are returned unchanged.
func StepServer(state ServerState, in *obex.Packet, decide ConsentFunc) (ServerState, []*obex.Packet, []Event) {
	if state.Terminal() {
		return state, nil, nil
	}

	switch state {
	case Created:
		return stepCreated(in, decide)
	case RecvFiles:
		return stepRecvFiles(in)
	default:
		return state, nil, nil
	}
}

func stepCreated(in *obex.Packet, decide ConsentFunc) (ServerState, []*obex.Packet, []Event) {
	if obex.Code(in.Opcode()) != obex.Code(obex.OpConnect) {
		return Created, nil, []Event{{Kind: EventInvalidStateOpcode, Opcode: in.Opcode()}}
	}

	name, _ := obex.NameOf(in)
	size, _ := obex.LengthOf(in)
	hostname, _ := obex.HostnameOf(in)
	var clientMax uint16
	if len(in.Params) > 0 {
		clientMax, _ = in.Params[0].MaxPacket()
	}

	d := decide(name, size, hostname)
	if !d.Accept {
		return Cancelled, []*obex.Packet{obex.NewUnauthorized()}, []Event{
			{Kind: EventConnectRefused, Name: name, Size: size, Hostname: hostname},
		}
	}

	negotiated := d.ServerMaxPacket
	if clientMax != 0 && clientMax < negotiated {
		negotiated = clientMax
	}

	return RecvFiles, []*obex.Packet{obex.NewConnectSuccess(negotiated, d.Hostname)}, []Event{
		{Kind: EventConnectAccepted, Name: name, Size: size, Hostname: hostname, MaxPacket: negotiated},
	}
}

func stepRecvFiles(in *obex.Packet) (ServerState, []*obex.Packet, []Event) {
	if obex.Code(in.Opcode()) != obex.Code(obex.OpPut) {
		return RecvFiles, nil, []Event{{Kind: EventInvalidStateOpcode, Opcode: in.Opcode()}}
	}

	var events []Event
	if name, ok := obex.NameOf(in); ok {
		size, _ := obex.LengthOf(in)
		events = append(events, Event{Kind: EventFirstChunk, Name: name, Size: size})
	}

	var chunk []byte
	if in.Body != nil {
		chunk = in.Body.Data
	}
	events = append(events, Event{Kind: EventChunkReceived, Chunk: chunk, Final: in.Final()})

	if in.Final() {
		events = append(events, Event{Kind: EventDownloadSuccess})
		return Done, []*obex.Packet{obex.NewSuccess()}, events
	}
	return RecvFiles, []*obex.Packet{obex.NewContinue()}, events
}

// Abort forces the connection into Error, the transition the driver takes
// when received bytes exceed the declared file length (§4.3) — a byte-
// accounting decision the driver makes, not the FSM, since the FSM never
// observes cumulative transfer size across packets.
func Abort() (ServerState, []*obex.Packet, []Event) {
	return Error, nil, []Event{{Kind: EventLengthExceeded}}
}

// Disconnect forces the connection into Cancelled, the transition the
// driver takes when the peer closes the TCP connection before sending a
// Final PUT (§4.3: "connection closed before Final: treat as CANCELLED").
func Disconnect() (ServerState, []*obex.Packet, []Event) {
	return Cancelled, nil, []Event{{Kind: EventCancelled}}
}
