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

package fsm

import "github.com/nathanpc/groundlift-sub000/obex"

// ClientState is the client-side send state (§2.3, §4.4).
type ClientState int

const (
	AwaitingConnectReply ClientState = iota
	Sending
	ClientDone
	ClientRefused
	ClientError
)

func (s ClientState) String() string {
	switch s {
	case AwaitingConnectReply:
		return "AWAITING_CONNECT_REPLY"
	case Sending:
		return "SENDING"
	case ClientDone:
		return "DONE"
	case ClientRefused:
		return "REFUSED"
	case ClientError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the send session has ended.
func (s ClientState) Terminal() bool {
	return s == ClientDone || s == ClientRefused || s == ClientError
}

// StepClientConnectReply advances AwaitingConnectReply on the server's
// first reply: SUCCESS (carrying the negotiated max packet and the
// server's hostname) or UNAUTHORIZED (§4.4 step 3).
func StepClientConnectReply(in *obex.Packet) (ClientState, Event) {
	switch obex.Code(in.Opcode()) {
	case obex.Code(obex.RespSuccess):
		var maxPacket uint16
		if len(in.Params) > 0 {
			maxPacket, _ = in.Params[0].MaxPacket()
		}
		hostname, _ := obex.HostnameOf(in)
		return Sending, Event{Kind: EventConnectAccepted, MaxPacket: maxPacket, Hostname: hostname}
	case obex.Code(obex.RespUnauthorized):
		return ClientRefused, Event{Kind: EventConnectRefused}
	default:
		return ClientError, Event{Kind: EventProtocolError, Opcode: in.Opcode()}
	}
}

// StepClientPutReply advances Sending on the reply to one PUT chunk.
// lastChunkSent tells the step whether the PUT just acknowledged was the
// final one, so a CONTINUE where a SUCCESS was owed (or vice-versa) is
// caught as a protocol error rather than silently accepted (§4.4 step 4).
func StepClientPutReply(in *obex.Packet, lastChunkSent bool) (ClientState, Event) {
	switch obex.Code(in.Opcode()) {
	case obex.Code(obex.RespContinue):
		if lastChunkSent {
			return ClientError, Event{Kind: EventProtocolError, Opcode: in.Opcode()}
		}
		return Sending, Event{Kind: EventUploadProgress}
	case obex.Code(obex.RespSuccess):
		if !lastChunkSent {
			return ClientError, Event{Kind: EventProtocolError, Opcode: in.Opcode()}
		}
		return ClientDone, Event{Kind: EventUploadSuccess}
	default:
		return ClientError, Event{Kind: EventProtocolError, Opcode: in.Opcode()}
	}
}

// ClientCancelled is the transition for a send whose own cancellation
// shutdown unblocked a pending read (§4.4 Cancellation). session.Client
// does not call it; it reports that case directly through OnCancelled.
func ClientCancelled() (ClientState, Event) {
	return ClientError, Event{Kind: EventCancelled}
}
