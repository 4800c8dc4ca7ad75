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

// EventKind names the observation a StepServer/StepClient call produced.
// The session driver turns these into the user-facing callbacks of §2.6.
type EventKind int

const (
	EventInvalidStateOpcode EventKind = iota
	EventConnectAccepted
	EventConnectRefused
	EventFirstChunk
	EventChunkReceived
	EventDownloadSuccess
	EventLengthExceeded
	EventCancelled
	EventProtocolError
	EventUploadProgress
	EventUploadSuccess
)

func (k EventKind) String() string {
	switch k {
	case EventInvalidStateOpcode:
		return "invalid-state-opcode"
	case EventConnectAccepted:
		return "connect-accepted"
	case EventConnectRefused:
		return "connect-refused"
	case EventFirstChunk:
		return "first-chunk"
	case EventChunkReceived:
		return "chunk-received"
	case EventDownloadSuccess:
		return "download-success"
	case EventLengthExceeded:
		return "length-exceeded"
	case EventCancelled:
		return "cancelled"
	case EventProtocolError:
		return "protocol-error"
	case EventUploadProgress:
		return "upload-progress"
	case EventUploadSuccess:
		return "upload-success"
	default:
		return "unknown"
	}
}

// Event is a single FSM observation. Not every field is populated for every
// Kind; see the stepXxx functions for which fields a given Kind carries.
type Event struct {
	Kind      EventKind
	Name      string
	Size      uint32
	Hostname  string
	Chunk     []byte
	Final     bool
	MaxPacket uint16
	Opcode    byte
}
