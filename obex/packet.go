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

// Package obex implements the GroundLift-OBEX wire packet: header and
// parameter encoding, opcode/response constants, and the encode/decode pair
// every higher layer drives. Multi-byte fields are always big-endian.
package obex

// FinalBit marks the last packet of a logical operation. It lives in the
// high bit of every opcode and response code.
const FinalBit byte = 0x80

// Opcodes, exactly as the wire protocol defines them (§6.1). CONNECT,
// DISCONNECT, SETPATH, SESSION and ABORT already carry FinalBit baked in;
// PUT and GET do not, so their builders set it themselves (NewPut on the
// last chunk, NewDiscoverGet always).
const (
	OpConnect    byte = 0x80
	OpDisconnect byte = 0x81
	OpPut        byte = 0x02
	OpGet        byte = 0x03
	OpSetPath    byte = 0x85
	OpAction     byte = 0x06
	OpSession    byte = 0x87
	OpAbort      byte = 0xFF
)

// Response codes.
const (
	RespContinue           byte = 0x10
	RespSuccess            byte = 0x20
	RespBadRequest         byte = 0x40
	RespUnauthorized       byte = 0x41
	RespForbidden          byte = 0x43
	RespMethodNotAllowed   byte = 0x45
	RespConflict           byte = 0x49
	RespInternalError      byte = 0x50
	RespNotImplemented     byte = 0x51
	RespServiceUnavailable byte = 0x53
)

// Code returns the opcode or response code with FinalBit masked off.
func Code(b byte) byte { return b &^ FinalBit }

// IsFinal reports whether FinalBit is set on b.
func IsFinal(b byte) bool { return b&FinalBit != 0 }

// Param is a CONNECT-only typed length-value pair: one identifier byte, one
// length byte, then that many value bytes, big-endian. GroundLift-OBEX uses
// exactly one: the negotiated maximum packet size.
type Param struct {
	ID    byte
	Value []byte
}

// ParamMaxPacket is the two-byte maximum-packet-size parameter carried by
// CONNECT and its SUCCESS reply.
const ParamMaxPacket byte = 0x01

// NewMaxPacketParam builds the CONNECT/SUCCESS max-packet parameter.
func NewMaxPacketParam(size uint16) Param {
	return Param{ID: ParamMaxPacket, Value: []byte{byte(size >> 8), byte(size)}}
}

// MaxPacket reads back a two-byte max-packet parameter value. ok is false if
// p does not hold exactly two bytes.
func (p Param) MaxPacket() (size uint16, ok bool) {
	if len(p.Value) != 2 {
		return 0, false
	}
	return uint16(p.Value[0])<<8 | uint16(p.Value[1]), true
}

// BodyChunk is the packet's optional trailing blob. Final distinguishes a
// BODY header (more chunks follow) from an END_OF_BODY header (last chunk,
// possibly empty).
type BodyChunk struct {
	Data  []byte
	Final bool
}

// Packet is a single GroundLift-OBEX protocol data unit: opcode, recomputed
// size, optional parameters (CONNECT family only), ordered headers, and an
// optional body. Packet exclusively owns its Headers slice and Body buffer.
type Packet struct {
	opcode  byte
	Params  []Param
	Headers []Header
	Body    *BodyChunk
}

// NewPacket builds a packet with the given raw opcode (FinalBit included).
func NewPacket(opcode byte) *Packet {
	return &Packet{opcode: opcode}
}

// Opcode returns the full opcode byte, FinalBit included.
func (p *Packet) Opcode() byte { return p.opcode }

// Code returns the opcode with FinalBit masked off.
func (p *Packet) Code() byte { return Code(p.opcode) }

// Final reports whether this packet's FinalBit is set.
func (p *Packet) Final() bool { return IsFinal(p.opcode) }

// Header looks up the first header with the given identifier.
func (p *Packet) Header(id HeaderID) (Header, bool) {
	for _, h := range p.Headers {
		if h.ID == id {
			return h, true
		}
	}
	return Header{}, false
}
