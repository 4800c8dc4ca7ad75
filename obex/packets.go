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

package obex

// discoverName is the fixed NAME value a discovery GET carries (§4.2, §6.2).
const discoverName = "DISCOVER"

// NewConnect builds the packet that opens a session: the client's preferred
// max packet size, the file's name and length, and its own hostname.
func NewConnect(maxPacket uint16, filename string, fileSize uint32, hostname string) *Packet {
	p := NewPacket(OpConnect)
	p.Params = []Param{NewMaxPacketParam(maxPacket)}
	p.Headers = []Header{
		NewNameHeader(filename),
		NewLengthHeader(fileSize),
		NewHostnameHeader(hostname),
	}
	return p
}

// NewConnectSuccess builds the SUCCESS reply to CONNECT: the negotiated max
// packet size and the server's own hostname.
func NewConnectSuccess(maxPacket uint16, hostname string) *Packet {
	p := NewPacket(RespSuccess | FinalBit)
	p.Params = []Param{NewMaxPacketParam(maxPacket)}
	p.Headers = []Header{NewHostnameHeader(hostname)}
	return p
}

// NewSuccess builds a plain SUCCESS reply (the one sent after the final
// PUT, carrying no parameters).
func NewSuccess() *Packet {
	return NewPacket(RespSuccess | FinalBit)
}

// NewConnectlessSuccess builds the discovery responder's reply: SUCCESS
// carrying only a HOSTNAME header, no max-packet parameter (§4.5, §6.2 —
// discovery's SUCCESS is not a CONNECT reply, so it never negotiates a
// packet size).
func NewConnectlessSuccess(hostname string) *Packet {
	p := NewPacket(RespSuccess | FinalBit)
	p.Headers = []Header{NewHostnameHeader(hostname)}
	return p
}

// NewContinue builds the CONTINUE acknowledgement sent after every non-final
// PUT.
func NewContinue() *Packet {
	return NewPacket(RespContinue | FinalBit)
}

// NewUnauthorized builds the reply to a refused CONNECT.
func NewUnauthorized() *Packet {
	return NewPacket(RespUnauthorized | FinalBit)
}

// NewPut builds one chunk of a file transfer. final marks the last chunk of
// the file (END_OF_BODY instead of BODY, and FinalBit set on the opcode).
// extra carries the NAME/LENGTH headers the first PUT of a session must
// include so the receiver can build its FileBundle (§4.3 RECV_FILES).
func NewPut(chunk []byte, final bool, extra ...Header) *Packet {
	opcode := OpPut
	if final {
		opcode |= FinalBit
	}
	p := NewPacket(opcode)
	p.Headers = append(p.Headers, extra...)
	p.Body = &BodyChunk{Data: chunk, Final: final}
	return p
}

// NewAbort builds an ABORT packet.
func NewAbort() *Packet {
	return NewPacket(OpAbort)
}

// NewDisconnect builds a DISCONNECT packet. GroundLift's session engine
// never sends this on its own (§9 Open Questions: sources rely on the TCP
// close to end a session); it is exposed for front-ends and tests that want
// to exercise the opcode explicitly.
func NewDisconnect() *Packet {
	return NewPacket(OpDisconnect | FinalBit)
}

// NewDiscoverGet builds the single-packet discovery broadcast: GET/Final
// whose NAME header is the literal string "DISCOVER" (§4.2, §6.2).
func NewDiscoverGet() *Packet {
	p := NewPacket(OpGet | FinalBit)
	p.Headers = []Header{NewNameHeader(discoverName)}
	return p
}

// IsDiscoverGet reports whether p is a well-formed discovery request: GET,
// Final, with a NAME header equal to "DISCOVER".
func IsDiscoverGet(p *Packet) bool {
	if Code(p.Opcode()) != Code(OpGet) || !p.Final() {
		return false
	}
	name, ok := NameOf(p)
	return ok && name == discoverName
}
