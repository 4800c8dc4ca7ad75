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

import "errors"

// Sentinel decode errors (§4.1, §7 PACKET_RECV). Callers distinguish these
// from a clean or mid-stream connection close, which surface as io.EOF /
// io.ErrUnexpectedEOF from ReadPacket instead of one of these.
var (
	ErrShortRead        = errors.New("obex: short read")
	ErrInvalidLength    = errors.New("obex: invalid length field")
	ErrUnexpectedOpcode = errors.New("obex: opcode not permitted here")
	ErrMalformed        = errors.New("obex: malformed packet")
	ErrPacketTooLarge   = errors.New("obex: encoded packet exceeds 16-bit size field")
)

// MaxPacketSize is the largest packet the 16-bit size field can describe.
const MaxPacketSize = 0xFFFF
