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

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"
)

// DecodeOptions tells Decode which opcodes are legal here and whether a
// CONNECT-family params section precedes the headers. Only CONNECT and its
// SUCCESS reply ever carry params (§4.1 step 3); every other caller passes
// WithParams: false.
type DecodeOptions struct {
	Expected   []byte
	WithParams bool
}

// Encode serializes p, recomputing its size field (§4.1 steps 1-5).
func Encode(p *Packet) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(p.opcode)
	buf.Write([]byte{0, 0}) // size placeholder, patched below

	for _, prm := range p.Params {
		if len(prm.Value) > 0xFF {
			return nil, fmt.Errorf("obex: param %#x value too long (%d bytes)", prm.ID, len(prm.Value))
		}
		buf.WriteByte(prm.ID)
		buf.WriteByte(byte(len(prm.Value)))
		buf.Write(prm.Value)
	}

	for _, h := range p.Headers {
		if h.ID == HeaderBody || h.ID == HeaderEndOfBody {
			return nil, fmt.Errorf("obex: body must be set via Packet.Body, not Headers")
		}
		if err := encodeHeader(&buf, h); err != nil {
			return nil, err
		}
	}

	if p.Body != nil {
		encodeBody(&buf, p.Body)
	}

	out := buf.Bytes()
	if len(out) > MaxPacketSize {
		return nil, ErrPacketTooLarge
	}
	binary.BigEndian.PutUint16(out[1:3], uint16(len(out)))
	return out, nil
}

func encodeHeader(buf *bytes.Buffer, h Header) error {
	switch h.Value.Encoding() {
	case EncodingWString:
		s, _ := h.Value.WString()
		payload := utf16BEEncode(s)
		return writeLengthPrefixed(buf, h.ID, payload)
	case EncodingString:
		s, _ := h.Value.String()
		payload := append([]byte(s), 0)
		return writeLengthPrefixed(buf, h.ID, payload)
	case EncodingByte:
		b, _ := h.Value.Byte()
		buf.WriteByte(byte(h.ID))
		buf.WriteByte(b)
		return nil
	case EncodingWord:
		w, _ := h.Value.Word()
		buf.WriteByte(byte(h.ID))
		var wb [4]byte
		binary.BigEndian.PutUint32(wb[:], w)
		buf.Write(wb[:])
		return nil
	default:
		return fmt.Errorf("obex: header %#x has no recognized encoding", byte(h.ID))
	}
}

func encodeBody(buf *bytes.Buffer, b *BodyChunk) {
	id := HeaderBody
	if b.Final {
		id = HeaderEndOfBody
	}
	_ = writeLengthPrefixed(buf, id, b.Data)
}

// writeLengthPrefixed writes identifier + 16-bit total-on-wire-size + payload,
// the shared framing for the 8-bit-string, wstring, and raw-body variants.
func writeLengthPrefixed(buf *bytes.Buffer, id HeaderID, payload []byte) error {
	total := 1 + 2 + len(payload)
	if total > MaxPacketSize {
		return ErrPacketTooLarge
	}
	buf.WriteByte(byte(id))
	var lb [2]byte
	binary.BigEndian.PutUint16(lb[:], uint16(total))
	buf.Write(lb[:])
	buf.Write(payload)
	return nil
}

// Decode parses a complete, already-length-delimited packet (exactly as
// many bytes as its own size field claims). Use ReadPacket to pull one off
// a stream first.
func Decode(data []byte, opts DecodeOptions) (*Packet, error) {
	if len(data) < 3 {
		return nil, ErrShortRead
	}
	opcode := data[0]
	size := binary.BigEndian.Uint16(data[1:3])
	if int(size) != len(data) {
		return nil, ErrInvalidLength
	}

	if len(opts.Expected) > 0 {
		code := Code(opcode)
		allowed := false
		for _, e := range opts.Expected {
			if Code(e) == code {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %#x", ErrUnexpectedOpcode, opcode)
		}
	}

	p := NewPacket(opcode)
	off := 3

	if opts.WithParams && off < len(data) {
		if off+2 > len(data) {
			return nil, ErrShortRead
		}
		id := data[off]
		l := int(data[off+1])
		off += 2
		if off+l > len(data) {
			return nil, ErrShortRead
		}
		p.Params = append(p.Params, Param{ID: id, Value: append([]byte(nil), data[off:off+l]...)})
		off += l
	}

	for off < len(data) {
		h, body, consumed, err := decodeHeader(data[off:])
		if err != nil {
			return nil, err
		}
		off += consumed
		switch {
		case body != nil:
			if p.Body != nil {
				return nil, fmt.Errorf("%w: multiple body headers", ErrMalformed)
			}
			p.Body = body
		default:
			p.Headers = append(p.Headers, h)
		}
	}

	return p, nil
}

func decodeHeader(buf []byte) (h Header, body *BodyChunk, consumed int, err error) {
	if len(buf) < 1 {
		return Header{}, nil, 0, ErrShortRead
	}
	id := HeaderID(buf[0])

	switch id.Encoding() {
	case EncodingWString:
		total, payload, err := readLengthPrefixed(buf)
		if err != nil {
			return Header{}, nil, 0, err
		}
		return mustHeader(id, WStringValue(utf16BEDecode(payload))), nil, total, nil

	case EncodingString:
		total, payload, err := readLengthPrefixed(buf)
		if err != nil {
			return Header{}, nil, 0, err
		}
		if id == HeaderBody || id == HeaderEndOfBody {
			return Header{}, &BodyChunk{Data: append([]byte(nil), payload...), Final: id == HeaderEndOfBody}, total, nil
		}
		return mustHeader(id, StringValue(strings.TrimSuffix(string(payload), "\x00"))), nil, total, nil

	case EncodingByte:
		if len(buf) < 2 {
			return Header{}, nil, 0, ErrShortRead
		}
		return mustHeader(id, ByteValue(buf[1])), nil, 2, nil

	case EncodingWord:
		if len(buf) < 5 {
			return Header{}, nil, 0, ErrShortRead
		}
		return mustHeader(id, WordValue(binary.BigEndian.Uint32(buf[1:5]))), nil, 5, nil

	default:
		return Header{}, nil, 0, ErrMalformed
	}
}

func readLengthPrefixed(buf []byte) (total int, payload []byte, err error) {
	if len(buf) < 3 {
		return 0, nil, ErrShortRead
	}
	total = int(binary.BigEndian.Uint16(buf[1:3]))
	if total < 3 || total > len(buf) {
		return 0, nil, ErrInvalidLength
	}
	return total, buf[3:total], nil
}

func utf16BEEncode(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, (len(units)+1)*2)
	for _, u := range units {
		out = append(out, byte(u>>8), byte(u))
	}
	return append(out, 0, 0)
}

func utf16BEDecode(b []byte) string {
	if len(b) >= 2 && b[len(b)-2] == 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-2]
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
	return string(utf16.Decode(units))
}

// ReadPacket reads exactly one packet from r: opcode + size header, then
// the rest of the packet as named by size. A close before any byte arrives
// surfaces as io.EOF; a close mid-packet surfaces as io.ErrUnexpectedEOF —
// the session driver tells "graceful close" from "corrupt partial packet"
// by this distinction.
func ReadPacket(r io.Reader, opts DecodeOptions) (*Packet, error) {
	var hdr [3]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint16(hdr[1:3])
	if size < 3 {
		return nil, ErrInvalidLength
	}
	full := make([]byte, size)
	copy(full, hdr[:])
	if size > 3 {
		if _, err := io.ReadFull(r, full[3:]); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
	return Decode(full, opts)
}

// WritePacket encodes and writes p in one call.
func WritePacket(w io.Writer, p *Packet) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
