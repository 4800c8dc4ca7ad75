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

import "fmt"

// Encoding is the two-bit value-kind tag carried in a header identifier's
// top bits.
type Encoding byte

const (
	// EncodingWString is a UTF-16BE string, zero-code-unit terminated.
	EncodingWString Encoding = 0x00
	// EncodingString is an 8-bit string, NUL terminated.
	EncodingString Encoding = 0x40
	// EncodingByte is a single byte.
	EncodingByte Encoding = 0x80
	// EncodingWord is a 32-bit big-endian word.
	EncodingWord Encoding = 0xC0
)

const (
	encodingMask = 0xC0
	meaningMask  = 0x3F
)

// HeaderID is the one-byte on-wire header identifier: its top two bits pick
// the value encoding, its bottom six bits name the semantic field.
type HeaderID byte

// Encoding extracts the value-kind tag from a header identifier.
func (id HeaderID) Encoding() Encoding { return Encoding(byte(id) & encodingMask) }

// Meaning extracts the semantic-field bits from a header identifier.
func (id HeaderID) Meaning() byte { return byte(id) & meaningMask }

// Standard header identifiers (§3.3, §6.1). Body and EndOfBody are never
// placed in Packet.Headers directly; they are the synthetic headers the
// codec emits from Packet.Body, and are listed here so decode can recognize
// them on the wire.
const (
	HeaderName         HeaderID = 0x01 // wstring: file name
	HeaderType         HeaderID = 0x42 // string: MIME-ish type tag
	HeaderBody         HeaderID = 0x48 // raw bytes: non-final chunk
	HeaderEndOfBody    HeaderID = 0x49 // raw bytes: final chunk
	HeaderConnectionID HeaderID = 0xCB // word
	HeaderLength       HeaderID = 0xC3 // word: file size
	// HeaderHostname is a GroundLift extension (not part of classic OBEX):
	// the byte-string hostname advertised by CONNECT and discovery SUCCESS.
	HeaderHostname HeaderID = 0x70
)

// HeaderValue is a tagged union of the four on-wire value encodings. The
// encoding bits of a Header's identifier are a projection of which field is
// populated here, never a separately-settable flag, so "identifier encoding
// disagrees with stored value" is unrepresentable.
type HeaderValue struct {
	encoding Encoding
	wstring  string
	str      string
	byteVal  byte
	word     uint32
}

// WStringValue builds a UTF-16BE header value.
func WStringValue(s string) HeaderValue { return HeaderValue{encoding: EncodingWString, wstring: s} }

// StringValue builds a NUL-terminated 8-bit string header value.
func StringValue(s string) HeaderValue { return HeaderValue{encoding: EncodingString, str: s} }

// ByteValue builds a single-byte header value.
func ByteValue(b byte) HeaderValue { return HeaderValue{encoding: EncodingByte, byteVal: b} }

// WordValue builds a 32-bit header value.
func WordValue(w uint32) HeaderValue { return HeaderValue{encoding: EncodingWord, word: w} }

// Encoding reports which variant is populated.
func (v HeaderValue) Encoding() Encoding { return v.encoding }

// WString returns the UTF-16BE string and true if v holds that variant.
func (v HeaderValue) WString() (string, bool) {
	return v.wstring, v.encoding == EncodingWString
}

// String returns the 8-bit string and true if v holds that variant.
func (v HeaderValue) String() (string, bool) {
	return v.str, v.encoding == EncodingString
}

// Byte returns the byte and true if v holds that variant.
func (v HeaderValue) Byte() (byte, bool) {
	return v.byteVal, v.encoding == EncodingByte
}

// Word returns the word and true if v holds that variant.
func (v HeaderValue) Word() (uint32, bool) {
	return v.word, v.encoding == EncodingWord
}

// Header is an on-wire {identifier, value} pair.
type Header struct {
	ID    HeaderID
	Value HeaderValue
}

// NewHeader builds a Header, rejecting an identifier/value encoding
// mismatch so the invariant in §3.3 can never be violated at construction
// time.
func NewHeader(id HeaderID, v HeaderValue) (Header, error) {
	if id.Encoding() != v.Encoding() {
		return Header{}, fmt.Errorf("obex: header %#x wants encoding %#x, got value encoding %#x", byte(id), id.Encoding(), v.Encoding())
	}
	return Header{ID: id, Value: v}, nil
}

// mustHeader is NewHeader for the package's own standard constructors, which
// always pass a matching id/value pair; a mismatch here is a programmer
// error in this file, not caller input.
func mustHeader(id HeaderID, v HeaderValue) Header {
	h, err := NewHeader(id, v)
	if err != nil {
		panic(err)
	}
	return h
}

// NewNameHeader builds the NAME header (UTF-16BE file name).
func NewNameHeader(name string) Header { return mustHeader(HeaderName, WStringValue(name)) }

// NewLengthHeader builds the LENGTH header (file size, truncated to 32 bits;
// GroundLift-OBEX's word encoding has no wider field).
func NewLengthHeader(size uint32) Header { return mustHeader(HeaderLength, WordValue(size)) }

// NewTypeHeader builds the TYPE header.
func NewTypeHeader(typ string) Header { return mustHeader(HeaderType, StringValue(typ)) }

// NewConnectionIDHeader builds the CONNECTION-ID header.
func NewConnectionIDHeader(id uint32) Header {
	return mustHeader(HeaderConnectionID, WordValue(id))
}

// NewHostnameHeader builds the GroundLift HOSTNAME extension header.
func NewHostnameHeader(hostname string) Header {
	return mustHeader(HeaderHostname, StringValue(hostname))
}

// NameOf extracts a NAME header's string, decoding its UTF-16BE value.
func NameOf(p *Packet) (string, bool) {
	h, ok := p.Header(HeaderName)
	if !ok {
		return "", false
	}
	return h.Value.WString()
}

// LengthOf extracts a LENGTH header's value.
func LengthOf(p *Packet) (uint32, bool) {
	h, ok := p.Header(HeaderLength)
	if !ok {
		return 0, false
	}
	return h.Value.Word()
}

// HostnameOf extracts a HOSTNAME header's value.
func HostnameOf(p *Packet) (string, bool) {
	h, ok := p.Header(HeaderHostname)
	if !ok {
		return "", false
	}
	return h.Value.String()
}
