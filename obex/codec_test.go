package obex

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

func TestRoundTripConnect(t *testing.T) {
	p := NewConnect(4096, "hello.txt", 13, "workstation")
	data, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if got := binary.BigEndian.Uint16(data[1:3]); int(got) != len(data) {
		t.Fatalf("size field %d does not match encoded length %d", got, len(data))
	}

	got, err := Decode(data, DecodeOptions{Expected: []byte{OpConnect}, WithParams: true})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	name, ok := NameOf(got)
	if !ok || name != "hello.txt" {
		t.Fatalf("NAME header round-trip failed: %q, ok=%v", name, ok)
	}
	length, ok := LengthOf(got)
	if !ok || length != 13 {
		t.Fatalf("LENGTH header round-trip failed: %d, ok=%v", length, ok)
	}
	host, ok := HostnameOf(got)
	if !ok || host != "workstation" {
		t.Fatalf("HOSTNAME header round-trip failed: %q, ok=%v", host, ok)
	}
	mp, ok := got.Params[0].MaxPacket()
	if !ok || mp != 4096 {
		t.Fatalf("max-packet param round-trip failed: %d, ok=%v", mp, ok)
	}
	if got.Code() != Code(OpConnect) || !got.Final() {
		t.Fatalf("opcode/final round-trip failed: %#x final=%v", got.Opcode(), got.Final())
	}
}

func TestRoundTripPutChunks(t *testing.T) {
	cases := []struct {
		name  string
		final bool
	}{
		{"non-final chunk", false},
		{"final chunk", true},
		{"empty final chunk", true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			body := []byte("payload bytes")
			if c.name == "empty final chunk" {
				body = nil
			}
			p := NewPut(body, c.final)
			data, err := Encode(p)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := Decode(data, DecodeOptions{Expected: []byte{OpPut}})
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got.Final() != c.final {
				t.Fatalf("final bit mismatch: want %v got %v", c.final, got.Final())
			}
			if got.Body == nil {
				t.Fatalf("expected a body chunk")
			}
			if !bytes.Equal(got.Body.Data, body) {
				t.Fatalf("body mismatch: want %q got %q", body, got.Body.Data)
			}
			if got.Body.Final != c.final {
				t.Fatalf("body.Final mismatch: want %v got %v", c.final, got.Body.Final)
			}
		})
	}
}

func TestEndiannessOfSizeField(t *testing.T) {
	p := NewContinue()
	data, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// size is 3 (opcode + 2-byte size, no headers): big-endian 0x0003.
	if data[1] != 0x00 || data[2] != 0x03 {
		t.Fatalf("size field not big-endian: %x %x", data[1], data[2])
	}
}

func TestEndiannessOfWordHeader(t *testing.T) {
	h := NewLengthHeader(0x01020304)
	var buf bytes.Buffer
	if err := encodeHeader(&buf, h); err != nil {
		t.Fatalf("encodeHeader: %v", err)
	}
	want := []byte{byte(HeaderLength), 0x01, 0x02, 0x03, 0x04}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("word header not big-endian: got % x want % x", buf.Bytes(), want)
	}
}

func TestDecodeRejectsUnexpectedOpcode(t *testing.T) {
	p := NewPut(nil, true)
	data, _ := Encode(p)
	if _, err := Decode(data, DecodeOptions{Expected: []byte{OpConnect}}); err == nil {
		t.Fatalf("expected decode to reject PUT when only CONNECT is expected")
	}
}

func TestDecodeRejectsShortLengthClaim(t *testing.T) {
	// Fuzz scenario S6: declared size shorter than bytes actually present.
	p := NewConnect(4096, "hello.txt", 13, "host")
	data, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	binary.BigEndian.PutUint16(data[1:3], uint16(len(data)-4))
	if _, err := Decode(data, DecodeOptions{Expected: []byte{OpConnect}, WithParams: true}); err == nil {
		t.Fatalf("expected decode to reject a too-short size field")
	}
}

func TestReadPacketDistinguishesCloseFromMidPacketClose(t *testing.T) {
	if _, err := ReadPacket(bytes.NewReader(nil), DecodeOptions{}); err != io.EOF {
		t.Fatalf("expected io.EOF on immediate close, got %v", err)
	}

	p := NewPut([]byte("0123456789"), false)
	data, _ := Encode(p)
	truncated := data[:len(data)-3]
	if _, err := ReadPacket(bytes.NewReader(truncated), DecodeOptions{}); err != io.ErrUnexpectedEOF {
		t.Fatalf("expected io.ErrUnexpectedEOF on truncated packet, got %v", err)
	}
}

func TestDiscoverGetRoundTrip(t *testing.T) {
	p := NewDiscoverGet()
	data, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data, DecodeOptions{Expected: []byte{OpGet}})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !IsDiscoverGet(got) {
		t.Fatalf("expected round-tripped packet to be recognized as a discovery GET")
	}
}

func TestHeaderConstructorRejectsEncodingMismatch(t *testing.T) {
	if _, err := NewHeader(HeaderLength, StringValue("not a word")); err == nil {
		t.Fatalf("expected NewHeader to reject an encoding mismatch")
	}
}
