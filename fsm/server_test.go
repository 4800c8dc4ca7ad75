package fsm

import (
	"testing"

	"github.com/nathanpc/groundlift-sub000/obex"
)

func acceptAll(name string, size uint32, hostname string) ConsentDecision {
	return ConsentDecision{Accept: true, ServerMaxPacket: 4096, Hostname: "receiver"}
}

func refuseAll(name string, size uint32, hostname string) ConsentDecision {
	return ConsentDecision{Accept: false}
}

func TestCreatedOnlyAcceptsConnect(t *testing.T) {
	put := obex.NewPut([]byte("x"), true)
	state, out, events := StepServer(Created, put, acceptAll)
	if state != Created {
		t.Fatalf("expected state to remain Created on a rogue PUT, got %v", state)
	}
	if len(out) != 0 {
		t.Fatalf("expected no outgoing packets, got %d", len(out))
	}
	if len(events) != 1 || events[0].Kind != EventInvalidStateOpcode {
		t.Fatalf("expected a single InvalidStateOpcode event, got %+v", events)
	}
}

func TestConnectAcceptedNegotiatesMinMaxPacket(t *testing.T) {
	connect := obex.NewConnect(2048, "a.bin", 100, "sender")
	state, out, events := StepServer(Created, connect, acceptAll)
	if state != RecvFiles {
		t.Fatalf("expected RecvFiles after an accepted CONNECT, got %v", state)
	}
	if len(out) != 1 {
		t.Fatalf("expected one outgoing SUCCESS packet, got %d", len(out))
	}
	mp, ok := out[0].Params[0].MaxPacket()
	if !ok || mp != 2048 {
		t.Fatalf("expected negotiated max packet 2048 (client's lower proposal), got %d", mp)
	}
	if len(events) != 1 || events[0].Kind != EventConnectAccepted || events[0].MaxPacket != 2048 {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestConnectRefused(t *testing.T) {
	connect := obex.NewConnect(2048, "a.bin", 100, "sender")
	state, out, events := StepServer(Created, connect, refuseAll)
	if state != Cancelled {
		t.Fatalf("expected Cancelled after a refused CONNECT, got %v", state)
	}
	if len(out) != 1 || obex.Code(out[0].Opcode()) != obex.Code(obex.RespUnauthorized) {
		t.Fatalf("expected one UNAUTHORIZED packet, got %+v", out)
	}
	if len(events) != 1 || events[0].Kind != EventConnectRefused {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestRecvFilesOnlyAcceptsPut(t *testing.T) {
	connect := obex.NewPacket(obex.OpConnect)
	state, out, events := StepServer(RecvFiles, connect, acceptAll)
	if state != RecvFiles {
		t.Fatalf("expected state to remain RecvFiles on a rogue CONNECT, got %v", state)
	}
	if len(out) != 0 {
		t.Fatalf("expected no outgoing packets on a rejected opcode, got %d", len(out))
	}
	if len(events) != 1 || events[0].Kind != EventInvalidStateOpcode {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestRecvFilesIntermediatePutRepliesContinue(t *testing.T) {
	put := obex.NewPut([]byte("chunk"), false, obex.NewNameHeader("a.bin"), obex.NewLengthHeader(100))
	state, out, events := StepServer(RecvFiles, put, acceptAll)
	if state != RecvFiles {
		t.Fatalf("expected state to remain RecvFiles for a non-final PUT, got %v", state)
	}
	if len(out) != 1 || obex.Code(out[0].Opcode()) != obex.Code(obex.RespContinue) {
		t.Fatalf("expected CONTINUE, got %+v", out)
	}
	if len(events) != 2 || events[0].Kind != EventFirstChunk || events[1].Kind != EventChunkReceived {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestRecvFilesFinalPutRepliesSuccessAndReachesDone(t *testing.T) {
	put := obex.NewPut([]byte("chunk"), true)
	state, out, events := StepServer(RecvFiles, put, acceptAll)
	if state != Done {
		t.Fatalf("expected Done after the final PUT, got %v", state)
	}
	if len(out) != 1 || obex.Code(out[0].Opcode()) != obex.Code(obex.RespSuccess) {
		t.Fatalf("expected SUCCESS, got %+v", out)
	}
	if len(events) != 2 || events[1].Kind != EventDownloadSuccess {
		t.Fatalf("unexpected events: %+v", events)
	}
}

// TestNoSequenceSkipsCreatedWithoutConnect is the FSM-safety property from
// §8.4: no sequence of inputs advances past RecvFiles without an
// intervening CONNECT, and no PUT is accepted while Created.
func TestNoSequenceSkipsCreatedWithoutConnect(t *testing.T) {
	opcodes := []byte{obex.OpPut, obex.OpGet, obex.OpAbort, obex.OpDisconnect, obex.OpAction, obex.OpSetPath, obex.OpSession}
	for _, op := range opcodes {
		pkt := obex.NewPacket(op | obex.FinalBit)
		state, out, events := StepServer(Created, pkt, acceptAll)
		if state != Created {
			t.Fatalf("opcode %#x advanced Created -> %v; must require CONNECT first", op, state)
		}
		if len(out) != 0 {
			t.Fatalf("opcode %#x produced outgoing packets from Created", op)
		}
		if len(events) != 1 || events[0].Kind != EventInvalidStateOpcode {
			t.Fatalf("opcode %#x did not produce an InvalidStateOpcode event: %+v", op, events)
		}
	}
}

func TestTerminalStatesIgnoreFurtherInput(t *testing.T) {
	for _, s := range []ServerState{Done, Cancelled, Error} {
		next, out, events := StepServer(s, obex.NewPut(nil, true), acceptAll)
		if next != s {
			t.Fatalf("terminal state %v must not transition, got %v", s, next)
		}
		if out != nil || events != nil {
			t.Fatalf("terminal state %v must produce no output, got out=%v events=%v", s, out, events)
		}
	}
}

func TestAbortAndDisconnectHelpers(t *testing.T) {
	if s, out, events := Abort(); s != Error || out != nil || len(events) != 1 || events[0].Kind != EventLengthExceeded {
		t.Fatalf("Abort() = %v, %v, %+v; want Error/nil/[LengthExceeded]", s, out, events)
	}
	if s, out, events := Disconnect(); s != Cancelled || out != nil || len(events) != 1 || events[0].Kind != EventCancelled {
		t.Fatalf("Disconnect() = %v, %v, %+v; want Cancelled/nil/[Cancelled]", s, out, events)
	}
}
