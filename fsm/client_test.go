package fsm

import (
	"testing"

	"github.com/nathanpc/groundlift-sub000/obex"
)

func TestStepClientConnectReplySuccess(t *testing.T) {
	reply := obex.NewConnectSuccess(4096, "receiver")
	state, ev := StepClientConnectReply(reply)
	if state != Sending {
		t.Fatalf("expected Sending, got %v", state)
	}
	if ev.Kind != EventConnectAccepted || ev.MaxPacket != 4096 || ev.Hostname != "receiver" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestStepClientConnectReplyUnauthorized(t *testing.T) {
	state, ev := StepClientConnectReply(obex.NewUnauthorized())
	if state != ClientRefused {
		t.Fatalf("expected ClientRefused, got %v", state)
	}
	if ev.Kind != EventConnectRefused {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestStepClientConnectReplyGarbage(t *testing.T) {
	state, ev := StepClientConnectReply(obex.NewPacket(obex.RespInternalError | obex.FinalBit))
	if state != ClientError {
		t.Fatalf("expected ClientError, got %v", state)
	}
	if ev.Kind != EventProtocolError {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestStepClientPutReplySequence(t *testing.T) {
	state, ev := StepClientPutReply(obex.NewContinue(), false)
	if state != Sending || ev.Kind != EventUploadProgress {
		t.Fatalf("unexpected intermediate ack handling: %v %+v", state, ev)
	}

	state, ev = StepClientPutReply(obex.NewSuccess(), true)
	if state != ClientDone || ev.Kind != EventUploadSuccess {
		t.Fatalf("unexpected final ack handling: %v %+v", state, ev)
	}
}

func TestStepClientPutReplyMismatchedFinality(t *testing.T) {
	if state, _ := StepClientPutReply(obex.NewContinue(), true); state != ClientError {
		t.Fatalf("expected ClientError when CONTINUE answers the final PUT, got %v", state)
	}
	if state, _ := StepClientPutReply(obex.NewSuccess(), false); state != ClientError {
		t.Fatalf("expected ClientError when SUCCESS answers a non-final PUT, got %v", state)
	}
}
