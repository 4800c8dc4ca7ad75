package session

import (
	"bytes"
	"context"
	"crypto/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nathanpc/groundlift-sub000/fsm"
)

func acceptAllConsent(name string, size uint32, hostname string) fsm.ConsentDecision {
	return fsm.ConsentDecision{Accept: true, ServerMaxPacket: 4096, Hostname: "receiver"}
}

func refuseConsent(name string, size uint32, hostname string) fsm.ConsentDecision {
	return fsm.ConsentDecision{Accept: false}
}

func startTestServer(t *testing.T, downloadsDir string, consent fsm.ConsentFunc, events *EventTable) *Server {
	t.Helper()
	srv := NewServer(ServerConfig{
		ListenAddr:   "127.0.0.1:0",
		DownloadsDir: downloadsDir,
		Hostname:     "receiver",
		MaxPacket:    4096,
		Consent:      consent,
	}, events)
	if err := srv.Setup(); err != nil {
		t.Fatalf("server setup: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Stop)
	return srv
}

// TestEndToEndTransferChunkingEquivalence is the §8.5 property: for every
// file and every negotiated max-packet size, a send/receive cycle produces
// a byte-for-byte copy regardless of how the file is split into chunks.
func TestEndToEndTransferChunkingEquivalence(t *testing.T) {
	for _, maxPkt := range []uint16{64, 256, 4096} {
		maxPkt := maxPkt
		t.Run("", func(t *testing.T) {
			downloadsDir := t.TempDir()

			var mu sync.Mutex
			var successBundle FileBundle
			done := make(chan struct{})
			serverEvents := &EventTable{
				OnDownloadSuccess: func(b FileBundle) {
					mu.Lock()
					successBundle = b
					mu.Unlock()
					close(done)
				},
			}

			srv := startTestServer(t, downloadsDir, acceptAllConsent, serverEvents)

			srcDir := t.TempDir()
			srcPath := filepath.Join(srcDir, "payload.bin")
			payload := make([]byte, 10000)
			if _, err := rand.Read(payload); err != nil {
				t.Fatalf("rand: %v", err)
			}
			if err := os.WriteFile(srcPath, payload, 0o644); err != nil {
				t.Fatalf("write payload: %v", err)
			}

			bundle, err := NewSendBundle(srcPath)
			if err != nil {
				t.Fatalf("send bundle: %v", err)
			}

			clientEvents := &EventTable{}
			client := NewClient(bundle, maxPkt, clientEvents)
			if err := client.Send(context.Background(), srv.Addr(), "sender"); err != nil {
				t.Fatalf("send: %v", err)
			}

			select {
			case <-done:
			case <-time.After(3 * time.Second):
				t.Fatal("download-success event never fired")
			}

			mu.Lock()
			got, err := os.ReadFile(successBundle.Path)
			mu.Unlock()
			if err != nil {
				t.Fatalf("read received file: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Fatalf("received file does not match payload for maxPkt=%d (got %d bytes, want %d)", maxPkt, len(got), len(payload))
			}
		})
	}
}

// TestEndToEndRefusedConnect covers S2: the consent callback refuses, the
// client observes OnRefused, and no file lands in the downloads directory.
func TestEndToEndRefusedConnect(t *testing.T) {
	downloadsDir := t.TempDir()
	srv := startTestServer(t, downloadsDir, refuseConsent, &EventTable{})

	srcDir := t.TempDir()
	srcPath := filepath.Join(srcDir, "refused.bin")
	if err := os.WriteFile(srcPath, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	bundle, err := NewSendBundle(srcPath)
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}

	refused := make(chan struct{})
	clientEvents := &EventTable{OnRefused: func(name, hostname string) { close(refused) }}
	client := NewClient(bundle, 0, clientEvents)
	if err := client.Send(context.Background(), srv.Addr(), "sender"); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case <-refused:
	case <-time.After(2 * time.Second):
		t.Fatal("OnRefused never fired")
	}

	entries, _ := os.ReadDir(downloadsDir)
	if len(entries) != 0 {
		t.Fatalf("expected no files written on refusal, found %d", len(entries))
	}
}

// TestServerStopIsIdempotent covers §8.6: calling Stop twice is safe.
func TestServerStopIsIdempotent(t *testing.T) {
	srv := startTestServer(t, t.TempDir(), acceptAllConsent, &EventTable{})
	srv.Stop()
	srv.Stop()
}
