package socket

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestBroadcastAddrComputation(t *testing.T) {
	ip := net.ParseIP("192.168.1.42").To4()
	mask := net.CIDRMask(24, 32)
	got := broadcastAddr(ip, mask)
	if got.String() != "192.168.1.255" {
		t.Fatalf("expected 192.168.1.255, got %s", got)
	}
}

func TestListBroadcastInterfacesNeverEmpty(t *testing.T) {
	addrs, err := ListBroadcastInterfaces()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(addrs) == 0 {
		t.Fatal("expected at least the global broadcast fallback")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	s := NewTCP("127.0.0.1:0")
	if err := s.Setup(true, 0); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := s.Shutdown(); err != nil {
		t.Fatalf("first shutdown: %v", err)
	}
	if err := s.Shutdown(); err != nil {
		t.Fatalf("second shutdown must be a no-op, got: %v", err)
	}
}

func TestShutdownUnblocksAccept(t *testing.T) {
	s := NewTCP("127.0.0.1:0")
	if err := s.Setup(true, 0); err != nil {
		t.Fatalf("setup: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Accept()
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	if err := s.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	select {
	case err := <-done:
		if err != ErrShutdown {
			t.Fatalf("expected ErrShutdown, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Accept did not unblock after Shutdown")
	}
}

func TestConnectSendRecvRoundTrip(t *testing.T) {
	srv := NewTCP("127.0.0.1:0")
	if err := srv.Setup(true, 0); err != nil {
		t.Fatalf("server setup: %v", err)
	}
	defer srv.Shutdown()

	addr := srv.LocalAddr().String()

	accepted := make(chan *Socket, 1)
	go func() {
		conn, err := srv.Accept()
		if err != nil {
			t.Error(err)
			return
		}
		accepted <- conn
	}()

	cli := NewTCP(addr)
	if err := cli.Connect(context.Background(), time.Second); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer cli.Close()

	var server *Socket
	select {
	case server = <-accepted:
	case <-time.After(time.Second):
		t.Fatal("accept never completed")
	}
	defer server.Close()

	if err := cli.Send([]byte("ping")); err != nil {
		t.Fatalf("send: %v", err)
	}
	buf := make([]byte, 4)
	n, err := server.Recv(buf)
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if string(buf[:n]) != "ping" {
		t.Fatalf("expected ping, got %q", buf[:n])
	}
}
