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

package session

import "net"

// EventTable holds every callback a front-end may register (§2.6). Every
// field is optional; a nil field is simply not invoked. Callbacks run on the
// worker goroutine that observed the event and must obey the non-blocking,
// short contract of §5 — they must never call Stop/Close synchronously.
type EventTable struct {
	// OnStarted fires when Start launches the accept loop, after Setup has
	// bound the TCP listen socket (the discovery socket is bound later, by
	// StartDiscovery).
	OnStarted func()
	// OnStopped fires once Stop has torn everything down.
	OnStopped func()
	// OnAccepted fires when the accept loop takes a new TCP connection,
	// before CONNECT has even been read.
	OnAccepted func(remote net.Addr)
	// OnConnectRequest fires once a CONNECT has been parsed, before the
	// consent decision is applied; front-ends that only want to observe
	// (not decide) the request can use this instead of registering a
	// ConsentFunc.
	OnConnectRequest func(name string, size uint32, hostname string)
	// OnRefused fires on the server when the registered ConsentFunc refuses
	// a CONNECT (the default with no ConsentFunc never refuses), and on the
	// client when the server answers CONNECT with UNAUTHORIZED.
	OnRefused func(name string, hostname string)
	// OnDownloadProgress fires after every PUT chunk is appended to the
	// receiving file.
	OnDownloadProgress func(bundle FileBundle, receivedBytes uint32)
	// OnDownloadSuccess fires once the final PUT has been written and the
	// file closed, just before the SUCCESS reply is sent.
	OnDownloadSuccess func(bundle FileBundle)
	// OnUploadProgress fires on the client side after each PUT is
	// acknowledged with CONTINUE.
	OnUploadProgress func(bundle FileBundle, sentBytes uint32)
	// OnUploadSuccess fires once the server's final SUCCESS is received.
	OnUploadSuccess func(bundle FileBundle)
	// OnCancelled fires when a connection ends via local shutdown or a
	// mid-transfer disconnect (§4.3: "connection closed before Final:
	// treat as CANCELLED").
	OnCancelled func()
	// OnClosed fires whenever a connection's socket and file handle have
	// both been released, on every exit path (success, refusal,
	// cancellation, or error).
	OnClosed func()
	// OnError fires for any Report generated by the server (accept loop,
	// connection, discovery responder) or by Discover, including non-fatal
	// per-packet ProtocolErrors. Client.Send does not fire it; it returns
	// its Report to the caller instead.
	OnError func(report *Report)
	// OnPeerDiscovered fires once per SUCCESS reply Discover collects.
	OnPeerDiscovered func(peer Peer)
}

func (t *EventTable) started() {
	if t != nil && t.OnStarted != nil {
		t.OnStarted()
	}
}

func (t *EventTable) stopped() {
	if t != nil && t.OnStopped != nil {
		t.OnStopped()
	}
}

func (t *EventTable) accepted(remote net.Addr) {
	if t != nil && t.OnAccepted != nil {
		t.OnAccepted(remote)
	}
}

func (t *EventTable) connectRequest(name string, size uint32, hostname string) {
	if t != nil && t.OnConnectRequest != nil {
		t.OnConnectRequest(name, size, hostname)
	}
}

func (t *EventTable) refused(name, hostname string) {
	if t != nil && t.OnRefused != nil {
		t.OnRefused(name, hostname)
	}
}

func (t *EventTable) downloadProgress(bundle FileBundle, n uint32) {
	if t != nil && t.OnDownloadProgress != nil {
		t.OnDownloadProgress(bundle, n)
	}
}

func (t *EventTable) downloadSuccess(bundle FileBundle) {
	if t != nil && t.OnDownloadSuccess != nil {
		t.OnDownloadSuccess(bundle)
	}
}

func (t *EventTable) uploadProgress(bundle FileBundle, n uint32) {
	if t != nil && t.OnUploadProgress != nil {
		t.OnUploadProgress(bundle, n)
	}
}

func (t *EventTable) uploadSuccess(bundle FileBundle) {
	if t != nil && t.OnUploadSuccess != nil {
		t.OnUploadSuccess(bundle)
	}
}

func (t *EventTable) cancelled() {
	if t != nil && t.OnCancelled != nil {
		t.OnCancelled()
	}
}

func (t *EventTable) closed() {
	if t != nil && t.OnClosed != nil {
		t.OnClosed()
	}
}

func (t *EventTable) error(r *Report) {
	if t != nil && t.OnError != nil {
		t.OnError(r)
	}
}

func (t *EventTable) peerDiscovered(p Peer) {
	if t != nil && t.OnPeerDiscovered != nil {
		t.OnPeerDiscovered(p)
	}
}
