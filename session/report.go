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

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind tags a Report with the error taxonomy of §7.
type Kind int

const (
	// SocketError: any send/recv/bind/listen/accept/connect failure.
	SocketError Kind = iota
	// ProtocolError: malformed packet, disallowed opcode for state, body
	// length exceeding the declared file length.
	ProtocolError
	// IOError: file open/read/write/close failure on either side.
	IOError
	// ThreadError: goroutine start/join failure.
	ThreadError
	// EventKind is not an error: timeout, graceful close, local shutdown.
	EventKind
)

func (k Kind) String() string {
	switch k {
	case SocketError:
		return "socket"
	case ProtocolError:
		return "protocol"
	case IOError:
		return "io"
	case ThreadError:
		return "thread"
	case EventKind:
		return "event"
	default:
		return "unknown"
	}
}

// Report is a chained, typed error: each Push wraps the previous report (via
// pkg/errors, so errors.Cause still unwraps all the way to the root syscall
// error) and tags it with a Kind and a human operation name. Printing walks
// the chain outermost-first (§7: "reports chain... printing walks the chain
// outermost-first").
type Report struct {
	Kind Kind
	Code int
	Op   string
	err  error
}

// Push builds a new Report wrapping cause (which may itself be a *Report or
// a plain error, or nil for a report with no underlying cause). op names the
// operation that failed, matching the teacher's "dial()"/"createConn()"
// prefixing convention.
func Push(kind Kind, code int, op string, cause error) *Report {
	var wrapped error
	if cause != nil {
		wrapped = errors.Wrap(cause, op)
	} else {
		wrapped = errors.New(op)
	}
	return &Report{Kind: kind, Code: code, Op: op, err: wrapped}
}

func (r *Report) Error() string {
	return fmt.Sprintf("%s error (code %d): %v", r.Kind, r.Code, r.err)
}

// Unwrap lets errors.Is/errors.As and pkg/errors.Cause see through Report to
// whatever it wraps.
func (r *Report) Unwrap() error {
	return r.err
}

// Cause returns the innermost error in the chain, exactly like
// errors.Cause(r) but without requiring the caller to import pkg/errors
// themselves.
func (r *Report) Cause() error {
	return errors.Cause(r.err)
}
