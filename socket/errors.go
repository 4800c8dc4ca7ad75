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

package socket

import "errors"

// ErrShutdown is returned by a pending Accept/Recv when Shutdown closed the
// underlying fd out from under it locally, as opposed to the peer resetting
// the connection or a genuine I/O failure.
var ErrShutdown = errors.New("socket: shut down locally")

// ErrClosed is returned by a call whose underlying listener or connection
// was never set up (before Setup/Connect, or on a socket of the other
// role). A call made after Close/Shutdown reaches the closed net object
// instead: Accept/Recv/RecvFrom return ErrShutdown, Send/SendTo the wrapped
// net error.
var ErrClosed = errors.New("socket: already closed")

// Error wraps a lower-level net/syscall error with the operation that
// produced it, matching the teacher's practice of naming the failing call
// (dial, listen, accept) rather than surfacing a bare wrapped error.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "socket: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
