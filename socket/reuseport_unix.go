// +build aix darwin dragonfly freebsd linux netbsd openbsd solaris

package socket

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseAddrAndPort is a net.ListenConfig.Control callback. The discovery
// responder (§4.5) needs SO_REUSEADDR/SO_REUSEPORT so more than one
// GroundLift process can bind the shared discovery port on the same host,
// the same way the teacher reaches past net.Dialer into raw socket options
// for DSCP marking and buffer sizing (std/conn.go).
func reuseAddrAndPort(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); e != nil {
			sockErr = e
			return
		}
		if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); e != nil {
			sockErr = e
			return
		}
	})
	if err != nil {
		return err
	}
	return sockErr
}
