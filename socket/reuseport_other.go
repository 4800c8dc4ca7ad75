// +build !aix,!darwin,!dragonfly,!freebsd,!linux,!netbsd,!openbsd,!solaris

package socket

import "syscall"

// reuseAddrAndPort is a no-op outside the unix family: SO_REUSEPORT has no
// portable equivalent there, so running two discovery responders on the same
// host and port is simply unsupported on those platforms.
func reuseAddrAndPort(_, _ string, _ syscall.RawConn) error {
	return nil
}
