//go:build unix

package dnsproxy

import (
	"errors"
	"net"

	"golang.org/x/sys/unix"
)

// isTransient reports whether a receive error only means the socket had
// nothing to read yet.
func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR)
}
