//go:build !unix

package dnsproxy

import (
	"errors"
	"net"
)

func isTransient(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
