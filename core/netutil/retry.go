// Package netutil holds HTTP plumbing shared by the Telegram transport and the
// outbound platform collaborators.
package netutil

import (
	"errors"
	"net"
)

// ShouldRetry reports whether err is a transient network failure: a timeout
// or a failed dial. HTTP status codes never qualify.
func ShouldRetry(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
