package upstream

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	apperrors "github.com/maksimkurb/tinydnsproxy/src/internal/errors"
	"github.com/maksimkurb/tinydnsproxy/src/internal/log"
)

// Client performs DNS-over-TLS exchanges.
type Client struct {
	timeout time.Duration
	dialer  net.Dialer
}

// NewClient returns a client bounding each exchange by timeout.
// A zero timeout relies on ctx alone.
func NewClient(timeout time.Duration) *Client {
	return &Client{timeout: timeout}
}

// Exchange sends query to provider over a fresh TLS connection and returns
// the raw response. Connect, handshake and the framed exchange share a
// single deadline.
func (c *Client) Exchange(ctx context.Context, provider *Provider, query []byte) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	conn, err := c.dialer.DialContext(ctx, "tcp", provider.Address())
	if err != nil {
		return nil, apperrors.NewIOError(fmt.Sprintf("failed to connect to %s", provider), err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, apperrors.NewIOError("failed to set connection deadline", err)
		}
	}

	tlsConn := tls.Client(conn, provider.tlsConfig())
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, apperrors.NewTLSHandshakeError(fmt.Sprintf("TLS handshake with %s failed", provider), err)
	}

	if err := WriteMessage(tlsConn, query); err != nil {
		return nil, recordError(provider, err)
	}

	resp, err := ReadMessage(tlsConn)
	if err != nil {
		return nil, recordError(provider, err)
	}

	log.Debugf("Received %d bytes from %s", len(resp), provider)
	return resp, nil
}

// recordError reports TLS alerts and malformed records seen after the
// handshake as TLS errors. Other errors are returned unchanged.
func recordError(provider *Provider, err error) error {
	var headerErr tls.RecordHeaderError
	if errors.As(err, &headerErr) {
		return apperrors.NewTLSError(fmt.Sprintf("invalid TLS record from %s", provider), err)
	}

	// crypto/tls reports alerts it sends or receives with these ops.
	var opErr *net.OpError
	if errors.As(err, &opErr) && (opErr.Op == "local error" || opErr.Op == "remote error") {
		return apperrors.NewTLSError(fmt.Sprintf("TLS session with %s failed", provider), err)
	}
	return err
}
