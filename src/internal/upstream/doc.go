// Package upstream implements the DNS-over-TLS side of the proxy.
//
// Every Exchange opens a new TCP connection, performs a TLS handshake using the
// provider hostname as server name and sends one length-prefixed message.
// Connections are never reused. Failures are reported with distinct codes:
//
//   - apperrors.ErrConnect when the TCP connection cannot be established
//   - apperrors.ErrTLSHandshake when the handshake or certificate check fails
//   - apperrors.ErrFraming when the response is short or cannot be read
//
// A provider may pin a certificate. Only that certificate is then accepted as
// trust anchor instead of the system roots.
package upstream
