// Package dnswire reads and rewrites the few parts of a raw DNS message the
// proxy cares about: the question count, the single question name and the
// header flags. Everything else in the message is treated as opaque bytes.
package dnswire

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	apperrors "github.com/maksimkurb/tinydnsproxy/src/internal/errors"
)

const (
	// HeaderSize is the fixed DNS header length; the question section starts here.
	HeaderSize = 12

	flagsOffset   = 2
	qdcountOffset = 4
)

// nxdomainFlags marks the message as a response with recursion available and
// RCODE=3 (NXDOMAIN).
var nxdomainFlags = [2]byte{0x81, 0x83}

// ExtractQuestionDomain returns the name of the only question in msg as a
// dotted string without the trailing dot. Labels are returned verbatim, case
// is preserved. msg is not modified.
func ExtractQuestionDomain(msg []byte) (string, error) {
	if len(msg) < qdcountOffset+2 {
		return "", apperrors.Wrap(apperrors.ErrCodeMalformedMessage,
			fmt.Sprintf("message too short for header: %d bytes", len(msg)), nil)
	}

	if qdcount := binary.BigEndian.Uint16(msg[qdcountOffset:]); qdcount != 1 {
		return "", apperrors.Wrap(apperrors.ErrCodeTooManyQuestions,
			fmt.Sprintf("question count is %d", qdcount), nil)
	}

	name := make([]byte, 0, 64)
	off := HeaderSize
	for {
		if off >= len(msg) {
			return "", apperrors.Wrap(apperrors.ErrCodeMalformedMessage, "question name is not terminated", nil)
		}
		labelLen := int(msg[off])
		off++

		if labelLen == 0 {
			break
		}
		if off+labelLen > len(msg) {
			return "", apperrors.Wrap(apperrors.ErrCodeMalformedMessage,
				fmt.Sprintf("label length %d exceeds remaining %d bytes", labelLen, len(msg)-off), nil)
		}

		if len(name) > 0 {
			name = append(name, '.')
		}
		name = append(name, msg[off:off+labelLen]...)
		off += labelLen
	}

	if !utf8.Valid(name) {
		return "", apperrors.Wrap(apperrors.ErrCodeInvalidEncoding, "question name is not valid UTF-8", nil)
	}

	return string(name), nil
}

// ForceNXDomain rewrites the header flags of msg in place so that it reads as
// an NXDOMAIN answer to itself. Only bytes 2 and 3 are touched: the
// transaction ID and the question section stay as the client sent them.
func ForceNXDomain(msg []byte) error {
	if len(msg) < flagsOffset+len(nxdomainFlags) {
		return apperrors.Wrap(apperrors.ErrCodeMalformedMessage,
			fmt.Sprintf("message too short to rewrite flags: %d bytes", len(msg)), nil)
	}

	copy(msg[flagsOffset:], nxdomainFlags[:])
	return nil
}
