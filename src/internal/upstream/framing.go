package upstream

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	apperrors "github.com/maksimkurb/tinydnsproxy/src/internal/errors"
)

// WriteMessage writes msg prefixed with its length as a big-endian uint16.
func WriteMessage(w io.Writer, msg []byte) error {
	if len(msg) > math.MaxUint16 {
		return apperrors.NewFramingError(fmt.Sprintf("message of %d bytes is too large", len(msg)), nil)
	}

	buf := make([]byte, 2+len(msg))
	binary.BigEndian.PutUint16(buf, uint16(len(msg)))
	copy(buf[2:], msg)

	if _, err := w.Write(buf); err != nil {
		return apperrors.NewIOError("failed to write message", err)
	}
	return nil
}

// ReadMessage reads one length-prefixed message.
func ReadMessage(r io.Reader) ([]byte, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, apperrors.NewFramingError("failed to read message length", err)
	}

	msg := make([]byte, binary.BigEndian.Uint16(header[:]))
	if _, err := io.ReadFull(r, msg); err != nil {
		return nil, apperrors.NewFramingError(fmt.Sprintf("failed to read %d byte message", len(msg)), err)
	}
	return msg, nil
}
