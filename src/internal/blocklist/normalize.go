package blocklist

import (
	"strings"
	"unicode/utf8"

	apperrors "github.com/maksimkurb/tinydnsproxy/src/internal/errors"
)

// NormalizeLine returns the hostname on a block list line. Lines with nothing
// but whitespace or a comment return apperrors.ErrEmptyListLine.
func NormalizeLine(line string) (string, error) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", apperrors.ErrEmptyListLine
	}
	return strings.TrimSpace(fields[len(fields)-1]), nil
}

// addLine normalizes raw and passes the hostname to add. Lines that are not
// valid UTF-8 or carry no hostname are skipped.
func addLine(raw []byte, add func(string)) {
	if !utf8.Valid(raw) {
		return
	}
	host, err := NormalizeLine(string(raw))
	if err != nil {
		return
	}
	add(host)
}
