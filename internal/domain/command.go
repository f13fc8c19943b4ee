package domain

import (
	"bytes"
	"fmt"
	"strconv"
)

// SeekPrefix marks a control record.
const SeekPrefix = "SEEKTO:"

// SeekCommand asks to move the connection cursor to byte Offset of the
// Entry-th live entry (0-based, arrival order).
type SeekCommand struct {
	Entry  int64
	Offset int64
}

// IsControl reports whether the record is a control record.
// Control records are never stored, even when malformed.
func IsControl(record []byte) bool {
	return bytes.HasPrefix(record, []byte(SeekPrefix))
}

// ParseSeek parses a SEEKTO:<entry>,<offset> record. A single trailing
// delimiter is accepted. Both numbers must be unsigned decimal integers.
func ParseSeek(record []byte) (SeekCommand, error) {
	if !IsControl(record) {
		return SeekCommand{}, ErrMalformedSeek
	}
	body := bytes.TrimSuffix(record[len(SeekPrefix):], []byte{Delimiter})

	comma := bytes.IndexByte(body, ',')
	if comma < 0 {
		return SeekCommand{}, fmt.Errorf("%w: missing comma", ErrMalformedSeek)
	}
	entry, err := parseUint(body[:comma])
	if err != nil {
		return SeekCommand{}, fmt.Errorf("%w: entry: %v", ErrMalformedSeek, err)
	}
	offset, err := parseUint(body[comma+1:])
	if err != nil {
		return SeekCommand{}, fmt.Errorf("%w: offset: %v", ErrMalformedSeek, err)
	}
	return SeekCommand{Entry: entry, Offset: offset}, nil
}

func parseUint(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("empty number")
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid digit %q", c)
		}
	}
	return strconv.ParseInt(string(b), 10, 64)
}
