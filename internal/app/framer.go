package app

import (
	"bytes"
	"fmt"

	"github.com/bft-labs/ringsock/internal/domain"
)

// Framer accumulates received bytes and cuts them into delimiter-terminated
// records. Bytes after the last delimiter are kept for the next Feed.
type Framer struct {
	buf []byte
	max int
}

// NewFramer creates a framer. A record, delimiter included, may not exceed
// maxRecord bytes; zero means unbounded.
func NewFramer(maxRecord int) *Framer {
	return &Framer{max: maxRecord}
}

// Feed appends p and calls fn for every complete record, in order.
// The record slice is only valid during the call.
// Feed stops at the first error returned by fn, or with ErrRecordTooLarge
// when a record outgrows the limit.
func (f *Framer) Feed(p []byte, fn func(record []byte) error) error {
	f.buf = append(f.buf, p...)

	start := 0
	for {
		i := bytes.IndexByte(f.buf[start:], domain.Delimiter)
		if i < 0 {
			break
		}
		end := start + i + 1
		if err := f.check(end - start); err != nil {
			return err
		}
		if err := fn(f.buf[start:end]); err != nil {
			f.discard(end)
			return err
		}
		start = end
	}

	f.discard(start)
	return f.check(len(f.buf))
}

// Pending returns the number of buffered bytes not yet part of a record.
func (f *Framer) Pending() int {
	return len(f.buf)
}

func (f *Framer) check(n int) error {
	if f.max > 0 && n > f.max {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", domain.ErrRecordTooLarge, n, f.max)
	}
	return nil
}

// discard drops the first n bytes, reusing the backing array.
func (f *Framer) discard(n int) {
	if n == 0 {
		return
	}
	rest := copy(f.buf, f.buf[n:])
	f.buf = f.buf[:rest]
}
