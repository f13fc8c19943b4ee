package ports

import "io"

// Journal is the backing sequential store.
// Every committed record is appended to it, in commit order, before the
// record enters the ring. Offsets are byte positions in the concatenation
// of all appended records.
//
// Implementations need not be safe for concurrent use; callers serialize
// access through the coordinator.
type Journal interface {
	// Append writes one record at the end of the journal.
	// On error nothing is considered appended.
	Append(p []byte) error

	// Seek moves the read position used by WriteTo and returns it.
	// Offsets past the end are clamped to Size.
	Seek(off int64) (int64, error)

	// WriteTo streams the journal from the read position to its end.
	WriteTo(w io.Writer) (int64, error)

	// StreamFrom is Seek followed by WriteTo.
	StreamFrom(off int64, w io.Writer) (int64, error)

	// Size returns the total number of bytes appended.
	Size() int64

	// Replay calls fn for every record in append order.
	// Replay stops at the first error returned by fn.
	Replay(fn func(record []byte) error) error

	// Close releases the journal.
	Close() error
}
