package domain

// Delimiter terminates every record on the wire and every stored entry.
const Delimiter = '\n'

// Entry is a single committed record.
// The byte slice is owned by the entry and never modified after construction.
type Entry struct {
	data []byte
}

// NewEntry copies p into a new Entry.
// Returns ErrEmptyEntry if p is empty.
func NewEntry(p []byte) (Entry, error) {
	if len(p) == 0 {
		return Entry{}, ErrEmptyEntry
	}
	data := make([]byte, len(p))
	copy(data, p)
	return Entry{data: data}, nil
}

// Size returns the number of bytes in the entry.
func (e Entry) Size() int {
	return len(e.data)
}

// Bytes returns the entry contents. Callers must not modify the result.
func (e Entry) Bytes() []byte {
	return e.data
}

// IsZero reports whether e is the zero Entry.
func (e Entry) IsZero() bool {
	return e.data == nil
}

// String returns the entry contents as a string.
func (e Entry) String() string {
	return string(e.data)
}
