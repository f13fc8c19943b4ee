package ring

import (
	"fmt"

	"github.com/bft-labs/ringsock/internal/domain"
)

// Location identifies a byte inside the live stream.
type Location struct {
	// Index is the 0-based position of the entry among live entries.
	Index int

	// Entry is the entry containing the byte.
	Entry domain.Entry

	// Offset is the byte position inside Entry.
	Offset int64
}

// FindByFlatOffset returns the entry containing the byte at flat offset off.
// Offsets at or past the end of the stream report ok == false.
func (s *Store) FindByFlatOffset(off int64) (loc Location, ok bool) {
	if off < 0 {
		return Location{}, false
	}
	var total int64
	for i, n := 0, s.Len(); i < n; i++ {
		e := s.slots[s.at(i)]
		size := int64(e.Size())
		if off < total+size {
			return Location{Index: i, Entry: e, Offset: off - total}, true
		}
		total += size
	}
	return Location{}, false
}

// ResolveSeek returns the flat offset of byte offset inside the index-th live entry.
// It fails with domain.ErrOutOfRange when the entry is not live or the
// offset is not inside it.
func (s *Store) ResolveSeek(index, offset int64) (int64, error) {
	n := int64(s.Len())
	if index < 0 || index >= n {
		return 0, fmt.Errorf("%w: entry %d of %d", domain.ErrOutOfRange, index, n)
	}

	var flat int64
	for i := 0; i < int(index); i++ {
		flat += int64(s.slots[s.at(i)].Size())
	}

	size := int64(s.slots[s.at(int(index))].Size())
	if offset < 0 || offset >= size {
		return 0, fmt.Errorf("%w: offset %d in entry of %d bytes", domain.ErrOutOfRange, offset, size)
	}
	return flat + offset, nil
}
