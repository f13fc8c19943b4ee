package ring

import (
	"fmt"

	"github.com/bft-labs/ringsock/internal/domain"
)

// DefaultCapacity is the number of entries a ring holds when no capacity is configured.
const DefaultCapacity = 10

// Store is a circular buffer of entries.
type Store struct {
	slots []domain.Entry
	head  int // next write position
	tail  int // oldest live position
	full  bool

	size    int64 // sum of live entry sizes
	evicted int64 // bytes evicted since construction
}

// New creates an empty store holding at most capacity entries.
// It panics if capacity is not positive.
func New(capacity int) *Store {
	if capacity <= 0 {
		panic(fmt.Sprintf("ring: invalid capacity %d", capacity))
	}
	return &Store{slots: make([]domain.Entry, capacity)}
}

// Cap returns the fixed capacity of the ring.
func (s *Store) Cap() int { return len(s.slots) }

// Full reports whether the next insert will evict.
func (s *Store) Full() bool { return s.full }

// Len returns the number of live entries.
func (s *Store) Len() int {
	if s.full {
		return len(s.slots)
	}
	return (s.head - s.tail + len(s.slots)) % len(s.slots)
}

// Size returns the total stream length in bytes.
func (s *Store) Size() int64 { return s.size }

// EvictedBytes returns the number of bytes evicted since construction.
// Adding it to a flat offset gives the offset in a journal that holds every
// record ever inserted.
func (s *Store) EvictedBytes() int64 { return s.evicted }

// Insert stores e at the head of the ring.
// If the ring was full, the oldest entry is removed and returned with ok set;
// the caller owns it from then on.
func (s *Store) Insert(e domain.Entry) (evicted domain.Entry, ok bool) {
	if e.Size() == 0 {
		panic("ring: insert of empty entry")
	}
	if s.full {
		evicted, ok = s.slots[s.tail], true
		s.slots[s.tail] = domain.Entry{}
		s.tail = s.next(s.tail)
		s.size -= int64(evicted.Size())
		s.evicted += int64(evicted.Size())
	}

	s.slots[s.head] = e
	s.head = s.next(s.head)
	s.size += int64(e.Size())
	s.full = s.head == s.tail

	return evicted, ok
}

// Entries returns a snapshot of the live entries in arrival order.
func (s *Store) Entries() []domain.Entry {
	n := s.Len()
	out := make([]domain.Entry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s.slots[s.at(i)])
	}
	return out
}

// Release drops every live entry and returns how many entries and bytes
// were released. The store is empty and reusable afterwards.
func (s *Store) Release() (entries int, bytes int64) {
	entries, bytes = s.Len(), s.size
	for i := range s.slots {
		s.slots[i] = domain.Entry{}
	}
	s.head, s.tail, s.full, s.size = 0, 0, false, 0
	return entries, bytes
}

// at maps a 0-based live index to a slot position.
func (s *Store) at(i int) int {
	return (s.tail + i) % len(s.slots)
}

func (s *Store) next(pos int) int {
	return (pos + 1) % len(s.slots)
}
