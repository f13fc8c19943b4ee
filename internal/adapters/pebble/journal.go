// Package pebble implements ports.Journal on a pebble key-value store.
//
// Each record is stored under a zero-padded sequence key so that an
// iteration in key order replays records in append order.
//
// The journal keeps the start offset of every record in memory, one int64
// per record appended over the journal's lifetime, and rebuilds it on Open.
package pebble

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/cockroachdb/pebble"

	"github.com/bft-labs/ringsock/internal/domain"
)

const keyPrefix = "entry/"

// Options configures a Journal.
type Options struct {
	// Sync makes every append durable before it returns.
	Sync bool

	// Keep leaves the database directory on disk when the journal is closed.
	Keep bool
}

// Journal implements ports.Journal using pebble.
type Journal struct {
	dir  string
	opts Options
	db   *pebble.DB

	// starts[i] is the journal offset of record i.
	starts []int64
	size   int64
	pos    int64
	closed bool
}

// Open opens or creates the journal database in dir. dir must be missing,
// empty, or an existing pebble database: Close removes the whole directory
// unless Keep is set, so any other content is refused.
func Open(dir string, opts Options) (*Journal, error) {
	if err := checkDir(dir); err != nil {
		return nil, err
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble journal: %w", err)
	}

	j := &Journal{dir: dir, opts: opts, db: db}
	if err := j.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// checkDir refuses directories holding anything but a pebble database.
func checkDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open pebble journal: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if name == "CURRENT" || strings.HasPrefix(name, "MANIFEST-") || strings.HasPrefix(name, "marker.manifest.") {
			return nil
		}
	}
	if len(entries) > 0 {
		return fmt.Errorf("%w: pebble journal directory %s is not empty and holds no database",
			domain.ErrInvalidConfig, dir)
	}
	return nil
}

// load rebuilds the in-memory offset index from the stored records.
func (j *Journal) load() error {
	return j.scan(0, func(_ uint64, val []byte) error {
		j.starts = append(j.starts, j.size)
		j.size += int64(len(val))
		return nil
	})
}

func (j *Journal) writeOpts() *pebble.WriteOptions {
	if j.opts.Sync {
		return pebble.Sync
	}
	return pebble.NoSync
}

// Append stores p under the next sequence key.
func (j *Journal) Append(p []byte) error {
	if j.closed {
		return domain.ErrClosed
	}
	seq := uint64(len(j.starts))
	if err := j.db.Set(keyFor(seq), p, j.writeOpts()); err != nil {
		return fmt.Errorf("append pebble journal: %w", err)
	}
	j.starts = append(j.starts, j.size)
	j.size += int64(len(p))
	return nil
}

// Seek moves the read position.
func (j *Journal) Seek(off int64) (int64, error) {
	if off < 0 {
		return j.pos, fmt.Errorf("seek pebble journal: negative offset %d", off)
	}
	if off > j.size {
		off = j.size
	}
	j.pos = off
	return j.pos, nil
}

// WriteTo streams records from the read position to w.
func (j *Journal) WriteTo(w io.Writer) (int64, error) {
	if j.closed {
		return 0, domain.ErrClosed
	}
	if j.pos >= j.size {
		return 0, nil
	}

	// First record whose range contains pos.
	first := sort.Search(len(j.starts), func(i int) bool { return j.starts[i] > j.pos }) - 1
	skip := j.pos - j.starts[first]

	var written int64
	err := j.scan(uint64(first), func(_ uint64, val []byte) error {
		if skip > 0 {
			val = val[skip:]
			skip = 0
		}
		n, err := w.Write(val)
		written += int64(n)
		return err
	})
	return written, err
}

// StreamFrom seeks to off and streams the rest of the journal to w.
func (j *Journal) StreamFrom(off int64, w io.Writer) (int64, error) {
	if _, err := j.Seek(off); err != nil {
		return 0, err
	}
	return j.WriteTo(w)
}

// Size returns the number of bytes appended.
func (j *Journal) Size() int64 {
	return j.size
}

// Replay calls fn for every record in sequence order.
func (j *Journal) Replay(fn func(record []byte) error) error {
	if j.closed {
		return domain.ErrClosed
	}
	return j.scan(0, func(_ uint64, val []byte) error {
		return fn(val)
	})
}

// scan iterates records starting at sequence from. The value passed to fn
// is only valid for the duration of the call.
func (j *Journal) scan(from uint64, fn func(seq uint64, val []byte) error) error {
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: keyFor(from),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		if err := fn(seq, iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Close closes the database and removes it unless the journal is kept.
func (j *Journal) Close() error {
	if j.closed {
		return nil
	}
	j.closed = true

	err := j.db.Close()
	if !j.opts.Keep {
		if rmErr := os.RemoveAll(j.dir); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf(keyPrefix+"%020d", seq))
}

func parseKey(b []byte) (uint64, error) {
	var seq uint64
	_, err := fmt.Sscanf(string(bytes.TrimPrefix(b, []byte(keyPrefix))), "%d", &seq)
	return seq, err
}
