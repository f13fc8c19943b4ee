package fs

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bft-labs/ringsock/internal/domain"
)

// DefaultJournalPath is where the journal lives when no path is configured.
const DefaultJournalPath = "/var/tmp/ringsockdata"

// FileJournalOptions configures a FileJournal.
type FileJournalOptions struct {
	// Sync fsyncs the file after every append.
	Sync bool

	// Keep leaves the file on disk when the journal is closed.
	Keep bool
}

// FileJournal implements ports.Journal using a single append-only file.
// Records are stored back to back, each ending with domain.Delimiter.
type FileJournal struct {
	path string
	opts FileJournalOptions

	f      *os.File
	size   int64
	pos    int64
	closed bool
}

// OpenFileJournal opens or creates the journal at path.
// A trailing partial record left by a crash is truncated away.
func OpenFileJournal(path string, opts FileJournalOptions) (*FileJournal, error) {
	if path == "" {
		path = DefaultJournalPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	size, err := completeLength(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	if err := f.Truncate(size); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("repair journal tail: %w", err)
	}

	return &FileJournal{path: path, opts: opts, f: f, size: size}, nil
}

// completeLength returns the length of f up to and including its last delimiter.
func completeLength(f *os.File) (int64, error) {
	var (
		total int64
		last  int64
		buf   = make([]byte, 32*1024)
	)
	for {
		n, err := f.ReadAt(buf, total)
		if i := bytes.LastIndexByte(buf[:n], domain.Delimiter); i >= 0 {
			last = total + int64(i) + 1
		}
		total += int64(n)
		if errors.Is(err, io.EOF) {
			return last, nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// Append writes p at the end of the file.
// A short write is rolled back so the file never ends in a partial record.
func (j *FileJournal) Append(p []byte) error {
	if j.closed {
		return domain.ErrClosed
	}
	n, err := j.f.Write(p)
	if err != nil {
		if n > 0 {
			_ = j.f.Truncate(j.size)
		}
		return fmt.Errorf("append journal: %w", err)
	}
	if j.opts.Sync {
		if err := j.f.Sync(); err != nil {
			_ = j.f.Truncate(j.size)
			return fmt.Errorf("sync journal: %w", err)
		}
	}
	j.size += int64(n)
	return nil
}

// Seek moves the read position.
func (j *FileJournal) Seek(off int64) (int64, error) {
	if off < 0 {
		return j.pos, fmt.Errorf("seek journal: negative offset %d", off)
	}
	if off > j.size {
		off = j.size
	}
	j.pos = off
	return j.pos, nil
}

// WriteTo copies the file from the read position to w.
func (j *FileJournal) WriteTo(w io.Writer) (int64, error) {
	if j.closed {
		return 0, domain.ErrClosed
	}
	return io.Copy(w, io.NewSectionReader(j.f, j.pos, j.size-j.pos))
}

// StreamFrom seeks to off and copies the rest of the file to w.
func (j *FileJournal) StreamFrom(off int64, w io.Writer) (int64, error) {
	if _, err := j.Seek(off); err != nil {
		return 0, err
	}
	return j.WriteTo(w)
}

// Size returns the number of bytes in the journal.
func (j *FileJournal) Size() int64 {
	return j.size
}

// Replay calls fn with every record in the file.
func (j *FileJournal) Replay(fn func(record []byte) error) error {
	if j.closed {
		return domain.ErrClosed
	}
	r := bufio.NewReader(io.NewSectionReader(j.f, 0, j.size))
	for {
		record, err := r.ReadBytes(domain.Delimiter)
		if len(record) > 0 {
			if ferr := fn(record); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("replay journal: %w", err)
		}
	}
}

// Close closes the file and removes it unless the journal is kept.
func (j *FileJournal) Close() error {
	if j.closed {
		return nil
	}
	j.closed = true

	err := j.f.Close()
	if !j.opts.Keep {
		if rmErr := os.Remove(j.path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
			err = rmErr
		}
	}
	return err
}

// Path returns the full path to the journal file.
func (j *FileJournal) Path() string {
	return j.path
}
