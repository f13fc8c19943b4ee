package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/bft-labs/ringsock/internal/domain"
	"github.com/bft-labs/ringsock/internal/metrics"
	"github.com/bft-labs/ringsock/internal/ports"
	"github.com/bft-labs/ringsock/internal/ring"
	"github.com/bft-labs/ringsock/pkg/log"
)

// Coordinator serializes all access to the ring store and its journal.
// It is shared by every session of a server.
type Coordinator struct {
	sem     *semaphore.Weighted
	store   *ring.Store
	journal ports.Journal
	source  domain.ReplySource
	logger  log.Logger
	metrics *metrics.Metrics

	closed bool // guarded by sem
}

// NewCoordinator creates a coordinator owning store and journal.
// A nil logger discards output and nil metrics are disabled.
func NewCoordinator(store *ring.Store, journal ports.Journal, source domain.ReplySource, logger log.Logger, m *metrics.Metrics) *Coordinator {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Coordinator{
		sem:     semaphore.NewWeighted(1),
		store:   store,
		journal: journal,
		source:  source,
		logger:  logger,
		metrics: m,
	}
}

// Tx is the view of shared state inside one critical section.
// It must not be retained after the callback returns.
type Tx struct {
	Store   *ring.Store
	Journal ports.Journal

	source domain.ReplySource
}

// Commit appends e to the journal and then inserts it into the store.
// If the journal append fails the store is left untouched.
func (tx *Tx) Commit(e domain.Entry) (evicted domain.Entry, ok bool, err error) {
	if err := tx.Journal.Append(e.Bytes()); err != nil {
		return domain.Entry{}, false, err
	}
	evicted, ok = tx.Store.Insert(e)
	return evicted, ok, nil
}

// Resolve translates a seek command into an offset in the reply source.
func (tx *Tx) Resolve(cmd domain.SeekCommand) (int64, error) {
	flat, err := tx.Store.ResolveSeek(cmd.Entry, cmd.Offset)
	if err != nil {
		return 0, err
	}
	if tx.source == domain.ReplyFromJournal {
		return tx.Store.EvictedBytes() + flat, nil
	}
	return flat, nil
}

// Reply streams the reply source from offset from to its end.
func (tx *Tx) Reply(w io.Writer, from int64) (int64, error) {
	if tx.source == domain.ReplyFromJournal {
		return tx.Journal.StreamFrom(from, w)
	}
	return tx.Store.WriteTo(w, from)
}

// WithExclusiveAccess runs fn while holding the store lock.
// Waiting for the lock is canceled with ctx, in which case ErrInterrupted
// is returned and fn is not called. The lock is released when fn returns
// or panics.
func (c *Coordinator) WithExclusiveAccess(ctx context.Context, fn func(tx *Tx) error) error {
	start := time.Now()
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInterrupted, err)
	}
	defer c.sem.Release(1)
	c.metrics.ObserveLockWait(time.Since(start))

	if c.closed {
		return domain.ErrClosed
	}
	return fn(&Tx{Store: c.store, Journal: c.journal, source: c.source})
}

// Restore replays the journal into the store and returns the number of
// records replayed. Records beyond the ring capacity evict older ones
// exactly as live commits would.
func (c *Coordinator) Restore(ctx context.Context) (int, error) {
	var (
		n          int
		live       int
		stream     int64
		journalLen int64
	)
	err := c.WithExclusiveAccess(ctx, func(tx *Tx) error {
		defer func() {
			live, stream, journalLen = tx.Store.Len(), tx.Store.Size(), tx.Journal.Size()
		}()
		return tx.Journal.Replay(func(record []byte) error {
			e, err := domain.NewEntry(record)
			if errors.Is(err, domain.ErrEmptyEntry) {
				return nil
			}
			if err != nil {
				return err
			}
			tx.Store.Insert(e)
			n++
			return nil
		})
	})
	if err != nil {
		return n, fmt.Errorf("restore journal: %w", err)
	}

	if n > 0 {
		c.logger.Info("journal restored",
			log.Int("records", n),
			log.Int("live", live),
			log.Bytes("size", journalLen),
		)
	}
	c.metrics.StoreShape(live, stream)
	return n, nil
}

// Close releases the store and closes the journal. Later calls to
// WithExclusiveAccess fail with ErrClosed. Closing twice is a no-op.
func (c *Coordinator) Close(ctx context.Context) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInterrupted, err)
	}
	defer c.sem.Release(1)

	if c.closed {
		return nil
	}
	c.closed = true

	entries, size := c.store.Release()
	c.metrics.StoreShape(0, 0)
	c.logger.Info("store released",
		log.Int("entries", entries),
		log.Bytes("size", size),
	)

	if err := c.journal.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}
	return nil
}
