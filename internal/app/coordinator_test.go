package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/ringsock/internal/adapters/fs"
	"github.com/bft-labs/ringsock/internal/domain"
	"github.com/bft-labs/ringsock/internal/ring"
)

func mustEntry(t *testing.T, s string) domain.Entry {
	t.Helper()
	e, err := domain.NewEntry([]byte(s))
	require.NoError(t, err)
	return e
}

func TestCoordinator_MutualExclusion(t *testing.T) {
	c := newRingCoordinator(t, 100)
	var inside, maxInside atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := c.WithExclusiveAccess(context.Background(), func(tx *Tx) error {
				n := inside.Add(1)
				if n > maxInside.Load() {
					maxInside.Store(n)
				}
				defer inside.Add(-1)
				_, _, err := tx.Commit(mustEntry(t, fmt.Sprintf("rec-%02d\n", i)))
				return err
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
	require.NoError(t, c.WithExclusiveAccess(context.Background(), func(tx *Tx) error {
		assert.Equal(t, 50, tx.Store.Len())
		assert.Equal(t, int64(50*7), tx.Store.Size())
		assert.Equal(t, int64(50*7), tx.Journal.Size())
		return nil
	}))
}

func TestCoordinator_ConcurrentEviction(t *testing.T) {
	const (
		capacity   = 3
		writers    = 8
		perWriter  = 50
		totalCount = writers * perWriter
	)
	c, j := newJournalCoordinator(t, capacity)

	// Both slices are only touched inside the critical section.
	var committed, evicted []string

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				rec := fmt.Sprintf("w%d-%03d\n", w, i)
				err := c.WithExclusiveAccess(context.Background(), func(tx *Tx) error {
					old, ok, err := tx.Commit(mustEntry(t, rec))
					if err != nil {
						return err
					}
					committed = append(committed, rec)
					if ok {
						evicted = append(evicted, old.String())
					}
					return nil
				})
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	require.Len(t, committed, totalCount)
	// Every record but the live ones was evicted exactly once, oldest first.
	assert.Equal(t, committed[:totalCount-capacity], evicted)

	require.NoError(t, c.WithExclusiveAccess(context.Background(), func(tx *Tx) error {
		assert.Equal(t, tx.Store.Cap(), tx.Store.Len())
		assert.True(t, tx.Store.Full())

		var live []string
		for _, e := range tx.Store.Entries() {
			live = append(live, e.String())
		}
		assert.Equal(t, committed[totalCount-capacity:], live)
		assert.Equal(t, tx.Journal.Size(), tx.Store.EvictedBytes()+tx.Store.Size())
		return nil
	}))

	var replayed []string
	require.NoError(t, j.Replay(func(record []byte) error {
		replayed = append(replayed, string(record))
		return nil
	}))
	assert.Equal(t, committed, replayed)
}

func TestCoordinator_InterruptedWhileWaiting(t *testing.T) {
	c := newRingCoordinator(t, 3)
	held := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = c.WithExclusiveAccess(context.Background(), func(*Tx) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	called := false
	err := c.WithExclusiveAccess(ctx, func(*Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrInterrupted)
	assert.False(t, called)

	close(release)
	assert.NoError(t, c.WithExclusiveAccess(context.Background(), func(*Tx) error { return nil }))
}

func TestCoordinator_PanicReleasesLock(t *testing.T) {
	c := newRingCoordinator(t, 3)

	assert.Panics(t, func() {
		_ = c.WithExclusiveAccess(context.Background(), func(*Tx) error { panic("boom") })
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, c.WithExclusiveAccess(ctx, func(*Tx) error { return nil }))
}

func TestCoordinator_Close(t *testing.T) {
	c, j := newJournalCoordinator(t, 3)
	require.NoError(t, c.WithExclusiveAccess(context.Background(), func(tx *Tx) error {
		_, _, err := tx.Commit(mustEntry(t, "a\n"))
		return err
	}))

	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, c.Close(context.Background()))

	err := c.WithExclusiveAccess(context.Background(), func(*Tx) error { return nil })
	assert.True(t, errors.Is(err, domain.ErrClosed))
	assert.NoFileExists(t, j.Path())
}

type failingJournal struct{ *fs.FileJournal }

func (failingJournal) Append([]byte) error { return errors.New("disk full") }

func TestTx_CommitLeavesStoreOnJournalFailure(t *testing.T) {
	j, err := fs.OpenFileJournal(filepath.Join(t.TempDir(), "journal"), fs.FileJournalOptions{})
	require.NoError(t, err)
	c := NewCoordinator(ring.New(2), failingJournal{j}, domain.ReplyFromRing, nil, nil)

	err = c.WithExclusiveAccess(context.Background(), func(tx *Tx) error {
		_, _, err := tx.Commit(mustEntry(t, "a\n"))
		assert.Zero(t, tx.Store.Len())
		return err
	})
	assert.EqualError(t, err, "disk full")
}

func TestTx_ResolveInJournalSpace(t *testing.T) {
	c, _ := newJournalCoordinator(t, 3)
	defer c.Close(context.Background())

	require.NoError(t, c.WithExclusiveAccess(context.Background(), func(tx *Tx) error {
		for _, r := range []string{"aaa\n", "bbb\n", "ccc\n", "ddd\n"} {
			if _, _, err := tx.Commit(mustEntry(t, r)); err != nil {
				return err
			}
		}
		off, err := tx.Resolve(domain.SeekCommand{Entry: 1, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(4+5), off)

		var buf strings.Builder
		_, err = tx.Reply(&buf, off)
		require.NoError(t, err)
		assert.Equal(t, "cc\nddd\n", buf.String())

		buf.Reset()
		_, err = tx.Reply(&buf, 0)
		require.NoError(t, err)
		assert.Equal(t, "aaa\nbbb\nccc\nddd\n", buf.String())
		return nil
	}))
}

func TestCoordinator_RestoreReplaysJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal")
	j, err := fs.OpenFileJournal(path, fs.FileJournalOptions{Keep: true})
	require.NoError(t, err)
	for _, r := range []string{"one\n", "two\n", "three\n"} {
		require.NoError(t, j.Append([]byte(r)))
	}
	require.NoError(t, j.Close())

	j, err = fs.OpenFileJournal(path, fs.FileJournalOptions{})
	require.NoError(t, err)
	c := NewCoordinator(ring.New(2), j, domain.ReplyFromJournal, nil, nil)
	defer c.Close(context.Background())

	n, err := c.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, c.WithExclusiveAccess(context.Background(), func(tx *Tx) error {
		assert.Equal(t, "two\nthree\n", string(tx.Store.Bytes(0)))
		assert.Equal(t, tx.Journal.Size(), tx.Store.EvictedBytes()+tx.Store.Size())
		return nil
	}))
}
