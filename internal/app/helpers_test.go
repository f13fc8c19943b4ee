package app

import (
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/ringsock/internal/adapters/discard"
	"github.com/bft-labs/ringsock/internal/adapters/fs"
	"github.com/bft-labs/ringsock/internal/domain"
	"github.com/bft-labs/ringsock/internal/ring"
)

func newRingCoordinator(t *testing.T, capacity int) *Coordinator {
	t.Helper()
	return NewCoordinator(ring.New(capacity), discard.New(), domain.ReplyFromRing, nil, nil)
}

func newJournalCoordinator(t *testing.T, capacity int) (*Coordinator, *fs.FileJournal) {
	t.Helper()
	j, err := fs.OpenFileJournal(filepath.Join(t.TempDir(), "journal"), fs.FileJournalOptions{})
	require.NoError(t, err)
	return NewCoordinator(ring.New(capacity), j, domain.ReplyFromJournal, nil, nil), j
}

func send(t *testing.T, c net.Conn, s string) {
	t.Helper()
	require.NoError(t, c.SetWriteDeadline(time.Now().Add(2*time.Second)))
	_, err := c.Write([]byte(s))
	require.NoError(t, err)
}

func recv(t *testing.T, c net.Conn, n int) string {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, n)
	_, err := io.ReadFull(c, buf)
	require.NoError(t, err)
	return string(buf)
}

// exchange sends one record and reads a reply of the expected length.
func exchange(t *testing.T, c net.Conn, record, want string) string {
	t.Helper()
	send(t, c, record)
	return recv(t, c, len(want))
}
