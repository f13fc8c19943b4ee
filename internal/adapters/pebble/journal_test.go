package pebble

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/ringsock/internal/domain"
	"github.com/bft-labs/ringsock/internal/ports"
)

var _ ports.Journal = (*Journal)(nil)

func TestJournal_StreamFromMidRecord(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "db"), Options{})
	require.NoError(t, err)
	defer j.Close()

	for _, r := range []string{"aaa\n", "bbb\n", "ccc\n"} {
		require.NoError(t, j.Append([]byte(r)))
	}
	assert.Equal(t, int64(12), j.Size())

	tests := []struct {
		off  int64
		want string
	}{
		{0, "aaa\nbbb\nccc\n"},
		{4, "bbb\nccc\n"},
		{5, "bb\nccc\n"},
		{11, "\n"},
		{12, ""},
		{40, ""},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		_, err := j.StreamFrom(tt.off, &buf)
		require.NoError(t, err)
		assert.Equal(t, tt.want, buf.String(), "offset %d", tt.off)
	}
}

func TestJournal_ReopenKeepsRecords(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	j, err := Open(dir, Options{Sync: true, Keep: true})
	require.NoError(t, err)
	require.NoError(t, j.Append([]byte("first\n")))
	require.NoError(t, j.Append([]byte("second\n")))
	require.NoError(t, j.Close())

	j, err = Open(dir, Options{Keep: true})
	require.NoError(t, err)
	defer j.Close()

	assert.Equal(t, int64(13), j.Size())

	var got []string
	require.NoError(t, j.Replay(func(record []byte) error {
		got = append(got, string(record))
		return nil
	}))
	assert.Equal(t, []string{"first\n", "second\n"}, got)

	require.NoError(t, j.Append([]byte("third\n")))
	var buf bytes.Buffer
	_, err = j.StreamFrom(13, &buf)
	require.NoError(t, err)
	assert.Equal(t, "third\n", buf.String())
}

func TestJournal_CloseRemovesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	j, err := Open(dir, Options{})
	require.NoError(t, err)
	require.NoError(t, j.Append([]byte("x\n")))
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestOpen_RefusesForeignDirectory(t *testing.T) {
	dir := t.TempDir()
	unrelated := filepath.Join(dir, "unrelated.txt")
	require.NoError(t, os.WriteFile(unrelated, []byte("keep me"), 0o644))

	_, err := Open(dir, Options{})
	require.ErrorIs(t, err, domain.ErrInvalidConfig)

	b, err := os.ReadFile(unrelated)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(b))
}

func TestOpen_EmptyDirectoryIsUsed(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir, Options{Keep: true})
	require.NoError(t, err)
	require.NoError(t, j.Append([]byte("a\n")))
	require.NoError(t, j.Close())

	// The directory now holds a database and can be reopened.
	j, err = Open(dir, Options{Keep: true})
	require.NoError(t, err)
	defer j.Close()
	assert.Equal(t, int64(2), j.Size())
}

func TestKeyOrdering(t *testing.T) {
	assert.Less(t, string(keyFor(9)), string(keyFor(10)))
	seq, err := parseKey(keyFor(12345))
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), seq)
}
