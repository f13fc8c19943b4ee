package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry_CopiesInput(t *testing.T) {
	buf := []byte("abc\n")
	e, err := NewEntry(buf)
	require.NoError(t, err)

	buf[0] = 'z'
	assert.Equal(t, "abc\n", e.String())
	assert.Equal(t, 4, e.Size())
	assert.False(t, e.IsZero())
}

func TestNewEntry_Empty(t *testing.T) {
	_, err := NewEntry(nil)
	assert.ErrorIs(t, err, ErrEmptyEntry)
}

func TestCursor_Start(t *testing.T) {
	assert.Equal(t, int64(0), Cursor{}.Start())
	assert.Equal(t, int64(0), Cursor{Offset: 7}.Start())
	assert.Equal(t, int64(7), Cursor{Set: true, Offset: 7}.Start())
}

func TestParseCursorMode(t *testing.T) {
	m, err := ParseCursorMode("ONCE")
	require.NoError(t, err)
	assert.Equal(t, CursorOnce, m)

	m, err = ParseCursorMode("")
	require.NoError(t, err)
	assert.Equal(t, CursorPersist, m)

	_, err = ParseCursorMode("sometimes")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseReplySource(t *testing.T) {
	s, err := ParseReplySource("journal")
	require.NoError(t, err)
	assert.Equal(t, ReplyFromJournal, s)
	assert.Equal(t, "journal", s.String())

	_, err = ParseReplySource("disk")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
