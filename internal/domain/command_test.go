package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeek(t *testing.T) {
	tests := []struct {
		name    string
		record  string
		want    SeekCommand
		wantErr bool
	}{
		{"with delimiter", "SEEKTO:1,1\n", SeekCommand{Entry: 1, Offset: 1}, false},
		{"without delimiter", "SEEKTO:0,0", SeekCommand{}, false},
		{"large values", "SEEKTO:12,345\n", SeekCommand{Entry: 12, Offset: 345}, false},
		{"missing comma", "SEEKTO:12\n", SeekCommand{}, true},
		{"negative entry", "SEEKTO:-1,0\n", SeekCommand{}, true},
		{"plus sign", "SEEKTO:+1,0\n", SeekCommand{}, true},
		{"empty offset", "SEEKTO:1,\n", SeekCommand{}, true},
		{"empty entry", "SEEKTO:,1\n", SeekCommand{}, true},
		{"trailing space", "SEEKTO:1,1 \n", SeekCommand{}, true},
		{"carriage return", "SEEKTO:1,1\r\n", SeekCommand{}, true},
		{"extra field", "SEEKTO:1,1,1\n", SeekCommand{}, true},
		{"overflow", "SEEKTO:99999999999999999999,0\n", SeekCommand{}, true},
		{"lowercase prefix", "seekto:1,1\n", SeekCommand{}, true},
		{"data record", "hello\n", SeekCommand{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSeek([]byte(tt.record))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedSeek)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsControl(t *testing.T) {
	assert.True(t, IsControl([]byte("SEEKTO:1,2\n")))
	assert.True(t, IsControl([]byte("SEEKTO:garbage\n")))
	assert.False(t, IsControl([]byte("SEEK:1,2\n")))
	assert.False(t, IsControl([]byte(" SEEKTO:1,2\n")))
}
