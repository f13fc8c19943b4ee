package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestZerologAdapter_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologAdapter(Options{Level: "debug", Format: "json", Out: &buf})

	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9000}
	l.Info("connection accepted", ConnID("c1"), Remote(addr), Int("n", 3), Err(errors.New("boom")))

	lines := jsonLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "connection accepted", lines[0]["message"])
	assert.Equal(t, "c1", lines[0]["conn"])
	assert.Equal(t, "127.0.0.1:9000", lines[0]["remote"])
	assert.Equal(t, float64(3), lines[0]["n"])
	assert.Equal(t, "boom", lines[0]["error"])
}

func TestZerologAdapter_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologAdapter(Options{Level: "warn", Format: "json", Out: &buf})

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	require.NoError(t, l.SetLevel("debug"))
	assert.Equal(t, zerolog.DebugLevel, l.Level())
	l.Debug("shown")
	assert.Len(t, jsonLines(t, &buf), 1)

	assert.Error(t, l.SetLevel("loud"))
	assert.Equal(t, zerolog.DebugLevel, l.Level())
}

func TestWith_FollowsParentLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologAdapter(Options{Level: "info", Format: "json", Out: &buf})
	child := With(With(l, ConnID("c9")), String("stage", "reply"))

	child.Debug("hidden")
	assert.Zero(t, buf.Len())

	require.NoError(t, l.SetLevel("debug"))
	child.Debug("shown", Int64("offset", 5))

	lines := jsonLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "c9", lines[0]["conn"])
	assert.Equal(t, "reply", lines[0]["stage"])
	assert.Equal(t, float64(5), lines[0]["offset"])
}

func TestBytes_HumanReadable(t *testing.T) {
	assert.Equal(t, "1.0 kB", Bytes("size", 1000).Value)
	assert.Equal(t, "0 B", Bytes("size", -4).Value)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, l)

	l, err = ParseLevel(" ERROR ")
	require.NoError(t, err)
	assert.Equal(t, zerolog.ErrorLevel, l)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NewNoopLogger()
	assert.NotPanics(t, func() {
		l.Error("dropped", Err(errors.New("x")))
	})
}

func TestNoopLogger_SetLevelValidates(t *testing.T) {
	lv, ok := Logger(NewNoopLogger()).(Leveler)
	require.True(t, ok)
	assert.NoError(t, lv.SetLevel("debug"))
	assert.Error(t, lv.SetLevel("shout"))
}
