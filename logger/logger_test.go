package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}

	return entries
}

func TestNewZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger(zerolog.New(&buf), "pongserver", zerolog.InfoLevel)

	l.Debug("hidden")
	l.Info("connection accepted", Field{Key: "conn", Value: 7})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "connection accepted", entries[0]["message"])
	assert.Equal(t, "pongserver", entries[0]["service"])
	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, float64(7), entries[0]["conn"])
	assert.Contains(t, entries[0], "time")
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	base := NewZerologLogger(zerolog.New(&buf), "pongserver", zerolog.DebugLevel)
	scoped := base.With(Field{Key: "session", Value: "abc"})

	scoped.Warn("peer abandoned")
	base.Error("plain")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "abc", entries[0]["session"])
	assert.NotContains(t, entries[1], "session")
	assert.NoError(t, scoped.Close())
}

func TestNew(t *testing.T) {
	t.Run("level filters entries", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := New(Options{Service: "pongclient", Level: "WARN", Output: &buf})
		require.NoError(t, err)

		l.Info("hidden")
		l.Warn("shown")

		entries := decodeLines(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "shown", entries[0]["message"])
	})

	t.Run("console format is human readable", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := New(Options{Service: "pongclient", Format: FormatConsole, Output: &buf})
		require.NoError(t, err)

		l.Info("tick", Field{Key: "sync", Value: 3})
		assert.Contains(t, buf.String(), "tick")
		assert.Contains(t, buf.String(), "sync=3")
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := New(Options{Level: "loud"})
		assert.Error(t, err)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := New(Options{Format: "xml"})
		assert.Error(t, err)
	})

	t.Run("dir writes a rotated file too", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "logs")
		var buf bytes.Buffer
		l, err := New(Options{Service: "pongserver", Dir: dir, Output: &buf})
		require.NoError(t, err)

		l.Info("written twice")
		require.NoError(t, l.Close())
		require.NoError(t, l.Close())

		name := filepath.Join(dir, "pongserver_"+time.Now().Format(dateLayout)+".log")
		data, err := os.ReadFile(name)
		require.NoError(t, err)
		assert.Contains(t, string(data), "written twice")
		assert.Contains(t, buf.String(), "written twice")
	})
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("nothing")
	assert.NotNil(t, l.With(Field{Key: "a", Value: 1}))
	assert.NoError(t, l.Close())
}

func TestDailyFileWriter_RotatesOnDateChange(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	current := time.Date(2026, 10, 17, 23, 59, 0, 0, time.UTC)
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	w, err := newDailyFileWriter("pongserver", dir, now, time.Hour)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("before midnight\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pongserver_2026-10-17.log"), w.CurrentLogFile())

	mu.Lock()
	current = current.Add(2 * time.Minute)
	mu.Unlock()

	_, err = w.Write([]byte("after midnight\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pongserver_2026-10-18.log"), w.CurrentLogFile())

	first, err := os.ReadFile(filepath.Join(dir, "pongserver_2026-10-17.log"))
	require.NoError(t, err)
	assert.Equal(t, "before midnight\n", string(first))

	second, err := os.ReadFile(filepath.Join(dir, "pongserver_2026-10-18.log"))
	require.NoError(t, err)
	assert.Equal(t, "after midnight\n", string(second))
}

func TestDailyFileWriter_WriteAfterClose(t *testing.T) {
	w, err := NewDailyFileWriter("pongserver", t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))
	assert.Error(t, err)
	assert.Empty(t, w.CurrentLogFile())
}
