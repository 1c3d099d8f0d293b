package relay

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastWriterHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.cast")
	start := time.Unix(1700000000, 0)

	w, err := newCastWriter(path, 120, 40, start)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 1)

	var header castHeader
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &header))
	assert.Equal(t, 2, header.Version)
	assert.Equal(t, 120, header.Width)
	assert.Equal(t, 40, header.Height)
	assert.Equal(t, int64(1700000000), header.Timestamp)
}

func TestCastWriterOutputEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.cast")

	w, err := newCastWriter(path, 80, 24, time.Now())
	require.NoError(t, err)

	require.NoError(t, w.WriteOutput(0.5, "hello "))
	require.NoError(t, w.WriteOutput(1.25, "world\r\n"))
	require.NoError(t, w.WriteOutput(1.25, "\x1b[31mred\x1b[0m"))
	assert.Equal(t, 3, w.Events())
	require.NoError(t, w.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 4)

	wantData := []string{"hello ", "world\r\n", "\x1b[31mred\x1b[0m"}
	var prev float64
	for i, line := range lines[1:] {
		var event []any
		require.NoError(t, json.Unmarshal([]byte(line), &event))
		require.Len(t, event, 3)

		elapsed, ok := event[0].(float64)
		require.True(t, ok)
		assert.GreaterOrEqual(t, elapsed, prev, "event timestamps must be non-decreasing")
		prev = elapsed

		assert.Equal(t, "o", event[1])
		assert.Equal(t, wantData[i], event[2])
	}
}

func TestCastWriterWriteAfterCloseReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.cast")

	w, err := newCastWriter(path, 80, 24, time.Now())
	require.NoError(t, err)
	require.NoError(t, w.WriteOutput(0.1, "before close"))
	require.NoError(t, w.Close())

	// A straggling flush after teardown must fail cleanly, leaving the
	// already-written events untouched.
	require.Error(t, w.WriteOutput(0.2, "after close"))
	assert.Len(t, readLines(t, path), 2)
}

func TestCastWriterTruncatesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.cast")
	require.NoError(t, os.WriteFile(path, []byte("stale contents\n"), 0o644))

	w, err := newCastWriter(path, 80, 24, time.Now())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"version":2`)
}

func readLines(t *testing.T, path string) []string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}
