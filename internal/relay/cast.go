package relay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// castContentType is the MIME type used when uploading finished
// transcripts.
const castContentType = "application/x-asciicast"

// castHeader is the first line of an asciicast v2 file.
type castHeader struct {
	Version   int   `json:"version"`
	Width     int   `json:"width"`
	Height    int   `json:"height"`
	Timestamp int64 `json:"timestamp"`
}

// castWriter appends asciicast v2 events to a transcript file. It owns
// no concurrency; callers serialize access. The header line is written
// on creation so the file is replayable from the first event on.
type castWriter struct {
	f      *os.File
	path   string
	events int
}

func newCastWriter(path string, width, height int, start time.Time) (*castWriter, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("relay.newCastWriter: %w", err)
	}

	header, err := json.Marshal(castHeader{
		Version:   2,
		Width:     width,
		Height:    height,
		Timestamp: start.Unix(),
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("relay.newCastWriter: marshal header: %w", err)
	}

	if _, err := f.Write(append(header, '\n')); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("relay.newCastWriter: write header: %w", err)
	}

	return &castWriter{f: f, path: path}, nil
}

// WriteOutput appends one output event line: [elapsedSeconds, "o", data].
// The "o" tag marks standard-output data; the format reserves other tags
// for input and resize events, unused here.
func (w *castWriter) WriteOutput(elapsed float64, data string) error {
	line, err := json.Marshal([]any{elapsed, "o", data})
	if err != nil {
		return fmt.Errorf("relay.castWriter.WriteOutput: marshal: %w", err)
	}

	if _, err := w.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("relay.castWriter.WriteOutput: %w", err)
	}

	w.events++
	return nil
}

// Events returns how many output events were written.
func (w *castWriter) Events() int {
	return w.events
}

func (w *castWriter) Close() error {
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("relay.castWriter.Close: %w", err)
	}
	return nil
}
