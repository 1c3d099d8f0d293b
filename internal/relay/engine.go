// Package relay is the terminal capture-and-relay engine. It bridges a
// tmux pane's output through a named pipe into a batching accumulator
// that feeds both a replayable asciicast transcript and a live pub/sub
// channel, and handles the upload/cleanup lifecycle when a stream
// stops.
package relay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"

	"github.com/panecast/panecast/internal/domain"
)

// Multiplexer is the external terminal multiplexer control surface.
type Multiplexer interface {
	// PipePaneOutput redirects the pane's output into the named pipe.
	PipePaneOutput(ctx context.Context, target, pipePath string) error
	// ClosePipe detaches the pane's output redirect.
	ClosePipe(ctx context.Context, target string) error
	// CapturePane returns the pane's current buffer with escape
	// sequences preserved, reaching back up to lines of scrollback.
	CapturePane(ctx context.Context, target string, lines int) (string, error)
	// PaneSize returns the pane's width and height in cells.
	PaneSize(ctx context.Context, target string) (width, height int, err error)
}

// Publisher abstracts the message-bus publish operation. Delivery is
// best-effort; the transcript file is the durable source of truth.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// ObjectStore persists finished transcripts.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// ErrorReporter receives every swallowed best-effort failure (publish,
// flag write, teardown step, upload) so they stay observable without
// aborting the primary flush or teardown path.
type ErrorReporter func(stage, sessionID string, err error)

func defaultReporter(stage, sessionID string, err error) {
	log.Error().Err(err).Str("session_id", sessionID).Str("stage", stage).Msg("relay: best-effort operation failed")
}

const (
	defaultFlushBytes    = 4096
	defaultFlushInterval = 100 * time.Millisecond
	defaultCaptureLines  = 2000
	defaultPaneWidth     = 80
	defaultPaneHeight    = 24
)

// Options tune the engine. Zero values fall back to defaults; WorkDir
// is required.
type Options struct {
	WorkDir       string
	FlushBytes    int
	FlushInterval time.Duration
	CaptureLines  int
	Report        ErrorReporter
}

// Engine owns the session registry and the full stream lifecycle. All
// state is instance-local so independent engines can coexist in tests.
type Engine struct {
	mux        Multiplexer
	pub        Publisher
	objects    ObjectStore
	snapshots  domain.SnapshotRepository
	recordings domain.RecordingRepository
	state      domain.StreamStateRepository
	opts       Options

	// mu guards sessions. No session's hot path (reading, buffering,
	// flushing) holds it; only lifecycle calls and the shutdown sweep do.
	mu       sync.Mutex
	sessions map[string]*streamSession
}

func NewEngine(
	mux Multiplexer,
	pub Publisher,
	objects ObjectStore,
	snapshots domain.SnapshotRepository,
	recordings domain.RecordingRepository,
	state domain.StreamStateRepository,
	opts Options,
) *Engine {
	if opts.FlushBytes <= 0 {
		opts.FlushBytes = defaultFlushBytes
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = defaultFlushInterval
	}
	if opts.CaptureLines <= 0 {
		opts.CaptureLines = defaultCaptureLines
	}
	if opts.Report == nil {
		opts.Report = defaultReporter
	}

	return &Engine{
		mux:        mux,
		pub:        pub,
		objects:    objects,
		snapshots:  snapshots,
		recordings: recordings,
		state:      state,
		opts:       opts,
		sessions:   make(map[string]*streamSession),
	}
}

// validSessionID rejects identifiers that cannot safely name files
// under the work directory: empty strings, the dot entries, and
// anything containing a path separator.
func validSessionID(sessionID string) bool {
	if sessionID == "" || sessionID == "." || sessionID == ".." {
		return false
	}
	return !strings.ContainsAny(sessionID, `/\`)
}

// IsStreamActive reports whether a stream is registered for sessionID.
// Pure membership check: no I/O, no side effects.
func (e *Engine) IsStreamActive(sessionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sessions[sessionID]
	return ok
}

// StartPaneStream begins capturing the pane's output for sessionID.
// Starting an already-active session is a no-op. Setup failures (pipe
// creation, multiplexer redirect) abort with an error and leave no
// partial state behind.
func (e *Engine) StartPaneStream(ctx context.Context, sessionID, target string) error {
	if !validSessionID(sessionID) {
		return fmt.Errorf("relay.Engine.StartPaneStream: %q: %w", sessionID, domain.ErrInvalidSessionID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.sessions[sessionID]; ok {
		return nil
	}

	if err := os.MkdirAll(e.opts.WorkDir, 0o755); err != nil {
		return fmt.Errorf("relay.Engine.StartPaneStream: work dir: %w", err)
	}

	// Paths carry a per-instance suffix so a stop still tearing down a
	// previous run of the same session ID can never unlink the files a
	// restarted session owns.
	instance := uuid.NewString()
	pipePath := filepath.Join(e.opts.WorkDir, sessionID+"-"+instance+".pipe")
	castPath := filepath.Join(e.opts.WorkDir, sessionID+"-"+instance+".cast")

	if err := unix.Mkfifo(pipePath, 0o600); err != nil {
		return fmt.Errorf("relay.Engine.StartPaneStream: mkfifo %s: %w", pipePath, err)
	}

	width, height, err := e.mux.PaneSize(ctx, target)
	if err != nil {
		e.opts.Report("pane-size", sessionID, err)
		width, height = defaultPaneWidth, defaultPaneHeight
	}

	writer, err := newCastWriter(castPath, width, height, time.Now())
	if err != nil {
		_ = os.Remove(pipePath)
		return fmt.Errorf("relay.Engine.StartPaneStream: %w", err)
	}

	if err := e.mux.PipePaneOutput(ctx, target, pipePath); err != nil {
		_ = writer.Close()
		_ = os.Remove(pipePath)
		_ = os.Remove(castPath)
		return fmt.Errorf("relay.Engine.StartPaneStream: redirect: %w", err)
	}

	s := newStreamSession(sessionID, target, pipePath, castPath, writer)

	if err := s.spawnReader(); err != nil {
		_ = e.mux.ClosePipe(context.WithoutCancel(ctx), target)
		_ = writer.Close()
		_ = os.Remove(pipePath)
		_ = os.Remove(castPath)
		return fmt.Errorf("relay.Engine.StartPaneStream: %w", err)
	}

	e.sessions[sessionID] = s

	// Observability-only write; failure never aborts the stream.
	if err := e.state.SetStreamingActive(ctx, sessionID, true); err != nil {
		e.opts.Report("stream-flag", sessionID, err)
	}

	go e.readLoop(s)

	log.Info().Str("session_id", sessionID).Str("target", target).Msg("pane stream started")
	return nil
}

// StopPaneStream tears down the stream for sessionID and returns the
// Recording metadata if a non-empty transcript was produced and
// uploaded. Unknown sessions return (nil, nil); callers may stop
// speculatively. Every teardown step is best-effort except the final
// synchronous flush, which must complete before the transcript is
// finalized.
func (e *Engine) StopPaneStream(ctx context.Context, sessionID string) (*domain.Recording, error) {
	e.mu.Lock()
	s, ok := e.sessions[sessionID]
	if ok {
		delete(e.sessions, sessionID)
	}
	e.mu.Unlock()

	if !ok {
		return nil, nil
	}

	// Pane may already be gone; a failed detach must not block teardown.
	if err := e.mux.ClosePipe(context.WithoutCancel(ctx), s.target); err != nil {
		e.opts.Report("detach", sessionID, err)
	}

	// Terminating the reader closes its pipe read end; the loop observes
	// EOF, performs its own final flush, and exits.
	s.stopReader()

	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		e.opts.Report("reader-wait", sessionID, fmt.Errorf("reader loop did not exit in time"))
	}

	// Not best-effort: trailing output must reach the transcript before
	// finalization. A no-op when the loop's final flush already ran.
	e.flush(s)

	// Closing under s.mu serializes against any flush from a reader that
	// outlived the wait timeout; a later append then fails with ErrClosed
	// and is reported as transcript-append rather than racing the close.
	s.mu.Lock()
	closeErr := s.writer.Close()
	s.mu.Unlock()
	if closeErr != nil {
		e.opts.Report("transcript-close", sessionID, closeErr)
	}

	if err := os.Remove(s.pipePath); err != nil && !os.IsNotExist(err) {
		e.opts.Report("pipe-remove", sessionID, err)
	}

	if err := e.state.SetStreamingActive(ctx, sessionID, false); err != nil {
		e.opts.Report("stream-flag", sessionID, err)
	}

	if s.writer.Events() == 0 {
		_ = os.Remove(s.castPath)
		log.Info().Str("session_id", sessionID).Msg("pane stream stopped, no output recorded")
		return nil, nil
	}

	recording, err := e.uploadRecording(ctx, s)
	if err != nil {
		// Retain the local transcript so a transient failure is not a
		// permanent loss; the path is logged for manual recovery.
		e.opts.Report("upload", sessionID, err)
		log.Error().Str("session_id", sessionID).Str("path", s.castPath).Msg("upload failed, transcript retained on disk")
		return nil, nil
	}

	if err := os.Remove(s.castPath); err != nil && !os.IsNotExist(err) {
		e.opts.Report("transcript-remove", sessionID, err)
	}

	log.Info().Str("session_id", sessionID).Str("key", recording.StorageKey).Int64("size_bytes", recording.SizeBytes).Msg("pane stream stopped")
	return recording, nil
}

// ShutdownAllStreams stops every active session sequentially, logging
// per-session failures so one failing session never prevents cleanup of
// the others. Safe to call with zero active sessions. Intended as the
// terminal action on process shutdown.
func (e *Engine) ShutdownAllStreams(ctx context.Context) {
	e.mu.Lock()
	ids := make([]string, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	for _, id := range ids {
		if _, err := e.StopPaneStream(ctx, id); err != nil {
			log.Error().Err(err).Str("session_id", id).Msg("relay: shutdown stop failed")
		}
	}
}
