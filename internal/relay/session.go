package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/panecast/panecast/internal/domain"
	redisstore "github.com/panecast/panecast/internal/store/redis"
)

// streamSession is the live state of one active stream. It is owned
// exclusively by the engine's registry; the pipe and transcript files
// belong to this session for its lifetime.
type streamSession struct {
	id        string
	target    string
	pipePath  string
	castPath  string
	startedAt time.Time

	writer *castWriter

	// mu guards the batch buffer and flush timer. Per-session only;
	// never held across pipe reads or network I/O.
	mu    sync.Mutex
	buf   bytes.Buffer
	timer *time.Timer

	// reader is the spawned process holding the pipe's read end. Its
	// termination is the cooperative cancellation signal: the loop's
	// next read observes EOF.
	reader *exec.Cmd
	stdout io.ReadCloser
	cancel context.CancelFunc
	done   chan struct{}
}

func newStreamSession(id, target, pipePath, castPath string, writer *castWriter) *streamSession {
	return &streamSession{
		id:        id,
		target:    target,
		pipePath:  pipePath,
		castPath:  castPath,
		startedAt: time.Now(),
		writer:    writer,
		done:      make(chan struct{}),
	}
}

// spawnReader starts a cat process bound to the pipe's read end. An
// external process rather than an in-process open keeps the FIFO open
// for the multiplexer side and gives teardown a kill target whose death
// deterministically closes the stream.
func (s *streamSession) spawnReader() error {
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, "cat", s.pipePath)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("reader stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("spawn reader: %w", err)
	}

	s.reader = cmd
	s.stdout = stdout
	s.cancel = cancel
	return nil
}

// stopReader terminates the reader process. Context cancellation kills
// the process even when it is still blocked opening the FIFO, so the
// loop exits deterministically.
func (s *streamSession) stopReader() {
	if s.cancel != nil {
		s.cancel()
	}
}

// readLoop streams pipe bytes into the batch accumulator until the
// reader process dies (EOF) or a read error occurs, then performs one
// final flush so no trailing output is lost.
func (e *Engine) readLoop(s *streamSession) {
	defer close(s.done)

	buf := make([]byte, 32*1024)
	for {
		n, err := s.stdout.Read(buf)
		if n > 0 {
			e.appendOutput(s, string(buf[:n]))
		}
		if err != nil {
			if err != io.EOF {
				e.opts.Report("pipe-read", s.id, err)
			}
			break
		}
	}

	// Reap the process; expected to fail with "killed" after stopReader.
	_ = s.reader.Wait()

	e.flush(s)
}

// appendOutput adds a chunk to the session's batch buffer and evaluates
// the flush policy: flush immediately when the size threshold is
// crossed, otherwise arm the single-shot timer on the empty-to-nonempty
// transition.
func (e *Engine) appendOutput(s *streamSession, data string) {
	s.mu.Lock()
	wasEmpty := s.buf.Len() == 0
	s.buf.WriteString(data)

	if s.buf.Len() >= e.opts.FlushBytes {
		e.flushLocked(s)
		s.mu.Unlock()
		return
	}

	if wasEmpty {
		s.timer = time.AfterFunc(e.opts.FlushInterval, func() {
			e.flush(s)
		})
	}
	s.mu.Unlock()
}

// flush writes any buffered output to the transcript and publishes it
// to the live channel. A flush with an empty buffer is a no-op, which
// guards against the timer firing after a size-triggered flush already
// cleared the buffer.
func (e *Engine) flush(s *streamSession) {
	s.mu.Lock()
	e.flushLocked(s)
	s.mu.Unlock()
}

func (e *Engine) flushLocked(s *streamSession) {
	if s.buf.Len() == 0 {
		return
	}

	data := s.buf.String()
	s.buf.Reset()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	// Transcript append is synchronous and unconditional: recording
	// order matches read order, and the file never drops a flush.
	elapsed := time.Since(s.startedAt).Seconds()
	if err := s.writer.WriteOutput(elapsed, data); err != nil {
		e.opts.Report("transcript-append", s.id, err)
	}

	// The live feed is best-effort and must not stall the reader loop,
	// so the publish runs off the hot path with its own deadline.
	go e.publishChunk(s.id, data)
}

func (e *Engine) publishChunk(sessionID, data string) {
	payload, err := json.Marshal(domain.ChunkEnvelope{
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now(),
	})
	if err != nil {
		e.opts.Report("chunk-marshal", sessionID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.pub.Publish(ctx, redisstore.StreamChannel(sessionID), payload); err != nil {
		e.opts.Report("chunk-publish", sessionID, err)
	}
}
