package relay

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/panecast/panecast/internal/domain"
)

// uploadRecording reads the finished transcript, uploads it to object
// storage under a session- and timestamp-namespaced key, and inserts
// the Recording metadata row. The timestamp in the key keeps repeated
// start/stop cycles for the same session ID from colliding.
func (e *Engine) uploadRecording(ctx context.Context, s *streamSession) (*domain.Recording, error) {
	data, err := os.ReadFile(s.castPath)
	if err != nil {
		return nil, fmt.Errorf("relay.Engine.uploadRecording: read transcript: %w", err)
	}

	now := time.Now()
	key := fmt.Sprintf("recordings/%s/%d.cast", s.id, now.Unix())

	if err := e.objects.Put(ctx, key, data, castContentType); err != nil {
		return nil, fmt.Errorf("relay.Engine.uploadRecording: put %s: %w", key, err)
	}

	recording := &domain.Recording{
		ID:         uuid.New(),
		SessionID:  s.id,
		StorageKey: key,
		DurationMs: now.Sub(s.startedAt).Milliseconds(),
		SizeBytes:  int64(len(data)),
		Format:     domain.RecordingFormatAsciicastV2,
		UploadedAt: now,
	}

	if err := e.recordings.Insert(ctx, recording); err != nil {
		return nil, fmt.Errorf("relay.Engine.uploadRecording: insert metadata: %w", err)
	}

	return recording, nil
}
