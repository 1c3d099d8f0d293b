package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RecordingFormatAsciicastV2 tags recordings produced in the asciicast
// v2 line-delimited JSON format.
const RecordingFormatAsciicastV2 = "asciicast-v2"

// Recording is the metadata row for a finished, uploaded session
// transcript. Exactly one Recording exists per stopped session that
// produced a non-empty transcript file.
type Recording struct {
	ID         uuid.UUID `json:"id"`
	SessionID  string    `json:"session_id"`
	StorageKey string    `json:"storage_key"`
	DurationMs int64     `json:"duration_ms"`
	SizeBytes  int64     `json:"size_bytes"`
	Format     string    `json:"format"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// RecordingRepository persists recording metadata.
type RecordingRepository interface {
	Insert(ctx context.Context, recording *Recording) error
	ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]*Recording, error)
}

// StreamStateRepository persists the per-session streaming-active flag.
// The flag is observability-only: a failed write never aborts a stream.
type StreamStateRepository interface {
	SetStreamingActive(ctx context.Context, sessionID string, active bool) error
}
