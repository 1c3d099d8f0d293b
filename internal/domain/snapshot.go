package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Snapshot is a captured, full point-in-time image of a pane's current
// buffer, independent of the continuous stream. Escape sequences are
// preserved in Content. Snapshots are immutable once written.
type Snapshot struct {
	ID         uuid.UUID `json:"id"`
	SessionID  string    `json:"session_id"`
	Content    string    `json:"content"`
	EventType  string    `json:"event_type"` // caller-supplied tag: "session-start", "blocked", "completed", ...
	CapturedAt time.Time `json:"captured_at"`
}

// SnapshotRepository persists pane snapshots.
type SnapshotRepository interface {
	Insert(ctx context.Context, snapshot *Snapshot) error
	ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]*Snapshot, error)
}
