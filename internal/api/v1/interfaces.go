package v1

import (
	"context"

	"github.com/panecast/panecast/internal/domain"
)

// StreamEngine is the relay engine surface the API delegates to. The
// API decides nothing about session lifecycle; it only forwards calls.
type StreamEngine interface {
	StartPaneStream(ctx context.Context, sessionID, target string) error
	StopPaneStream(ctx context.Context, sessionID string) (*domain.Recording, error)
	TakeSnapshot(ctx context.Context, sessionID, target, eventType string) (*domain.Snapshot, error)
	IsStreamActive(sessionID string) bool
}

// DataStore exposes the repositories the read endpoints need.
type DataStore interface {
	Snapshots() domain.SnapshotRepository
	Recordings() domain.RecordingRepository
}
