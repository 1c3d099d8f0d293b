package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/panecast/panecast/internal/domain"
	redisstore "github.com/panecast/panecast/internal/store/redis"
)

// TakeSnapshot synchronously captures the pane's full current buffer,
// escape sequences intact, persists it, and publishes it to the
// session's snapshot channel (best-effort). It is independent of the
// streaming state: it works whether or not a stream is active for the
// session.
func (e *Engine) TakeSnapshot(ctx context.Context, sessionID, target, eventType string) (*domain.Snapshot, error) {
	content, err := e.mux.CapturePane(ctx, target, e.opts.CaptureLines)
	if err != nil {
		return nil, fmt.Errorf("relay.Engine.TakeSnapshot: capture: %w", err)
	}

	snapshot := &domain.Snapshot{
		ID:         uuid.New(),
		SessionID:  sessionID,
		Content:    content,
		EventType:  eventType,
		CapturedAt: time.Now(),
	}

	if err := e.snapshots.Insert(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("relay.Engine.TakeSnapshot: insert: %w", err)
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		e.opts.Report("snapshot-marshal", sessionID, err)
		return snapshot, nil
	}
	if err := e.pub.Publish(ctx, redisstore.SnapshotChannel(sessionID), payload); err != nil {
		e.opts.Report("snapshot-publish", sessionID, err)
	}

	return snapshot, nil
}
