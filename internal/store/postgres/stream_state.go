package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type StreamStateRepo struct {
	pool *pgxpool.Pool
}

func NewStreamStateRepo(pool *pgxpool.Pool) *StreamStateRepo {
	return &StreamStateRepo{pool: pool}
}

// SetStreamingActive upserts the streaming-active flag for a session.
// The flag is observability-only; callers treat failures as best-effort.
func (r *StreamStateRepo) SetStreamingActive(ctx context.Context, sessionID string, active bool) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO stream_states (session_id, streaming_active, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (session_id) DO UPDATE
		 SET streaming_active = EXCLUDED.streaming_active, updated_at = EXCLUDED.updated_at`,
		sessionID, active, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("streamStateRepo.SetStreamingActive: %w", err)
	}

	return nil
}
