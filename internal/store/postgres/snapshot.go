package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/panecast/panecast/internal/domain"
)

type SnapshotRepo struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

func (r *SnapshotRepo) Insert(ctx context.Context, snapshot *domain.Snapshot) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO terminal_snapshots (id, session_id, content, event_type, captured_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		snapshot.ID, snapshot.SessionID, snapshot.Content, snapshot.EventType, snapshot.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("snapshotRepo.Insert: %w", err)
	}

	return nil
}

func (r *SnapshotRepo) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]*domain.Snapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, content, event_type, captured_at
		 FROM terminal_snapshots WHERE session_id = $1
		 ORDER BY captured_at ASC
		 LIMIT $2 OFFSET $3`,
		sessionID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("snapshotRepo.ListBySession: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.Snapshot
	for rows.Next() {
		var s domain.Snapshot

		err = rows.Scan(&s.ID, &s.SessionID, &s.Content, &s.EventType, &s.CapturedAt)
		if err != nil {
			return nil, fmt.Errorf("snapshotRepo.ListBySession: scan: %w", err)
		}
		snapshots = append(snapshots, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshotRepo.ListBySession: rows: %w", err)
	}

	return snapshots, nil
}
