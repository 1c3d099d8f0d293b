package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/panecast/panecast/internal/domain"
)

type RecordingRepo struct {
	pool *pgxpool.Pool
}

func NewRecordingRepo(pool *pgxpool.Pool) *RecordingRepo {
	return &RecordingRepo{pool: pool}
}

func (r *RecordingRepo) Insert(ctx context.Context, recording *domain.Recording) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO recordings (id, session_id, storage_key, duration_ms, size_bytes, format, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		recording.ID, recording.SessionID, recording.StorageKey,
		recording.DurationMs, recording.SizeBytes, recording.Format, recording.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("recordingRepo.Insert: %w", err)
	}

	return nil
}

func (r *RecordingRepo) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]*domain.Recording, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, storage_key, duration_ms, size_bytes, format, uploaded_at
		 FROM recordings WHERE session_id = $1
		 ORDER BY uploaded_at ASC
		 LIMIT $2 OFFSET $3`,
		sessionID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("recordingRepo.ListBySession: %w", err)
	}
	defer rows.Close()

	var recordings []*domain.Recording
	for rows.Next() {
		var rec domain.Recording

		err = rows.Scan(&rec.ID, &rec.SessionID, &rec.StorageKey,
			&rec.DurationMs, &rec.SizeBytes, &rec.Format, &rec.UploadedAt)
		if err != nil {
			return nil, fmt.Errorf("recordingRepo.ListBySession: scan: %w", err)
		}
		recordings = append(recordings, &rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("recordingRepo.ListBySession: rows: %w", err)
	}

	return recordings, nil
}
