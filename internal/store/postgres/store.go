package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/panecast/panecast/internal/domain"
)

type Store struct {
	pool        *pgxpool.Pool
	snapshots   *SnapshotRepo
	recordings  *RecordingRepo
	streamState *StreamStateRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:        pool,
		snapshots:   NewSnapshotRepo(pool),
		recordings:  NewRecordingRepo(pool),
		streamState: NewStreamStateRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Snapshots() domain.SnapshotRepository      { return s.snapshots }
func (s *Store) Recordings() domain.RecordingRepository    { return s.recordings }
func (s *Store) StreamState() domain.StreamStateRepository { return s.streamState }
