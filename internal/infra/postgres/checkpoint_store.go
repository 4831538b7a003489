package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"elearn-platform/internal/checkpoint"
	"elearn-platform/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CheckpointStore loads and saves checkpoint configuration as JSONB keyed by
// video ID.
type CheckpointStore struct {
	pool *pgxpool.Pool
}

func NewCheckpointStore(pool *pgxpool.Pool) *CheckpointStore {
	return &CheckpointStore{pool: pool}
}

func (s *CheckpointStore) LoadCheckpoints(ctx context.Context, videoID string) ([]checkpoint.RawEntry, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM checkpoint_sets WHERE video_id=$1`, videoID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCheckpointSetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoints: %w", err)
	}
	var entries []checkpoint.RawEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoints: %w", err)
	}
	return entries, nil
}

// SaveCheckpoints upserts the full entry list for a video. Entries are
// validated by the caller (via checkpoint.Build) before they land here.
func (s *CheckpointStore) SaveCheckpoints(ctx context.Context, videoID string, entries []checkpoint.RawEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal checkpoints: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO checkpoint_sets (video_id, data, updated_at) VALUES ($1, $2::jsonb, now())
		 ON CONFLICT (video_id) DO UPDATE SET data=EXCLUDED.data, updated_at=now()`,
		videoID, string(data),
	)
	if err != nil {
		return fmt.Errorf("save checkpoints: %w", err)
	}
	return nil
}
