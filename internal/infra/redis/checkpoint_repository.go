package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"elearn-platform/internal/checkpoint"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// SetLoader fetches raw checkpoint entries from a backing store.
type SetLoader interface {
	LoadCheckpoints(ctx context.Context, videoID string) ([]checkpoint.RawEntry, error)
}

// CheckpointRepository caches raw checkpoint entries in Redis (one JSON value
// per video) and falls back to a loader on cache miss. Sets are re-built and
// re-validated from the cached entries, so an invalid configuration is
// rejected no matter which path served it.
type CheckpointRepository struct {
	client *redis.Client
	loader SetLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCheckpointRepository(client *redis.Client, loader SetLoader, ttl time.Duration) *CheckpointRepository {
	return &CheckpointRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CheckpointRepository) GetSet(ctx context.Context, videoID string) (*checkpoint.Set, error) {
	key := r.key(videoID)

	if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
		if set, err := buildFromJSON(raw); err == nil {
			return set, nil
		}
		// fall through to reload on a corrupt cache entry
	}

	result, err, _ := r.sf.Do(videoID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
			if set, err := buildFromJSON(raw); err == nil {
				return set, nil
			}
		}

		entries, err := r.loader.LoadCheckpoints(ctx, videoID)
		if err != nil {
			return nil, err
		}
		set, err := checkpoint.Build(entries)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(entries); err == nil {
			// best-effort cache fill
			_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		}
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*checkpoint.Set), nil
}

func (r *CheckpointRepository) key(videoID string) string {
	return "checkpoints:" + videoID
}

func buildFromJSON(raw []byte) (*checkpoint.Set, error) {
	var entries []checkpoint.RawEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	return checkpoint.Build(entries)
}

func (r *CheckpointRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
