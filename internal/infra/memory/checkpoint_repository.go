package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"elearn-platform/internal/checkpoint"
	"elearn-platform/internal/domain"
	"golang.org/x/sync/singleflight"
)

// SetLoader fetches raw checkpoint entries from a backing store.
type SetLoader interface {
	LoadCheckpoints(ctx context.Context, videoID string) ([]checkpoint.RawEntry, error)
}

// CheckpointRepository caches built checkpoint sets with TTL to avoid
// re-validating configuration on every session join.
type CheckpointRepository struct {
	loader SetLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	set       *checkpoint.Set
	expiresAt time.Time
}

func NewCheckpointRepository(loader SetLoader, ttl time.Duration) *CheckpointRepository {
	return &CheckpointRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSet),
	}
}

func (r *CheckpointRepository) GetSet(ctx context.Context, videoID string) (*checkpoint.Set, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[videoID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.set, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(videoID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[videoID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.set, nil
		}
		r.mu.RUnlock()

		entries, err := r.loader.LoadCheckpoints(ctx, videoID)
		if err != nil {
			return nil, err
		}
		set, err := checkpoint.Build(entries)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[videoID] = cachedSet{set: set, expiresAt: now.Add(r.ttlWithJitter())}
		r.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*checkpoint.Set), nil
}

func (r *CheckpointRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticSetLoader serves checkpoint entries from an in-memory map (useful for
// tests/demos).
type StaticSetLoader struct {
	sets map[string][]checkpoint.RawEntry
}

func NewStaticSetLoader(sets map[string][]checkpoint.RawEntry) *StaticSetLoader {
	return &StaticSetLoader{sets: sets}
}

func (l *StaticSetLoader) LoadCheckpoints(_ context.Context, videoID string) ([]checkpoint.RawEntry, error) {
	if entries, ok := l.sets[videoID]; ok {
		return entries, nil
	}
	return nil, domain.ErrCheckpointSetNotFound
}
