package redis

import (
	"context"
	"encoding/json"
	"time"

	"elearn-platform/internal/domain"
	"github.com/redis/go-redis/v9"
)

// PositionCache persists the last playback position per session so playback
// can resume near where it left off after a reload. Writes are best-effort.
type PositionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPositionCache(client *redis.Client, ttl time.Duration) *PositionCache {
	return &PositionCache{client: client, ttl: ttl}
}

func (c *PositionCache) Save(ctx context.Context, sessionID string, state domain.PlaybackState) {
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(sessionID), data, c.ttl).Err()
}

func (c *PositionCache) Load(ctx context.Context, sessionID string) (domain.PlaybackState, bool) {
	raw, err := c.client.Get(ctx, c.key(sessionID)).Bytes()
	if err != nil {
		return domain.PlaybackState{}, false
	}
	var state domain.PlaybackState
	if err := json.Unmarshal(raw, &state); err != nil {
		return domain.PlaybackState{}, false
	}
	return state, true
}

func (c *PositionCache) key(sessionID string) string {
	return "player:position:" + sessionID
}
