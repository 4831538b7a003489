package memory

import (
	"context"
	"sync"

	"elearn-platform/internal/domain"
)

// PositionCache keeps the last playback position per session in memory.
type PositionCache struct {
	mu        sync.RWMutex
	positions map[string]domain.PlaybackState
}

func NewPositionCache() *PositionCache {
	return &PositionCache{positions: make(map[string]domain.PlaybackState)}
}

func (c *PositionCache) Save(_ context.Context, sessionID string, state domain.PlaybackState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positions[sessionID] = state
}

func (c *PositionCache) Load(_ context.Context, sessionID string) (domain.PlaybackState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.positions[sessionID]
	return state, ok
}
