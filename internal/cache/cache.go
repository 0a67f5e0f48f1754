package cache

import (
	"context"
	"sync"
	"time"
)

// Replay is a stored response for a request carrying an Idempotency-Key.
type Replay struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	// Fingerprint identifies the request that produced the response.
	Fingerprint string `json:"fingerprint"`
}

// ReplayCache stores replays and guards keys while their first request runs.
// Reserve reports false when another request already holds key.
type ReplayCache interface {
	Get(ctx context.Context, key string) (*Replay, bool, error)
	Set(ctx context.Context, key string, value *Replay, ttl time.Duration) error
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type NoopReplayCache struct{}

func (NoopReplayCache) Get(_ context.Context, _ string) (*Replay, bool, error) {
	return nil, false, nil
}

func (NoopReplayCache) Set(_ context.Context, _ string, _ *Replay, _ time.Duration) error {
	return nil
}

func (NoopReplayCache) Reserve(_ context.Context, _ string, _ time.Duration) (bool, error) {
	return true, nil
}

func (NoopReplayCache) Release(_ context.Context, _ string) error {
	return nil
}

type replayEntry struct {
	value     Replay
	expiresAt time.Time
}

// MemoryReplayCache keeps replays in process. It serves single-instance
// deployments where no redis is configured.
type MemoryReplayCache struct {
	mu       sync.RWMutex
	items    map[string]replayEntry
	reserved map[string]time.Time
	now      func() time.Time
}

func NewMemoryReplayCache() *MemoryReplayCache {
	return &MemoryReplayCache{
		items:    make(map[string]replayEntry),
		reserved: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (c *MemoryReplayCache) Get(_ context.Context, key string) (*Replay, bool, error) {
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	value := entry.value
	return &value, true, nil
}

func (c *MemoryReplayCache) Set(_ context.Context, key string, value *Replay, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = replayEntry{value: *value, expiresAt: expiresAt}
	c.mu.Unlock()
	return nil
}

func (c *MemoryReplayCache) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if expiresAt, held := c.reserved[key]; held && now.Before(expiresAt) {
		return false, nil
	}
	c.reserved[key] = now.Add(ttl)
	return true, nil
}

func (c *MemoryReplayCache) Release(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.reserved, key)
	c.mu.Unlock()
	return nil
}
