package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryReplayCacheExpires(t *testing.T) {
	c := NewMemoryReplayCache()
	now := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if err := c.Set(ctx, "key-1", &Replay{Status: 201, ContentType: "application/json", Body: []byte(`{"id":"1"}`)}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := c.Get(ctx, "key-1")
	if err != nil || !ok {
		t.Fatalf("expected a hit, got ok=%v err=%v", ok, err)
	}
	if got.Status != 201 || string(got.Body) != `{"id":"1"}` {
		t.Fatalf("unexpected replay %+v", got)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "key-1"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestMemoryReplayCacheIgnoresNil(t *testing.T) {
	c := NewMemoryReplayCache()
	if err := c.Set(context.Background(), "k", nil, time.Minute); err != nil {
		t.Fatalf("set nil: %v", err)
	}
	if _, ok, _ := c.Get(context.Background(), "k"); ok {
		t.Fatalf("nil replay must not be stored")
	}
}

func TestNoopReplayCacheAlwaysMisses(t *testing.T) {
	var c ReplayCache = NoopReplayCache{}
	_ = c.Set(context.Background(), "k", &Replay{Status: 200}, time.Minute)
	if _, ok, err := c.Get(context.Background(), "k"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryReplayCacheReserveIsExclusive(t *testing.T) {
	c := NewMemoryReplayCache()
	now := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if ok, err := c.Reserve(ctx, "key-1", time.Minute); err != nil || !ok {
		t.Fatalf("first reserve: ok=%v err=%v", ok, err)
	}
	if ok, _ := c.Reserve(ctx, "key-1", time.Minute); ok {
		t.Fatalf("second reserve must fail while the key is held")
	}

	if err := c.Release(ctx, "key-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := c.Reserve(ctx, "key-1", time.Minute); !ok {
		t.Fatalf("reserve after release must succeed")
	}

	now = now.Add(2 * time.Minute)
	if ok, _ := c.Reserve(ctx, "key-1", time.Minute); !ok {
		t.Fatalf("an expired reservation must not block")
	}
}
