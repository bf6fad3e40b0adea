package memorycache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func newTestCache(t *testing.T, maxEntries int) *Cache {
	t.Helper()
	c, err := New(&Config{
		MaxEntries:    maxEntries,
		DefaultTTL:    time.Minute,
		EnableMetrics: true,
	})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return c
}

func TestCache_SetAndGet(t *testing.T) {
	c := newTestCache(t, 10)
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	value, ok := c.Get(ctx, "k")
	if !ok || value != "v" {
		t.Errorf("Get(k) = (%v, %v), want (v, true)", value, ok)
	}

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := newTestCache(t, 10)
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", 10*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected entry to expire")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed, Len = %d", c.Len())
	}
}

func TestCache_LRUEviction(t *testing.T) {
	c := newTestCache(t, 2)
	ctx := context.Background()

	_ = c.Set(ctx, "a", 1, time.Minute)
	_ = c.Set(ctx, "b", 2, time.Minute)

	// touch "a" so "b" becomes least recently used
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Fatal("expected hit for a")
	}

	_ = c.Set(ctx, "c", 3, time.Minute)

	if _, ok := c.Get(ctx, "b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Error("expected a to survive")
	}
	if _, ok := c.Get(ctx, "c"); !ok {
		t.Error("expected c to survive")
	}

	m := c.Metrics()
	if m.KeysEvicted != 1 {
		t.Errorf("KeysEvicted = %d, want 1", m.KeysEvicted)
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := newTestCache(t, 10)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = c.Set(ctx, fmt.Sprintf("k%d", i), i, time.Minute)
	}

	if err := c.Delete(ctx, "k0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.Get(ctx, "k0"); ok {
		t.Error("expected k0 to be deleted")
	}
	if c.Len() != 4 {
		t.Errorf("Len = %d, want 4", c.Len())
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
}

func TestCache_Metrics(t *testing.T) {
	c := newTestCache(t, 10)
	ctx := context.Background()

	_ = c.Set(ctx, "k", "v", time.Minute)
	c.Get(ctx, "k")
	c.Get(ctx, "k")
	c.Get(ctx, "missing")

	m := c.Metrics()
	if m.Hits != 2 || m.Misses != 1 {
		t.Errorf("metrics = %+v, want 2 hits, 1 miss", m)
	}
	if got := m.HitRate(); got < 0.66 || got > 0.67 {
		t.Errorf("HitRate = %f, want ~0.667", got)
	}
}
