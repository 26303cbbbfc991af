package cache

import (
	"context"
	"testing"
	"time"

	"finassist/internal/log"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedCache(size int, ttl time.Duration) (*LRUCache[int], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCacheGetSet(t *testing.T) {
	c, _ := newClockedCache(2, time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("unexpected hit on empty cache")
	}
	c.Set("a", 1)
	c.Set("a", 2)
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Fatalf("expected 2, got %d (ok=%v)", v, ok)
	}
	if c.Size() != 1 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newClockedCache(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a should still be cached")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("c should be cached")
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	c, clock := newClockedCache(4, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	clock.advance(30 * time.Second)
	c.Set("b", 3)
	clock.advance(45 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should have expired")
	}
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("expected nothing left to clean, removed %d", n)
	}
	if v, ok := c.Get("b"); !ok || v != 3 {
		t.Fatalf("b should still be fresh, got %d ok=%v", v, ok)
	}

	clock.advance(time.Minute)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 expired entry, removed %d", n)
	}
}

func TestLRUCacheZeroTTLNeverExpires(t *testing.T) {
	c, clock := newClockedCache(1, 0)
	c.Set("a", 1)
	clock.advance(24 * time.Hour)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("zero TTL entry expired")
	}
}

func TestLRUCacheGetOrSet(t *testing.T) {
	c, _ := newClockedCache(2, time.Minute)
	calls := 0
	compute := func() int { calls++; return 42 }

	if v, hit := c.GetOrSet("k", compute); hit || v != 42 {
		t.Fatalf("first call: v=%d hit=%v", v, hit)
	}
	if v, hit := c.GetOrSet("k", compute); !hit || v != 42 {
		t.Fatalf("second call: v=%d hit=%v", v, hit)
	}
	if calls != 1 {
		t.Fatalf("compute called %d times", calls)
	}

	c.Delete("k")
	c.Set("x", 1)
	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("purge left %d items", c.Size())
	}
}

func TestManagerSweepAndRun(t *testing.T) {
	c, clock := newClockedCache(4, time.Second)
	c.Set("a", 1)
	clock.advance(2 * time.Second)

	m := NewManager(log.Discard())
	m.Register(c)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("sweep removed %d", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, time.Millisecond) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("manager did not stop")
	}
}
