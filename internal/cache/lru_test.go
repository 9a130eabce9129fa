package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestLRU(size int, ttl time.Duration) (*LRU[string, int], *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := NewLRU[string, int](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestLRU(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %d %v", v, ok)
	}
	s := c.Stats()
	if s.Evictions != 1 || s.Size != 2 || s.Hits != 2 || s.Misses != 1 {
		t.Fatalf("stats %+v", s)
	}
}

func TestLRUExpiry(t *testing.T) {
	c, clock := newTestLRU(10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	clock.t = clock.t.Add(30 * time.Second)
	c.Set("b", 3)
	clock.t = clock.t.Add(45 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Fatal("a should have expired")
	}
	if v, ok := c.Get("b"); !ok || v != 3 {
		t.Fatalf("overwritten entry should be fresh: %d %v", v, ok)
	}

	clock.t = clock.t.Add(time.Minute)
	if n := c.CleanExpired(); n != 1 || c.Len() != 0 {
		t.Fatalf("CleanExpired removed %d, %d left", n, c.Len())
	}
}

func TestLRUDeleteFunc(t *testing.T) {
	c, _ := newTestLRU(10, time.Minute)
	for i, k := range []string{"u1|2024-01", "u1|2024-02", "u2|2024-01"} {
		c.Set(k, i)
	}
	n := c.DeleteFunc(func(k string) bool { return k[:2] == "u1" })
	if n != 2 || c.Len() != 1 {
		t.Fatalf("removed %d, %d left", n, c.Len())
	}
	c.Delete("u2|2024-01")
	if c.Len() != 0 {
		t.Fatal("Delete left the entry")
	}
}

func TestManagerSweep(t *testing.T) {
	c, clock := newTestLRU(10, time.Second)
	c.Set("a", 1)
	m := NewManager()
	m.Register("reports", c)

	if n := m.Sweep(context.Background()); n != 0 {
		t.Fatalf("fresh entries swept: %d", n)
	}
	clock.t = clock.t.Add(2 * time.Second)
	if n := m.Sweep(context.Background()); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}

	m.Start(context.Background(), time.Hour)
	m.Stop()
	NewManager().Stop()
}
