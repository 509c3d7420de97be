package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"conti/internal/core"
)

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRU[string, int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a")
	}
	c.Set("c", 3) // evicts b, the least recently used
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU[string, int](10, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("a", 1)
	c.Set("b", 2)
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a to be expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 cleaned, got %d", n)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestBalancesMemoiseAndInvalidate(t *testing.T) {
	b := NewBalances(10, time.Minute)
	var calls int32
	load := func(context.Context) (core.Money, error) {
		n := atomic.AddInt32(&calls, 1)
		return core.Money{Cents: int64(n) * 100}, nil
	}
	ctx := context.Background()

	m, err := b.Get(ctx, "alice", "acc", load)
	if err != nil || m.Cents != 100 {
		t.Fatalf("unexpected first load: %v %v", m, err)
	}
	m, _ = b.Get(ctx, "alice", "acc", load)
	if m.Cents != 100 || calls != 1 {
		t.Fatalf("expected cached value, got %v after %d loads", m, calls)
	}

	b.Invalidate("alice", "acc")
	m, _ = b.Get(ctx, "alice", "acc", load)
	if m.Cents != 200 {
		t.Fatalf("expected reload after invalidate, got %v", m)
	}
}

func TestBalancesSkipsStaleStore(t *testing.T) {
	b := NewBalances(10, time.Minute)
	ctx := context.Background()
	_, _ = b.Get(ctx, "alice", "acc", func(context.Context) (core.Money, error) {
		b.Invalidate("alice", "acc") // a write commits mid-load
		return core.Money{Cents: 1}, nil
	})
	if b.Size() != 0 {
		t.Fatal("a value loaded before invalidation must not be cached")
	}
}

func TestBalancesCollapseConcurrentLoads(t *testing.T) {
	b := NewBalances(10, time.Minute)
	release := make(chan struct{})
	var calls int32
	load := func(context.Context) (core.Money, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return core.Money{Cents: 42}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m, err := b.Get(context.Background(), "alice", "acc", load); err != nil || m.Cents != 42 {
				t.Errorf("unexpected result %v %v", m, err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	if calls > 8 || calls < 1 {
		t.Fatalf("unexpected load count %d", calls)
	}
}

func TestBalancesLoadError(t *testing.T) {
	b := NewBalances(10, time.Minute)
	boom := errors.New("boom")
	_, err := b.Get(context.Background(), "alice", "acc", func(context.Context) (core.Money, error) {
		return core.Money{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if b.Size() != 0 {
		t.Fatal("errors must not be cached")
	}
}

func TestBalancesEpochDoesNotGrowState(t *testing.T) {
	b := NewBalances(2, time.Minute)
	ctx := context.Background()
	load := func(context.Context) (core.Money, error) { return core.Money{Cents: 7}, nil }

	for i := 0; i < 1000; i++ {
		id := "acc" + strconv.Itoa(i)
		_, _ = b.Get(ctx, "alice", id, load)
		b.Invalidate("alice", id)
	}
	if b.Size() != 0 {
		t.Fatalf("expected empty cache after invalidating everything, got %d", b.Size())
	}

	// a stable epoch caches again
	_, _ = b.Get(ctx, "alice", "acc", load)
	if b.Size() != 1 {
		t.Fatalf("expected one cached balance, got %d", b.Size())
	}
}

func TestNilBalancesPassThrough(t *testing.T) {
	b := NewBalances(0, time.Minute)
	if b.Enabled() {
		t.Fatal("size 0 should disable the cache")
	}
	var calls int32
	load := func(context.Context) (core.Money, error) {
		return core.Money{Cents: int64(atomic.AddInt32(&calls, 1))}, nil
	}
	ctx := context.Background()
	first, _ := b.Get(ctx, "alice", "acc", load)
	second, _ := b.Get(ctx, "alice", "acc", load)
	if first.Cents != 1 || second.Cents != 2 {
		t.Fatalf("expected every read to load, got %v then %v", first, second)
	}
	b.Invalidate("alice", "acc")
	if b.Size() != 0 || b.CleanExpired() != 0 {
		t.Fatal("pass-through cache must hold nothing")
	}
}
