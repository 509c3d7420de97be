package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"conti/internal/core"
)

// Balances memoises derived account balances. It is never a source of truth:
// every write to an account must call Invalidate after commit, and a value
// computed before an invalidation is never stored.
//
// Invalidation only reaches this process, so a cache is only safe when this
// process is the single writer of the database. A nil *Balances is valid and
// loads every balance from the store.
type Balances struct {
	lru   *LRU[string, core.Money]
	group singleflight.Group

	mu sync.Mutex
	// epoch advances on every invalidation. A load stores its result only
	// if the epoch it started under is still current.
	epoch uint64
}

// NewBalances returns nil, a pass-through cache, when maxSize is not positive.
func NewBalances(maxSize int, ttl time.Duration) *Balances {
	if maxSize <= 0 {
		return nil
	}
	return &Balances{lru: NewLRU[string, core.Money](maxSize, ttl)}
}

// Enabled reports whether balances are memoised at all.
func (b *Balances) Enabled() bool { return b != nil }

func balanceKey(owner, accountID string) string {
	return owner + "/" + accountID
}

func (b *Balances) currentEpoch() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.epoch
}

// Get returns the cached balance or computes it with load. Concurrent
// callers for the same account share one load.
func (b *Balances) Get(ctx context.Context, owner, accountID string, load func(context.Context) (core.Money, error)) (core.Money, error) {
	if b == nil {
		return load(ctx)
	}
	key := balanceKey(owner, accountID)
	if m, ok := b.lru.Get(key); ok {
		return m, nil
	}

	epoch := b.currentEpoch()
	res, err, _ := b.group.Do(key+"#"+strconv.FormatUint(epoch, 10), func() (any, error) {
		m, err := load(ctx)
		if err != nil {
			return core.Money{}, err
		}
		b.mu.Lock()
		if b.epoch == epoch {
			b.lru.Set(key, m)
		}
		b.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return core.Money{}, err
	}
	return res.(core.Money), nil
}

// Invalidate drops the cached balance of every given account.
func (b *Balances) Invalidate(owner string, accountIDs ...string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.epoch++
	for _, id := range accountIDs {
		if id != "" {
			b.lru.Delete(balanceKey(owner, id))
		}
	}
}

func (b *Balances) CleanExpired() int {
	if b == nil {
		return 0
	}
	return b.lru.CleanExpired()
}

func (b *Balances) Size() int {
	if b == nil {
		return 0
	}
	return b.lru.Size()
}
