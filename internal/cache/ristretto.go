package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Ristretto adapts a ristretto cache to Cache[T]. Ristretto may drop or
// evict entries on its own, so the key set it tracks is an upper bound and
// is pruned on misses.
type Ristretto[T any] struct {
	cache *ristretto.Cache
	ttl   time.Duration

	mu   sync.Mutex
	keys map[string]struct{}
}

var _ Cache[int] = (*Ristretto[int])(nil)

func NewRistretto[T any](maxItems int64, ttl time.Duration) (*Ristretto[T], error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10, // number of keys to track frequency of
		MaxCost:     maxItems,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}
	return &Ristretto[T]{cache: c, ttl: ttl, keys: make(map[string]struct{})}, nil
}

func (r *Ristretto[T]) Get(key string) (T, bool) {
	var zero T
	v, ok := r.cache.Get(key)
	if !ok {
		r.forget(key)
		return zero, false
	}
	data, ok := v.(T)
	if !ok {
		return zero, false
	}
	return data, true
}

func (r *Ristretto[T]) Set(key string, data T) {
	if r.cache.SetWithTTL(key, data, 1, r.ttl) {
		r.mu.Lock()
		r.keys[key] = struct{}{}
		r.mu.Unlock()
	}
	// Sets are buffered; wait so the next Get sees the value.
	r.cache.Wait()
}

func (r *Ristretto[T]) Delete(key string) {
	r.forget(key)
	r.cache.Del(key)
}

func (r *Ristretto[T]) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

// Close stops ristretto's background goroutines.
func (r *Ristretto[T]) Close() {
	r.cache.Close()
}

func (r *Ristretto[T]) forget(key string) {
	r.mu.Lock()
	delete(r.keys, key)
	r.mu.Unlock()
}
