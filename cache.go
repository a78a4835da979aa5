package funcadapt

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// onceCell holds one memoised result. The result, failure included, is computed by exactly one
// caller; concurrent callers block in Do and then read the winner's result.
type onceCell[V any] struct {
	once sync.Once
	val  V
	err  error
}

// onceMap is a concurrent memo table with at-most-once computation per key.
type onceMap[K comparable, V any] struct {
	m      sync.Map // map[K]*onceCell[V]
	hits   atomic.Uint64
	misses atomic.Uint64
}

func (m *onceMap[K, V]) get(key K, compute func() (V, error)) (V, error) {
	c, ok := m.m.Load(key)
	if !ok {
		// A losing writer reuses the winner's cell.
		c, ok = m.m.LoadOrStore(key, &onceCell[V]{})
	}
	if ok {
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
	cell := c.(*onceCell[V])
	cell.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				// Callers already waiting on the cell see the failure; later callers
				// compute again.
				cell.err = fmt.Errorf("%w: panic: %v", ErrBindFailure, r)
				m.m.CompareAndDelete(key, c)
				panic(r)
			}
		}()
		cell.val, cell.err = compute()
	})
	return cell.val, cell.err
}

func (m *onceMap[K, V]) len() int {
	n := 0
	m.m.Range(func(_, _ any) bool { n++; return true })
	return n
}

// CacheStats reports hit and miss counts of one cache.
type CacheStats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// Stats is a snapshot of the engine caches of the current generation.
type Stats struct {
	Generation  uint64
	Conversions CacheStats
	Adapters    CacheStats
}

func statsOf[K comparable, V any](m *onceMap[K, V]) CacheStats {
	return CacheStats{Hits: m.hits.Load(), Misses: m.misses.Load(), Entries: m.len()}
}
