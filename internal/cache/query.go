package cache

import (
	"strconv"
	"strings"
	"time"
)

// QueryKey builds the cache key for a detail-table query against one
// snapshot generation. Entries from older generations are never hit again
// and age out through eviction.
func QueryKey(generation uint64, parts ...string) string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(generation, 10))
	for _, p := range parts {
		b.WriteByte('|')
		b.WriteString(p)
	}
	return b.String()
}

// QueryCache caches computed query results per snapshot generation.
type QueryCache[T any] struct {
	*LRUCache[T]
}

// NewQueryCache creates a query cache holding at most size results.
func NewQueryCache[T any](size int, ttl time.Duration) *QueryCache[T] {
	return &QueryCache[T]{LRUCache: NewLRUCache[T](size, ttl)}
}

// GetOrCompute returns the cached value for key or computes and stores it.
// Errors are not cached.
func (q *QueryCache[T]) GetOrCompute(key string, compute func() (T, error)) (T, bool, error) {
	if v, ok := q.Get(key); ok {
		return v, true, nil
	}
	v, err := compute()
	if err != nil {
		var zero T
		return zero, false, err
	}
	q.Set(key, v)
	return v, false, nil
}
