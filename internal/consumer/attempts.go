package consumer

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// attemptTracker counts failed deliveries per event ID. The cache is bounded
// so that a stream of distinct failing events cannot grow memory without limit;
// an evicted counter simply restarts at zero.
type attemptTracker struct {
	cache *lru.Cache[string, int]
}

func newAttemptTracker(size int) (*attemptTracker, error) {
	cache, err := lru.New[string, int](size)
	if err != nil {
		return nil, err
	}
	return &attemptTracker{cache: cache}, nil
}

// record adds a failed attempt for id and returns the new count.
func (t *attemptTracker) record(id string) int {
	n, _ := t.cache.Get(id)
	n++
	t.cache.Add(id, n)
	return n
}

func (t *attemptTracker) count(id string) int {
	n, _ := t.cache.Get(id)
	return n
}

func (t *attemptTracker) forget(id string) {
	t.cache.Remove(id)
}
