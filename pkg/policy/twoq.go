package policy

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

func init() {
	Register(Policy{
		Name:        "2q",
		Description: "2Q: recent and frequent LRU queues with a ghost list (hashicorp/golang-lru)",
		New:         newTwoQueue,
	})
}

type twoQueue struct {
	c *lru.TwoQueueCache[string, struct{}]
}

func newTwoQueue(capacity int) (Cache, error) {
	// The ghost list needs at least one slot, which the default ratio
	// rounds away for capacity 1.
	ghost := max(lru.Default2QGhostEntries, 1/float64(capacity))
	c, err := lru.New2QParams[string, struct{}](capacity, lru.Default2QRecentRatio, ghost)
	if err != nil {
		return nil, err
	}
	return twoQueue{c: c}, nil
}

func (q twoQueue) Lookup(key string) bool {
	_, ok := q.c.Get(key)
	return ok
}

func (q twoQueue) Insert(key string) {
	q.c.Add(key, struct{}{})
}
