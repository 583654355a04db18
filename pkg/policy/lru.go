package policy

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

func init() {
	Register(Policy{
		Name:        "lru",
		Description: "least recently used (hashicorp/golang-lru simplelru)",
		New:         newLRU,
	})
}

type lruCache struct {
	c *simplelru.LRU[string, struct{}]
}

func newLRU(capacity int) (Cache, error) {
	c, err := simplelru.NewLRU[string, struct{}](capacity, nil)
	if err != nil {
		return nil, err
	}
	return lruCache{c: c}, nil
}

func (l lruCache) Lookup(key string) bool {
	_, ok := l.c.Get(key)
	return ok
}

func (l lruCache) Insert(key string) {
	l.c.Add(key, struct{}{})
}
