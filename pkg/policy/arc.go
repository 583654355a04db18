package policy

import (
	"github.com/hashicorp/golang-lru/arc/v2"
)

func init() {
	Register(Policy{
		Name:        "arc",
		Description: "adaptive replacement cache (hashicorp/golang-lru/arc)",
		New:         newARC,
	})
}

type arcCache struct {
	c *arc.ARCCache[string, struct{}]
}

func newARC(capacity int) (Cache, error) {
	c, err := arc.NewARC[string, struct{}](capacity)
	if err != nil {
		return nil, err
	}
	return arcCache{c: c}, nil
}

func (a arcCache) Lookup(key string) bool {
	_, ok := a.c.Get(key)
	return ok
}

func (a arcCache) Insert(key string) {
	a.c.Add(key, struct{}{})
}
