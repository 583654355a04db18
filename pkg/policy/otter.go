package policy

import (
	"github.com/maypok86/otter/v2"
)

func init() {
	Register(Policy{
		Name:        "otter",
		Description: "W-TinyLFU with adaptive window (maypok86/otter)",
		New:         newOtter,
	})
}

type otterCache struct {
	c *otter.Cache[string, struct{}]
}

func newOtter(capacity int) (Cache, error) {
	c, err := otter.New(&otter.Options[string, struct{}]{
		MaximumSize:     capacity,
		InitialCapacity: min(capacity, 1<<16),
	})
	if err != nil {
		return nil, err
	}
	return otterCache{c: c}, nil
}

func (o otterCache) Lookup(key string) bool {
	_, ok := o.c.GetIfPresent(key)
	return ok
}

func (o otterCache) Insert(key string) {
	o.c.Set(key, struct{}{})
}
