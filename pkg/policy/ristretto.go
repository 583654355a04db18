package policy

import (
	"github.com/dgraph-io/ristretto"
)

func init() {
	Register(Policy{
		Name:        "ristretto",
		Description: "sampled LFU with count-min sketch admission (dgraph-io/ristretto)",
		New:         newRistretto,
	})
}

type ristrettoCache struct {
	c *ristretto.Cache
}

func newRistretto(capacity int) (Cache, error) {
	// NumCounters should be 10x MaxCost for best performance.
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        int64(capacity) * 10,
		MaxCost:            int64(capacity),
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return ristrettoCache{c: c}, nil
}

func (r ristrettoCache) Lookup(key string) bool {
	_, ok := r.c.Get(key)
	return ok
}

// Insert waits for the set buffer to drain so the next Lookup sees the
// admission decision. A rejected or dropped Set is a miss, as in production.
func (r ristrettoCache) Insert(key string) {
	if r.c.Set(key, struct{}{}, 1) {
		r.c.Wait()
	}
}

func (r ristrettoCache) Close() {
	r.c.Close()
}
