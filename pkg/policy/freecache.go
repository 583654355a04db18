package policy

import (
	"github.com/coocood/freecache"
)

// freecacheEntryBytes estimates the bytes one entry occupies: a 24 byte
// header plus the key. Capacity is converted to a byte budget with it.
const freecacheEntryBytes = 64

func init() {
	Register(Policy{
		Name:        "freecache",
		Description: "segmented ring buffer with approximate LRU, byte budget (coocood/freecache)",
		New:         newFreecache,
	})
}

type freeCache struct {
	c *freecache.Cache
}

// newFreecache sizes the cache in bytes. freecache rounds small budgets up
// to 512KB, so tiny capacities are overstated.
func newFreecache(capacity int) (Cache, error) {
	return freeCache{c: freecache.NewCache(capacity * freecacheEntryBytes)}, nil
}

func (f freeCache) Lookup(key string) bool {
	_, err := f.c.Get([]byte(key))
	return err == nil
}

// Insert drops entries freecache refuses (ErrLargeEntry); the next lookup misses.
func (f freeCache) Insert(key string) {
	_ = f.c.Set([]byte(key), nil, 0) //nolint:errcheck // refusal is a miss
}
