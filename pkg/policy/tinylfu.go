package policy

import (
	"github.com/vmihailenco/go-tinylfu"
)

func init() {
	Register(Policy{
		Name:        "tinylfu",
		Description: "W-TinyLFU with segmented LRU main space (vmihailenco/go-tinylfu)",
		New:         newTinyLFU,
	})
}

type tinyLFU struct {
	c *tinylfu.T
}

// minTinyLFUSize is the smallest size go-tinylfu accepts: its count-min
// sketch is as wide as size, and a width of 1 holds zero counters. Both
// sizes clamp the window and main segments to one entry each, so raising
// 1 to 2 changes only the sketch.
const minTinyLFUSize = 2

func newTinyLFU(capacity int) (Cache, error) {
	size := max(capacity, minTinyLFUSize)
	return tinyLFU{c: tinylfu.New(size, size*10)}, nil
}

func (t tinyLFU) Lookup(key string) bool {
	_, ok := t.c.Get(key)
	return ok
}

func (t tinyLFU) Insert(key string) {
	t.c.Set(&tinylfu.Item{Key: key, Value: struct{}{}})
}
