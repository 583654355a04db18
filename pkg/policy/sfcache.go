package policy

import (
	"github.com/codeGROOVE-dev/sfcache"
)

func init() {
	Register(Policy{
		Name:        "sfcache",
		Description: "sharded concurrent S3-FIFO (codeGROOVE-dev/sfcache)",
		New:         newSFCache,
	})
}

type sfCache struct {
	c *sfcache.MemoryCache[string, struct{}]
}

func newSFCache(capacity int) (Cache, error) {
	return sfCache{c: sfcache.New[string, struct{}](sfcache.Size(capacity))}, nil
}

func (s sfCache) Lookup(key string) bool {
	_, ok := s.c.Get(key)
	return ok
}

func (s sfCache) Insert(key string) {
	s.c.Set(key, struct{}{})
}

func (s sfCache) Close() {
	s.c.Close()
}
