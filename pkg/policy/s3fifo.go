package policy

import (
	"github.com/codeGROOVE-dev/hitbench/pkg/s3fifo"
)

func init() {
	Register(Policy{
		Name:        "s3fifo",
		Description: "single-owner S3-FIFO with ghost admission",
		New:         newS3FIFO,
	})
}

type s3fifoCache struct {
	c *s3fifo.Cache[string, struct{}]
}

func newS3FIFO(capacity int) (Cache, error) {
	return s3fifoCache{c: s3fifo.New[string, struct{}](s3fifo.Size(capacity))}, nil
}

func (s s3fifoCache) Lookup(key string) bool {
	_, ok := s.c.Get(key)
	return ok
}

func (s s3fifoCache) Insert(key string) {
	s.c.Set(key, struct{}{})
}
