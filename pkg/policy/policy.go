// Package policy adapts cache implementations to the lookup/insert contract the harness replays.
package policy

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrUnknownPolicy is returned when a requested policy name is not registered.
var ErrUnknownPolicy = errors.New("unknown policy")

// Cache is a uniform view of one cache instance.
//
// Lookup reports whether key is resident and records the access with the
// policy. It never inserts. Insert offers key for admission; a policy may
// refuse it. Neither method fails: implementations turn library errors into
// misses or no-ops.
type Cache interface {
	Lookup(key string) bool
	Insert(key string)
}

// Factory creates a cache sized for capacity entries. capacity is always positive.
type Factory func(capacity int) (Cache, error)

// Policy is a named cache implementation under comparison.
type Policy struct {
	Name        string
	Description string
	New         Factory
}

// Open creates a fresh instance for capacity. A capacity of 0 or less
// yields an instance that never holds anything.
func (p Policy) Open(capacity int) (Cache, error) {
	if capacity <= 0 {
		return nop{}, nil
	}
	c, err := p.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("%s: capacity %d: %w", p.Name, capacity, err)
	}
	return c, nil
}

type nop struct{}

func (nop) Lookup(string) bool { return false }
func (nop) Insert(string)      {}

var (
	mu       sync.RWMutex
	registry []Policy
)

// Register adds p to the registry. It panics if the name is empty or already taken.
func Register(p Policy) {
	mu.Lock()
	defer mu.Unlock()
	if p.Name == "" || p.New == nil {
		panic("policy: Register needs a name and a factory")
	}
	if slices.ContainsFunc(registry, func(q Policy) bool { return q.Name == p.Name }) {
		panic("policy: Register called twice for " + p.Name)
	}
	registry = append(registry, p)
}

// Lookup returns the registered policy called name.
func Lookup(name string) (Policy, bool) {
	mu.RLock()
	defer mu.RUnlock()
	i := slices.IndexFunc(registry, func(p Policy) bool { return p.Name == name })
	if i < 0 {
		return Policy{}, false
	}
	return registry[i], true
}

// Names returns every registered policy name in registration order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, len(registry))
	for i, p := range registry {
		names[i] = p.Name
	}
	return names
}

// Select resolves names in the given order.
func Select(names []string) ([]Policy, error) {
	ps := make([]Policy, 0, len(names))
	for _, n := range names {
		p, ok := Lookup(n)
		if !ok {
			return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownPolicy, n, Names())
		}
		ps = append(ps, p)
	}
	return ps, nil
}

// Defaults returns the policies compared when none are requested.
// freecache is left out: it budgets bytes, not entries.
func Defaults() []Policy {
	ps, err := Select([]string{"fifo", "lru", "2q", "arc", "otter", "ristretto", "tinylfu", "sfcache", "s3fifo"})
	if err != nil {
		panic(err)
	}
	return ps
}
