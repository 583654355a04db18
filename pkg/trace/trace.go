// Package trace loads and holds the ordered key sequence replayed against every cache policy.
package trace

import (
	"iter"
	"slices"
)

// Trace is an ordered, immutable sequence of access keys.
// A *Trace is safe to share between goroutines: nothing mutates it after construction.
type Trace struct {
	keys []string
}

// New creates a trace from keys. The slice is copied so later changes
// by the caller are not observed.
func New(keys []string) *Trace {
	return &Trace{keys: slices.Clone(keys)}
}

// Len returns the number of accesses in the trace.
func (t *Trace) Len() int {
	return len(t.keys)
}

// Key returns the i-th access.
func (t *Trace) Key(i int) string {
	return t.keys[i]
}

// All returns an iterator over the accesses in trace order.
func (t *Trace) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, k := range t.keys {
			if !yield(k) {
				return
			}
		}
	}
}

// Distinct returns the number of unique keys in the trace.
func (t *Trace) Distinct() int {
	seen := make(map[string]struct{}, len(t.keys)/4)
	for _, k := range t.keys {
		seen[k] = struct{}{}
	}
	return len(seen)
}

// MaxHits returns the hit count of an unbounded cache: every access
// after a key's first occurrence hits.
func (t *Trace) MaxHits() int {
	return len(t.keys) - t.Distinct()
}
