// Package sweep replays a trace against cache policies across a series of capacities.
package sweep

import (
	"fmt"
	"runtime/debug"

	"github.com/codeGROOVE-dev/hitbench/pkg/policy"
	"github.com/codeGROOVE-dev/hitbench/pkg/trace"
)

// Result is the outcome of one trace replay.
type Result struct {
	Hits  int
	Total int
}

// Ratio returns Hits/Total, or 0 for an empty trace.
func (r Result) Ratio() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Hits) / float64(r.Total)
}

// Run replays tr against c once, in order: every key is looked up and
// inserted on a miss. The loop is identical for every policy.
func Run(tr *trace.Trace, c policy.Cache) Result {
	hits := 0
	for key := range tr.All() {
		if c.Lookup(key) {
			hits++
		} else {
			c.Insert(key)
		}
	}
	return Result{Hits: hits, Total: tr.Len()}
}

// runPolicy opens a fresh instance of p, replays tr against it and releases it.
// A panic inside the policy is reported as an error.
func runPolicy(tr *trace.Trace, p policy.Policy, capacity int) (res Result, err error) {
	c, err := p.Open(capacity)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: capacity %d: panic: %v\n%s", p.Name, capacity, r, debug.Stack())
		}
		if cl, ok := c.(interface{ Close() }); ok {
			cl.Close()
		}
	}()
	return Run(tr, c), nil
}
