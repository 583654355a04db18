package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codeGROOVE-dev/hitbench/pkg/policy"
	"github.com/codeGROOVE-dev/hitbench/pkg/trace"
)

var (
	// ErrNoPolicies is returned when a sweep has nothing to compare.
	ErrNoPolicies = errors.New("no policies to compare")
	// ErrDuplicatePolicy is returned when a policy name appears twice.
	ErrDuplicatePolicy = errors.New("duplicate policy")
	// ErrFraction is returned for an empty fraction list or a fraction outside (0, 1].
	ErrFraction = errors.New("capacity fraction must be in (0, 1]")
)

// Point is one cache size, as a fraction of trace length and in entries.
type Point struct {
	Fraction float64
	Capacity int
}

// PointFor derives the absolute capacity for fraction of a trace of length n.
func PointFor(fraction float64, n int) Point {
	return Point{Fraction: fraction, Capacity: int(math.Round(fraction * float64(n)))}
}

// Row holds one result per policy at a capacity point, in policy order.
type Row struct {
	Point   Point
	Results []Result
}

// Table is a completed sweep.
type Table struct {
	Policies []string
	Rows     []Row
}

// Sweeper compares policies over a trace.
type Sweeper struct {
	// Policies are compared in this order; every row lists them the same way.
	Policies []policy.Policy
	// Workers bounds how many policies replay at once. 0 runs all of them together.
	Workers int
	// Logger receives progress. nil uses slog.Default().
	Logger *slog.Logger
	// OnRow, if set, is called with each row as soon as it completes.
	// An error from OnRow aborts the sweep.
	OnRow func(Row) error
}

// Names returns the policy names in column order.
func (s *Sweeper) Names() []string {
	names := make([]string, len(s.Policies))
	for i, p := range s.Policies {
		names[i] = p.Name
	}
	return names
}

// Validate reports the first reason a sweep over fractions would be rejected.
// Sweep calls it before replaying anything.
func (s *Sweeper) Validate(fractions []float64) error {
	if len(s.Policies) == 0 {
		return ErrNoPolicies
	}
	seen := make(map[string]bool, len(s.Policies))
	for _, p := range s.Policies {
		if seen[p.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicatePolicy, p.Name)
		}
		seen[p.Name] = true
	}
	if len(fractions) == 0 {
		return fmt.Errorf("%w: none given", ErrFraction)
	}
	for _, f := range fractions {
		if !(f > 0 && f <= 1) {
			return fmt.Errorf("%w: got %v", ErrFraction, f)
		}
	}
	return nil
}

func (s *Sweeper) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Sweep evaluates every policy at each fraction of tr's length, one capacity
// point at a time. All policies at a point run concurrently over the shared
// trace, each on its own fresh cache; the row is reported only when all of
// them finish. Any failure aborts the sweep and no further rows are produced.
//
// ctx is checked between capacity points; a replay in progress is never interrupted.
func (s *Sweeper) Sweep(ctx context.Context, tr *trace.Trace, fractions []float64) (*Table, error) {
	if err := s.Validate(fractions); err != nil {
		return nil, err
	}
	log := s.logger()
	table := &Table{Policies: s.Names(), Rows: make([]Row, 0, len(fractions))}

	for _, f := range fractions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := s.point(tr, PointFor(f, tr.Len()))
		if err != nil {
			return nil, err
		}
		table.Rows = append(table.Rows, row)
		if s.OnRow != nil {
			if err := s.OnRow(row); err != nil {
				return nil, fmt.Errorf("report row %v: %w", f, err)
			}
		}
		log.Debug("capacity point done", "fraction", f, "capacity", row.Point.Capacity)
	}
	return table, nil
}

// point runs one task per policy and waits for all of them.
func (s *Sweeper) point(tr *trace.Trace, pt Point) (Row, error) {
	log := s.logger()
	results := make([]Result, len(s.Policies))

	var g errgroup.Group
	if s.Workers > 0 {
		g.SetLimit(s.Workers)
	}
	for i, p := range s.Policies {
		g.Go(func() error {
			start := time.Now()
			res, err := runPolicy(tr, p, pt.Capacity)
			if err != nil {
				return err
			}
			// Each task owns exactly one slot.
			results[i] = res
			log.Debug("replay done", "policy", p.Name, "capacity", pt.Capacity,
				"hits", res.Hits, "elapsed", time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Row{}, fmt.Errorf("capacity %d (fraction %v): %w", pt.Capacity, pt.Fraction, err)
	}
	return Row{Point: pt, Results: results}, nil
}
