package sweep

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/codeGROOVE-dev/hitbench/pkg/policy"
	"github.com/codeGROOVE-dev/hitbench/pkg/trace"
	"github.com/codeGROOVE-dev/hitbench/pkg/workload"
)

var errBoom = errors.New("boom")

func mustSelect(t *testing.T, names ...string) []policy.Policy {
	t.Helper()
	ps, err := policy.Select(names)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	return ps
}

// failingFrom behaves like lru below capacity from and fails to construct at or above it.
func failingFrom(t *testing.T, from int) policy.Policy {
	lru := mustSelect(t, "lru")[0]
	return policy.Policy{
		Name: "failing",
		New: func(capacity int) (policy.Cache, error) {
			if capacity >= from {
				return nil, errBoom
			}
			return lru.New(capacity)
		},
	}
}

type panicky struct{}

func (panicky) Lookup(string) bool { return false }
func (panicky) Insert(string)      { panic("cache exploded") }

// closeCounter counts Close calls on the instances it hands out.
type closeCounter struct {
	policy.Cache
	closed *atomic.Int32
}

func (c closeCounter) Close() { c.closed.Add(1) }

func TestResult_Ratio(t *testing.T) {
	tests := []struct {
		r    Result
		want float64
	}{
		{Result{Hits: 1, Total: 5}, 0.2},
		{Result{Hits: 2, Total: 3}, 2.0 / 3.0},
		{Result{}, 0},
	}
	for _, tt := range tests {
		if got := tt.r.Ratio(); got != tt.want {
			t.Errorf("%+v.Ratio() = %v; want %v", tt.r, got, tt.want)
		}
	}
}

func TestRun_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		policy   string
		keys     []string
		capacity int
		hits     int
	}{
		{"strict recency", "fifo", []string{"a", "b", "a", "c", "a"}, 2, 1},
		{"repeated key", "lru", []string{"x", "x", "x"}, 1, 2},
		{"repeated key s3fifo", "s3fifo", []string{"x", "x", "x"}, 1, 2},
		{"empty trace", "lru", nil, 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := trace.New(tt.keys)
			res, err := runPolicy(tr, mustSelect(t, tt.policy)[0], tt.capacity)
			if err != nil {
				t.Fatalf("runPolicy: %v", err)
			}
			if res.Hits != tt.hits || res.Total != len(tt.keys) {
				t.Errorf("result = %+v; want %d hits of %d", res, tt.hits, len(tt.keys))
			}
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	tr := workload.Zipf(20000, 2000, 0.9, 5)
	for _, p := range mustSelect(t, "fifo", "lru", "2q", "arc", "s3fifo") {
		t.Run(p.Name, func(t *testing.T) {
			a, err := runPolicy(tr, p, 200)
			if err != nil {
				t.Fatalf("runPolicy: %v", err)
			}
			b, _ := runPolicy(tr, p, 200)
			if a != b {
				t.Errorf("runs differ: %+v vs %+v", a, b)
			}
		})
	}
}

func TestRunPolicy_ClosesInstance(t *testing.T) {
	var closed atomic.Int32
	lru := mustSelect(t, "lru")[0]
	p := policy.Policy{
		Name: "counted",
		New: func(capacity int) (policy.Cache, error) {
			c, err := lru.New(capacity)
			return closeCounter{Cache: c, closed: &closed}, err
		},
	}
	if _, err := runPolicy(trace.New([]string{"a"}), p, 1); err != nil {
		t.Fatalf("runPolicy: %v", err)
	}
	if closed.Load() != 1 {
		t.Errorf("Close called %d times; want 1", closed.Load())
	}
}

func TestSweep_RowsComplete(t *testing.T) {
	tr := workload.Zipf(5000, 1000, 0.9, 1)
	s := &Sweeper{Policies: mustSelect(t, "s3fifo", "lru", "fifo")}
	fractions := []float64{0.01, 0.05, 0.1}

	var streamed []Row
	s.OnRow = func(r Row) error {
		streamed = append(streamed, r)
		return nil
	}

	table, err := s.Sweep(context.Background(), tr, fractions)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if want := []string{"s3fifo", "lru", "fifo"}; !slices.Equal(table.Policies, want) {
		t.Errorf("Policies = %v; want %v", table.Policies, want)
	}
	if len(table.Rows) != len(fractions) || len(streamed) != len(fractions) {
		t.Fatalf("rows = %d, streamed = %d; want %d", len(table.Rows), len(streamed), len(fractions))
	}
	for i, row := range table.Rows {
		if row.Point.Fraction != fractions[i] {
			t.Errorf("row %d fraction = %v; want %v", i, row.Point.Fraction, fractions[i])
		}
		if len(row.Results) != 3 {
			t.Errorf("row %d has %d results; want 3", i, len(row.Results))
		}
		for j, res := range row.Results {
			if res.Total != tr.Len() {
				t.Errorf("row %d col %d total = %d; want %d", i, j, res.Total, tr.Len())
			}
		}
	}
	if got := table.Rows[1].Point.Capacity; got != 250 {
		t.Errorf("capacity at 0.05 = %d; want 250", got)
	}
}

func TestSweep_MatchesSequentialRuns(t *testing.T) {
	tr := workload.Zipf(10000, 3000, 0.95, 2)
	ps := mustSelect(t, "lru", "2q", "arc", "fifo", "s3fifo")
	table, err := (&Sweeper{Policies: ps}).Sweep(context.Background(), tr, []float64{0.02, 0.2})
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	limited, err := (&Sweeper{Policies: ps, Workers: 1}).Sweep(context.Background(), tr, []float64{0.02, 0.2})
	if err != nil {
		t.Fatalf("Sweep with one worker: %v", err)
	}
	for i, row := range table.Rows {
		for j, p := range ps {
			want := Run(tr, mustOpen(t, p, row.Point.Capacity))
			if row.Results[j] != want {
				t.Errorf("%s at %d: sweep %+v; sequential %+v", p.Name, row.Point.Capacity, row.Results[j], want)
			}
			if limited.Rows[i].Results[j] != want {
				t.Errorf("%s at %d: one-worker sweep %+v; sequential %+v", p.Name, row.Point.Capacity, limited.Rows[i].Results[j], want)
			}
		}
	}
}

func mustOpen(t *testing.T, p policy.Policy, capacity int) policy.Cache {
	t.Helper()
	c, err := p.Open(capacity)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return c
}

func TestSweep_LRUMonotonic(t *testing.T) {
	tr := workload.Zipf(20000, 5000, 0.9, 9)
	fractions := []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1}
	table, err := (&Sweeper{Policies: mustSelect(t, "lru")}).Sweep(context.Background(), tr, fractions)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	prev := -1.0
	for _, row := range table.Rows {
		r := row.Results[0].Ratio()
		if r < prev {
			t.Errorf("hit ratio fell from %v to %v at fraction %v", prev, r, row.Point.Fraction)
		}
		prev = r
	}
}

func TestSweep_UnboundedCapacityReachesMax(t *testing.T) {
	tr := workload.Zipf(5000, 800, 0.8, 4)
	table, err := (&Sweeper{Policies: mustSelect(t, "fifo", "lru", "2q", "arc", "s3fifo")}).
		Sweep(context.Background(), tr, []float64{1})
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	want := tr.MaxHits()
	for j, res := range table.Rows[0].Results {
		if res.Hits != want {
			t.Errorf("%s hits = %d; want %d", table.Policies[j], res.Hits, want)
		}
	}
}

func TestSweep_EmptyTrace(t *testing.T) {
	table, err := (&Sweeper{Policies: policy.Defaults()}).Sweep(context.Background(), trace.New(nil), []float64{0.1, 1})
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	for _, row := range table.Rows {
		if row.Point.Capacity != 0 {
			t.Errorf("capacity = %d; want 0", row.Point.Capacity)
		}
		for j, res := range row.Results {
			if res.Ratio() != 0 {
				t.Errorf("%s ratio = %v; want 0", table.Policies[j], res.Ratio())
			}
		}
	}
}

func TestSweep_DefaultsAtCapacityOne(t *testing.T) {
	tr := workload.Zipf(200, 50, 0.9, 1)
	table, err := (&Sweeper{Policies: policy.Defaults()}).
		Sweep(context.Background(), tr, []float64{0.005, 0.01, 0.05, 0.1, 0.25})
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if got := table.Rows[0].Point.Capacity; got != 1 {
		t.Fatalf("first capacity = %d; want 1", got)
	}
	if len(table.Rows) != 5 {
		t.Errorf("rows = %d; want 5", len(table.Rows))
	}
}

func TestSweep_FailureAborts(t *testing.T) {
	tr := workload.Zipf(1000, 200, 0.9, 1)
	s := &Sweeper{Policies: append(mustSelect(t, "lru"), failingFrom(t, 50))}
	var rows int
	s.OnRow = func(Row) error {
		rows++
		return nil
	}

	table, err := s.Sweep(context.Background(), tr, []float64{0.01, 0.1, 0.5})
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v; want errBoom", err)
	}
	if table != nil {
		t.Error("failed sweep returned a table")
	}
	if rows != 1 {
		t.Errorf("rows reported = %d; want 1 (only the point before the failure)", rows)
	}
}

func TestSweep_PanicAborts(t *testing.T) {
	p := policy.Policy{
		Name: "panicky",
		New:  func(int) (policy.Cache, error) { return panicky{}, nil },
	}
	_, err := (&Sweeper{Policies: []policy.Policy{p}}).Sweep(context.Background(), trace.New([]string{"a"}), []float64{1})
	if err == nil || !strings.Contains(err.Error(), "cache exploded") {
		t.Fatalf("err = %v; want the policy panic", err)
	}
}

func TestSweep_OnRowError(t *testing.T) {
	s := &Sweeper{
		Policies: mustSelect(t, "lru"),
		OnRow:    func(Row) error { return errBoom },
	}
	if _, err := s.Sweep(context.Background(), trace.New([]string{"a", "a"}), []float64{0.5, 1}); !errors.Is(err, errBoom) {
		t.Errorf("err = %v; want errBoom", err)
	}
}

func TestSweep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Sweeper{Policies: mustSelect(t, "lru")}).Sweep(ctx, trace.New([]string{"a"}), []float64{1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v; want context.Canceled", err)
	}
}

func TestSweep_Validate(t *testing.T) {
	lru := mustSelect(t, "lru")
	tests := []struct {
		name      string
		policies  []policy.Policy
		fractions []float64
		want      error
	}{
		{"no policies", nil, []float64{0.1}, ErrNoPolicies},
		{"duplicate", append(lru, lru...), []float64{0.1}, ErrDuplicatePolicy},
		{"no fractions", lru, nil, ErrFraction},
		{"zero fraction", lru, []float64{0}, ErrFraction},
		{"above one", lru, []float64{0.5, 1.5}, ErrFraction},
		{"negative", lru, []float64{-0.1}, ErrFraction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Sweeper{Policies: tt.policies}
			if err := s.Validate(tt.fractions); !errors.Is(err, tt.want) {
				t.Errorf("Validate err = %v; want %v", err, tt.want)
			}
			_, err := s.Sweep(context.Background(), trace.New([]string{"a"}), tt.fractions)
			if !errors.Is(err, tt.want) {
				t.Errorf("Sweep err = %v; want %v", err, tt.want)
			}
		})
	}
}

func BenchmarkSweep_Defaults(b *testing.B) {
	tr := workload.Zipf(1<<16, 1<<14, 0.99, 1)
	s := &Sweeper{Policies: policy.Defaults()}
	for b.Loop() {
		if _, err := s.Sweep(context.Background(), tr, []float64{0.01, 0.1}); err != nil {
			b.Fatal(err)
		}
	}
}
