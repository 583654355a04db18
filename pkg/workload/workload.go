// Package workload generates synthetic access traces for runs without a recorded trace.
package workload

import (
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/codeGROOVE-dev/hitbench/pkg/trace"
)

// Zipf returns a trace of n accesses drawn from a Zipfian distribution over keySpace keys.
func Zipf(n, keySpace int, theta float64, seed uint64) *trace.Trace {
	return trace.New(ZipfKeys(n, keySpace, theta, seed))
}

// ZipfKeys generates a Zipfian distribution of keys as strings ("key-X").
// It returns nil whenever ZipfInts does.
func ZipfKeys(n, keySpace int, theta float64, seed uint64) []string {
	ints := ZipfInts(n, keySpace, theta, seed)
	if len(ints) == 0 {
		return nil
	}
	keys := make([]string, len(ints))
	for i, v := range ints {
		keys[i] = "key-" + strconv.Itoa(v)
	}
	return keys
}

// ZipfInts generates a Zipfian distribution of keys as integers in [0, keySpace).
// The same seed always yields the same sequence. It returns nil unless n and
// keySpace are positive and theta is in (0, 1).
func ZipfInts(n, keySpace int, theta float64, seed uint64) []int {
	z, ok := newZipf(keySpace, theta)
	if !ok || n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(seed, seed+1))
	keys := make([]int, n)
	for i := range keys {
		keys[i] = z.key(rng.Float64())
	}
	return keys
}

// zipf maps a uniform draw to a rank using the Gray et al. approximation
// ("Quickly generating billion-record synthetic databases", SIGMOD'94).
type zipf struct {
	keySpace int
	spread   float64
	zetaN    float64
	alpha    float64
	eta      float64
	second   float64 // zetaN threshold below which rank 1 is drawn
}

func newZipf(keySpace int, theta float64) (zipf, bool) {
	if keySpace <= 0 || !(theta > 0 && theta < 1) {
		return zipf{}, false
	}
	spread := keySpace + 1
	zeta2 := computeZeta(2, theta)
	zetaN := computeZeta(uint64(spread), theta)
	return zipf{
		keySpace: keySpace,
		spread:   float64(spread),
		zetaN:    zetaN,
		alpha:    1 / (1 - theta),
		eta:      (1 - math.Pow(2/float64(spread), 1-theta)) / (1 - zeta2/zetaN),
		second:   1 + math.Pow(0.5, theta),
	}, true
}

// key returns the rank for u in [0, 1), clamped to the key space.
func (z zipf) key(u float64) int {
	uz := u * z.zetaN
	var k int
	switch {
	case uz < 1:
		k = 0
	case uz < z.second:
		k = 1
	default:
		k = int(z.spread * math.Pow(z.eta*u-z.eta+1, z.alpha))
	}
	return min(k, z.keySpace-1)
}

// Scan returns a trace that walks keySpace keys in order, loops times over.
// A cache smaller than keySpace gets no hits from an LRU policy on this pattern.
func Scan(keySpace, loops int) *trace.Trace {
	keys := make([]string, 0, keySpace*max(loops, 0))
	for range loops {
		for i := range keySpace {
			keys = append(keys, "key-"+strconv.Itoa(i))
		}
	}
	return trace.New(keys)
}

// computeZeta calculates zeta(n, theta) = sum(1/i^theta) for i=1 to n
func computeZeta(n uint64, theta float64) float64 {
	sum := 0.0
	for i := uint64(1); i <= n; i++ {
		sum += 1.0 / math.Pow(float64(i), theta)
	}
	return sum
}
