package s3fifo

import (
	"math"
	"math/bits"
)

const minBloomBits = 512

// bloomFilter is a fixed-size bloom filter over precomputed 64-bit hashes.
// Probe positions come from double hashing the two halves of the hash.
type bloomFilter struct {
	data    []uint64
	mask    uint64
	k       uint64
	entries int
}

func newBloomFilter(capacity int, fpRate float64) *bloomFilter {
	bpe := -math.Log(fpRate) / (math.Ln2 * math.Ln2)
	k := max(uint64(math.Ceil(math.Ln2*bpe)), 1)

	numBits := max(uint64(math.Ceil(float64(max(capacity, 1))*bpe)), minBloomBits)
	numBits = 1 << bits.Len64(numBits-1) // round up to power of 2

	return &bloomFilter{
		data: make([]uint64, numBits/64),
		mask: numBits - 1,
		k:    k,
	}
}

func (b *bloomFilter) add(h uint64) {
	h1, h2 := h, bits.RotateLeft64(h, 32)|1
	for i := range b.k {
		idx := (h1 + i*h2) & b.mask
		b.data[idx>>6] |= 1 << (idx & 63)
	}
	b.entries++
}

func (b *bloomFilter) contains(h uint64) bool {
	h1, h2 := h, bits.RotateLeft64(h, 32)|1
	for i := range b.k {
		idx := (h1 + i*h2) & b.mask
		if b.data[idx>>6]&(1<<(idx&63)) == 0 {
			return false
		}
	}
	return true
}

func (b *bloomFilter) reset() {
	clear(b.data)
	b.entries = 0
}
