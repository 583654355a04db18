// Package s3fifo provides a single-owner cache with S3-FIFO eviction.
//
// It is the S3-FIFO variant tuned in sfcache, stripped of sharding and
// locking so it can be replayed deterministically by one goroutine.
// Unlike the concurrent version there is no death row: an evicted entry
// is gone immediately, and Len never exceeds the configured size.
package s3fifo

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

const (
	// maxFreq caps the frequency counter. Paper uses 3; 7 did better on meta and zipf traces.
	maxFreq = 7

	// defaultSmallRatio is the small queue size as per-mille of capacity.
	defaultSmallRatio = 247

	// ghostFPRate is the bloom filter false positive rate for ghost tracking.
	ghostFPRate = 0.00001

	// hotPeak is the peak frequency at which an entry leaving main is demoted to small instead of evicted.
	hotPeak = 4
)

// Cache implements the S3-FIFO cache eviction algorithm.
// See "FIFO queues are all you need for cache eviction" (SOSP'23).
//
// The cache maintains three queues:
//   - Small (~25%): new entries
//   - Main: promoted entries
//   - Ghost: recently evicted keys (bloom filter, no values)
//
// New keys go to Small; keys in Ghost go directly to Main.
// Eviction from Small promotes warm entries (freq>=2) to Main.
// Eviction from Main gives warm entries a second chance.
//
// Cache is not safe for concurrent use.
type Cache[K comparable, V any] struct {
	entries map[K]*entry[K, V]
	small   entryList[K, V]
	main    entryList[K, V]

	// Ghost uses two rotating bloom filters for approximate FIFO eviction tracking.
	ghostActive *bloomFilter
	ghostAging  *bloomFilter
	ghostFreq   ghostFreqRing
	ghostCap    int
	hasher      func(K) uint64

	capacity       int
	smallThresh    int
	warmupComplete bool
}

// entry is a cached key-value pair with eviction metadata.
type entry[K comparable, V any] struct {
	key      K
	value    V
	prev     *entry[K, V]
	next     *entry[K, V]
	hash     uint64 // cached key hash, avoids re-hashing on eviction
	freq     uint32 // access count, capped at maxFreq
	peakFreq uint32 // max freq seen, for ghost restore
	inSmall  bool
}

// entryList is an intrusive doubly-linked list. Zero value is valid.
type entryList[K comparable, V any] struct {
	head *entry[K, V]
	tail *entry[K, V]
	len  int
}

func (l *entryList[K, V]) pushBack(e *entry[K, V]) {
	e.prev = l.tail
	e.next = nil
	if l.tail != nil {
		l.tail.next = e
	} else {
		l.head = e
	}
	l.tail = e
	l.len++
}

func (l *entryList[K, V]) remove(e *entry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		l.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		l.tail = e.prev
	}
	e.prev = nil
	e.next = nil
	l.len--
}

// ghostFreqRing is a fixed-size ring buffer remembering the peak frequency
// of recently evicted hot keys. uint8 position wraps at 256.
type ghostFreqRing struct {
	hashes [256]uint64
	freqs  [256]uint32
	pos    uint8
}

func (r *ghostFreqRing) add(h uint64, freq uint32) {
	r.hashes[r.pos] = h
	r.freqs[r.pos] = freq
	r.pos++
}

func (r *ghostFreqRing) lookup(h uint64) (uint32, bool) {
	for i := range r.hashes {
		if r.hashes[i] == h {
			return r.freqs[i], true
		}
	}
	return 0, false
}

// New creates an empty cache.
//
// Example:
//
//	c := s3fifo.New[string, []byte](s3fifo.Size(10000))
//	if _, ok := c.Get(key); !ok {
//	    c.Set(key, value)
//	}
func New[K comparable, V any](opts ...Option) *Cache[K, V] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	size := max(cfg.size, 0)
	return &Cache[K, V]{
		entries:     make(map[K]*entry[K, V], size),
		capacity:    size,
		smallThresh: size * cfg.smallRatio / 1000,
		ghostCap:    max(size, 1),
		ghostActive: newBloomFilter(size, ghostFPRate),
		ghostAging:  newBloomFilter(size, ghostFPRate),
		hasher:      hasherFor[K](),
	}
}

func hasherFor[K comparable]() func(K) uint64 {
	var zk K
	switch any(zk).(type) {
	case string:
		return func(k K) uint64 { return xxhash.Sum64String(any(k).(string)) }
	case int:
		return func(k K) uint64 { return hashInt64(int64(any(k).(int))) }
	case int64:
		return func(k K) uint64 { return hashInt64(any(k).(int64)) }
	case uint64:
		//nolint:gosec // G115: intentional bit reinterpretation for hashing
		return func(k K) uint64 { return hashInt64(int64(any(k).(uint64))) }
	default:
		return func(k K) uint64 { return xxhash.Sum64String(fmt.Sprint(k)) }
	}
}

// hashInt64 is the splitmix64 finalizer.
func hashInt64(v int64) uint64 {
	//nolint:gosec // G115: intentional bit reinterpretation for hashing
	x := uint64(v)
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Get retrieves a value, incrementing its frequency on hit.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	ent, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	ent.touch()
	return ent.value, true
}

func (e *entry[K, V]) touch() {
	if e.freq < maxFreq {
		e.freq++
		if e.freq > e.peakFreq {
			e.peakFreq = e.freq
		}
	}
}

// Set adds or updates a value. A cache created with Size(0) stores nothing.
func (c *Cache[K, V]) Set(key K, value V) {
	if c.capacity <= 0 {
		return
	}

	// Update existing entry if present.
	if ent, ok := c.entries[key]; ok {
		ent.value = value
		ent.touch()
		return
	}

	h := c.hasher(key)
	ent := &entry[K, V]{key: key, value: value, hash: h}
	full := len(c.entries) >= c.capacity

	// During warmup, skip eviction logic.
	if !c.warmupComplete && !full {
		ent.inSmall = true
		c.small.pushBack(ent)
		c.entries[key] = ent
		return
	}
	c.warmupComplete = true

	// Only check ghost when full (saves bloom lookups during fill).
	if full {
		inGhost := c.ghostActive.contains(h) || c.ghostAging.contains(h)
		ent.inSmall = !inGhost

		// Restore frequency from ghost for returning keys.
		if !ent.inSmall {
			if peak, ok := c.ghostFreq.lookup(h); ok {
				ent.freq = peak
				ent.peakFreq = peak
			}
		}

		// Demotions move entries without freeing a slot, so keep going until one is evicted.
		for len(c.entries) >= c.capacity && c.small.len+c.main.len > 0 {
			c.evict()
		}
	} else {
		ent.inSmall = true
	}

	if ent.inSmall {
		c.small.pushBack(ent)
	} else {
		c.main.pushBack(ent)
	}
	c.entries[key] = ent
}

// Len returns the number of resident entries.
func (c *Cache[K, V]) Len() int {
	return len(c.entries)
}

// Capacity returns the maximum number of resident entries.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

func (c *Cache[K, V]) evict() {
	if c.main.len > 0 && c.small.len <= c.smallThresh {
		c.evictFromMain()
		return
	}
	if c.small.len > 0 {
		c.evictFromSmall()
		return
	}
	c.evictFromMain()
}

// evictFromSmall evicts cold entries (freq<2) or promotes warm ones to main.
func (c *Cache[K, V]) evictFromSmall() {
	mcap := (c.capacity * 9) / 10

	for c.small.len > 0 {
		e := c.small.head
		c.small.remove(e)

		if e.freq < 2 {
			c.drop(e)
			return
		}

		// Promote to main.
		e.freq = 0
		e.inSmall = false
		c.main.pushBack(e)

		if c.main.len > mcap {
			c.evictFromMain()
		}
	}
}

// evictFromMain evicts cold entries (freq==0) or gives warm ones a second chance.
//
// Deviation from paper: items that were once hot (peakFreq >= 4) are demoted to
// the small queue with freq=1 instead of being evicted.
func (c *Cache[K, V]) evictFromMain() {
	for c.main.len > 0 {
		e := c.main.head
		c.main.remove(e)

		if e.freq == 0 {
			if e.peakFreq >= hotPeak {
				e.freq = 1
				e.inSmall = true
				c.small.pushBack(e)
				return
			}
			c.drop(e)
			return
		}

		// Second chance.
		e.freq--
		c.main.pushBack(e)
	}
}

// drop removes an unlinked entry and remembers it in the ghost.
func (c *Cache[K, V]) drop(e *entry[K, V]) {
	delete(c.entries, e.key)
	c.addToGhost(e.hash, e.peakFreq)
}

// addToGhost records an evicted key for future admission decisions.
func (c *Cache[K, V]) addToGhost(h uint64, peakFreq uint32) {
	if !c.ghostActive.contains(h) {
		c.ghostActive.add(h)
		if peakFreq >= 2 {
			c.ghostFreq.add(h, peakFreq)
		}
	}
	if c.ghostActive.entries >= c.ghostCap {
		c.ghostAging.reset()
		c.ghostActive, c.ghostAging = c.ghostAging, c.ghostActive
	}
}
