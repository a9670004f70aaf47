/*
 * shogikernel - magic-bitboard attack engine and hierarchical
 * transposition table for a Shogi engine
 *
 * MIT License
 *
 * Copyright (c) 2018-2020 Frank Kopp
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package tt

import (
	"math"
	"math/bits"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frankkopp/shogikernel/internal/config"
	"github.com/frankkopp/shogikernel/internal/util"
	"github.com/frankkopp/shogikernel/internal/xlog"
)

var log = xlog.GetTTLog()

// L1Stats are cumulative, concurrency-safe L1 counters.
type L1Stats struct {
	Probes      uint64
	Hits        uint64
	Misses      uint64
	Stores      uint64
	Collisions  uint64
	Replacements uint64
}

// L1 is the uncompressed, bucket-striped hot table (§4.11). Slot index
// is (hash >> rotation) & (size-1); reads and writes are striped across
// a power-of-two number of lock buckets so writers in different buckets
// make independent progress.
type L1 struct {
	size      uint64
	mask      uint64
	rotation  uint
	slots     []Entry
	bucketMu  []sync.RWMutex
	numBuckets uint64

	age    *Counter
	params ReplacementParams

	stats L1Stats
}

// NewL1 builds an L1 table sized to hold roughly sizeMB megabytes of
// Entry records, rounded down to a power of two slot count, striped
// across numBuckets lock buckets (rounded up to a power of two).
func NewL1(sizeMB, numBuckets int, age *Counter) *L1 {
	const entrySize = 32 // approximate in-memory Entry footprint
	maxEntries := uint64(sizeMB) * 1024 * 1024 / entrySize
	size := uint64(1)
	if maxEntries > 0 {
		size = uint64(1) << uint(math.Floor(math.Log2(float64(maxEntries))))
	}
	buckets := nextPowerOfTwo(numBuckets)

	cfg := config.Settings.TT
	l1 := &L1{
		size:       size,
		mask:       size - 1,
		rotation:   0,
		slots:      make([]Entry, size),
		bucketMu:   make([]sync.RWMutex, buckets),
		numBuckets: uint64(buckets),
		age:        age,
		params: ReplacementParams{
			Policy:      Policy(cfg.ReplacementPolicy),
			MaxAge:      uint16(cfg.MaxAge),
			DepthWeight: cfg.DepthWeight,
			AgeWeight:   cfg.AgeWeight,
		},
	}
	log.Infof("L1 table: %d slots (%d MB), %d lock buckets", size, sizeMB, buckets)
	return l1
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << uint(bits.Len(uint(n-1)))
}

func (l *L1) slotIndex(hash uint64) uint64 {
	return (hash >> l.rotation) & l.mask
}

func (l *L1) bucketFor(slot uint64) *sync.RWMutex {
	return &l.bucketMu[slot%l.numBuckets]
}

// Probe implements §4.11: a hash mismatch or insufficient depth is a
// miss even though the slot is occupied.
func (l *L1) Probe(hash uint64, requiredDepth uint8) (Entry, bool) {
	atomic.AddUint64(&l.stats.Probes, 1)
	slot := l.slotIndex(hash)
	bucket := l.bucketFor(slot)

	bucket.RLock()
	e := l.slots[slot]
	bucket.RUnlock()

	if e.IsEmpty() || e.HashKey != hash || e.Depth < requiredDepth {
		atomic.AddUint64(&l.stats.Misses, 1)
		return Entry{}, false
	}
	atomic.AddUint64(&l.stats.Hits, 1)
	return e, true
}

// Store writes entry into its slot, applying the replacement policy on
// collision (§4.11).
func (l *L1) Store(entry Entry) {
	atomic.AddUint64(&l.stats.Stores, 1)
	slot := l.slotIndex(entry.HashKey)
	bucket := l.bucketFor(slot)

	bucket.Lock()
	defer bucket.Unlock()

	existing := l.slots[slot]
	if existing.IsEmpty() {
		l.slots[slot] = entry
		return
	}
	if existing.HashKey != entry.HashKey {
		atomic.AddUint64(&l.stats.Collisions, 1)
	}

	params := l.params
	if l.age != nil {
		params.Current = l.age.Current()
	}
	if ShouldReplace(entry, existing, params) {
		atomic.AddUint64(&l.stats.Replacements, 1)
		l.slots[slot] = entry
	}
}

// Clear resets all slots to empty and the age counter to 0 (§4.11).
func (l *L1) Clear() {
	for i := range l.bucketMu {
		l.bucketMu[i].Lock()
	}
	defer func() {
		for i := range l.bucketMu {
			l.bucketMu[i].Unlock()
		}
	}()
	l.slots = make([]Entry, l.size)
	l.stats = L1Stats{}
	if l.age != nil {
		l.age.Reset()
	}
}

// Snapshot returns a point-in-time copy of the L1 stats.
func (l *L1) Snapshot() L1Stats {
	return L1Stats{
		Probes:       atomic.LoadUint64(&l.stats.Probes),
		Hits:         atomic.LoadUint64(&l.stats.Hits),
		Misses:       atomic.LoadUint64(&l.stats.Misses),
		Stores:       atomic.LoadUint64(&l.stats.Stores),
		Collisions:   atomic.LoadUint64(&l.stats.Collisions),
		Replacements: atomic.LoadUint64(&l.stats.Replacements),
	}
}

// AgeEntries sweeps every slot and clears whichever ones have fallen at
// least maxAgeGap stamps behind the table's current age, fanning the
// sweep out across numGoroutines slices of the slot array so a large L1
// ages without pausing the whole table on one goroutine.
func (l *L1) AgeEntries(numGoroutines int, maxAgeGap uint32) {
	start := time.Now()
	defer func() { log.Debug(util.TimeTrack(start, "tt.L1.AgeEntries")) }()

	if numGoroutines < 1 {
		numGoroutines = 1
	}
	total := uint64(len(l.slots))
	if total == 0 || l.age == nil {
		return
	}
	current := l.age.Current()
	maxAge := l.params.MaxAge

	n := uint64(numGoroutines)
	slice := total / n
	if slice == 0 {
		slice = total
		n = 1
	}

	var wg sync.WaitGroup
	var evicted uint64
	wg.Add(int(n))
	for i := uint64(0); i < n; i++ {
		go func(i uint64) {
			defer wg.Done()
			lo := i * slice
			hi := lo + slice
			if i == n-1 {
				hi = total
			}
			for slot := lo; slot < hi; slot++ {
				bucket := l.bucketFor(slot)
				bucket.Lock()
				e := l.slots[slot]
				if !e.IsEmpty() && AgeGap(current, e.Age, maxAge) >= maxAgeGap {
					l.slots[slot] = Entry{}
					atomic.AddUint64(&evicted, 1)
				}
				bucket.Unlock()
			}
		}(i)
	}
	wg.Wait()
	log.Debugf("aged L1: evicted %d of %d slots", evicted, total)
}

// Hashfull returns how full the table is, in permille, sampling a
// bounded prefix of slots the way UCI engines report hash usage cheaply
// rather than scanning the whole table.
func (l *L1) Hashfull() int {
	const sampleSize = 1000
	n := uint64(len(l.slots))
	if n == 0 {
		return 0
	}
	if n > sampleSize {
		n = sampleSize
	}
	used := 0
	for i := uint64(0); i < n; i++ {
		if !l.slots[i].IsEmpty() {
			used++
		}
	}
	return used * 1000 / int(n)
}
