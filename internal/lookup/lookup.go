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

// Package lookup wraps a magic.Table with a direct-mapped cache, a
// prefetch hint buffer and ray-cast fallback, and is the engine's
// attack-lookup front door consumed by move generation (§4.6).
package lookup

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/frankkopp/shogikernel/internal/bitboard"
	"github.com/frankkopp/shogikernel/internal/board"
	"github.com/frankkopp/shogikernel/internal/magic"
)

// cacheSlot is one direct-mapped cache line. A zero-value slot (valid
// false) never matches a lookup.
type cacheSlot struct {
	valid    bool
	square   board.Square
	piece    board.PieceClass
	occupied bitboard.Bitboard
	attacks  bitboard.Bitboard
}

// Metrics are cumulative, concurrency-safe lookup counters.
type Metrics struct {
	LookupCount     uint64
	CacheHits       uint64
	CacheMisses     uint64
	FallbackLookups uint64
	// CumulativeNanos is total wall time spent inside Get across all
	// calls, in nanoseconds.
	CumulativeNanos uint64
}

// Engine is the cached, concurrency-safe attack lookup front end.
type Engine struct {
	table *magic.Table

	// resizeMu guards mask/slots/shardMu against concurrent reallocation
	// by maybeAdapt; every Get holds it for read, adapt holds it for
	// write only while swapping the slice.
	resizeMu sync.RWMutex

	// mask selects a cache slot from a hash of (square, piece, occupied);
	// size is always a power of two.
	mask  uint64
	slots []cacheSlot
	// shards stripe the cache slots into independently-locked regions
	// so many readers and writers can progress concurrently, the same
	// bucket-striping idea used by the L1 transposition table.
	shardMu []sync.RWMutex

	prefetchMu  sync.Mutex
	prefetch    []prefetchEntry
	prefetchCap int

	metrics Metrics

	// adaptive sizing (§4.6's "optional adaptive sizing/tuning"): the
	// cache doubles when its recent hit rate is poor and halves when it
	// is so good the extra slots are wasted, mirroring a classic
	// adaptive LRU cache's resize heuristic.
	adaptive             bool
	sizeLog2             uint
	minSizeLog2          uint
	maxSizeLog2          uint
	windowHits           uint64
	windowMisses         uint64
}

type prefetchEntry struct {
	square   board.Square
	piece    board.PieceClass
	occupied bitboard.Bitboard
}

const defaultCacheSizeLog2 = 14 // 16384 slots
const defaultShardCount = 64
const defaultPrefetchCap = 32

// adaptWindow is the minimum number of lookups observed before a resize
// decision is made, ported from an adaptive cache's access-count gate
// so a handful of early lookups can't trigger a resize off pure noise.
const adaptWindow = 1000

// adaptGrowHitRate and adaptShrinkHitRate are the same 0.5/0.95 hit-rate
// thresholds an adaptive LRU cache uses to decide it is thrashing (too
// small) or wasting space (too big).
const adaptGrowHitRate = 0.5
const adaptShrinkHitRate = 0.95

const defaultMinSizeLog2 = 10 // 1024 slots
const defaultMaxSizeLog2 = 20 // ~1M slots

// NewEngine wraps table with a cache sized 2^sizeLog2 slots that grows
// or shrinks itself within [defaultMinSizeLog2, defaultMaxSizeLog2]
// based on its recent hit rate.
func NewEngine(table *magic.Table, sizeLog2 uint) *Engine {
	return newEngine(table, sizeLog2, true, defaultMinSizeLog2, defaultMaxSizeLog2)
}

// NewFixedEngine wraps table with a cache sized 2^sizeLog2 slots that
// never resizes itself, for callers that want a predictable memory
// footprint over adaptive tuning.
func NewFixedEngine(table *magic.Table, sizeLog2 uint) *Engine {
	return newEngine(table, sizeLog2, false, sizeLog2, sizeLog2)
}

func newEngine(table *magic.Table, sizeLog2 uint, adaptive bool, minSizeLog2, maxSizeLog2 uint) *Engine {
	size := uint64(1) << sizeLog2
	return &Engine{
		table:       table,
		mask:        size - 1,
		slots:       make([]cacheSlot, size),
		shardMu:     make([]sync.RWMutex, defaultShardCount),
		prefetchCap: defaultPrefetchCap,
		adaptive:    adaptive,
		sizeLog2:    sizeLog2,
		minSizeLog2: minSizeLog2,
		maxSizeLog2: maxSizeLog2,
	}
}

// NewDefaultEngine wraps table with the default cache size.
func NewDefaultEngine(table *magic.Table) *Engine {
	return NewEngine(table, defaultCacheSizeLog2)
}

func (e *Engine) shardFor(slot uint64) *sync.RWMutex {
	return &e.shardMu[slot%uint64(len(e.shardMu))]
}

func hashKey(sq board.Square, pc board.PieceClass, occ bitboard.Bitboard) uint64 {
	h := uint64(sq)*1099511628211 ^ uint64(pc)*2654435761
	h ^= occ.Lo * 0x9E3779B97F4A7C15
	h ^= (occ.Hi + 1) * 0xC2B2AE3D27D4EB4F
	h ^= h >> 33
	h *= 0xFF51AFD7ED558CCD
	h ^= h >> 33
	return h
}

// Get returns the attack set for sq/pc/occupied, consulting the cache
// first and falling back to the magic table (which itself falls back to
// ray-casting on any anomaly - this path never errors).
func (e *Engine) Get(sq board.Square, pc board.PieceClass, occupied bitboard.Bitboard) bitboard.Bitboard {
	start := time.Now()
	defer func() {
		atomic.AddUint64(&e.metrics.LookupCount, 1)
		atomic.AddUint64(&e.metrics.CumulativeNanos, uint64(time.Since(start).Nanoseconds()))
	}()

	hit := e.get(sq, pc, occupied)
	if e.adaptive {
		e.maybeAdapt()
	}
	return hit
}

func (e *Engine) get(sq board.Square, pc board.PieceClass, occupied bitboard.Bitboard) bitboard.Bitboard {
	e.resizeMu.RLock()
	defer e.resizeMu.RUnlock()

	h := hashKey(sq, pc, occupied)
	slotIdx := h & e.mask
	shard := e.shardFor(slotIdx)

	shard.RLock()
	slot := e.slots[slotIdx]
	shard.RUnlock()

	if slot.valid && slot.square == sq && slot.piece == pc && slot.occupied == occupied {
		atomic.AddUint64(&e.metrics.CacheHits, 1)
		atomic.AddUint64(&e.windowHits, 1)
		return slot.attacks
	}
	atomic.AddUint64(&e.metrics.CacheMisses, 1)
	atomic.AddUint64(&e.windowMisses, 1)

	attacks, usedFallback := e.table.GetAttacksReportingFallback(sq, pc, occupied)
	if usedFallback {
		atomic.AddUint64(&e.metrics.FallbackLookups, 1)
	}

	shard.Lock()
	e.slots[slotIdx] = cacheSlot{valid: true, square: sq, piece: pc, occupied: occupied, attacks: attacks}
	shard.Unlock()

	e.recordPrefetch(sq, pc, occupied)
	return attacks
}

// maybeAdapt doubles or halves the cache once adaptWindow lookups have
// been observed since the last resize check (the window counters are
// cleared after every check, whether or not it resized), the way an adaptive LRU cache
// reacts to a poor or saturated hit rate (adapt_size).
func (e *Engine) maybeAdapt() {
	hits := atomic.LoadUint64(&e.windowHits)
	misses := atomic.LoadUint64(&e.windowMisses)
	total := hits + misses
	if total < adaptWindow {
		return
	}
	hitRate := float64(hits) / float64(total)

	e.resizeMu.Lock()
	defer e.resizeMu.Unlock()

	var newLog2 uint
	switch {
	case hitRate < adaptGrowHitRate && e.sizeLog2 < e.maxSizeLog2:
		newLog2 = e.sizeLog2 + 1
	case hitRate > adaptShrinkHitRate && e.sizeLog2 > e.minSizeLog2:
		newLog2 = e.sizeLog2 - 1
	default:
		atomic.StoreUint64(&e.windowHits, 0)
		atomic.StoreUint64(&e.windowMisses, 0)
		return
	}

	size := uint64(1) << newLog2
	e.slots = make([]cacheSlot, size)
	e.mask = size - 1
	e.sizeLog2 = newLog2
	atomic.StoreUint64(&e.windowHits, 0)
	atomic.StoreUint64(&e.windowMisses, 0)
}

// recordPrefetch appends a recently-seen lookup pattern to the prefetch
// hint buffer, evicting the oldest entry once full. Pure performance
// hint - Warm never changes a lookup's result.
func (e *Engine) recordPrefetch(sq board.Square, pc board.PieceClass, occ bitboard.Bitboard) {
	e.prefetchMu.Lock()
	defer e.prefetchMu.Unlock()
	entry := prefetchEntry{square: sq, piece: pc, occupied: occ}
	if len(e.prefetch) < e.prefetchCap {
		e.prefetch = append(e.prefetch, entry)
		return
	}
	copy(e.prefetch, e.prefetch[1:])
	e.prefetch[len(e.prefetch)-1] = entry
}

// Warm re-probes every pattern currently in the prefetch buffer,
// seeding the cache for patterns likely to recur (e.g. across sibling
// moves in a search tree). Safe to call from a single background
// goroutine; it is not on any correctness path.
func (e *Engine) Warm() {
	e.prefetchMu.Lock()
	entries := append([]prefetchEntry(nil), e.prefetch...)
	e.prefetchMu.Unlock()
	for _, ent := range entries {
		e.Get(ent.square, ent.piece, ent.occupied)
	}
}

// BatchResult is one element of a Batch probe.
type BatchResult struct {
	Attacks bitboard.Bitboard
	Hit     bool
}

// Batch looks up attacks for a slice of squares sharing the same piece
// class and occupancy. Elements are independent and may be processed in
// any order.
func (e *Engine) Batch(squares []board.Square, pc board.PieceClass, occupied bitboard.Bitboard) ([]BatchResult, int, int) {
	results := make([]BatchResult, len(squares))
	hits, misses := 0, 0
	for i, sq := range squares {
		before := atomic.LoadUint64(&e.metrics.CacheHits)
		attacks := e.Get(sq, pc, occupied)
		after := atomic.LoadUint64(&e.metrics.CacheHits)
		hit := after > before
		results[i] = BatchResult{Attacks: attacks, Hit: hit}
		if hit {
			hits++
		} else {
			misses++
		}
	}
	return results, hits, misses
}

// Snapshot returns a point-in-time copy of the lookup metrics.
func (e *Engine) Snapshot() Metrics {
	return Metrics{
		LookupCount:     atomic.LoadUint64(&e.metrics.LookupCount),
		CacheHits:       atomic.LoadUint64(&e.metrics.CacheHits),
		CacheMisses:     atomic.LoadUint64(&e.metrics.CacheMisses),
		FallbackLookups: atomic.LoadUint64(&e.metrics.FallbackLookups),
		CumulativeNanos: atomic.LoadUint64(&e.metrics.CumulativeNanos),
	}
}
