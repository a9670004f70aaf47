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
	"sync"
	"time"

	"github.com/frankkopp/shogikernel/internal/util"
)

// entrySize is the nominal in-memory footprint of a TranspositionEntry,
// used for logical_bytes accounting (§4.12).
const entrySize = 32

// record is one segment slot: a decoded hash key (kept for O(1) lookup
// without a full Decode) alongside the depth and the encoded payload.
type record struct {
	hash    uint64
	depth   uint8
	encoded []byte
}

// segment is a single FIFO-bounded deque of records, newest at the back.
type segment struct {
	mu       sync.Mutex
	capacity int
	entries  []record
}

func (s *segment) findIndex(hash uint64) int {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].hash == hash {
			return i
		}
	}
	return -1
}

// L2Stats are cumulative counters for the compressed L2 tier.
type L2Stats struct {
	StoredEntries int64
	Hits          uint64
	Misses        uint64
	Evictions     uint64
	LogicalBytes  int64
	PhysicalBytes int64
}

// L2 is the segmented, compressed, capacity-bounded cold tier (§4.12).
type L2 struct {
	segments    []segment
	segMask     uint64
	maxEntries  int
	segCapacity int

	statsMu sync.Mutex
	stats   L2Stats

	fillRatio      float64
	backlogTarget  int
	sweepInterval  time.Duration
	shutdown       *util.Bool
	workerDone     chan struct{}
	workerStarted  bool
}

// NewL2 builds an L2 with segmentCount rounded up to a power of two and
// per-segment FIFO capacity maxEntries/segmentCount.
func NewL2(maxEntries, segmentCount int) *L2 {
	segCount := nextPowerOfTwo(segmentCount)
	segCapacity := maxEntries / segCount
	if segCapacity < 1 {
		segCapacity = 1
	}
	l2 := &L2{
		segments:    make([]segment, segCount),
		segMask:     uint64(segCount - 1),
		maxEntries:  maxEntries,
		segCapacity: segCapacity,
		shutdown:    util.NewBool(false),
	}
	for i := range l2.segments {
		l2.segments[i].capacity = segCapacity
	}
	return l2
}

func (l *L2) segmentFor(hash uint64) *segment {
	return &l.segments[hash&l.segMask]
}

// Probe walks the owning segment newest-to-oldest and returns the first
// record whose hash matches and whose depth satisfies requiredDepth.
func (l *L2) Probe(hash uint64, requiredDepth uint8) (Entry, bool) {
	seg := l.segmentFor(hash)
	seg.mu.Lock()
	var found *record
	for i := len(seg.entries) - 1; i >= 0; i-- {
		if seg.entries[i].hash == hash && seg.entries[i].depth >= requiredDepth {
			found = &seg.entries[i]
			break
		}
	}
	var encoded []byte
	if found != nil {
		encoded = append([]byte(nil), found.encoded...)
	}
	seg.mu.Unlock()

	if encoded == nil {
		l.statsMu.Lock()
		l.stats.Misses++
		l.statsMu.Unlock()
		return Entry{}, false
	}
	e, err := Decode(encoded)
	if err != nil {
		l.statsMu.Lock()
		l.stats.Misses++
		l.statsMu.Unlock()
		return Entry{}, false
	}
	l.statsMu.Lock()
	l.stats.Hits++
	l.statsMu.Unlock()
	return e, true
}

// Store implements §4.12's replace-in-place-or-FIFO-evict rule.
func (l *L2) Store(entry Entry) {
	encoded := Encode(entry)
	seg := l.segmentFor(entry.HashKey)

	seg.mu.Lock()
	defer seg.mu.Unlock()

	if idx := seg.findIndex(entry.HashKey); idx >= 0 {
		existing := seg.entries[idx]
		if entry.Depth >= existing.depth {
			l.adjustBytes(-len(existing.encoded), len(encoded))
			seg.entries[idx] = record{hash: entry.HashKey, depth: entry.Depth, encoded: encoded}
		}
		return
	}

	totalLive := l.liveCount()
	if len(seg.entries) >= seg.capacity || totalLive >= l.maxEntries {
		if len(seg.entries) > 0 {
			evicted := seg.entries[0]
			seg.entries = seg.entries[1:]
			l.statsMu.Lock()
			l.stats.Evictions++
			l.stats.StoredEntries--
			l.stats.LogicalBytes -= entrySize
			l.stats.PhysicalBytes -= int64(len(evicted.encoded))
			l.statsMu.Unlock()
		}
	}

	seg.entries = append(seg.entries, record{hash: entry.HashKey, depth: entry.Depth, encoded: encoded})
	l.statsMu.Lock()
	l.stats.StoredEntries++
	l.stats.LogicalBytes += entrySize
	l.stats.PhysicalBytes += int64(len(encoded))
	l.statsMu.Unlock()
}

func (l *L2) adjustBytes(oldLen, newLen int) {
	l.statsMu.Lock()
	l.stats.PhysicalBytes += int64(newLen + oldLen)
	l.statsMu.Unlock()
}

// liveCount is an approximate total entry count across all segments; it
// does not lock every segment and is used only for capacity heuristics.
func (l *L2) liveCount() int {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()
	return int(l.stats.StoredEntries)
}

// Snapshot returns a point-in-time copy of the L2 stats.
func (l *L2) Snapshot() L2Stats {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()
	return l.stats
}

// Clear empties every segment and resets stats.
func (l *L2) Clear() {
	for i := range l.segments {
		l.segments[i].mu.Lock()
		l.segments[i].entries = nil
		l.segments[i].mu.Unlock()
	}
	l.statsMu.Lock()
	l.stats = L2Stats{}
	l.statsMu.Unlock()
}

// Sweep implements the maintenance pass: round-robin over segments,
// popping front (oldest) records until the live entry count is at or
// below backlogTarget, or deadline is reached. Returns the number of
// records evicted.
func (l *L2) Sweep(backlogTarget int, deadline time.Time) int {
	evicted := 0
	for l.liveCount() > backlogTarget {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}
		progressed := false
		for i := range l.segments {
			if l.liveCount() <= backlogTarget {
				break
			}
			seg := &l.segments[i]
			seg.mu.Lock()
			if len(seg.entries) > 0 {
				old := seg.entries[0]
				seg.entries = seg.entries[1:]
				seg.mu.Unlock()
				l.statsMu.Lock()
				l.stats.Evictions++
				l.stats.StoredEntries--
				l.stats.LogicalBytes -= entrySize
				l.stats.PhysicalBytes -= int64(len(old.encoded))
				l.statsMu.Unlock()
				evicted++
				progressed = true
			} else {
				seg.mu.Unlock()
			}
		}
		if !progressed {
			break
		}
	}
	return evicted
}

// FillRatio reports the table's current fill relative to maxEntries.
func (l *L2) FillRatio() float64 {
	if l.maxEntries == 0 {
		return 0
	}
	return float64(l.liveCount()) / float64(l.maxEntries)
}

// StartMaintenance launches the background sweep worker (§4.12, §5). It
// wakes every interval and, if FillRatio has reached fillRatio, pops
// entries down to backlogTarget. Shutdown is cooperative: StopMaintenance
// sets an atomic flag and blocks until the worker goroutine has exited.
func (l *L2) StartMaintenance(interval time.Duration, fillRatio float64, backlogTarget int) {
	if l.workerStarted {
		return
	}
	l.workerStarted = true
	l.sweepInterval = interval
	l.fillRatio = fillRatio
	l.backlogTarget = backlogTarget
	l.workerDone = make(chan struct{})

	go func() {
		defer close(l.workerDone)
		defer func() {
			// A panicking maintenance worker must not take down the
			// table; eviction still happens inline on Store (§7).
			if r := recover(); r != nil {
				log.Errorf("L2 maintenance worker panicked: %v", r)
			}
		}()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if l.shutdown.Load() {
				return
			}
			select {
			case <-ticker.C:
				if l.FillRatio() >= l.fillRatio {
					l.Sweep(l.backlogTarget, time.Time{})
				}
			}
			if l.shutdown.Load() {
				return
			}
		}
	}()
}

// StopMaintenance shuts the worker down synchronously; safe to call even
// if the worker was never started.
func (l *L2) StopMaintenance() {
	if !l.workerStarted {
		return
	}
	l.shutdown.Store(true)
	<-l.workerDone
	l.workerStarted = false
}
