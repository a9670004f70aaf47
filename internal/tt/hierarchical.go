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
	"sync/atomic"
	"time"

	"github.com/frankkopp/shogikernel/internal/config"
	"github.com/frankkopp/shogikernel/internal/util"
)

// Tier identifies which tier satisfied a probe.
type Tier uint8

const (
	// TierNone marks a complete miss.
	TierNone Tier = iota
	TierL1
	TierL2
)

// Stats aggregates the facade-level counters on top of the L1/L2 stats.
type Stats struct {
	L1Hits     uint64
	L1Misses   uint64
	L2Hits     uint64
	L2Misses   uint64
	Promotions uint64
	L1         L1Stats
	L2         L2Stats
}

// Table is the hierarchical transposition table facade (§4.13): an L1
// hot table backed by a segmented, compressed L2, with promotion on an
// L2 hit and demotion of shallow or aged entries on store.
type Table struct {
	l1  *L1
	l2  *L2
	age *Counter

	promotionDepth int8
	demotionAge    uint32

	l1Hits, l1Misses       uint64
	l2Hits, l2Misses       uint64
	promotions             uint64
}

// New builds a hierarchical table sized per config.Settings.TT.
func New() *Table {
	age := NewCounter(config.Settings.TT.AgeIntervalProbes, uint16(config.Settings.TT.MaxAge))
	l1 := NewL1(config.Settings.TT.L1SizeMB, config.Settings.TT.L1Buckets, age)
	l2 := NewL2(config.Settings.TT.L2MaxEntries, config.Settings.TT.L2SegmentCount)

	t := &Table{
		l1:             l1,
		l2:             l2,
		age:            age,
		promotionDepth: config.Settings.TT.PromotionDepth,
		demotionAge:    uint32(config.Settings.TT.DemotionAge),
	}

	if config.Settings.TT.MaintenanceIntervalMs > 0 {
		l2.StartMaintenance(
			time.Duration(config.Settings.TT.MaintenanceIntervalMs)*time.Millisecond,
			config.Settings.TT.MaintenanceFillRatio,
			config.Settings.TT.MaintenanceBacklogTarget,
		)
	}
	return t
}

// Probe implements §4.13's probe algorithm: L1 first, L2 on L1 miss with
// best-effort promotion back into L1 on an L2 hit.
func (t *Table) Probe(hash uint64, requiredDepth uint8) (Entry, Tier) {
	t.age.Tick()

	if e, ok := t.l1.Probe(hash, requiredDepth); ok {
		atomic.AddUint64(&t.l1Hits, 1)
		return e, TierL1
	}
	atomic.AddUint64(&t.l1Misses, 1)

	if e, ok := t.l2.Probe(hash, requiredDepth); ok {
		atomic.AddUint64(&t.l2Hits, 1)
		atomic.AddUint64(&t.promotions, 1)
		t.l1.Store(e)
		return e, TierL2
	}
	atomic.AddUint64(&t.l2Misses, 1)
	return Entry{}, TierNone
}

// Store implements §4.13's store algorithm: always write L1, and
// additionally demote to L2 when the entry is shallow or aged — deep,
// recent entries stay L1-only.
func (t *Table) Store(entry Entry) {
	if entry.Age == 0 {
		entry.Age = t.age.Current()
	}
	t.l1.Store(entry)

	gap := AgeGap(t.age.Current(), entry.Age, uint16(config.Settings.TT.MaxAge))
	if gap >= t.demotionAge || int8(entry.Depth) < t.promotionDepth {
		t.l2.Store(entry)
	}
}

// Clear empties both tiers and resets the age counter (§4.11).
func (t *Table) Clear() {
	t.l1.Clear()
	t.l2.Clear()
}

// Close shuts down the L2 maintenance worker synchronously, if running.
func (t *Table) Close() {
	t.l2.StopMaintenance()
}

// Hashfull reports how full the table is in permille, as the L1 hot
// table's occupancy - the figure a UCI-style "hashfull" report wants,
// since L1 is what every probe consults first.
func (t *Table) Hashfull() int {
	return t.l1.Hashfull()
}

// AgeEntries runs a bulk sweep of the L1 table, evicting slots whose
// age has drifted demotionAge or more stamps behind the current age,
// fanned out across numGoroutines goroutines.
func (t *Table) AgeEntries(numGoroutines int) {
	t.l1.AgeEntries(numGoroutines, t.demotionAge)
}

// MemoryReport forces a garbage collection and returns a before/after
// memory snapshot. It is a diagnostic call, not part of the probe/store
// hot path, and should only be invoked on demand (e.g. from a UCI
// "debug" command), never from the maintenance worker's tick.
func (t *Table) MemoryReport() string {
	return util.GcWithStats()
}

// Snapshot returns a point-in-time view of the facade's stats.
func (t *Table) Snapshot() Stats {
	return Stats{
		L1Hits:     atomic.LoadUint64(&t.l1Hits),
		L1Misses:   atomic.LoadUint64(&t.l1Misses),
		L2Hits:     atomic.LoadUint64(&t.l2Hits),
		L2Misses:   atomic.LoadUint64(&t.l2Misses),
		Promotions: atomic.LoadUint64(&t.promotions),
		L1:         t.l1.Snapshot(),
		L2:         t.l2.Snapshot(),
	}
}
