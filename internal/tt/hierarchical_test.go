//
// shogikernel - magic-bitboard attack engine and hierarchical
// transposition table for a Shogi engine
//

package tt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankkopp/shogikernel/internal/config"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	saved := config.Settings.TT
	config.Settings.TT.L1SizeMB = 1
	config.Settings.TT.L1Buckets = 4
	config.Settings.TT.L2MaxEntries = 1000
	config.Settings.TT.L2SegmentCount = 4
	config.Settings.TT.ReplacementPolicy = string(DepthPreferred)
	config.Settings.TT.PromotionDepth = 6
	config.Settings.TT.DemotionAge = 4
	config.Settings.TT.MaintenanceIntervalMs = 0
	config.Settings.TT.AgeIntervalProbes = 1_000_000
	config.Settings.TT.MaxAge = 1000
	table := New()
	t.Cleanup(func() {
		table.Close()
		config.Settings.TT = saved
	})
	return table
}

// TestHierarchicalScenarioS5 matches spec scenario S5: a shallow, aged
// entry demotes to both L1 and L2; clearing L1 only forces the next
// probe to resolve from L2 and promote back into L1.
func TestHierarchicalScenarioS5(t *testing.T) {
	table := newTestTable(t)

	e := Entry{HashKey: 0xABCD, Depth: 3, Age: NewAgeStamp(0, 5), Flag: Exact}
	table.Store(e)

	_, okL1 := table.l1.Probe(0xABCD, 0)
	require.True(t, okL1, "demotion rule must also store shallow entries into L1")
	_, okL2 := table.l2.Probe(0xABCD, 0)
	require.True(t, okL2, "depth below promotion_depth must demote to L2")

	table.l1.Clear()

	got, tier := table.Probe(0xABCD, 2)
	require.Equal(t, TierL2, tier)
	assert.Equal(t, e.Score, got.Score)

	_, tier2 := table.Probe(0xABCD, 2)
	assert.Equal(t, TierL1, tier2, "a promoted entry must be served from L1 on the next probe")
}

func TestHierarchicalDeepRecentEntryStaysL1Only(t *testing.T) {
	table := newTestTable(t)
	e := Entry{HashKey: 0x1111, Depth: 10, Age: NewAgeStamp(0, 1)}
	table.Store(e)

	_, okL1 := table.l1.Probe(0x1111, 0)
	require.True(t, okL1)
	_, okL2 := table.l2.Probe(0x1111, 0)
	assert.False(t, okL2, "a deep, fresh entry must not be demoted to L2")
}

func TestHierarchicalProbeMissIncrementsBothMissCounters(t *testing.T) {
	table := newTestTable(t)
	_, tier := table.Probe(0x9999, 1)
	assert.Equal(t, TierNone, tier)
	snap := table.Snapshot()
	assert.EqualValues(t, 1, snap.L1Misses)
	assert.EqualValues(t, 1, snap.L2Misses)
}

func TestHierarchicalHashfullDelegatesToL1(t *testing.T) {
	table := newTestTable(t)
	table.Store(Entry{HashKey: 0x1234, Depth: 5, Age: NewAgeStamp(0, 1)})
	assert.Equal(t, table.l1.Hashfull(), table.Hashfull())
}

func TestHierarchicalAgeEntriesEvictsStaleL1Slots(t *testing.T) {
	saved := config.Settings.TT
	config.Settings.TT.L1SizeMB = 1
	config.Settings.TT.L1Buckets = 4
	config.Settings.TT.L2MaxEntries = 1000
	config.Settings.TT.L2SegmentCount = 4
	config.Settings.TT.ReplacementPolicy = string(DepthPreferred)
	config.Settings.TT.PromotionDepth = 6
	config.Settings.TT.DemotionAge = 4
	config.Settings.TT.MaintenanceIntervalMs = 0
	config.Settings.TT.AgeIntervalProbes = 1
	config.Settings.TT.MaxAge = 1000
	table := New()
	t.Cleanup(func() {
		table.Close()
		config.Settings.TT = saved
	})

	table.Store(Entry{HashKey: 0x1, Depth: 5, Age: table.age.Current()})
	for i := 0; i < int(config.Settings.TT.DemotionAge)+2; i++ {
		table.age.Tick()
	}
	table.Store(Entry{HashKey: 0x2, Depth: 5, Age: table.age.Current()})

	table.AgeEntries(2)

	_, okStale := table.l1.Probe(0x1, 0)
	assert.False(t, okStale, "an entry DemotionAge+2 stamps behind current must be evicted")
	_, okFresh := table.l1.Probe(0x2, 0)
	assert.True(t, okFresh, "a freshly-stamped entry must survive the same sweep")
}

func TestHierarchicalMemoryReportIncludesGcStats(t *testing.T) {
	table := newTestTable(t)
	assert.Contains(t, table.MemoryReport(), "GC took")
}

func TestHierarchicalClearEmptiesBothTiers(t *testing.T) {
	table := newTestTable(t)
	table.Store(Entry{HashKey: 1, Depth: 1, Age: NewAgeStamp(0, 5)})
	table.Clear()

	_, tier := table.Probe(1, 0)
	assert.Equal(t, TierNone, tier)
}
