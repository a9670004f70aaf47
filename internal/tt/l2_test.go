//
// shogikernel - magic-bitboard attack engine and hierarchical
// transposition table for a Shogi engine
//

package tt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestL2StoreThenProbeNewestWins(t *testing.T) {
	l2 := NewL2(100, 1)
	l2.Store(Entry{HashKey: 1, Depth: 2, Score: 10})
	l2.Store(Entry{HashKey: 1, Depth: 5, Score: 20})

	got, ok := l2.Probe(1, 2)
	require.True(t, ok)
	assert.EqualValues(t, 5, got.Depth, "in-place replace on depth improvement keeps the newer record")
}

func TestL2StoreIgnoresShallowerReplacement(t *testing.T) {
	l2 := NewL2(100, 1)
	l2.Store(Entry{HashKey: 1, Depth: 5, Score: 20})
	l2.Store(Entry{HashKey: 1, Depth: 2, Score: 99})

	got, ok := l2.Probe(1, 5)
	require.True(t, ok)
	assert.EqualValues(t, 5, got.Depth)
	assert.EqualValues(t, 20, got.Score)
}

func TestL2ProbeMissesOnInsufficientDepth(t *testing.T) {
	l2 := NewL2(100, 1)
	l2.Store(Entry{HashKey: 1, Depth: 2})
	_, ok := l2.Probe(1, 3)
	assert.False(t, ok)
}

// TestL2EvictionScenarioS6 matches spec scenario S6: max_entries=100,
// segment_count=1, 150 distinct-hash stores; expect 100 stored, 50
// evictions; the oldest 50 are gone and the newest 100 survive.
func TestL2EvictionScenarioS6(t *testing.T) {
	l2 := NewL2(100, 1)
	for i := uint64(0); i < 150; i++ {
		l2.Store(Entry{HashKey: i + 1, Depth: 1})
	}

	snap := l2.Snapshot()
	assert.EqualValues(t, 100, snap.StoredEntries)
	assert.EqualValues(t, 50, snap.Evictions)

	for i := uint64(1); i <= 50; i++ {
		_, ok := l2.Probe(i, 0)
		assert.False(t, ok, "oldest 50 entries must have been evicted")
	}
	for i := uint64(51); i <= 150; i++ {
		_, ok := l2.Probe(i, 0)
		assert.True(t, ok, "newest 100 entries must survive")
	}
}

func TestL2SweepEvictsDownToBacklogTarget(t *testing.T) {
	l2 := NewL2(1000, 4)
	for i := uint64(0); i < 40; i++ {
		l2.Store(Entry{HashKey: i + 1, Depth: 1})
	}
	evicted := l2.Sweep(10, time.Time{})
	assert.Equal(t, 30, evicted)
	assert.EqualValues(t, 10, l2.Snapshot().StoredEntries)
}

func TestL2MaintenanceWorkerStopsSynchronously(t *testing.T) {
	l2 := NewL2(10, 1)
	for i := uint64(0); i < 9; i++ {
		l2.Store(Entry{HashKey: i + 1, Depth: 1})
	}
	l2.StartMaintenance(5*time.Millisecond, 0.5, 2)
	time.Sleep(30 * time.Millisecond)
	l2.StopMaintenance()
	assert.LessOrEqual(t, l2.Snapshot().StoredEntries, int64(2))
}

func TestL2ClearResetsStatsAndSegments(t *testing.T) {
	l2 := NewL2(10, 2)
	l2.Store(Entry{HashKey: 1, Depth: 1})
	l2.Clear()
	assert.Equal(t, L2Stats{}, l2.Snapshot())
	_, ok := l2.Probe(1, 0)
	assert.False(t, ok)
}
