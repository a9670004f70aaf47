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

func newTestL1(t *testing.T, policy Policy) *L1 {
	t.Helper()
	saved := config.Settings.TT.ReplacementPolicy
	config.Settings.TT.ReplacementPolicy = string(policy)
	t.Cleanup(func() { config.Settings.TT.ReplacementPolicy = saved })
	age := NewCounter(10_000, 1000)
	return NewL1(1, 4, age)
}

func TestL1StoreThenProbeHit(t *testing.T) {
	l1 := newTestL1(t, DepthPreferred)
	e := Entry{HashKey: 0x1234, Depth: 5, Flag: Exact, Score: 42}
	l1.Store(e)

	got, ok := l1.Probe(0x1234, 5)
	require.True(t, ok)
	assert.Equal(t, e, got)
}

func TestL1ProbeMissOnHashMismatchOrDepth(t *testing.T) {
	l1 := newTestL1(t, AlwaysReplace)
	e := Entry{HashKey: 0xAAAA, Depth: 3, Flag: Exact}
	l1.Store(e)

	_, ok := l1.Probe(0xAAAA, 4)
	assert.False(t, ok, "insufficient stored depth must miss")

	_, ok = l1.Probe(0xBBBB, 1)
	assert.False(t, ok, "hash mismatch must miss even if the slot is occupied")
}

func TestL1DepthPreferredScenarioS7(t *testing.T) {
	l1 := newTestL1(t, DepthPreferred)
	hash := uint64(0xCAFE)

	l1.Store(Entry{HashKey: hash, Depth: 4, Flag: LowerBound})
	l1.Store(Entry{HashKey: hash, Depth: 6, Flag: UpperBound})
	l1.Store(Entry{HashKey: hash, Depth: 3, Flag: Exact})

	got, ok := l1.Probe(hash, 6)
	require.True(t, ok)
	assert.EqualValues(t, 6, got.Depth, "the depth-6 entry must survive a shallower, even exact, challenger")
}

func TestL1AgeEntriesEvictsStaleSlots(t *testing.T) {
	age := NewCounter(1, 1000)
	config.Settings.TT.ReplacementPolicy = string(AlwaysReplace)
	l1 := NewL1(1, 4, age)

	l1.Store(Entry{HashKey: 1, Depth: 1, Flag: Exact, Age: age.Current()})
	for i := 0; i < 10; i++ {
		age.Tick()
	}
	l1.Store(Entry{HashKey: 2, Depth: 1, Flag: Exact, Age: age.Current()})

	l1.AgeEntries(4, 5)

	_, ok := l1.Probe(1, 0)
	assert.False(t, ok, "an entry 10 stamps behind current must be evicted by a gap-5 sweep")
	_, ok = l1.Probe(2, 0)
	assert.True(t, ok, "a freshly-stamped entry must survive the same sweep")
}

func TestL1ClearResetsSlotsAndAge(t *testing.T) {
	age := NewCounter(1, 1000)
	config.Settings.TT.ReplacementPolicy = string(AlwaysReplace)
	l1 := NewL1(1, 4, age)
	l1.Store(Entry{HashKey: 1, Depth: 1, Flag: Exact})
	age.Tick()

	l1.Clear()

	_, ok := l1.Probe(1, 0)
	assert.False(t, ok)
	assert.Equal(t, NewAgeStamp(0, 0), age.Current())
}
