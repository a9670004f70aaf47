//
// shogikernel - magic-bitboard attack engine and hierarchical
// transposition table for a Shogi engine
//

package tt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvanceWrapsLowBackToOne(t *testing.T) {
	const maxAge = 5
	s := NewAgeStamp(0, maxAge)
	next := Advance(s, maxAge)
	assert.EqualValues(t, 1, next.Low())
	assert.EqualValues(t, 1, next.Wrap())
}

func TestAdvanceSaturatesWrapCount(t *testing.T) {
	s := NewAgeStamp(0xFFFF, 5)
	next := Advance(s, 5)
	assert.EqualValues(t, 0xFFFF, next.Wrap())
	assert.EqualValues(t, 1, next.Low())
}

func TestAgeGapZeroForEqualStamps(t *testing.T) {
	s := NewAgeStamp(2, 7)
	assert.EqualValues(t, 0, AgeGap(s, s, 100))
}

func TestAgeGapWithinSingleWrap(t *testing.T) {
	current := NewAgeStamp(0, 10)
	entry := NewAgeStamp(0, 4)
	assert.EqualValues(t, 6, AgeGap(current, entry, 100))
}

func TestAgeGapAcrossOneWraparound(t *testing.T) {
	const maxAge = 100
	entry := NewAgeStamp(0, 95)
	current := NewAgeStamp(1, 5)
	// entry at 95, counter reaches 100 after 5 advances, wraps to (1,1) on the next, then 4 more reach (1,5): gap = 5 + (100-95) = 10
	assert.EqualValues(t, 10, AgeGap(current, entry, maxAge))
}

func TestAgeGapDefaultsToZeroWhenCurrentAppearsBehind(t *testing.T) {
	current := NewAgeStamp(0, 3)
	entry := NewAgeStamp(0, 50)
	assert.EqualValues(t, 0, AgeGap(current, entry, 100))

	currentOlderWrap := NewAgeStamp(0, 99)
	entryNewerWrap := NewAgeStamp(1, 1)
	assert.EqualValues(t, 0, AgeGap(currentOlderWrap, entryNewerWrap, 100))
}

func TestAgeGapMonotoneAsCounterAdvances(t *testing.T) {
	const maxAge = 20
	entry := NewAgeStamp(0, 1)
	current := entry
	prevGap := uint32(0)
	for i := 0; i < 3*maxAge; i++ {
		current = Advance(current, maxAge)
		gap := AgeGap(current, entry, maxAge)
		assert.GreaterOrEqual(t, gap, prevGap)
		prevGap = gap
	}
}

func TestCounterTicksAdvanceOnInterval(t *testing.T) {
	c := NewCounter(4, 1000)
	start := c.Current()
	for i := 0; i < 3; i++ {
		c.Tick()
	}
	assert.Equal(t, start, c.Current())
	c.Tick()
	assert.NotEqual(t, start, c.Current())
}

func TestCounterResetZeroesStampAndProbes(t *testing.T) {
	c := NewCounter(1, 10)
	c.Tick()
	c.Tick()
	assert.NotEqual(t, NewAgeStamp(0, 0), c.Current())
	c.Reset()
	assert.Equal(t, NewAgeStamp(0, 0), c.Current())
}
