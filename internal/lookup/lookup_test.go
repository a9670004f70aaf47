//
// shogikernel - magic-bitboard attack engine and hierarchical
// transposition table for a Shogi engine
//

package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankkopp/shogikernel/internal/bitboard"
	"github.com/frankkopp/shogikernel/internal/board"
	"github.com/frankkopp/shogikernel/internal/magic"
)

func buildTableFor(t *testing.T, squares []board.Square) *magic.Table {
	t.Helper()
	finder := magic.NewFinder()
	table := magic.NewTable()
	require.NoError(t, table.Build(finder))
	_ = squares
	return table
}

func TestEngineCacheHitMatchesFreshLookup(t *testing.T) {
	table := buildTableFor(t, nil)
	e := NewDefaultEngine(table)
	sq, _ := board.SquareOf(4, 4)

	first := e.Get(sq, board.Rook, bitboard.Zero)
	second := e.Get(sq, board.Rook, bitboard.Zero)
	assert.Equal(t, first, second)

	snap := e.Snapshot()
	assert.EqualValues(t, 2, snap.LookupCount)
	assert.EqualValues(t, 1, snap.CacheHits)
	assert.EqualValues(t, 1, snap.CacheMisses)
}

func TestEngineFallsBackForUninitializedTable(t *testing.T) {
	table := magic.NewTable()
	e := NewDefaultEngine(table)
	sq, _ := board.SquareOf(3, 3)
	attacks := e.Get(sq, board.Rook, bitboard.Zero)
	assert.Equal(t, board.RayAttacks(sq, board.Rook, bitboard.Zero), attacks)
	snap := e.Snapshot()
	assert.EqualValues(t, 1, snap.FallbackLookups)
}

func TestEngineBatchReportsHitsAndMisses(t *testing.T) {
	table := buildTableFor(t, nil)
	e := NewDefaultEngine(table)
	sq1, _ := board.SquareOf(1, 1)
	sq2, _ := board.SquareOf(1, 1)
	results, hits, misses := e.Batch([]board.Square{sq1, sq2}, board.Bishop, bitboard.Zero)
	require.Len(t, results, 2)
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestEngineGrowsWhenHitRateIsPoor(t *testing.T) {
	table := buildTableFor(t, nil)
	e := NewEngine(table, 4) // 16 slots, trivially forced to collide
	startLog2 := e.sizeLog2

	occ := bitboard.Zero
	for i := 0; i < adaptWindow+1; i++ {
		sq, _ := board.SquareOf(i%9, (i/9)%9)
		occ = occ.Xor(bitboard.Zero.Set(i % 64))
		e.Get(sq, board.Rook, occ)
	}

	assert.Greater(t, e.sizeLog2, startLog2, "a near-always-missing access pattern must grow the cache")
}

func TestEngineShrinksWhenHitRateIsHigh(t *testing.T) {
	table := buildTableFor(t, nil)
	e := NewEngine(table, 16)
	startLog2 := e.sizeLog2
	sq, _ := board.SquareOf(4, 4)

	for i := 0; i < adaptWindow+1; i++ {
		e.Get(sq, board.Rook, bitboard.Zero)
	}

	assert.Less(t, e.sizeLog2, startLog2, "an always-hitting access pattern must shrink the cache")
}

func TestFixedEngineNeverResizes(t *testing.T) {
	table := buildTableFor(t, nil)
	e := NewFixedEngine(table, 4)
	startLog2 := e.sizeLog2

	occ := bitboard.Zero
	for i := 0; i < adaptWindow+1; i++ {
		sq, _ := board.SquareOf(i%9, (i/9)%9)
		occ = occ.Xor(bitboard.Zero.Set(i % 64))
		e.Get(sq, board.Rook, occ)
	}

	assert.Equal(t, startLog2, e.sizeLog2)
}

func TestWarmReplaysPrefetchBuffer(t *testing.T) {
	table := buildTableFor(t, nil)
	e := NewDefaultEngine(table)
	sq, _ := board.SquareOf(2, 2)
	e.Get(sq, board.Rook, bitboard.Zero)
	before := e.Snapshot().LookupCount
	e.Warm()
	after := e.Snapshot().LookupCount
	assert.Greater(t, after, before)
}
