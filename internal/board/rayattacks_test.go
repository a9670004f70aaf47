//
// shogikernel - magic-bitboard attack engine and hierarchical
// transposition table for a Shogi engine
//
// MIT License
//
// Copyright (c) 2018-2020 Frank Kopp
//

package board

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/frankkopp/shogikernel/internal/bitboard"
)

func TestRookCenterEmptyBoard(t *testing.T) {
	center, ok := SquareOf(4, 4)
	assert.True(t, ok)
	attacks := RayAttacks(center, Rook, bitboard.Zero)
	// 8 squares along the rank + 8 along the file, no edge wraps.
	assert.Equal(t, 16, attacks.PopCount())
}

func TestBishopCornerEmptyBoard(t *testing.T) {
	corner, ok := SquareOf(0, 0)
	assert.True(t, ok)
	attacks := RayAttacks(corner, Bishop, bitboard.Zero)
	// Only one diagonal is on-board from a corner, length 8.
	assert.Equal(t, 8, attacks.PopCount())
}

func TestRookBlockedByOccupant(t *testing.T) {
	sq, _ := SquareOf(4, 4)
	blocker, _ := SquareOf(4, 6)
	occ := bitboard.Zero.Set(int(blocker))
	attacks := RayAttacks(sq, Rook, occ)
	assert.True(t, attacks.Has(int(blocker)), "slide must include the blocking square itself")
	beyond, _ := SquareOf(4, 7)
	assert.False(t, attacks.Has(int(beyond)), "slide must stop at the blocker")
}

func TestPromotedRookAddsDiagonalSteps(t *testing.T) {
	sq, _ := SquareOf(4, 4)
	rook := RayAttacks(sq, Rook, bitboard.Zero)
	dragon := RayAttacks(sq, PromotedRook, bitboard.Zero)
	assert.Equal(t, rook.PopCount()+4, dragon.PopCount())
	for _, d := range bishopSteps {
		n, ok := sq.neighbor(d)
		assert.True(t, ok)
		assert.True(t, dragon.Has(int(n)))
	}
}

func TestPromotedBishopAddsOrthogonalSteps(t *testing.T) {
	sq, _ := SquareOf(4, 4)
	bishop := RayAttacks(sq, Bishop, bitboard.Zero)
	horse := RayAttacks(sq, PromotedBishop, bitboard.Zero)
	assert.Equal(t, bishop.PopCount()+4, horse.PopCount())
}

func TestRelevantMaskIncludesEdgeSquares(t *testing.T) {
	sq, _ := SquareOf(4, 0)
	mask := RelevantMask(sq, Rook)
	farEdge, _ := SquareOf(4, 8)
	assert.True(t, mask.Has(int(farEdge)), "relevant_mask includes edge squares, unlike classic chess magic bitboards")
	assert.Equal(t, RayAttacks(sq, Rook, bitboard.Zero).PopCount(), mask.PopCount())
}

func TestRelevantMaskExcludesPromotedStepMoves(t *testing.T) {
	sq, _ := SquareOf(4, 4)
	mask := RelevantMask(sq, PromotedRook)
	slideOnly := RelevantMask(sq, Rook)
	assert.Equal(t, slideOnly, mask, "relevant_mask is restricted to the slider's real rays, never step moves")
}

func TestSquareStringTopLeftCorner(t *testing.T) {
	sq, _ := SquareOf(0, 0)
	assert.Equal(t, "9a", sq.String())
}

func TestInvalidSquareRejected(t *testing.T) {
	_, ok := SquareOf(9, 0)
	assert.False(t, ok)
	_, ok = SquareOf(0, -1)
	assert.False(t, ok)
}
