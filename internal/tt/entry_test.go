//
// shogikernel - magic-bitboard attack engine and hierarchical
// transposition table for a Shogi engine
//

package tt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTripNoMove(t *testing.T) {
	e := Entry{
		HashKey: 0xDEADBEEFCAFEBABE,
		Score:   -12345,
		Depth:   17,
		Flag:    Exact,
		HasMove: false,
		Age:     NewAgeStamp(3, 42),
		Source:  Quiescence,
	}
	decoded, err := Decode(Encode(e))
	require.NoError(t, err)
	assert.Equal(t, e, decoded)
}

func TestEncodeDecodeRoundTripWithMove(t *testing.T) {
	e := Entry{
		HashKey: 1,
		Score:   30500,
		Depth:   3,
		Flag:    LowerBound,
		HasMove: true,
		BestMove: Move{
			From: 10, To: 37,
			Piece:       Rook,
			Player:      White,
			Promote:     true,
			Capture:     true,
			GivesCheck:  false,
			IsRecapture: true,
		},
		Age:    NewAgeStamp(0, 1),
		Source: MainSearch,
	}
	decoded, err := Decode(Encode(e))
	require.NoError(t, err)
	assert.Equal(t, e, decoded)
}

func TestEncodeDecodeRoundTripExtremesScore(t *testing.T) {
	for _, score := range []int32{0, -MateValue, MateValue, 1<<31 - 1, -(1 << 31)} {
		e := Entry{HashKey: 7, Score: score, Depth: 1, Flag: UpperBound, Age: NewAgeStamp(0, 1)}
		decoded, err := Decode(Encode(e))
		require.NoError(t, err)
		assert.Equal(t, e.Score, decoded.Score)
	}
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, Entry{}.IsEmpty())
	assert.False(t, Entry{HashKey: 1}.IsEmpty())
	assert.False(t, Entry{Flag: Exact}.IsEmpty())
}

func TestAdjustScoreToAndFromTT(t *testing.T) {
	const ply = 5
	mateIn3 := int32(MateValue - 3)
	toTT := AdjustScoreToTT(mateIn3, ply)
	assert.Equal(t, mateIn3+ply, toTT)
	fromTT := AdjustScoreFromTT(toTT, ply)
	assert.Equal(t, mateIn3, fromTT)

	normal := int32(150)
	assert.Equal(t, normal, AdjustScoreToTT(normal, ply))
	assert.Equal(t, normal, AdjustScoreFromTT(normal, ply))
}

func TestBoundQualityOrdering(t *testing.T) {
	assert.Greater(t, Exact.boundQuality(), LowerBound.boundQuality())
	assert.Greater(t, LowerBound.boundQuality(), UpperBound.boundQuality())
	assert.Greater(t, UpperBound.boundQuality(), None.boundQuality())
}
