//
// shogikernel - magic-bitboard attack engine and hierarchical
// transposition table for a Shogi engine
//

package magic

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankkopp/shogikernel/internal/bitboard"
	"github.com/frankkopp/shogikernel/internal/board"
	"github.com/frankkopp/shogikernel/internal/config"
)

func buildSmallTable(t *testing.T, squares []board.Square) *Table {
	t.Helper()
	finder := NewFinder()
	table := NewTable()
	for _, sq := range squares {
		for _, slider := range []board.PieceClass{board.Rook, board.Bishop} {
			found, err := finder.Find(sq, slider)
			require.NoError(t, err)
			base := table.Pool.Allocate(len(found.Attacks))
			for i, a := range found.Attacks {
				table.Pool.Write(base+uint64(i), a)
			}
			records, _, _ := table.recordFor(slider)
			records[sq] = Record{
				Magic: found.Magic, Mask: found.Mask, Shift: found.Shift,
				AttackBase: base, TableSize: uint64(len(found.Attacks)),
			}
		}
	}
	return table
}

// S1 - Rook from center, empty board.
func TestScenarioRookCenterEmpty(t *testing.T) {
	sq, _ := board.SquareOf(4, 4)
	table := buildSmallTable(t, []board.Square{sq})
	attacks := table.GetAttacks(sq, board.Rook, bitboard.Zero)
	assert.Equal(t, 16, attacks.PopCount())
	assert.False(t, attacks.Has(int(sq)))
}

// S2 - Rook with a blocker.
func TestScenarioRookWithBlocker(t *testing.T) {
	sq, _ := board.SquareOf(4, 4)
	blocker, _ := board.SquareOf(4, 6)
	table := buildSmallTable(t, []board.Square{sq})
	occ := bitboard.Zero.Set(int(blocker))
	attacks := table.GetAttacks(sq, board.Rook, occ)
	assert.True(t, attacks.Has(int(blocker)))
	beyond, _ := board.SquareOf(4, 7)
	assert.False(t, attacks.Has(int(beyond)))
	assert.Equal(t, board.RayAttacks(sq, board.Rook, occ), attacks)
}

// S3 - Promoted bishop on a corner.
func TestScenarioPromotedBishopCorner(t *testing.T) {
	sq, _ := board.SquareOf(0, 0)
	table := buildSmallTable(t, []board.Square{sq})
	attacks := table.GetAttacks(sq, board.PromotedBishop, bitboard.Zero)
	assert.Equal(t, 10, attacks.PopCount())
	assert.Equal(t, board.RayAttacks(sq, board.PromotedBishop, bitboard.Zero), attacks)
}

// S4 - serialize / deserialize / validate round trip, plus checksum
// corruption detection.
func TestScenarioSerializeRoundTrip(t *testing.T) {
	sq1, _ := board.SquareOf(4, 4)
	sq2, _ := board.SquareOf(0, 0)
	t1 := buildSmallTable(t, []board.Square{sq1, sq2})
	require.NoError(t, t1.ValidateExhaustive())

	data, err := t1.Serialize()
	require.NoError(t, err)

	t2, err := Deserialize(data)
	require.NoError(t, err)
	require.NoError(t, t2.ValidateIntegrity())

	assert.Equal(t, t1.Pool.Storage(), t2.Pool.Storage())
	assert.Equal(t, t1.Rook[sq1], t2.Rook[sq1])
	assert.Equal(t, t1.Bishop[sq2], t2.Bishop[sq2])

	corrupted := append([]byte(nil), data...)
	corrupted[len(corrupted)-10] ^= 0xFF
	_, err = Deserialize(corrupted)
	assert.Error(t, err)
	var valErr *ValidationFailedError
	assert.ErrorAs(t, err, &valErr)
}

func TestGetAttacksFallsBackOnUninitializedRecord(t *testing.T) {
	table := NewTable()
	sq, _ := board.SquareOf(3, 3)
	attacks := table.GetAttacks(sq, board.Rook, bitboard.Zero)
	assert.Equal(t, board.RayAttacks(sq, board.Rook, bitboard.Zero), attacks)
}

func TestGetAttacksEmptyForNonSlider(t *testing.T) {
	table := NewTable()
	sq, _ := board.SquareOf(3, 3)
	attacks := table.GetAttacks(sq, board.PieceClass(200), bitboard.Zero)
	assert.True(t, attacks.IsEmpty())
}

func TestValidateIntegrityCatchesOutOfBoundsRecord(t *testing.T) {
	table := NewTable()
	sq, _ := board.SquareOf(0, 0)
	table.Rook[sq] = Record{AttackBase: 0, TableSize: 10}
	err := table.ValidateIntegrity()
	assert.Error(t, err)
}

func TestTableStringReportsInitializedSquares(t *testing.T) {
	sq, _ := board.SquareOf(4, 4)
	table := buildSmallTable(t, []board.Square{sq})
	s := table.String()
	assert.Contains(t, s, "rook")
	assert.Contains(t, s, "bishop")
}

func TestSaveAndLoadFromFileRoundTrip(t *testing.T) {
	saved := config.Settings.Magic.TablePath
	t.Cleanup(func() { config.Settings.Magic.TablePath = saved })

	sq1, _ := board.SquareOf(4, 4)
	sq2, _ := board.SquareOf(0, 0)
	t1 := buildSmallTable(t, []board.Square{sq1, sq2})

	config.Settings.Magic.TablePath = filepath.Join(t.TempDir(), "tables", "magic_table.bin")
	require.NoError(t, t1.SaveToFile())

	t2, err := LoadFromFile()
	require.NoError(t, err)
	assert.Equal(t, t1.Pool.Storage(), t2.Pool.Storage())
	assert.Equal(t, t1.Rook[sq1], t2.Rook[sq1])
}
