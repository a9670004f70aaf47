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

package board

// PieceClass selects which sliding-move pattern a square's attack set is
// computed for. Only the four sliding classes are meaningful to the
// magic attack engine; non-sliding pieces (pawn, knight, king, gold,
// silver and their promotions) never need a magic lookup and are
// intentionally absent here - move legality for those belongs to an
// outer move generator, not this kernel.
type PieceClass uint8

const (
	// Rook slides along ranks and files, any distance.
	Rook PieceClass = iota
	// Bishop slides along diagonals, any distance.
	Bishop
	// PromotedRook (Dragon) adds the four one-step diagonal king moves
	// to Rook's orthogonal slides.
	PromotedRook
	// PromotedBishop (Horse) adds the four one-step orthogonal king
	// moves to Bishop's diagonal slides.
	PromotedBishop

	numPieceClasses = int(PromotedBishop) + 1
)

// String returns the piece class name.
func (pc PieceClass) String() string {
	switch pc {
	case Rook:
		return "Rook"
	case Bishop:
		return "Bishop"
	case PromotedRook:
		return "PromotedRook"
	case PromotedBishop:
		return "PromotedBishop"
	default:
		return "Unknown"
	}
}

// Valid reports whether pc is one of the four sliding piece classes.
func (pc PieceClass) Valid() bool {
	return int(pc) < numPieceClasses
}

var rookSteps = []step{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
var bishopSteps = []step{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}

// slideDirections returns the directions a piece class slides along
// without limit.
func slideDirections(pc PieceClass) []step {
	switch pc {
	case Rook, PromotedRook:
		return rookSteps
	case Bishop, PromotedBishop:
		return bishopSteps
	default:
		return nil
	}
}

// kingStepDirections returns the single-step directions a promoted
// piece additionally gains (the directions its unpromoted slide does
// not already cover).
func kingStepDirections(pc PieceClass) []step {
	switch pc {
	case PromotedRook:
		return bishopSteps
	case PromotedBishop:
		return rookSteps
	default:
		return nil
	}
}
