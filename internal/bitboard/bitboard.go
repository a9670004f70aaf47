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

// Package bitboard implements the 128-bit occupancy/attack-set word used
// throughout the magic attack engine. A Shogi board has 81 squares, 17
// more than a single 64-bit word has bits for, so the word is
// split across two uint64 halves: Lo carries squares 0..63, Hi carries
// squares 64..80. Bits 81..127 of Hi are always zero.
package bitboard

import (
	"fmt"
	"math/bits"
	"strings"
)

// NumSquares is the number of valid squares on the 9x9 board.
const NumSquares = 81

// hiValidMask clears bits 17..63 of Hi, i.e. keeps only squares 64..80.
const hiValidMask = uint64(1<<17) - 1

// Bitboard is a 128-bit set of squares, bit i set means square i is a
// member. Only bits 0..80 are ever set; all operations preserve this
// invariant.
type Bitboard struct {
	Lo uint64
	Hi uint64
}

// Zero is the empty bitboard.
var Zero = Bitboard{}

// FromU128 builds a Bitboard from its 128-bit representation split into
// high and low 64-bit halves. Bits 81..127 of hi are masked off: callers
// must not rely on them surviving the round trip.
func FromU128(hi, lo uint64) Bitboard {
	return Bitboard{Lo: lo, Hi: hi & hiValidMask}
}

// ToU128 returns the 128-bit representation split into high and low
// 64-bit halves.
func (b Bitboard) ToU128() (hi, lo uint64) {
	return b.Hi, b.Lo
}

// FromSquare returns a Bitboard with only the given square set.
// Panics if sq is out of [0, NumSquares) - callers are expected to have
// validated the square already (see board.Square.Valid).
func FromSquare(sq int) Bitboard {
	if sq < 64 {
		return Bitboard{Lo: 1 << uint(sq)}
	}
	return Bitboard{Hi: 1 << uint(sq-64)}
}

// Set returns b with square sq added.
func (b Bitboard) Set(sq int) Bitboard {
	return b.Or(FromSquare(sq))
}

// Clear returns b with square sq removed.
func (b Bitboard) Clear(sq int) Bitboard {
	f := FromSquare(sq)
	return Bitboard{Lo: b.Lo &^ f.Lo, Hi: b.Hi &^ f.Hi}
}

// Has reports whether square sq is a member of b.
func (b Bitboard) Has(sq int) bool {
	f := FromSquare(sq)
	return b.Lo&f.Lo != 0 || b.Hi&f.Hi != 0
}

// And returns the bitwise AND of b and other.
func (b Bitboard) And(other Bitboard) Bitboard {
	return Bitboard{Lo: b.Lo & other.Lo, Hi: b.Hi & other.Hi}
}

// Or returns the bitwise OR of b and other.
func (b Bitboard) Or(other Bitboard) Bitboard {
	return Bitboard{Lo: b.Lo | other.Lo, Hi: b.Hi | other.Hi}
}

// Xor returns the bitwise XOR of b and other.
func (b Bitboard) Xor(other Bitboard) Bitboard {
	return Bitboard{Lo: b.Lo ^ other.Lo, Hi: b.Hi ^ other.Hi}
}

// AndNot returns b with every bit set in other cleared.
func (b Bitboard) AndNot(other Bitboard) Bitboard {
	return Bitboard{Lo: b.Lo &^ other.Lo, Hi: b.Hi &^ other.Hi}
}

// Not returns the bitwise complement of b, restricted to the 81 valid
// squares (bits 81..127 are always clear).
func (b Bitboard) Not() Bitboard {
	return Bitboard{Lo: ^b.Lo, Hi: (^b.Hi) & hiValidMask}
}

// IsEmpty reports whether no square is set.
func (b Bitboard) IsEmpty() bool {
	return b.Lo == 0 && b.Hi == 0
}

// PopCount returns the number of set squares.
func (b Bitboard) PopCount() int {
	return bits.OnesCount64(b.Lo) + bits.OnesCount64(b.Hi)
}

// TrailingZeros returns the index of the least significant set square, or
// NumSquares if b is empty (mirroring math/bits' "all zero" convention,
// scaled to the 81-square range rather than 128).
func (b Bitboard) TrailingZeros() int {
	if b.Lo != 0 {
		return bits.TrailingZeros64(b.Lo)
	}
	if b.Hi != 0 {
		return 64 + bits.TrailingZeros64(b.Hi)
	}
	return NumSquares
}

// PopLsb returns the least significant set square and the bitboard with
// that square removed. Calling PopLsb on an empty bitboard returns
// (NumSquares, Zero).
func (b Bitboard) PopLsb() (int, Bitboard) {
	sq := b.TrailingZeros()
	if sq >= NumSquares {
		return sq, b
	}
	return sq, b.Clear(sq)
}

// ShiftRight returns b >> n, treating b as a single 128-bit word. n must
// be in [0, 128).
func (b Bitboard) ShiftRight(n uint) Bitboard {
	switch {
	case n == 0:
		return b
	case n < 64:
		return Bitboard{
			Lo: (b.Lo >> n) | (b.Hi << (64 - n)),
			Hi: b.Hi >> n,
		}
	case n < 128:
		return Bitboard{Lo: b.Hi >> (n - 64), Hi: 0}
	default:
		return Zero
	}
}

// Mul returns (b * other) mod 2^128, i.e. 128x128-bit multiplication
// with the upper 128 bits of the 256-bit product discarded. This is the
// same wraparound semantics classic 64-bit magic-bitboard code relies on
// from native uint64 overflow; it is made explicit here since Go has no
// native 128-bit integer type.
func (b Bitboard) Mul(other Bitboard) Bitboard {
	hi, lo := bits.Mul64(b.Lo, other.Lo)
	mid := b.Hi*other.Lo + b.Lo*other.Hi // only the low 64 bits of this matter
	return Bitboard{Lo: lo, Hi: hi + mid}
}

// String renders the occupied squares as a 9x9 grid, rank 0 at the top,
// file 0 on the left - purely a debugging aid.
func (b Bitboard) String() string {
	var sb strings.Builder
	for row := 0; row < 9; row++ {
		for col := 0; col < 9; col++ {
			sq := row*9 + col
			if b.Has(sq) {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('.')
			}
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// GoString implements fmt.GoStringer for %#v debugging.
func (b Bitboard) GoString() string {
	return fmt.Sprintf("bitboard.FromU128(0x%x, 0x%x)", b.Hi, b.Lo)
}
