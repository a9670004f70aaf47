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

import "github.com/frankkopp/shogikernel/internal/bitboard"

// RayAttacks computes, by brute-force ray casting, every square a piece
// of the given class attacks from sq given the occupied set. This is
// the ground truth the magic tables are built and validated against -
// deliberately simple and not meant to be fast.
func RayAttacks(sq Square, pc PieceClass, occupied bitboard.Bitboard) bitboard.Bitboard {
	if !sq.Valid() || !pc.Valid() {
		return bitboard.Zero
	}

	attacks := bitboard.Zero
	for _, dir := range slideDirections(pc) {
		cur := sq
		for {
			next, ok := cur.neighbor(dir)
			if !ok {
				break
			}
			attacks = attacks.Set(int(next))
			if occupied.Has(int(next)) {
				break
			}
			cur = next
		}
	}
	for _, dir := range kingStepDirections(pc) {
		if next, ok := sq.neighbor(dir); ok {
			attacks = attacks.Set(int(next))
		}
	}
	return attacks
}

// RelevantMask computes the magic-bitboard "relevant occupancy" mask for
// sq/pc: every square the slider could reach on an empty board, i.e.
// ray_attacks with occupied=0 restricted to the slide directions - step
// moves of a promoted piece never depend on occupancy and never belong
// in the mask. Edge squares are included.
func RelevantMask(sq Square, pc PieceClass) bitboard.Bitboard {
	if !sq.Valid() || !pc.Valid() {
		return bitboard.Zero
	}

	mask := bitboard.Zero
	for _, dir := range slideDirections(pc) {
		cur := sq
		for {
			next, ok := cur.neighbor(dir)
			if !ok {
				break
			}
			mask = mask.Set(int(next))
			cur = next
		}
	}
	return mask
}
