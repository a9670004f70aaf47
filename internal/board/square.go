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

// Package board holds the 9x9 Shogi board geometry: squares, piece
// classes that slide, and the pure ray-casting attack generator the
// magic search verifies itself against.
package board

import "fmt"

// BoardSize is the number of files/ranks on a Shogi board.
const BoardSize = 9

// NumSquares is the total number of squares.
const NumSquares = BoardSize * BoardSize

// Square is a board square index in [0, NumSquares). Square 0 is the
// zero-based rank 0, file 0 (rendered "9a" by String, top-left from
// Black's perspective), increasing across a rank
// before advancing to the next one: sq = rank*BoardSize + file.
type Square int8

// SquareOf builds a Square from zero-based rank and file, each in
// [0, BoardSize). Returns (0, false) if either is out of range.
func SquareOf(rank, file int) (Square, bool) {
	if rank < 0 || rank >= BoardSize || file < 0 || file >= BoardSize {
		return 0, false
	}
	return Square(rank*BoardSize + file), true
}

// Valid reports whether sq is a legal board square.
func (sq Square) Valid() bool {
	return sq >= 0 && int(sq) < NumSquares
}

// Rank returns the zero-based rank of sq. sq must be Valid.
func (sq Square) Rank() int {
	return int(sq) / BoardSize
}

// File returns the zero-based file of sq. sq must be Valid.
func (sq Square) File() int {
	return int(sq) % BoardSize
}

// String renders sq in "file-rank" shogi notation, 1-based, e.g. "5e"
// for the center square.
func (sq Square) String() string {
	if !sq.Valid() {
		return fmt.Sprintf("invalid(%d)", int(sq))
	}
	file := BoardSize - sq.File()
	rank := 'a' + rune(sq.Rank())
	return fmt.Sprintf("%d%c", file, rank)
}

// step is a (rank, file) delta.
type step struct {
	dr, df int
}

// neighbor returns the square one step away in the given direction, and
// whether that square is on the board. Off-board results from the
// row-major wraparound (e.g. stepping east off file 9) are rejected by
// checking the landing file/rank explicitly rather than trusting the
// raw index arithmetic.
func (sq Square) neighbor(s step) (Square, bool) {
	r, f := sq.Rank()+s.dr, sq.File()+s.df
	return SquareOf(r, f)
}
