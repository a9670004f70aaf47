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

// Package tt implements the hierarchical transposition table: an
// uncompressed, bucket-striped L1 hot table backed by a segmented,
// compressed L2 with background maintenance (§4.8-§4.13).
package tt

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/frankkopp/shogikernel/assert"
)

// BoundType is the quality of a stored search value relative to the
// search window at the time it was recorded.
type BoundType uint8

const (
	// None marks an empty/unused entry.
	None BoundType = iota
	// UpperBound: the true value is at most the stored score (failed low).
	UpperBound
	// LowerBound: the true value is at least the stored score (failed high).
	LowerBound
	// Exact: the stored score is the true minimax value.
	Exact
)

// boundQuality orders bound types for replacement decisions: Exact beats
// LowerBound beats UpperBound beats None (§4.10).
func (b BoundType) boundQuality() int {
	switch b {
	case Exact:
		return 3
	case LowerBound:
		return 2
	case UpperBound:
		return 1
	default:
		return 0
	}
}

// Source records which search phase produced an entry. Informational
// only - it never affects replacement or probing.
type Source uint8

const (
	MainSearch Source = iota
	Quiescence
)

// PieceType is a minimal piece identity for the best-move field; the
// transposition table does not itself interpret piece movement rules.
type PieceType uint8

const (
	Pawn PieceType = iota
	Lance
	Knight
	Silver
	Gold
	Bishop
	Rook
	King
	PromotedPawn
	PromotedLance
	PromotedKnight
	PromotedSilver
	PromotedBishop
	PromotedRook
)

// Player identifies a side to move.
type Player uint8

const (
	Black Player = iota
	White
)

// Move is the best-move hint stored alongside a search result.
type Move struct {
	From, To    uint8 // board.Square values, stored as plain uint8
	Piece       PieceType
	Player      Player
	Promote     bool
	Capture     bool
	GivesCheck  bool
	IsRecapture bool
}

// Entry is one transposition-table record (§3 TranspositionEntry).
type Entry struct {
	HashKey  uint64
	Score    int32
	Depth    uint8
	Flag     BoundType
	BestMove Move
	HasMove  bool
	Age      AgeStamp
	Source   Source
}

// IsEmpty reports whether e is the zero-value "no entry" sentinel.
func (e Entry) IsEmpty() bool {
	return e.Flag == None && e.HashKey == 0
}

const (
	// MateValue is the score magnitude assigned to a found mate.
	MateValue = 30000
	// MateThreshold is the smallest |score| considered mate-adjacent and
	// therefore subject to ply adjustment across the TT boundary.
	MateThreshold = MateValue - 1000
)

// AdjustScoreToTT converts a score expressed as distance-from-current-
// node into the TT's distance-from-root convention before storing.
func AdjustScoreToTT(score int32, ply int) int32 {
	switch {
	case score >= MateThreshold:
		return score + int32(ply)
	case score <= -MateThreshold:
		return score - int32(ply)
	default:
		return score
	}
}

// AdjustScoreFromTT is the inverse of AdjustScoreToTT, applied when a
// stored value is read back at a (possibly different) ply.
func AdjustScoreFromTT(score int32, ply int) int32 {
	switch {
	case score >= MateThreshold:
		return score - int32(ply)
	case score <= -MateThreshold:
		return score + int32(ply)
	default:
		return score
	}
}

// Encode serializes e into the compact L2 wire format: a fixed 8-byte
// hash key, a 1-byte header, 3 bytes of move fields only if a move is
// present, then a varint-encoded score, a depth byte, a uvarint-encoded
// age and a source byte. decode(encode(e)) == e for every e (§4.8, invariant 2).
func Encode(e Entry) []byte {
	if assert.DEBUG {
		assert.Assert(e.Flag <= Exact, "invalid bound type %d", e.Flag)
		assert.Assert(e.BestMove.Piece <= PromotedRook, "invalid piece type %d", e.BestMove.Piece)
	}
	var buf bytes.Buffer

	var hashKey [8]byte
	binary.LittleEndian.PutUint64(hashKey[:], e.HashKey)
	buf.Write(hashKey[:])

	header := byte(0)
	if e.HasMove {
		header |= 1 << 7
	}
	header |= byte(e.Flag&0b11) << 5
	header |= byte(e.BestMove.Piece&0b1111) << 1
	header |= byte(e.BestMove.Player & 1)
	buf.WriteByte(header)

	if e.HasMove {
		moveFlags := byte(0)
		if e.BestMove.Promote {
			moveFlags |= 1 << 0
		}
		if e.BestMove.Capture {
			moveFlags |= 1 << 1
		}
		if e.BestMove.GivesCheck {
			moveFlags |= 1 << 2
		}
		if e.BestMove.IsRecapture {
			moveFlags |= 1 << 3
		}
		buf.WriteByte(e.BestMove.From)
		buf.WriteByte(e.BestMove.To)
		buf.WriteByte(moveFlags)
	}

	var varintBuf [10]byte
	n := binary.PutVarint(varintBuf[:], int64(e.Score))
	buf.Write(varintBuf[:n])

	buf.WriteByte(e.Depth)

	n = binary.PutUvarint(varintBuf[:], uint64(e.Age))
	buf.Write(varintBuf[:n])

	buf.WriteByte(byte(e.Source))

	return buf.Bytes()
}

// Decode is the inverse of Encode.
func Decode(data []byte) (Entry, error) {
	r := bytes.NewReader(data)

	var hashKeyBytes [8]byte
	if _, err := readFullEntry(r, hashKeyBytes[:]); err != nil {
		return Entry{}, err
	}

	header, err := r.ReadByte()
	if err != nil {
		return Entry{}, err
	}

	e := Entry{HashKey: binary.LittleEndian.Uint64(hashKeyBytes[:])}
	e.HasMove = header&(1<<7) != 0
	e.Flag = BoundType((header >> 5) & 0b11)
	e.BestMove.Piece = PieceType((header >> 1) & 0b1111)
	e.BestMove.Player = Player(header & 1)

	if e.HasMove {
		from, err := r.ReadByte()
		if err != nil {
			return Entry{}, err
		}
		to, err := r.ReadByte()
		if err != nil {
			return Entry{}, err
		}
		moveFlags, err := r.ReadByte()
		if err != nil {
			return Entry{}, err
		}
		e.BestMove.From = from
		e.BestMove.To = to
		e.BestMove.Promote = moveFlags&(1<<0) != 0
		e.BestMove.Capture = moveFlags&(1<<1) != 0
		e.BestMove.GivesCheck = moveFlags&(1<<2) != 0
		e.BestMove.IsRecapture = moveFlags&(1<<3) != 0
	}

	score, err := binary.ReadVarint(r)
	if err != nil {
		return Entry{}, err
	}
	e.Score = int32(score)

	depth, err := r.ReadByte()
	if err != nil {
		return Entry{}, err
	}
	e.Depth = depth

	age, err := binary.ReadUvarint(r)
	if err != nil {
		return Entry{}, err
	}
	e.Age = AgeStamp(age)

	source, err := r.ReadByte()
	if err != nil {
		return Entry{}, err
	}
	e.Source = Source(source)

	return e, nil
}

func readFullEntry(r *bytes.Reader, b []byte) (int, error) {
	n := 0
	for n < len(b) {
		m, err := r.Read(b[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (e Entry) String() string {
	return fmt.Sprintf("Entry{hash=%#x score=%d depth=%d flag=%d age=%d}", e.HashKey, e.Score, e.Depth, e.Flag, e.Age)
}
