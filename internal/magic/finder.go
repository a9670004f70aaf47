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

package magic

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/frankkopp/shogikernel/assert"
	"github.com/frankkopp/shogikernel/internal/bitboard"
	"github.com/frankkopp/shogikernel/internal/board"
	"github.com/frankkopp/shogikernel/internal/config"
	"github.com/frankkopp/shogikernel/internal/xlog"
)

var log = xlog.GetMagicLog()

// GenerationFailedError reports that every search strategy exhausted its
// trial budget for a given square/piece class without finding a
// collision-free multiplier.
type GenerationFailedError struct {
	Square     board.Square
	PieceClass board.PieceClass
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("magic: generation failed for square=%s piece=%s", e.Square, e.PieceClass)
}

// prnG is the xorshift64star pseudo-random generator, taken from the
// classic Stockfish magic-init approach and extended here across two
// words to cover the 128-bit candidate space.
//
// Characteristics (unchanged from the 64-bit original): outputs 64-bit
// numbers, passes Dieharder/SmallCrush, no warm-up needed, period 2^64-1.
// See http://vigna.di.unimi.it/ftp/papers/xorshift.pdf.
type prnG struct {
	s uint64
}

func newPrnG(seed uint64) *prnG {
	if seed == 0 {
		seed = 1
	}
	return &prnG{s: seed}
}

func (r *prnG) rand64() uint64 {
	r.s ^= r.s >> 12
	r.s ^= r.s << 25
	r.s ^= r.s >> 27
	return r.s * 2685821657736338717
}

// sparseRand returns a 64-bit value with roughly 1/8th of its bits set
// on average - ANDing three independent draws thins the bit density.
func (r *prnG) sparseRand() uint64 {
	return r.rand64() & r.rand64() & r.rand64()
}

func (r *prnG) rand128() bitboard.Bitboard {
	return bitboard.Bitboard{Hi: r.rand64(), Lo: r.rand64()}
}

func (r *prnG) sparseRand128() bitboard.Bitboard {
	return bitboard.Bitboard{Hi: r.sparseRand(), Lo: r.sparseRand()}
}

// cacheKey identifies a magic-search result. Per §4.3 the search runs
// against the slider's base class, so promoted pieces share a result
// with their unpromoted counterpart.
type cacheKey struct {
	square board.Square
	slider board.PieceClass
}

// Found is a memoized magic-search result: the multiplier, mask, shift
// and the attack table produced as a side effect of verifying it
// (reused by Table.Build to skip re-enumerating the blocker subsets).
type Found struct {
	Magic   bitboard.Bitboard
	Mask    bitboard.Bitboard
	Shift   uint
	Attacks []bitboard.Bitboard
}

// Finder searches for perfect-hash magic multipliers and memoizes
// results per (square, slider piece class).
type Finder struct {
	mu    sync.Mutex
	cache map[cacheKey]Found
}

// NewFinder returns an empty Finder.
func NewFinder() *Finder {
	return &Finder{cache: make(map[cacheKey]Found)}
}

// sliderPart maps a piece class to the slider its magic search runs
// against: PromotedRook searches as Rook, PromotedBishop as Bishop.
func sliderPart(pc board.PieceClass) (board.PieceClass, bool) {
	switch pc {
	case board.Rook, board.PromotedRook:
		return board.Rook, true
	case board.Bishop, board.PromotedBishop:
		return board.Bishop, true
	default:
		return 0, false
	}
}

// Find returns the memoized magic-search result for sq/pieceClass,
// running the search strategies in order if not already cached.
func (f *Finder) Find(sq board.Square, pieceClass board.PieceClass) (Found, error) {
	slider, ok := sliderPart(pieceClass)
	if !ok {
		return Found{}, &GenerationFailedError{Square: sq, PieceClass: pieceClass}
	}
	key := cacheKey{square: sq, slider: slider}

	f.mu.Lock()
	if found, ok := f.cache[key]; ok {
		f.mu.Unlock()
		return found, nil
	}
	f.mu.Unlock()

	found, err := search(sq, slider)
	if err != nil {
		return Found{}, err
	}

	f.mu.Lock()
	f.cache[key] = found
	f.mu.Unlock()
	return found, nil
}

// PregenerateAll warms the cache for all 81 squares times {Rook, Bishop},
// one goroutine per (square, slider) pair since each search is
// independent.
func (f *Finder) PregenerateAll() error {
	var g errgroup.Group
	for sq := board.Square(0); int(sq) < board.NumSquares; sq++ {
		sq := sq
		for _, slider := range []board.PieceClass{board.Rook, board.Bishop} {
			slider := slider
			g.Go(func() error {
				_, err := f.Find(sq, slider)
				return err
			})
		}
	}
	return g.Wait()
}

const trialBudget = 100_000

// search runs the ordered strategies from §4.3 against a single
// (square, slider) pair.
func search(sq board.Square, slider board.PieceClass) (Found, error) {
	mask := board.RelevantMask(sq, slider)
	n := mask.PopCount()
	shift := uint(128 - n - 3)

	occupancy, reference := enumerateSubsets(sq, slider, mask)
	size := len(occupancy)

	seed := uint64(sq)*2 + 1 + uint64(slider)*10007
	_ = size

	if found, attacks, ok := trySeeded(mask, shift, occupancy, reference, newPrnG(seed).rand128); ok {
		return Found{Magic: found, Mask: mask, Shift: shift, Attacks: attacks}, nil
	}
	if found, attacks, ok := trySeeded(mask, shift, occupancy, reference, newPrnG(seed^0xD1B54A32D192ED03).sparseRand128); ok {
		return Found{Magic: found, Mask: mask, Shift: shift, Attacks: attacks}, nil
	}

	magicCfg := config.Settings.Magic
	if n <= magicCfg.BruteForceMaxBits {
		if found, attacks, ok := tryBruteForce(mask, shift, occupancy, reference); ok {
			return Found{Magic: found, Mask: mask, Shift: shift, Attacks: attacks}, nil
		}
	}

	if found, attacks, ok := tryHeuristic(mask, shift, occupancy, reference); ok {
		return Found{Magic: found, Mask: mask, Shift: shift, Attacks: attacks}, nil
	}

	log.Errorf("magic generation exhausted all strategies: square=%s slider=%s bits=%d", sq, slider, n)
	return Found{}, &GenerationFailedError{Square: sq, PieceClass: slider}
}

// enumerateSubsets walks every blocker subset of mask via the
// Carry-Rippler trick and computes its reference attack set.
func enumerateSubsets(sq board.Square, slider board.PieceClass, mask bitboard.Bitboard) ([]bitboard.Bitboard, []bitboard.Bitboard) {
	var occupancy, reference []bitboard.Bitboard
	b := bitboard.Zero
	for {
		occupancy = append(occupancy, b)
		reference = append(reference, board.RayAttacks(sq, slider, b))
		b = rippleNext(b, mask)
		if b.IsEmpty() {
			break
		}
	}
	return occupancy, reference
}

// rippleNext computes the next blocker subset after b in the
// Carry-Rippler enumeration order: (b - mask) & mask, implemented over
// the two 64-bit halves with an explicit borrow since Bitboard has no
// native subtraction operator.
func rippleNext(b, mask bitboard.Bitboard) bitboard.Bitboard {
	lo, borrow := subBorrow64(b.Lo, mask.Lo, 0)
	hi, _ := subBorrow64(b.Hi, mask.Hi, borrow)
	return bitboard.Bitboard{Lo: lo, Hi: hi}.And(mask)
}

func subBorrow64(x, y, borrowIn uint64) (diff uint64, borrowOut uint64) {
	d := x - y - borrowIn
	if x < y+borrowIn || (borrowIn == 1 && y == ^uint64(0)) {
		borrowOut = 1
	}
	return d, borrowOut
}

// index computes the hash table slot for an occupancy pattern under a
// candidate magic multiplier.
func index(occ, mask, magic bitboard.Bitboard, shift uint) uint64 {
	masked := occ.And(mask)
	product := masked.Mul(magic)
	shifted := product.ShiftRight(shift)
	return shifted.Lo
}

// trySeeded drives up to config.Settings.Magic.RandomSearchTrials
// candidates from gen against the full occupancy/reference set, as used
// by the random and sparse-random strategies.
func trySeeded(mask bitboard.Bitboard, shift uint, occupancy, reference []bitboard.Bitboard, gen func() bitboard.Bitboard) (bitboard.Bitboard, []bitboard.Bitboard, bool) {
	epoch := make([]int, 1<<(128-shift))
	attacks := make([]bitboard.Bitboard, len(epoch))
	budget := config.Settings.Magic.RandomSearchTrials
	for trial := 1; trial <= budget; trial++ {
		candidate := gen()
		if candidate.IsEmpty() {
			continue
		}
		if verifyCandidate(mask, candidate, shift, occupancy, reference, epoch, attacks, trial) {
			return candidate, attacks, true
		}
	}
	return bitboard.Zero, nil, false
}

// tryBruteForce enumerates odd candidates starting from 1, only
// attempted when popcount(mask) is small enough that collision-free
// multipliers are common (§4.3 step 4b).
func tryBruteForce(mask bitboard.Bitboard, shift uint, occupancy, reference []bitboard.Bitboard) (bitboard.Bitboard, []bitboard.Bitboard, bool) {
	epoch := make([]int, 1<<(128-shift))
	attacks := make([]bitboard.Bitboard, len(epoch))
	for trial, v := 1, uint64(1); trial <= trialBudget; trial, v = trial+1, v+2 {
		candidate := bitboard.Bitboard{Lo: v}
		if verifyCandidate(mask, candidate, shift, occupancy, reference, epoch, attacks, trial) {
			return candidate, attacks, true
		}
	}
	return bitboard.Zero, nil, false
}

// byteBroadcast repeats the given byte across all 8 bytes of a uint64.
func byteBroadcast(b byte) uint64 {
	v := uint64(b)
	return v * 0x0101010101010101
}

// tryHeuristic tries single-bit, sparse 2-4-bit, mask-derived and
// byte-broadcast candidates (§4.3 step 4c).
func tryHeuristic(mask bitboard.Bitboard, shift uint, occupancy, reference []bitboard.Bitboard) (bitboard.Bitboard, []bitboard.Bitboard, bool) {
	epoch := make([]int, 1<<(128-shift))
	attacks := make([]bitboard.Bitboard, len(epoch))
	budget := config.Settings.Magic.HeuristicSearchTrials
	trial := 0
	check := func(candidate bitboard.Bitboard) bool {
		if candidate.IsEmpty() {
			return false
		}
		trial++
		return verifyCandidate(mask, candidate, shift, occupancy, reference, epoch, attacks, trial)
	}

	// single-bit candidates
	for bit := 0; bit < 128 && trial < budget; bit++ {
		c := bitboard.Zero.Set(bit)
		if check(c) {
			return c, attacks, true
		}
	}

	// sparse 2-4 bit combinations drawn from a fixed list of bit
	// positions spread over the 81 board bits
	sparseBits := []int{0, 1, 2, 3, 7, 8, 15, 16, 23, 24, 31, 32, 40, 48, 56, 63, 64, 70, 80}
	for a := 0; a < len(sparseBits) && trial < budget; a++ {
		for b := a + 1; b < len(sparseBits) && trial < budget; b++ {
			c := bitboard.Zero.Set(sparseBits[a]).Set(sparseBits[b])
			if check(c) {
				return c, attacks, true
			}
			for c3 := b + 1; c3 < len(sparseBits) && trial < budget; c3++ {
				cc := c.Set(sparseBits[c3])
				if check(cc) {
					return cc, attacks, true
				}
				for c4 := c3 + 1; c4 < len(sparseBits) && trial < budget; c4++ {
					c4c := cc.Set(sparseBits[c4])
					if check(c4c) {
						return c4c, attacks, true
					}
				}
			}
		}
	}

	// mask-derived: mask * C for a handful of fixed odd 64-bit constants
	// extended to 128 bits, the way Stockfish-derived code seeds magic
	// search from the mask's own shape.
	oddConstants := []uint64{
		0x9E3779B97F4A7C15, 0xC2B2AE3D27D4EB4F, 0x165667B19E3779F9,
		0xFF51AFD7ED558CCD, 0xC4CEB9FE1A85EC53, 0x2545F4914F6CDD1D,
	}
	for _, c := range oddConstants {
		if trial >= budget {
			break
		}
		candidate := mask.Mul(bitboard.Bitboard{Lo: c})
		if check(candidate) {
			return candidate, attacks, true
		}
	}

	// byte-broadcast constants
	for b := 0; b < 256 && trial < budget; b++ {
		bc := byteBroadcast(byte(b))
		candidate := bitboard.Bitboard{Lo: bc, Hi: bc}
		if check(candidate) {
			return candidate, attacks, true
		}
	}

	return bitboard.Zero, nil, false
}

// verifyCandidate checks whether candidate is collision-free over the
// full occupancy/reference set, using the epoch trick to avoid clearing
// attacks between failed attempts.
func verifyCandidate(mask, candidate bitboard.Bitboard, shift uint, occupancy, reference []bitboard.Bitboard, epoch []int, attacks []bitboard.Bitboard, trial int) bool {
	if assert.DEBUG {
		assert.Assert(len(occupancy) == len(reference), "occupancy/reference length mismatch: %d vs %d", len(occupancy), len(reference))
	}
	for i := range occupancy {
		idx := index(occupancy[i], mask, candidate, shift)
		if assert.DEBUG {
			assert.Assert(idx < uint64(len(epoch)), "magic index %d out of epoch bounds %d", idx, len(epoch))
		}
		if epoch[idx] < trial {
			epoch[idx] = trial
			attacks[idx] = reference[i]
		} else if attacks[idx] != reference[i] {
			return false
		}
	}
	return true
}

