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
	"sync"

	"github.com/frankkopp/shogikernel/internal/bitboard"
	"github.com/frankkopp/shogikernel/internal/config"
)

// blockSizeBySmallMediumLarge maps the configured size hint to a block
// size, in Bitboard entries.
var blockSizeBySmallMediumLarge = map[string]int{
	"small":  1024,
	"medium": 4096,
	"large":  16384,
}

// Pool is an append-only, block-based arena of Bitboard words backing a
// MagicTable's attack storage. Individual entries are never freed - the
// table is built once and then read for the lifetime of the process.
type Pool struct {
	mu sync.Mutex

	blockSize int
	blocks    [][]bitboard.Bitboard
	// storage is the logically contiguous view over all blocks, grown in
	// lock-step with every allocate() call.
	storage []bitboard.Bitboard
}

// NewPool creates a Pool using the block size selected by
// config.Settings.Magic.PoolBlockSizeHint ("small", "medium" or
// "large"; unrecognized hints fall back to "medium").
func NewPool() *Pool {
	size, ok := blockSizeBySmallMediumLarge[config.Settings.Magic.PoolBlockSizeHint]
	if !ok {
		size = blockSizeBySmallMediumLarge["medium"]
	}
	return &Pool{blockSize: size}
}

// Allocate reserves n contiguous Bitboard slots and returns the base
// offset into Storage(). A single allocation always fits, even if
// n exceeds the configured block size.
func (p *Pool) Allocate(n int) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	base := uint64(len(p.storage))
	blockLen := n
	if blockLen < p.blockSize {
		blockLen = p.blockSize
	}
	block := make([]bitboard.Bitboard, n, blockLen)
	p.blocks = append(p.blocks, block)
	p.storage = append(p.storage, block...)
	return base
}

// Reserve pre-grows the pool's backing capacity to hold at least total
// entries, without publishing them via Allocate. It is a performance
// hint only.
func (p *Pool) Reserve(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cap(p.storage)-len(p.storage) >= total {
		return
	}
	grown := make([]bitboard.Bitboard, len(p.storage), len(p.storage)+total)
	copy(grown, p.storage)
	p.storage = grown
}

// Clear drops all blocks and resets the pool to empty.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocks = nil
	p.storage = nil
}

// Len returns the number of entries currently allocated.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.storage)
}

// Storage returns the logically contiguous backing slice. Callers must
// not retain it across a subsequent Allocate/Clear call - the slice may
// be reallocated.
func (p *Pool) Storage() []bitboard.Bitboard {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.storage
}

// Write stores value at the given absolute index, previously obtained
// from Allocate. Index must be within the allocated range.
func (p *Pool) Write(index uint64, value bitboard.Bitboard) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.storage[index] = value
}

// At returns the value stored at the given absolute index.
func (p *Pool) At(index uint64) bitboard.Bitboard {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.storage[index]
}
