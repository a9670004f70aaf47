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

package tt

import "sync/atomic"

// AgeStamp packs (wrap_count << 16) | age_low16, making age comparisons
// wrap-safe across arbitrarily long searches (§3, §4.9).
type AgeStamp uint32

// NewAgeStamp builds a stamp from its wrap count and low-16 age.
func NewAgeStamp(wrap, low uint16) AgeStamp {
	return AgeStamp(uint32(wrap)<<16 | uint32(low))
}

// Low returns the age_low16 component.
func (s AgeStamp) Low() uint16 {
	return uint16(s & 0xFFFF)
}

// Wrap returns the wrap_count component.
func (s AgeStamp) Wrap() uint16 {
	return uint16(s >> 16)
}

// Advance returns the next stamp after s, wrapping age_low16 back to 1
// (not 0, which is reserved for "never aged") once it would exceed
// maxAge, and saturating wrap_count at 0xFFFF rather than overflowing.
func Advance(s AgeStamp, maxAge uint16) AgeStamp {
	low := s.Low() + 1
	wrap := s.Wrap()
	if low > maxAge {
		low = 1
		if wrap < 0xFFFF {
			wrap++
		}
	}
	return NewAgeStamp(wrap, low)
}

// AgeGap returns the saturating distance from entry's stamp to current's
// stamp, counting maxAge stamps for each wraparound between them. It is
// 0 when the two stamps are equal or when current appears behind entry,
// and monotone non-decreasing as real time (successive
// Advance calls) passes (§8, invariant 7).
func AgeGap(current, entry AgeStamp, maxAge uint16) uint32 {
	if current == entry {
		return 0
	}
	if current.Wrap() == entry.Wrap() {
		if current.Low() >= entry.Low() {
			return uint32(current.Low() - entry.Low())
		}
		return 0
	}
	if current.Wrap() < entry.Wrap() {
		return 0
	}
	wrapsAhead := uint32(current.Wrap() - entry.Wrap())
	gap := int64(wrapsAhead)*int64(maxAge) + int64(current.Low()) - int64(entry.Low())
	if gap < 0 {
		return 0
	}
	return uint32(gap)
}

// Counter is a process-wide age counter advanced on a fixed probe-count
// interval (default every 10000 probes, §4.9).
type Counter struct {
	stamp         uint32 // atomic, holds an AgeStamp
	probes        uint64 // atomic
	intervalProbes uint64
	maxAge        uint16
}

// NewCounter returns a Counter starting at stamp (wrap=0, low=0).
func NewCounter(intervalProbes uint64, maxAge uint16) *Counter {
	return &Counter{
		stamp:          uint32(NewAgeStamp(0, 0)),
		intervalProbes: intervalProbes,
		maxAge:         maxAge,
	}
}

// Current returns the counter's current stamp.
func (c *Counter) Current() AgeStamp {
	return AgeStamp(atomic.LoadUint32(&c.stamp))
}

// Tick records a probe and advances the age stamp once intervalProbes
// have elapsed since the last advance.
func (c *Counter) Tick() {
	n := atomic.AddUint64(&c.probes, 1)
	if c.intervalProbes == 0 || n%c.intervalProbes != 0 {
		return
	}
	for {
		old := atomic.LoadUint32(&c.stamp)
		next := uint32(Advance(AgeStamp(old), c.maxAge))
		if atomic.CompareAndSwapUint32(&c.stamp, old, next) {
			return
		}
	}
}

// Reset sets the counter back to its initial stamp and clears the probe
// count, mirroring L1's Clear contract (§4.11).
func (c *Counter) Reset() {
	atomic.StoreUint32(&c.stamp, uint32(NewAgeStamp(0, 0)))
	atomic.StoreUint64(&c.probes, 0)
}
