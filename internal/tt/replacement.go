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

// Policy selects a collision-resolution strategy (§4.10).
type Policy string

const (
	AlwaysReplace  Policy = "always"
	DepthPreferred Policy = "depth"
	AgeBased       Policy = "age"
	DepthAndAge    Policy = "depth_age"
	ExactPreferred Policy = "exact"
)

// ReplacementParams carries the tunables a policy decision may need.
type ReplacementParams struct {
	Policy      Policy
	Current     AgeStamp
	MaxAge      uint16
	DepthWeight float64
	AgeWeight   float64
}

// ShouldReplace reports whether newEntry should overwrite oldEntry under
// the configured policy. oldEntry is assumed non-empty; callers must
// write unconditionally into an empty slot without consulting a policy.
func ShouldReplace(newEntry, oldEntry Entry, p ReplacementParams) bool {
	switch p.Policy {
	case AlwaysReplace:
		return true

	case DepthPreferred:
		if newEntry.Depth != oldEntry.Depth {
			return newEntry.Depth > oldEntry.Depth
		}
		return newEntry.Flag.boundQuality() > oldEntry.Flag.boundQuality()

	case AgeBased:
		gap := AgeGap(p.Current, oldEntry.Age, p.MaxAge)
		return gap > uint32(p.MaxAge)/2

	case DepthAndAge:
		return depthAndAgeScore(newEntry, p) > depthAndAgeScore(oldEntry, p)

	case ExactPreferred:
		newExact := newEntry.Flag == Exact
		oldExact := oldEntry.Flag == Exact
		if newExact != oldExact {
			return newExact
		}
		return newEntry.Depth > oldEntry.Depth

	default:
		return depthAndAgeScore(newEntry, p) > depthAndAgeScore(oldEntry, p)
	}
}

// depthAndAgeScore implements §4.10's DepthAndAge formula:
// score(e) = depth_weight*depth + age_weight*max(0, max_age - age_gap) + 100*bound_quality.
func depthAndAgeScore(e Entry, p ReplacementParams) float64 {
	gap := AgeGap(p.Current, e.Age, p.MaxAge)
	freshness := float64(p.MaxAge) - float64(gap)
	if freshness < 0 {
		freshness = 0
	}
	return p.DepthWeight*float64(e.Depth) + p.AgeWeight*freshness + 100*float64(e.Flag.boundQuality())
}
