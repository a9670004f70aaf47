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

package config

// ttConfiguration is a data structure to hold the configuration of the
// hierarchical transposition table (L1 + compressed L2).
type ttConfiguration struct {
	// L1SizeMB bounds the L1 hot table's memory usage.
	L1SizeMB int
	// L1Buckets is the number of lock-striped buckets for the L1.
	L1Buckets int

	// L2MaxEntries bounds the compressed L2's total live entry count.
	L2MaxEntries int
	// L2SegmentCount is the number of FIFO segments in the L2 (rounded up
	// to a power of two).
	L2SegmentCount int

	// ReplacementPolicy selects the collision-resolution strategy:
	// "always", "depth", "age", "depth_age" or "exact".
	ReplacementPolicy string
	// DepthWeight and AgeWeight are the DepthAndAge scoring weights.
	DepthWeight float64
	AgeWeight   float64

	// MaxAge is the age-low16 wrap boundary.
	MaxAge uint32
	// AgeIntervalProbes is how many probes elapse between age advances.
	AgeIntervalProbes uint64

	// PromotionDepth and DemotionAge drive the hierarchical facade's
	// demotion rule (store also to L2 when depth < PromotionDepth or
	// age >= DemotionAge).
	PromotionDepth int8
	DemotionAge    uint32

	// MaintenanceFillRatio triggers an L2 maintenance sweep once reached.
	MaintenanceFillRatio float64
	// MaintenanceIntervalMs is the background worker's sleep interval.
	MaintenanceIntervalMs int
	// MaintenanceBacklogTarget is the entry count a sweep evicts down to.
	MaintenanceBacklogTarget int
}

// sets defaults which might be overwritten by config file.
func init() {
	Settings.TT.L1SizeMB = 128
	Settings.TT.L1Buckets = 256

	Settings.TT.L2MaxEntries = 1_000_000
	Settings.TT.L2SegmentCount = 64

	Settings.TT.ReplacementPolicy = "depth_age"
	Settings.TT.DepthWeight = 4.0
	Settings.TT.AgeWeight = 1.0

	Settings.TT.MaxAge = 1000
	Settings.TT.AgeIntervalProbes = 10_000

	Settings.TT.PromotionDepth = 6
	Settings.TT.DemotionAge = 4

	Settings.TT.MaintenanceFillRatio = 0.9
	Settings.TT.MaintenanceIntervalMs = 500
	Settings.TT.MaintenanceBacklogTarget = 0
}

// set defaults for configurations here in case a configuration
// is not available from the config file.
func setupTT() {
	if Settings.TT.L1SizeMB == 0 {
		Settings.TT.L1SizeMB = 128
	}
	if Settings.TT.L1Buckets == 0 {
		Settings.TT.L1Buckets = 256
	}
	if Settings.TT.L2MaxEntries == 0 {
		Settings.TT.L2MaxEntries = 1_000_000
	}
	if Settings.TT.L2SegmentCount == 0 {
		Settings.TT.L2SegmentCount = 64
	}
	if Settings.TT.ReplacementPolicy == "" {
		Settings.TT.ReplacementPolicy = "depth_age"
	}
	if Settings.TT.MaxAge == 0 {
		Settings.TT.MaxAge = 1000
	}
	if Settings.TT.AgeIntervalProbes == 0 {
		Settings.TT.AgeIntervalProbes = 10_000
	}
	if Settings.TT.MaintenanceFillRatio == 0 {
		Settings.TT.MaintenanceFillRatio = 0.9
	}
}
