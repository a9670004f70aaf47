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

// magicConfiguration is a data structure to hold the configuration of the
// magic attack engine: magic-number search budgets and the memory pool's
// block-size hint.
type magicConfiguration struct {
	// RandomSearchTrials is the trial budget for the random-search strategy.
	RandomSearchTrials int
	// BruteForceMaxBits is the highest relevant-mask popcount for which the
	// brute-force strategy (enumeration from 1) is attempted.
	BruteForceMaxBits int
	// HeuristicSearchTrials is the trial budget for the heuristic strategy.
	HeuristicSearchTrials int

	// PoolBlockSizeHint selects the memory pool's block size: "small" (1024),
	// "medium" (4096) or "large" (16384) attack-table entries per block.
	PoolBlockSizeHint string

	// ValidateOnBuild runs the exhaustive validator after constructing a
	// magic table (and after loading one from disk).
	ValidateOnBuild bool

	// TablePathEnv is the name of the environment variable that overrides
	// the on-disk magic table path.
	TablePathEnv string
	// TablePath is the default relative path to the serialized magic table.
	TablePath string
}

// sets defaults which might be overwritten by config file.
func init() {
	Settings.Magic.RandomSearchTrials = 100_000
	Settings.Magic.BruteForceMaxBits = 12
	Settings.Magic.HeuristicSearchTrials = 100_000
	Settings.Magic.PoolBlockSizeHint = "medium"
	Settings.Magic.ValidateOnBuild = true
	Settings.Magic.TablePathEnv = "SHOGI_MAGIC_TABLE_PATH"
	Settings.Magic.TablePath = "resources/magic_tables/magic_table.bin"
}

// set defaults for configurations here in case a configuration
// is not available from the config file.
func setupMagic() {
	if Settings.Magic.RandomSearchTrials == 0 {
		Settings.Magic.RandomSearchTrials = 100_000
	}
	if Settings.Magic.HeuristicSearchTrials == 0 {
		Settings.Magic.HeuristicSearchTrials = 100_000
	}
	if Settings.Magic.PoolBlockSizeHint == "" {
		Settings.Magic.PoolBlockSizeHint = "medium"
	}
	if Settings.Magic.TablePathEnv == "" {
		Settings.Magic.TablePathEnv = "SHOGI_MAGIC_TABLE_PATH"
	}
}
