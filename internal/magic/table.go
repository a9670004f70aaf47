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
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/frankkopp/shogikernel/internal/bitboard"
	"github.com/frankkopp/shogikernel/internal/board"
	"github.com/frankkopp/shogikernel/internal/config"
	"github.com/frankkopp/shogikernel/internal/util"
)

var out = message.NewPrinter(language.German)

const (
	fileMagicLiteral = "SHOGI_MAGIC_V1\x00\x00"
	fileVersion      = byte(1)
	checksumConstant = uint64(0x9E3779B97F4A7C15)
)

// Record is a single square's magic-lookup parameters plus the slice of
// the shared attack storage it owns.
type Record struct {
	Magic      bitboard.Bitboard
	Mask       bitboard.Bitboard
	Shift      uint
	AttackBase uint64
	TableSize  uint64
}

// ValidationFailedError reports that a magic table failed structural or
// exhaustive validation. Fatal - the table must not be used.
type ValidationFailedError struct {
	Reason string
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("magic: validation failed: %s", e.Reason)
}

// Table is a complete set of magic-lookup records for both slider
// classes across all 81 squares, backed by a shared Pool.
type Table struct {
	Rook   [board.NumSquares]Record
	Bishop [board.NumSquares]Record
	Pool   *Pool
}

// NewTable returns an empty, unbuilt Table.
func NewTable() *Table {
	return &Table{Pool: NewPool()}
}

// recordFor returns the record array and slider class for a piece class,
// or nil if pc is not one of the four sliding classes.
func (t *Table) recordFor(pc board.PieceClass) (*[board.NumSquares]Record, board.PieceClass, bool) {
	switch pc {
	case board.Rook, board.PromotedRook:
		return &t.Rook, board.Rook, true
	case board.Bishop, board.PromotedBishop:
		return &t.Bishop, board.Bishop, true
	default:
		return nil, 0, false
	}
}

// Build runs the Finder for every square and both slider classes, and
// writes each resulting attack table into the Pool. When
// config.Settings.Magic.ValidateOnBuild is set, the finished table is
// checked with ValidateExhaustive and its error is returned.
func (t *Table) Build(finder *Finder) error {
	start := time.Now()
	defer func() { log.Debug(util.TimeTrack(start, "magic.Table.Build")) }()

	for sq := board.Square(0); int(sq) < board.NumSquares; sq++ {
		for _, slider := range []board.PieceClass{board.Rook, board.Bishop} {
			found, err := finder.Find(sq, slider)
			if err != nil {
				return err
			}
			base := t.Pool.Allocate(len(found.Attacks))
			for i, a := range found.Attacks {
				t.Pool.Write(base+uint64(i), a)
			}
			rec := Record{
				Magic:      found.Magic,
				Mask:       found.Mask,
				Shift:      found.Shift,
				AttackBase: base,
				TableSize:  uint64(len(found.Attacks)),
			}
			records, _, _ := t.recordFor(slider)
			records[sq] = rec
		}
	}
	log.Infof("magic table built: %d pool entries", t.Pool.Len())
	log.Debug(util.MemStat())
	if config.Settings.Magic.ValidateOnBuild {
		if err := t.ValidateExhaustive(); err != nil {
			return err
		}
	}
	return nil
}

// String returns a one-line diagnostic summary of the table's build
// status and storage footprint.
func (t *Table) String() string {
	rookInit, bishopInit := 0, 0
	for _, rec := range t.Rook {
		if rec.TableSize > 0 {
			rookInit++
		}
	}
	for _, rec := range t.Bishop {
		if rec.TableSize > 0 {
			bishopInit++
		}
	}
	return out.Sprintf("Table: rook %d/%d squares bishop %d/%d squares pool %d entries",
		rookInit, board.NumSquares, bishopInit, board.NumSquares, t.Pool.Len())
}

// GetAttacks is the probe path described in §4.5: returns exactly the
// set of squares pc attacks from sq given occupied, falling back to
// ray-casting on any uninitialized record or out-of-range index so the
// lookup path never faults.
func (t *Table) GetAttacks(sq board.Square, pc board.PieceClass, occupied bitboard.Bitboard) bitboard.Bitboard {
	attacks, _ := t.GetAttacksReportingFallback(sq, pc, occupied)
	return attacks
}

// GetAttacksReportingFallback behaves like GetAttacks but also reports
// whether the ray-cast fallback path was taken, so callers such as the
// lookup engine can maintain a fallback_lookups counter (§4.6).
func (t *Table) GetAttacksReportingFallback(sq board.Square, pc board.PieceClass, occupied bitboard.Bitboard) (bitboard.Bitboard, bool) {
	if !sq.Valid() {
		return bitboard.Zero, false
	}
	records, slider, ok := t.recordFor(pc)
	if !ok {
		return bitboard.Zero, false
	}
	rec := records[sq]
	if rec.Magic.IsEmpty() && rec.Mask.IsEmpty() {
		return board.RayAttacks(sq, pc, occupied), true
	}

	b := occupied.And(rec.Mask)
	offset := b.Mul(rec.Magic).ShiftRight(rec.Shift).Lo
	idx := rec.AttackBase + offset
	if idx >= uint64(t.Pool.Len()) {
		return board.RayAttacks(sq, pc, occupied), true
	}
	slideAttacks := t.Pool.At(idx)

	if pc == slider {
		return slideAttacks, false
	}
	// promoted piece: compose the slider result with its position-
	// independent king-step set.
	return slideAttacks.Or(stepAttacks(sq, pc)), false
}

var stepTables = map[board.PieceClass][board.NumSquares]bitboard.Bitboard{}

func init() {
	for _, pc := range []board.PieceClass{board.PromotedRook, board.PromotedBishop} {
		var table [board.NumSquares]bitboard.Bitboard
		for sq := board.Square(0); int(sq) < board.NumSquares; sq++ {
			full := board.RayAttacks(sq, pc, bitboard.Zero)
			slideOnly := board.RayAttacks(sq, sliderOf(pc), bitboard.Zero)
			table[sq] = full.AndNot(slideOnly)
		}
		stepTables[pc] = table
	}
}

func sliderOf(pc board.PieceClass) board.PieceClass {
	if pc == board.PromotedRook {
		return board.Rook
	}
	return board.Bishop
}

// stepAttacks returns the precomputed, occupancy-independent king-step
// set a promoted piece adds to its slider base.
func stepAttacks(sq board.Square, pc board.PieceClass) bitboard.Bitboard {
	table, ok := stepTables[pc]
	if !ok {
		return bitboard.Zero
	}
	return table[sq]
}

// ValidateIntegrity performs the cheap structural check from §4.7:
// every initialized record's [attack_base, attack_base+table_size) range
// must lie within the pool, without exhaustively probing every subset.
func (t *Table) ValidateIntegrity() error {
	poolLen := uint64(t.Pool.Len())
	check := func(records *[board.NumSquares]Record) error {
		for sq, rec := range records {
			if rec.TableSize == 0 {
				continue
			}
			if rec.AttackBase+rec.TableSize > poolLen {
				return &ValidationFailedError{Reason: fmt.Sprintf("square %d: attack_base+table_size exceeds pool length", sq)}
			}
		}
		return nil
	}
	if err := check(&t.Rook); err != nil {
		return err
	}
	return check(&t.Bishop)
}

// Serialize writes the bit-exact little-endian format described in §4.5.
func (t *Table) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(fileMagicLiteral)
	buf.WriteByte(fileVersion)

	body := &bytes.Buffer{}
	for _, records := range [][board.NumSquares]Record{t.Rook, t.Bishop} {
		for _, rec := range records {
			writeBitboard(body, rec.Magic)
			writeBitboard(body, rec.Mask)
			body.WriteByte(byte(rec.Shift))
			writeUint64(body, rec.AttackBase)
			writeUint64(body, rec.TableSize)
		}
	}

	storage := t.Pool.Storage()
	writeUint32(body, uint32(len(storage)))
	for _, a := range storage {
		writeBitboard(body, a)
	}

	checksum := computeChecksum(body.Bytes())

	buf.Write(body.Bytes())
	writeUint64(&buf, checksum)
	return buf.Bytes(), nil
}

// Deserialize loads a Table from the format written by Serialize,
// rejecting files with the wrong magic literal, version, or a
// mismatching checksum (§4.5).
func Deserialize(data []byte) (*Table, error) {
	headerLen := len(fileMagicLiteral) + 1
	if len(data) < headerLen+8 {
		return nil, &ValidationFailedError{Reason: "file too short"}
	}
	if string(data[:len(fileMagicLiteral)]) != fileMagicLiteral {
		return nil, &ValidationFailedError{Reason: "bad magic literal"}
	}
	if data[len(fileMagicLiteral)] != fileVersion {
		return nil, &ValidationFailedError{Reason: "unsupported version"}
	}

	body := data[headerLen : len(data)-8]
	wantChecksum := binary.LittleEndian.Uint64(data[len(data)-8:])
	if computeChecksum(body) != wantChecksum {
		return nil, &ValidationFailedError{Reason: "checksum mismatch"}
	}

	r := bytes.NewReader(body)
	t := NewTable()
	readRecords := func(records *[board.NumSquares]Record) error {
		for i := range records {
			magicVal, err := readBitboard(r)
			if err != nil {
				return err
			}
			mask, err := readBitboard(r)
			if err != nil {
				return err
			}
			shiftByte, err := r.ReadByte()
			if err != nil {
				return err
			}
			base, err := readUint64(r)
			if err != nil {
				return err
			}
			size, err := readUint64(r)
			if err != nil {
				return err
			}
			records[i] = Record{Magic: magicVal, Mask: mask, Shift: uint(shiftByte), AttackBase: base, TableSize: size}
		}
		return nil
	}
	if err := readRecords(&t.Rook); err != nil {
		return nil, err
	}
	if err := readRecords(&t.Bishop); err != nil {
		return nil, err
	}

	count, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	storage := make([]bitboard.Bitboard, count)
	for i := range storage {
		bb, err := readBitboard(r)
		if err != nil {
			return nil, err
		}
		storage[i] = bb
	}
	base := t.Pool.Allocate(len(storage))
	for i, bb := range storage {
		t.Pool.Write(base+uint64(i), bb)
	}
	return t, nil
}

// tablePath returns the configured magic-table path, preferring the
// environment-variable override when set.
func tablePath() string {
	if env := config.Settings.Magic.TablePathEnv; env != "" {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return config.Settings.Magic.TablePath
}

// LoadFromFile reads a Table from the configured magic-table path,
// resolving it relative to the working directory, executable, or home
// directory the way util.ResolveFile does for every other on-disk
// resource in this project. When config.Settings.Magic.ValidateOnBuild
// is set, the loaded table is checked with ValidateExhaustive before it
// is returned.
func LoadFromFile() (*Table, error) {
	path, err := util.ResolveFile(tablePath())
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := Deserialize(data)
	if err != nil {
		return nil, err
	}
	if config.Settings.Magic.ValidateOnBuild {
		if err := t.ValidateExhaustive(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// SaveToFile serializes t and writes it to the configured magic-table
// path, creating the containing folder if it does not already exist.
func (t *Table) SaveToFile() error {
	path := tablePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := t.Serialize()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func computeChecksum(data []byte) uint64 {
	c := uint64(0)
	for _, x := range data {
		c = (c + uint64(x)) * checksumConstant
	}
	return c
}

func writeBitboard(buf *bytes.Buffer, b bitboard.Bitboard) {
	writeUint64(buf, b.Lo)
	writeUint64(buf, b.Hi)
}

func readBitboard(r *bytes.Reader) (bitboard.Bitboard, error) {
	lo, err := readUint64(r)
	if err != nil {
		return bitboard.Zero, err
	}
	hi, err := readUint64(r)
	if err != nil {
		return bitboard.Zero, err
	}
	return bitboard.Bitboard{Hi: hi, Lo: lo}, nil
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readFull(r *bytes.Reader, b []byte) (int, error) {
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
