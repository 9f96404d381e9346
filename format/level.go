package format

import (
	"encoding/binary"
	"fmt"
	"math"
)

// LevelLength is the fixed size, in bytes, of one level-table entry.
const LevelLength = 64

// Level is one resolution/grid definition within an archive (spec §3, §6).
type Level struct {
	LevelID      uint8
	ResolutionM  float32
	TileExtentM  float32
	OriginE      float64
	OriginN      float64
	GridCols     uint32
	GridRows     uint32
	TileCount    uint32
	IndexOffset  uint64
	IndexLength  uint64
	DataOffset   uint64
}

// EncodeLevel writes l into a 64-byte buffer at the exact offsets of spec §6,
// zeroing the reserved bytes at 1, and 10-11.
func EncodeLevel(l Level) [LevelLength]byte {
	var buf [LevelLength]byte
	buf[0] = l.LevelID
	// buf[1] reserved = 0
	binary.LittleEndian.PutUint32(buf[2:6], math.Float32bits(l.ResolutionM))
	binary.LittleEndian.PutUint32(buf[6:10], math.Float32bits(l.TileExtentM))
	// buf[10:12] reserved = 0
	binary.LittleEndian.PutUint64(buf[12:20], math.Float64bits(l.OriginE))
	binary.LittleEndian.PutUint64(buf[20:28], math.Float64bits(l.OriginN))
	binary.LittleEndian.PutUint32(buf[28:32], l.GridCols)
	binary.LittleEndian.PutUint32(buf[32:36], l.GridRows)
	binary.LittleEndian.PutUint32(buf[36:40], l.TileCount)
	binary.LittleEndian.PutUint64(buf[40:48], l.IndexOffset)
	binary.LittleEndian.PutUint64(buf[48:56], l.IndexLength)
	binary.LittleEndian.PutUint64(buf[56:64], l.DataOffset)
	return buf
}

// DecodeLevel parses a 64-byte buffer into a Level. Bytes 1 and 10-11 are
// reserved; per spec §9 this implementation accepts any value there on read.
func DecodeLevel(buf []byte) (Level, error) {
	if len(buf) < LevelLength {
		return Level{}, fmt.Errorf("%w: level entry needs %d bytes, got %d", ErrTruncated, LevelLength, len(buf))
	}
	l := Level{
		LevelID:     buf[0],
		ResolutionM: math.Float32frombits(binary.LittleEndian.Uint32(buf[2:6])),
		TileExtentM: math.Float32frombits(binary.LittleEndian.Uint32(buf[6:10])),
		OriginE:     math.Float64frombits(binary.LittleEndian.Uint64(buf[12:20])),
		OriginN:     math.Float64frombits(binary.LittleEndian.Uint64(buf[20:28])),
		GridCols:    binary.LittleEndian.Uint32(buf[28:32]),
		GridRows:    binary.LittleEndian.Uint32(buf[32:36]),
		TileCount:   binary.LittleEndian.Uint32(buf[36:40]),
		IndexOffset: binary.LittleEndian.Uint64(buf[40:48]),
		IndexLength: binary.LittleEndian.Uint64(buf[48:56]),
		DataOffset:  binary.LittleEndian.Uint64(buf[56:64]),
	}
	return l, nil
}

// CoordToCell maps a ground position to the grid cell that contains it.
// The returned row/col may lie outside [0, GridRows) x [0, GridCols);
// callers must validate, or use a lookup that returns OutOfGrid.
func (l Level) CoordToCell(easting, northing float64) (row, col int64) {
	extent := float64(l.TileExtentM)
	col = int64(math.Floor((easting - l.OriginE) / extent))
	row = int64(math.Floor((l.OriginN - northing) / extent))
	return row, col
}

// InGrid reports whether (row, col) lies within [0, GridRows) x [0, GridCols).
func (l Level) InGrid(row, col int64) bool {
	return row >= 0 && col >= 0 && row < int64(l.GridRows) && col < int64(l.GridCols)
}

// CellToBounds returns the ground-space bounding box of cell (row, col):
// the inverse of CoordToCell. Row increases southward, so the upper edge of
// a row is OriginN - row*extent, not +.
func (l Level) CellToBounds(row, col int64) (minE, minN, maxE, maxN float64) {
	extent := float64(l.TileExtentM)
	minE = l.OriginE + float64(col)*extent
	maxE = minE + extent
	maxN = l.OriginN - float64(row)*extent
	minN = maxN - extent
	return minE, minN, maxE, maxN
}

// TileView describes one grid cell and its ground-space bounds, as produced
// by TilesInView.
type TileView struct {
	Row, Col                   int64
	MinE, MinN, MaxE, MaxN float64
}

// TilesInView computes the clamped, inclusive rectangle of cells overlapping
// the given view rectangle. It touches no byte source; it is pure metadata
// arithmetic over the level's grid geometry.
func (l Level) TilesInView(minE, minN, maxE, maxN float64) []TileView {
	rowNW, colNW := l.CoordToCell(minE, maxN)
	rowSE, colSE := l.CoordToCell(maxE, minN)

	minRow, maxRow := clampRange(rowNW, rowSE, int64(l.GridRows))
	minCol, maxCol := clampRange(colNW, colSE, int64(l.GridCols))

	if minRow > maxRow || minCol > maxCol {
		return nil
	}

	views := make([]TileView, 0, (maxRow-minRow+1)*(maxCol-minCol+1))
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			e0, n0, e1, n1 := l.CellToBounds(row, col)
			views = append(views, TileView{Row: row, Col: col, MinE: e0, MinN: n0, MaxE: e1, MaxN: n1})
		}
	}
	return views
}

// clampRange orders a, b and clamps the result to [0, limit).
func clampRange(a, b, limit int64) (lo, hi int64) {
	if a > b {
		a, b = b, a
	}
	lo = max(a, 0)
	hi = min(b, limit-1)
	return lo, hi
}
