// Package reader implements random access over a SWTILES archive: opening
// from a ByteSource, locating a tile by grid cell or by ground coordinate,
// and fetching its bytes with exactly the two range requests spec.md §1
// promises (spec §4.3).
package reader

import (
	"errors"
	"fmt"

	"github.com/DrToblo/swtiles/format"
)

var ErrNotFound = errors.New("swtiles: level not found")

// Tile is the result of a successful tile lookup.
type Tile struct {
	Payload   []byte
	MediaType string
	MinE      float64
	MinN      float64
	MaxE      float64
	MaxN      float64
}

// Reader wraps a ByteSource and the parsed header/level table. It is
// stateless after Open: concurrent lookups on the same Reader are safe and
// independent (spec §5).
type Reader struct {
	source ByteSource
	header format.Header
	levels []format.Level
}

// Open fetches and decodes the header, then the level table, per spec
// §4.3. It fails with the codec's ErrBadMagic/ErrUnsupportedVersion/
// ErrTruncated if the source is not a valid archive.
func Open(source ByteSource) (*Reader, error) {
	headerData, err := source.Fetch(0, format.HeaderLength)
	if err != nil {
		return nil, err
	}
	header, err := format.DecodeHeader(headerData)
	if err != nil {
		return nil, err
	}

	tableLength := uint64(header.NumLevels) * format.LevelLength
	tableData, err := source.Fetch(header.LevelTableOffset, tableLength)
	if err != nil {
		return nil, err
	}
	if uint64(len(tableData)) < tableLength {
		return nil, fmt.Errorf("%w: level table", format.ErrTruncated)
	}

	levels := make([]format.Level, header.NumLevels)
	for i := range levels {
		lv, err := format.DecodeLevel(tableData[i*format.LevelLength:])
		if err != nil {
			return nil, err
		}
		levels[i] = lv
	}

	return &Reader{source: source, header: header, levels: levels}, nil
}

// Header returns the archive's file-level header.
func (r *Reader) Header() format.Header {
	return r.header
}

// Level returns the level entry for levelID, by identity rather than by
// position in the table (spec §9: "Readers must key by level_id, not by
// position in the table").
func (r *Reader) Level(levelID uint8) (format.Level, error) {
	for _, lv := range r.levels {
		if lv.LevelID == levelID {
			return lv, nil
		}
	}
	return format.Level{}, fmt.Errorf("%w: level_id=%d", ErrNotFound, levelID)
}

// Levels returns every level entry, in on-disk order.
func (r *Reader) Levels() []format.Level {
	return r.levels
}

// GetTile fetches one tile by (level, row, col). It returns (nil, false)
// when the cell is empty or out of grid, never an error for that case —
// absence is not an error (spec §7).
func (r *Reader) GetTile(levelID uint8, row, col uint32) (*Tile, bool, error) {
	lv, err := r.Level(levelID)
	if err != nil {
		return nil, false, err
	}
	if !lv.InGrid(int64(row), int64(col)) {
		return nil, false, nil
	}

	cellOffset := lv.IndexOffset + (uint64(row)*uint64(lv.GridCols)+uint64(col))*format.IndexCellLength
	cellData, err := r.source.Fetch(cellOffset, format.IndexCellLength)
	if err != nil {
		return nil, false, err
	}
	offset, length, err := format.DecodeIndexCell(cellData)
	if err != nil {
		return nil, false, err
	}
	if length == 0 {
		return nil, false, nil
	}

	payload, err := r.source.Fetch(lv.DataOffset+offset, uint64(length))
	if err != nil {
		return nil, false, err
	}

	minE, minN, maxE, maxN := lv.CellToBounds(int64(row), int64(col))
	return &Tile{
		Payload:   payload,
		MediaType: r.header.ImageFormat.MediaType(),
		MinE:      minE,
		MinN:      minN,
		MaxE:      maxE,
		MaxN:      maxN,
	}, true, nil
}

// GetTileByCoord composes CoordToCell and GetTile.
func (r *Reader) GetTileByCoord(levelID uint8, easting, northing float64) (*Tile, bool, error) {
	lv, err := r.Level(levelID)
	if err != nil {
		return nil, false, err
	}
	row, col := lv.CoordToCell(easting, northing)
	if !lv.InGrid(row, col) {
		return nil, false, nil
	}
	return r.GetTile(levelID, uint32(row), uint32(col))
}

// TilesInView computes the clamped rectangle of cells overlapping the
// given view. It touches no byte source.
func (r *Reader) TilesInView(levelID uint8, minE, minN, maxE, maxN float64) ([]format.TileView, error) {
	lv, err := r.Level(levelID)
	if err != nil {
		return nil, err
	}
	return lv.TilesInView(minE, minN, maxE, maxN), nil
}
