// Package writer assembles a SWTILES archive from a declared plan in a
// single streaming pass (spec §4.2).
package writer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/DrToblo/swtiles/format"
	"github.com/DrToblo/swtiles/sink"
)

var (
	ErrDuplicateCell        = errors.New("swtiles: duplicate cell")
	ErrCellOutOfGrid        = errors.New("swtiles: cell out of grid")
	ErrPayloadTooLarge      = errors.New("swtiles: payload too large for a single tile")
	ErrLevelPayloadTooLarge = errors.New("swtiles: level payload exceeds 2^40 bytes")

	maxPayloadLength uint64 = 1<<24 - 1
	maxLevelPayload  uint64 = 1<<40 - 1
)

// Params configures the file-level header prototype (spec §4.2).
type Params struct {
	DataType    format.DataType
	ImageFormat format.ImageFormat
	CrsEPSG     uint32
	TileSizePx  uint16
	NumLevels   int // total number of levels that will be written; fixes the level-table size upfront
	Logger      *slog.Logger
}

// LevelPlan describes one level's grid geometry, per spec §4.2. Tiles are
// fed to the writer via WriteTile/FinishLevel rather than an iterator
// argument here, so the writer's state machine can be driven by either the
// tilesource package or a caller assembling tiles itself.
type LevelPlan struct {
	LevelID     uint8
	ResolutionM float32
	TileExtentM float32
	OriginE     float64
	OriginN     float64
	GridCols    uint32
	GridRows    uint32
}

type levelState struct {
	plan       LevelPlan
	tableSlot  int
	dataOffset uint64
	cursor     uint64
	seen       map[uint64]struct{}
	cells      []cellEntry
	nonEmpty   uint32
}

type cellEntry struct {
	offset uint64
	length uint32
}

// Writer assembles a single archive over a Sink, level by level, following
// the state machine of spec §4.2: Reserving index -> Appending payloads ->
// Patching index -> Recording level entry.
type Writer struct {
	logger *slog.Logger
	sink   sink.Sink
	header format.Header

	numLevels   int
	levelsDone  int
	cursor      int64 // next sequential write position
	active      *levelState
	boundsSet   bool
}

// New opens a new archive over s with the given header prototype, reserving
// the header and level-table regions. The caller must call Close after the
// last FinishLevel, successfully or not.
func New(s sink.Sink, params Params) (*Writer, error) {
	logger := params.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	reserved := format.HeaderLength + params.NumLevels*format.LevelLength
	zero := make([]byte, reserved)
	if _, err := s.Write(zero); err != nil {
		return nil, err
	}

	w := &Writer{
		logger:    logger,
		sink:      s,
		cursor:    int64(reserved),
		numLevels: params.NumLevels,
		header: format.Header{
			DataType:         params.DataType,
			ImageFormat:      params.ImageFormat,
			CrsEPSG:          params.CrsEPSG,
			TileSizePx:       params.TileSizePx,
			NumLevels:        uint8(params.NumLevels),
			LevelTableOffset: format.HeaderLength,
		},
	}
	return w, nil
}

// BeginLevel declares the start of a new level and reserves its dense
// index region. Levels are processed strictly sequentially: BeginLevel may
// not be called again until the previous level has been finished with
// FinishLevel.
func (w *Writer) BeginLevel(plan LevelPlan) error {
	if w.active != nil {
		return fmt.Errorf("swtiles: BeginLevel(%d) called before FinishLevel for level %d", plan.LevelID, w.active.plan.LevelID)
	}
	if w.levelsDone >= w.numLevels {
		return fmt.Errorf("swtiles: BeginLevel(%d) exceeds declared NumLevels=%d", plan.LevelID, w.numLevels)
	}

	w.logger.Debug("swtiles: reserving index", "level", plan.LevelID, "cols", plan.GridCols, "rows", plan.GridRows)

	numCells := uint64(plan.GridCols) * uint64(plan.GridRows)
	indexOffset := uint64(w.cursor)
	indexLength := numCells * format.IndexCellLength

	zero := make([]byte, indexLength)
	if _, err := w.sink.Write(zero); err != nil {
		return err
	}
	w.cursor += int64(indexLength)

	w.active = &levelState{
		plan:       plan,
		tableSlot:  w.levelsDone,
		dataOffset: indexOffset + indexLength,
		seen:       make(map[uint64]struct{}),
		cells:      make([]cellEntry, numCells),
	}
	return nil
}

// WriteTile appends one non-empty tile's payload to the current level's
// data region and records its location. Empty cells must never be passed
// here; their index entries stay at the initial all-zero bytes.
func (w *Writer) WriteTile(row, col uint32, payload []byte) error {
	if w.active == nil {
		return errors.New("swtiles: WriteTile called without an active level")
	}
	lv := w.active

	if row >= lv.plan.GridRows || col >= lv.plan.GridCols {
		return fmt.Errorf("%w: level=%d row=%d col=%d grid=%dx%d", ErrCellOutOfGrid, lv.plan.LevelID, row, col, lv.plan.GridRows, lv.plan.GridCols)
	}

	cellIdx := uint64(row)*uint64(lv.plan.GridCols) + uint64(col)
	if _, dup := lv.seen[cellIdx]; dup {
		return fmt.Errorf("%w: level=%d row=%d col=%d", ErrDuplicateCell, lv.plan.LevelID, row, col)
	}

	if uint64(len(payload)) > maxPayloadLength {
		return fmt.Errorf("%w: level=%d row=%d col=%d length=%d", ErrPayloadTooLarge, lv.plan.LevelID, row, col, len(payload))
	}
	if lv.cursor+uint64(len(payload)) > maxLevelPayload {
		return fmt.Errorf("%w: level=%d", ErrLevelPayloadTooLarge, lv.plan.LevelID)
	}

	if _, err := w.sink.Write(payload); err != nil {
		return err
	}
	w.cursor += int64(len(payload))

	lv.seen[cellIdx] = struct{}{}
	lv.cells[cellIdx] = cellEntry{offset: lv.cursor, length: uint32(len(payload))}
	lv.cursor += uint64(len(payload))
	lv.nonEmpty++

	w.accumulateBounds(lv.plan, row, col)

	return nil
}

// FinishLevel patches the level's index region and writes its level-table
// entry. The writer is then ready for the next BeginLevel.
func (w *Writer) FinishLevel() error {
	if w.active == nil {
		return errors.New("swtiles: FinishLevel called without an active level")
	}
	lv := w.active
	w.active = nil

	w.logger.Debug("swtiles: patching index", "level", lv.plan.LevelID, "tiles", lv.nonEmpty)

	numCells := len(lv.cells)
	indexBuf := make([]byte, numCells*format.IndexCellLength)
	for i, cell := range lv.cells {
		buf, err := format.EncodeIndexCell(cell.offset, cell.length)
		if err != nil {
			return err
		}
		copy(indexBuf[i*format.IndexCellLength:], buf[:])
	}

	indexOffset := lv.dataOffset - uint64(len(indexBuf))
	if _, err := w.sink.WriteAt(indexBuf, int64(indexOffset)); err != nil {
		return err
	}

	w.logger.Debug("swtiles: recording level entry", "level", lv.plan.LevelID)

	level := format.Level{
		LevelID:     lv.plan.LevelID,
		ResolutionM: lv.plan.ResolutionM,
		TileExtentM: lv.plan.TileExtentM,
		OriginE:     lv.plan.OriginE,
		OriginN:     lv.plan.OriginN,
		GridCols:    lv.plan.GridCols,
		GridRows:    lv.plan.GridRows,
		TileCount:   lv.nonEmpty,
		IndexOffset: indexOffset,
		IndexLength: uint64(len(indexBuf)),
		DataOffset:  lv.dataOffset,
	}

	entryBuf := format.EncodeLevel(level)
	entryOffset := int64(w.header.LevelTableOffset) + int64(lv.tableSlot)*format.LevelLength
	if _, err := w.sink.WriteAt(entryBuf[:], entryOffset); err != nil {
		return err
	}

	w.levelsDone++
	return nil
}

func (w *Writer) accumulateBounds(plan LevelPlan, row, col uint32) {
	extent := float64(plan.TileExtentM)
	minE := plan.OriginE + float64(col)*extent
	maxE := minE + extent
	maxN := plan.OriginN - float64(row)*extent
	minN := maxN - extent

	if !w.boundsSet {
		w.header.BoundsMinE, w.header.BoundsMinN = minE, minN
		w.header.BoundsMaxE, w.header.BoundsMaxN = maxE, maxN
		w.boundsSet = true
		return
	}
	w.header.BoundsMinE = min(w.header.BoundsMinE, minE)
	w.header.BoundsMinN = min(w.header.BoundsMinN, minN)
	w.header.BoundsMaxE = max(w.header.BoundsMaxE, maxE)
	w.header.BoundsMaxN = max(w.header.BoundsMaxN, maxN)
}

// Close finalizes the archive by patching the header with final bounds. It
// must be called after the last FinishLevel, and must not be called while
// a level is still active.
func (w *Writer) Close() error {
	if w.active != nil {
		return fmt.Errorf("swtiles: Close called with level %d still active", w.active.plan.LevelID)
	}
	if w.levelsDone != w.numLevels {
		return fmt.Errorf("swtiles: Close called after %d/%d levels", w.levelsDone, w.numLevels)
	}

	w.logger.Debug("swtiles: writing header")

	headerBuf := format.EncodeHeader(w.header)
	if _, err := w.sink.WriteAt(headerBuf[:], 0); err != nil {
		return err
	}

	w.logger.Debug("swtiles: done")

	return w.sink.Close()
}
