package reader_test

import (
	"testing"

	"github.com/DrToblo/swtiles/format"
	"github.com/DrToblo/swtiles/reader"
	"github.com/stretchr/testify/require"
)

// recordingSource wraps a byte slice and counts Fetch calls, so tests can
// assert the byte-traffic bound spec.md §8 commits to: exactly two fetches
// on Open, and up to two more per GetTile.
type recordingSource struct {
	data   []byte
	fetchN int
}

func (s *recordingSource) Fetch(offset, length uint64) ([]byte, error) {
	s.fetchN++
	end := offset + length
	if end > uint64(len(s.data)) {
		end = uint64(len(s.data))
	}
	if offset > uint64(len(s.data)) {
		offset = uint64(len(s.data))
	}
	return s.data[offset:end], nil
}

// buildArchive assembles a minimal one-level, 2x2 archive with a single
// populated cell at (0,0), byte-for-byte, without going through the writer
// package -- so reader tests do not depend on writer correctness.
func buildArchive(t *testing.T) []byte {
	t.Helper()

	const numLevels = 1
	indexLen := 4 * format.IndexCellLength // 2x2 grid
	levelTableOffset := uint64(format.HeaderLength)
	indexOffset := levelTableOffset + numLevels*format.LevelLength
	dataOffset := indexOffset + uint64(indexLen)

	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	header := format.Header{
		DataType:         format.DataTypeRaster,
		ImageFormat:      format.ImageFormatPNG,
		CrsEPSG:          3857,
		BoundsMinE:       0,
		BoundsMinN:       -200,
		BoundsMaxE:       200,
		BoundsMaxN:       0,
		TileSizePx:       256,
		NumLevels:        numLevels,
		LevelTableOffset: levelTableOffset,
	}
	level := format.Level{
		LevelID:     0,
		TileExtentM: 100,
		OriginE:     0,
		OriginN:     0,
		GridCols:    2,
		GridRows:    2,
		TileCount:   1,
		IndexOffset: indexOffset,
		IndexLength: uint64(indexLen),
		DataOffset:  dataOffset,
	}

	buf := make([]byte, dataOffset+uint64(len(payload)))
	headerBuf := format.EncodeHeader(header)
	copy(buf, headerBuf[:])

	levelBuf := format.EncodeLevel(level)
	copy(buf[levelTableOffset:], levelBuf[:])

	cell00, err := format.EncodeIndexCell(0, uint32(len(payload)))
	require.NoError(t, err)
	copy(buf[indexOffset:], cell00[:])
	// cells (0,1), (1,0), (1,1) stay zero: empty.

	copy(buf[dataOffset:], payload)
	return buf
}

func TestReaderOpenFetchCount(t *testing.T) {
	src := &recordingSource{data: buildArchive(t)}
	r, err := reader.Open(src)
	require.NoError(t, err)
	require.Equal(t, 2, src.fetchN) // header, then level table

	lv, err := r.Level(0)
	require.NoError(t, err)
	require.Equal(t, uint32(1), lv.TileCount)
}

func TestReaderGetTilePresent(t *testing.T) {
	src := &recordingSource{data: buildArchive(t)}
	r, err := reader.Open(src)
	require.NoError(t, err)
	fetchesAfterOpen := src.fetchN

	tile, found, err := r.GetTile(0, 0, 0)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, tile.Payload)
	require.Equal(t, "image/png", tile.MediaType)
	require.Equal(t, fetchesAfterOpen+2, src.fetchN) // index cell, then payload
}

func TestReaderGetTileEmptyCell(t *testing.T) {
	src := &recordingSource{data: buildArchive(t)}
	r, err := reader.Open(src)
	require.NoError(t, err)
	fetchesAfterOpen := src.fetchN

	tile, found, err := r.GetTile(0, 1, 1)
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, tile)
	require.Equal(t, fetchesAfterOpen+1, src.fetchN) // index cell only
}

func TestReaderGetTileOutOfGrid(t *testing.T) {
	src := &recordingSource{data: buildArchive(t)}
	r, err := reader.Open(src)
	require.NoError(t, err)
	fetchesAfterOpen := src.fetchN

	tile, found, err := r.GetTile(0, 9, 9)
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, tile)
	require.Equal(t, fetchesAfterOpen, src.fetchN) // no fetch at all
}

func TestReaderGetTileByCoord(t *testing.T) {
	src := &recordingSource{data: buildArchive(t)}
	r, err := reader.Open(src)
	require.NoError(t, err)

	tile, found, err := r.GetTileByCoord(0, 50, -50)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, tile.Payload)
	require.InDelta(t, 0.0, tile.MinE, 1e-9)
	require.InDelta(t, -100.0, tile.MinN, 1e-9)
}

func TestReaderBadMagic(t *testing.T) {
	data := buildArchive(t)
	data[0] = 'X'
	src := &recordingSource{data: data}
	_, err := reader.Open(src)
	require.ErrorIs(t, err, format.ErrBadMagic)
}

func TestReaderUnknownLevel(t *testing.T) {
	src := &recordingSource{data: buildArchive(t)}
	r, err := reader.Open(src)
	require.NoError(t, err)

	_, err = r.Level(7)
	require.ErrorIs(t, err, reader.ErrNotFound)
}

func TestReaderTilesInView(t *testing.T) {
	src := &recordingSource{data: buildArchive(t)}
	r, err := reader.Open(src)
	require.NoError(t, err)

	views, err := r.TilesInView(0, 0, -200, 200, 0)
	require.NoError(t, err)
	require.Len(t, views, 4)
}
