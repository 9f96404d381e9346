package writer_test

import (
	"testing"

	"github.com/DrToblo/swtiles/format"
	"github.com/DrToblo/swtiles/sink"
	"github.com/DrToblo/swtiles/writer"
	"github.com/orcaman/writerseeker"
	"github.com/stretchr/testify/require"
)

func newBufferedSink() (*sink.BufferedSink, *writerseeker.WriterSeeker) {
	ws := &writerseeker.WriterSeeker{}
	return sink.NewBufferedSink(ws), ws
}

// S1 from spec.md §8: a single empty level.
func TestWriterEmptyLevel(t *testing.T) {
	s, ws := newBufferedSink()

	w, err := writer.New(s, writer.Params{
		DataType:    format.DataTypeRaster,
		ImageFormat: format.ImageFormatPNG,
		TileSizePx:  256,
		NumLevels:   1,
	})
	require.NoError(t, err)

	require.NoError(t, w.BeginLevel(writer.LevelPlan{LevelID: 0, GridCols: 2, GridRows: 2, TileExtentM: 100}))
	require.NoError(t, w.FinishLevel())
	require.NoError(t, w.Close())

	data, err := readAll(ws)
	require.NoError(t, err)
	require.Equal(t, 256+64+32, len(data)) // header + 1 level entry + 2x2 index

	header, err := format.DecodeHeader(data)
	require.NoError(t, err)
	require.Equal(t, uint8(1), header.NumLevels)

	level, err := format.DecodeLevel(data[header.LevelTableOffset:])
	require.NoError(t, err)
	require.Equal(t, uint32(0), level.TileCount)
}

// S2 from spec.md §8: a single tile.
func TestWriterSingleCell(t *testing.T) {
	s, ws := newBufferedSink()

	w, err := writer.New(s, writer.Params{
		DataType:    format.DataTypeRaster,
		ImageFormat: format.ImageFormatPNG,
		NumLevels:   1,
	})
	require.NoError(t, err)

	require.NoError(t, w.BeginLevel(writer.LevelPlan{
		LevelID: 0, GridCols: 1, GridRows: 1, TileExtentM: 100,
	}))
	require.NoError(t, w.WriteTile(0, 0, []byte{0xAA, 0xBB, 0xCC, 0xDD}))
	require.NoError(t, w.FinishLevel())
	require.NoError(t, w.Close())

	data, err := readAll(ws)
	require.NoError(t, err)

	header, err := format.DecodeHeader(data)
	require.NoError(t, err)
	level, err := format.DecodeLevel(data[header.LevelTableOffset:])
	require.NoError(t, err)

	offset, length, err := format.DecodeIndexCell(data[level.IndexOffset:])
	require.NoError(t, err)
	require.Equal(t, uint64(0), offset)
	require.Equal(t, uint32(4), length)

	payload := data[level.DataOffset+offset : level.DataOffset+offset+uint64(length)]
	require.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, payload)
}

// S3 from spec.md §8: two tiles written in the order (0,1) then (1,0) get
// offsets in that same order, and the two cells never written stay empty.
func TestWriterTwoTilesDisjointOffsets(t *testing.T) {
	s, ws := newBufferedSink()

	w, err := writer.New(s, writer.Params{
		DataType:    format.DataTypeRaster,
		ImageFormat: format.ImageFormatPNG,
		NumLevels:   1,
	})
	require.NoError(t, err)

	require.NoError(t, w.BeginLevel(writer.LevelPlan{LevelID: 0, GridCols: 2, GridRows: 2, TileExtentM: 100}))
	require.NoError(t, w.WriteTile(0, 1, make([]byte, 10)))
	require.NoError(t, w.WriteTile(1, 0, make([]byte, 20)))
	require.NoError(t, w.FinishLevel())
	require.NoError(t, w.Close())

	data, err := readAll(ws)
	require.NoError(t, err)

	header, err := format.DecodeHeader(data)
	require.NoError(t, err)
	level, err := format.DecodeLevel(data[header.LevelTableOffset:])
	require.NoError(t, err)

	cellOffset := func(row, col uint32) (uint64, uint32) {
		idx := level.IndexOffset + (uint64(row)*uint64(level.GridCols)+uint64(col))*format.IndexCellLength
		off, length, err := format.DecodeIndexCell(data[idx:])
		require.NoError(t, err)
		return off, length
	}

	off01, len01 := cellOffset(0, 1)
	off10, len10 := cellOffset(1, 0)
	require.Equal(t, uint64(0), off01)
	require.Equal(t, uint32(10), len01)
	require.Equal(t, uint64(10), off10)
	require.Equal(t, uint32(20), len10)

	_, len00 := cellOffset(0, 0)
	_, len11 := cellOffset(1, 1)
	require.Equal(t, uint32(0), len00)
	require.Equal(t, uint32(0), len11)
}

func TestWriterDuplicateCell(t *testing.T) {
	s, _ := newBufferedSink()
	w, err := writer.New(s, writer.Params{NumLevels: 1})
	require.NoError(t, err)
	require.NoError(t, w.BeginLevel(writer.LevelPlan{LevelID: 0, GridCols: 2, GridRows: 2, TileExtentM: 1}))
	require.NoError(t, w.WriteTile(0, 0, []byte{1}))
	err = w.WriteTile(0, 0, []byte{2})
	require.ErrorIs(t, err, writer.ErrDuplicateCell)
}

func TestWriterCellOutOfGrid(t *testing.T) {
	s, _ := newBufferedSink()
	w, err := writer.New(s, writer.Params{NumLevels: 1})
	require.NoError(t, err)
	require.NoError(t, w.BeginLevel(writer.LevelPlan{LevelID: 0, GridCols: 2, GridRows: 2, TileExtentM: 1}))
	err = w.WriteTile(5, 0, []byte{1})
	require.ErrorIs(t, err, writer.ErrCellOutOfGrid)
}

func TestWriterPayloadTooLarge(t *testing.T) {
	s, _ := newBufferedSink()
	w, err := writer.New(s, writer.Params{NumLevels: 1})
	require.NoError(t, err)
	require.NoError(t, w.BeginLevel(writer.LevelPlan{LevelID: 0, GridCols: 1, GridRows: 1, TileExtentM: 1}))
	err = w.WriteTile(0, 0, make([]byte, 1<<24))
	require.ErrorIs(t, err, writer.ErrPayloadTooLarge)
}

func TestWriterBoundsEnvelope(t *testing.T) {
	s, ws := newBufferedSink()
	w, err := writer.New(s, writer.Params{
		DataType:    format.DataTypeRaster,
		ImageFormat: format.ImageFormatPNG,
		NumLevels:   2,
	})
	require.NoError(t, err)

	require.NoError(t, w.BeginLevel(writer.LevelPlan{
		LevelID: 0, GridCols: 2, GridRows: 2, TileExtentM: 100, OriginE: 0, OriginN: 0,
	}))
	require.NoError(t, w.WriteTile(0, 0, []byte{1}))
	require.NoError(t, w.WriteTile(1, 1, []byte{2}))
	require.NoError(t, w.FinishLevel())

	require.NoError(t, w.BeginLevel(writer.LevelPlan{
		LevelID: 1, GridCols: 4, GridRows: 4, TileExtentM: 50, OriginE: 50, OriginN: -50,
	}))
	require.NoError(t, w.WriteTile(0, 0, []byte{3}))
	require.NoError(t, w.FinishLevel())

	require.NoError(t, w.Close())

	data, err := readAll(ws)
	require.NoError(t, err)
	header, err := format.DecodeHeader(data)
	require.NoError(t, err)

	levels := make([]format.Level, header.NumLevels)
	for i := range levels {
		lv, err := format.DecodeLevel(data[header.LevelTableOffset+uint64(i)*format.LevelLength:])
		require.NoError(t, err)
		levels[i] = lv
	}
	for _, lv := range levels {
		for row := int64(0); row < int64(lv.GridRows); row++ {
			for col := int64(0); col < int64(lv.GridCols); col++ {
				cellIdx := lv.IndexOffset + (uint64(row)*uint64(lv.GridCols)+uint64(col))*format.IndexCellLength
				_, length, err := format.DecodeIndexCell(data[cellIdx:])
				require.NoError(t, err)
				if length == 0 {
					continue
				}
				minE, minN, maxE, maxN := lv.CellToBounds(row, col)
				require.GreaterOrEqual(t, minE, header.BoundsMinE)
				require.GreaterOrEqual(t, minN, header.BoundsMinN)
				require.LessOrEqual(t, maxE, header.BoundsMaxE)
				require.LessOrEqual(t, maxN, header.BoundsMaxN)
			}
		}
	}
}

func readAll(ws *writerseeker.WriterSeeker) ([]byte, error) {
	r := ws.Reader()
	buf := make([]byte, 0, 4096)
	tmp := make([]byte, 4096)
	for {
		n, err := r.Read(tmp)
		buf = append(buf, tmp[:n]...)
		if err != nil {
			break
		}
	}
	return buf, nil
}
