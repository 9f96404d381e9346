package format_test

import (
	"testing"

	"github.com/DrToblo/swtiles/format"
	"github.com/stretchr/testify/require"
)

func TestIndexCellRoundTrip(t *testing.T) {
	cases := []struct {
		offset uint64
		length uint32
	}{
		{0, 0},
		{1, 4},
		{1<<40 - 1, 1<<24 - 1},
		{12345678901, 16777214},
	}
	for _, tc := range cases {
		buf, err := format.EncodeIndexCell(tc.offset, tc.length)
		require.NoError(t, err)

		gotOffset, gotLength, err := format.DecodeIndexCell(buf[:])
		require.NoError(t, err)
		require.Equal(t, tc.offset, gotOffset)
		require.Equal(t, tc.length, gotLength)
	}
}

func TestIndexCellOverflow(t *testing.T) {
	_, err := format.EncodeIndexCell(1<<40, 0)
	require.ErrorIs(t, err, format.ErrOffsetOverflow)

	_, err = format.EncodeIndexCell(0, 1<<24)
	require.ErrorIs(t, err, format.ErrLengthOverflow)
}

func TestIndexCellTruncated(t *testing.T) {
	_, _, err := format.DecodeIndexCell(make([]byte, 3))
	require.ErrorIs(t, err, format.ErrTruncated)
}

func TestIndexCellExampleS2(t *testing.T) {
	// S2 from spec.md §8: offset=0, length=4.
	buf, err := format.EncodeIndexCell(0, 4)
	require.NoError(t, err)
	require.Equal(t, [8]byte{4: 0, 5: 4}, buf)
}

func TestIndexCellEmptyConvention(t *testing.T) {
	// A length-0 cell denotes an empty tile regardless of offset.
	buf, err := format.EncodeIndexCell(0, 0)
	require.NoError(t, err)
	_, length, err := format.DecodeIndexCell(buf[:])
	require.NoError(t, err)
	require.Equal(t, uint32(0), length)
}
