package format

import "fmt"

// IndexCellLength is the fixed size, in bytes, of one index cell.
const IndexCellLength = 8

const (
	maxOffset40 = 1<<40 - 1
	maxLength24 = 1<<24 - 1
)

// EncodeIndexCell packs offset (40 bits) and length (24 bits) into an
// 8-byte cell, both little-endian, per spec §3/§6. The packed fields are
// read/written byte-by-byte rather than via a native-width integer load, to
// avoid alignment and padding surprises.
func EncodeIndexCell(offset uint64, length uint32) ([IndexCellLength]byte, error) {
	var buf [IndexCellLength]byte
	if offset > maxOffset40 {
		return buf, fmt.Errorf("%w: %d", ErrOffsetOverflow, offset)
	}
	if length > maxLength24 {
		return buf, fmt.Errorf("%w: %d", ErrLengthOverflow, length)
	}

	buf[0] = byte(offset)
	buf[1] = byte(offset >> 8)
	buf[2] = byte(offset >> 16)
	buf[3] = byte(offset >> 24)
	buf[4] = byte(offset >> 32)
	buf[5] = byte(length)
	buf[6] = byte(length >> 8)
	buf[7] = byte(length >> 16)
	return buf, nil
}

// DecodeIndexCell unpacks an 8-byte cell into its offset and length.
func DecodeIndexCell(buf []byte) (offset uint64, length uint32, err error) {
	if len(buf) < IndexCellLength {
		return 0, 0, fmt.Errorf("%w: index cell needs %d bytes, got %d", ErrTruncated, IndexCellLength, len(buf))
	}
	offset = uint64(buf[0]) |
		uint64(buf[1])<<8 |
		uint64(buf[2])<<16 |
		uint64(buf[3])<<24 |
		uint64(buf[4])<<32
	length = uint32(buf[5]) |
		uint32(buf[6])<<8 |
		uint32(buf[7])<<16
	return offset, length, nil
}
