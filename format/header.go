package format

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DataType describes what kind of raster a level's tiles hold. It is
// purely descriptive and does not alter decoding.
type DataType uint8

const (
	DataTypeRaster  DataType = 1
	DataTypeTerrain DataType = 2
	DataTypeOther   DataType = 3
)

func (d DataType) valid() bool {
	return d == DataTypeRaster || d == DataTypeTerrain || d == DataTypeOther
}

// ImageFormat identifies the codec of every payload in the archive.
type ImageFormat uint8

const (
	ImageFormatWebP ImageFormat = 1
	ImageFormatPNG  ImageFormat = 2
	ImageFormatJPEG ImageFormat = 3
	ImageFormatAVIF ImageFormat = 4
)

func (f ImageFormat) valid() bool {
	switch f {
	case ImageFormatWebP, ImageFormatPNG, ImageFormatJPEG, ImageFormatAVIF:
		return true
	}
	return false
}

// MediaType returns the MIME type to advertise for payloads of this format.
func (f ImageFormat) MediaType() string {
	switch f {
	case ImageFormatWebP:
		return "image/webp"
	case ImageFormatPNG:
		return "image/png"
	case ImageFormatJPEG:
		return "image/jpeg"
	case ImageFormatAVIF:
		return "image/avif"
	default:
		return "application/octet-stream"
	}
}

const (
	magic = "SWTILES\x00"

	// Version is the only version this package understands.
	Version uint16 = 2

	// HeaderLength is the fixed size, in bytes, of the file header.
	HeaderLength = 256
)

// Header is the archive's global, immutable metadata (spec §3, §6).
type Header struct {
	DataType         DataType
	ImageFormat      ImageFormat
	CrsEPSG          uint32
	BoundsMinE       float64
	BoundsMinN       float64
	BoundsMaxE       float64
	BoundsMaxN       float64
	TileSizePx       uint16
	NumLevels        uint8
	LevelTableOffset uint64
}

// EncodeHeader writes h into a 256-byte buffer, little-endian, zeroing all
// reserved bytes.
func EncodeHeader(h Header) [HeaderLength]byte {
	var buf [HeaderLength]byte
	copy(buf[0:8], magic)
	binary.LittleEndian.PutUint16(buf[8:10], Version)
	buf[10] = byte(h.DataType)
	buf[11] = byte(h.ImageFormat)
	binary.LittleEndian.PutUint32(buf[12:16], h.CrsEPSG)
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(h.BoundsMinE))
	binary.LittleEndian.PutUint64(buf[24:32], math.Float64bits(h.BoundsMinN))
	binary.LittleEndian.PutUint64(buf[32:40], math.Float64bits(h.BoundsMaxE))
	binary.LittleEndian.PutUint64(buf[40:48], math.Float64bits(h.BoundsMaxN))
	binary.LittleEndian.PutUint16(buf[48:50], h.TileSizePx)
	buf[50] = h.NumLevels
	// buf[51] reserved = 0
	binary.LittleEndian.PutUint64(buf[52:60], h.LevelTableOffset)
	// buf[60:256] reserved = 0
	return buf
}

// DecodeHeader parses a 256-byte buffer into a Header.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderLength {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, got %d", ErrTruncated, HeaderLength, len(buf))
	}
	if string(buf[0:8]) != magic {
		return Header{}, ErrBadMagic
	}
	if version := binary.LittleEndian.Uint16(buf[8:10]); version != Version {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	if buf[51] != 0 {
		return Header{}, ErrReservedNotZero
	}
	for _, b := range buf[60:HeaderLength] {
		if b != 0 {
			return Header{}, ErrReservedNotZero
		}
	}

	dataType := DataType(buf[10])
	imageFormat := ImageFormat(buf[11])
	if !dataType.valid() || !imageFormat.valid() {
		return Header{}, ErrBadEnum
	}

	h := Header{
		DataType:         dataType,
		ImageFormat:      imageFormat,
		CrsEPSG:          binary.LittleEndian.Uint32(buf[12:16]),
		BoundsMinE:       math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24])),
		BoundsMinN:       math.Float64frombits(binary.LittleEndian.Uint64(buf[24:32])),
		BoundsMaxE:       math.Float64frombits(binary.LittleEndian.Uint64(buf[32:40])),
		BoundsMaxN:       math.Float64frombits(binary.LittleEndian.Uint64(buf[40:48])),
		TileSizePx:       binary.LittleEndian.Uint16(buf[48:50]),
		NumLevels:        buf[50],
		LevelTableOffset: binary.LittleEndian.Uint64(buf[52:60]),
	}
	return h, nil
}
