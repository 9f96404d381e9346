// Package format implements the byte-exact SWTILES archive layout: the
// fixed header, the per-level table entry, and the packed 40/24-bit index
// cell. It is pure functions over byte buffers; it performs no I/O.
package format

import "errors"

var (
	ErrBadMagic           = errors.New("swtiles: bad magic")
	ErrUnsupportedVersion = errors.New("swtiles: unsupported version")
	ErrReservedNotZero    = errors.New("swtiles: reserved bytes not zero")
	ErrBadEnum            = errors.New("swtiles: invalid enum value")
	ErrOffsetOverflow     = errors.New("swtiles: offset exceeds 40-bit range")
	ErrLengthOverflow     = errors.New("swtiles: length exceeds 24-bit range")
	ErrTruncated          = errors.New("swtiles: truncated buffer")
)
