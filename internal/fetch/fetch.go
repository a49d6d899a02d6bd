// Package fetch provides bounded little-endian reads over a byte slice
// that the caller owns and must keep alive for as long as any Fetcher
// built on top of it is in use.
package fetch

import "encoding/binary"

// Fetcher reads little-endian scalars out of a borrowed byte slice,
// reporting out-of-bounds reads as a failed lookup rather than panicking.
type Fetcher struct {
	buf []byte
}

// New wraps buf. buf is not copied; the caller owns it.
func New(buf []byte) *Fetcher {
	return &Fetcher{buf: buf}
}

// Len returns the number of bytes in the underlying buffer.
func (f *Fetcher) Len() int { return len(f.buf) }

func (f *Fetcher) span(offset, width int) ([]byte, bool) {
	if offset < 0 || width < 0 || offset+width > len(f.buf) {
		return nil, false
	}
	return f.buf[offset : offset+width], true
}

// U8 reads an unsigned byte at offset.
func (f *Fetcher) U8(offset int) (uint8, bool) {
	b, ok := f.span(offset, 1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

// I8 reinterprets the two's-complement bit pattern of U8.
func (f *Fetcher) I8(offset int) (int8, bool) {
	v, ok := f.U8(offset)
	return int8(v), ok
}

// U16 reads a little-endian unsigned 16-bit value at offset.
func (f *Fetcher) U16(offset int) (uint16, bool) {
	b, ok := f.span(offset, 2)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b), true
}

// I16 reinterprets the two's-complement bit pattern of U16.
func (f *Fetcher) I16(offset int) (int16, bool) {
	v, ok := f.U16(offset)
	return int16(v), ok
}

// U32 reads a little-endian unsigned 32-bit value at offset.
func (f *Fetcher) U32(offset int) (uint32, bool) {
	b, ok := f.span(offset, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

// I32 reinterprets the two's-complement bit pattern of U32.
func (f *Fetcher) I32(offset int) (int32, bool) {
	v, ok := f.U32(offset)
	return int32(v), ok
}

// F32 reinterprets the bit pattern of U32 as an IEEE-754 single-precision float.
func (f *Fetcher) F32(offset int) (float32, bool) {
	v, ok := f.U32(offset)
	if !ok {
		return 0, false
	}
	return f32frombits(v), true
}

// Bytes reads a fixed-length run of raw bytes at offset. The returned
// slice aliases the underlying buffer; callers must not mutate it.
func (f *Fetcher) Bytes(offset, length int) ([]byte, bool) {
	return f.span(offset, length)
}
