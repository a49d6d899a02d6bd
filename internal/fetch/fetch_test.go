package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScalarReads(t *testing.T) {
	f := New([]byte{0x01, 0x02, 0xFF, 0xFF, 0x00, 0x00, 0x80, 0x3F})

	u8, ok := f.U8(0)
	assert.True(t, ok)
	assert.Equal(t, uint8(0x01), u8)

	u16, ok := f.U16(0)
	assert.True(t, ok)
	assert.Equal(t, uint16(0x0201), u16)

	i16, ok := f.I16(2)
	assert.True(t, ok)
	assert.Equal(t, int16(-1), i16)

	flt, ok := f.F32(4)
	assert.True(t, ok)
	assert.InDelta(t, float32(1.0), flt, 1e-6)
}

func TestOutOfBounds(t *testing.T) {
	f := New([]byte{0x01, 0x02})

	_, ok := f.U32(0)
	assert.False(t, ok)

	_, ok = f.U8(5)
	assert.False(t, ok)

	_, ok = f.Bytes(0, 10)
	assert.False(t, ok)
}

func TestFloatRoundTrip(t *testing.T) {
	bits := F32Bits(3.5)
	f := New([]byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)})
	v, ok := f.F32(0)
	assert.True(t, ok)
	assert.Equal(t, float32(3.5), v)
}
