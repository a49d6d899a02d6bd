package header

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildLibertyHeader(models []string, mainSize uint32, missions []uint32) []byte {
	var buf []byte
	buf = append(buf, 0x02, 0x00, 0x01, 0x00) // GOTO, i32 tag

	width := 24
	target := 8 // no globals beyond the sled: the model table starts at the jump target

	tgt := make([]byte, 4)
	binary.LittleEndian.PutUint32(tgt, uint32(target))
	buf = append(buf, tgt...)

	cnt := make([]byte, 4)
	binary.LittleEndian.PutUint32(cnt, uint32(len(models)))
	buf = append(buf, cnt...)
	for _, m := range models {
		slot := make([]byte, width)
		copy(slot, m)
		buf = append(buf, slot...)
	}

	ms := make([]byte, 4)
	binary.LittleEndian.PutUint32(ms, mainSize)
	buf = append(buf, ms...)

	mc := make([]byte, 4)
	binary.LittleEndian.PutUint32(mc, uint32(len(missions)))
	buf = append(buf, mc...)
	for _, off := range missions {
		o := make([]byte, 4)
		binary.LittleEndian.PutUint32(o, off)
		buf = append(buf, o...)
	}
	return buf
}

func TestParseLiberty(t *testing.T) {
	buf := buildLibertyHeader([]string{"player", "cop"}, 1024, []uint32{2048, 4096})
	h, err := Parse(buf, Liberty)
	require.NoError(t, err)
	assert.Equal(t, []string{"player", "cop"}, h.Models)
	assert.Equal(t, uint32(1024), h.MainSize)
	assert.Equal(t, []uint32{2048, 4096}, h.MissionOffsets)
	assert.Equal(t, len(buf), h.MainSegmentOffset)
}

func TestParseRejectsBadSled(t *testing.T) {
	buf := []byte{0x01, 0x00, 0x01, 0x00, 0x10, 0x00, 0x00, 0x00}
	_, err := Parse(buf, Liberty)
	assert.Error(t, err)
}

func TestParseTruncated(t *testing.T) {
	buf := buildLibertyHeader([]string{"player"}, 64, []uint32{128})
	_, err := Parse(buf[:len(buf)-2], Liberty)
	assert.Error(t, err)
}
