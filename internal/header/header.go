// Package header decodes the SCM file header: the leading jump-to-globals
// sled followed by the globals-size, model-table, and main-size/mission-table
// segments. Everything past what the disassembler needs (audio banks, text
// tables, and the rest of the on-disk layout) is out of scope.
package header

import (
	"fmt"

	"scmcc/internal/fetch"
)

// Version selects the header layout. Miami's field widths and alignment
// differ from Liberty's; see modelNameWidth/alignPad below for the
// assumptions this module makes absent a confirmed specification.
type Version int

const (
	Liberty Version = iota
	Miami
)

const (
	gotoOpcode    = 0x0002
	i32ArgTag     = 0x01
	jumpSledBytes = 8 // bytes [0..7]: the GOTO instruction itself
)

// Header holds every field the disassembler needs to seed exploration:
// where the main segment starts, how big it is, and where each mission
// segment begins.
type Header struct {
	Version Version

	// GlobalsSize is the size of the global-variable area, including the
	// leading 8-byte jump sled.
	GlobalsSize uint32

	Models []string

	MainSize       uint32
	MissionOffsets []uint32

	// MainSegmentOffset is the absolute byte offset of the first
	// instruction of the main segment.
	MainSegmentOffset int
}

func modelNameWidth(v Version) int {
	// Miami's on-disk model names are not confirmed by any source consulted
	// for this module; until confirmed, both versions are treated as using
	// the same fixed-width, zero-padded 24-byte slot that Liberty uses.
	return 24
}

func alignPad(v Version, offset int) int {
	if v != Miami {
		return 0
	}
	// Miami segments beyond the globals area are 4-byte aligned.
	if rem := offset % 4; rem != 0 {
		return 4 - rem
	}
	return 0
}

// Parse decodes a complete Header from buf.
func Parse(buf []byte, v Version) (*Header, error) {
	f := fetch.New(buf)

	opcode, ok := f.U16(0)
	if !ok || opcode&0x7FFF != gotoOpcode {
		return nil, fmt.Errorf("header: missing leading GOTO sled")
	}
	tag, ok := f.U8(2)
	if !ok || tag != i32ArgTag {
		return nil, fmt.Errorf("header: leading GOTO argument is not an i32 tag")
	}
	target, ok := f.I32(4)
	if !ok {
		return nil, fmt.Errorf("header: truncated jump target")
	}
	if target < jumpSledBytes {
		return nil, fmt.Errorf("header: jump target %d precedes the sled", target)
	}
	globalsSize := uint32(target) // size measured from offset 0, including the sled

	cursor := int(target)

	modelCountOff := cursor
	modelCount, ok := f.U32(modelCountOff)
	if !ok {
		return nil, fmt.Errorf("header: truncated model count at %d", modelCountOff)
	}
	cursor += 4

	width := modelNameWidth(v)
	models := make([]string, 0, modelCount)
	for i := uint32(0); i < modelCount; i++ {
		raw, ok := f.Bytes(cursor, width)
		if !ok {
			return nil, fmt.Errorf("header: truncated model name %d at %d", i, cursor)
		}
		models = append(models, cStringFromPadded(raw))
		cursor += width
	}
	cursor += alignPad(v, cursor)

	mainSize, ok := f.U32(cursor)
	if !ok {
		return nil, fmt.Errorf("header: truncated main segment size at %d", cursor)
	}
	cursor += 4

	missionCount, ok := f.U32(cursor)
	if !ok {
		return nil, fmt.Errorf("header: truncated mission count at %d", cursor)
	}
	cursor += 4

	offsets := make([]uint32, 0, missionCount)
	for i := uint32(0); i < missionCount; i++ {
		off, ok := f.U32(cursor)
		if !ok {
			return nil, fmt.Errorf("header: truncated mission offset %d at %d", i, cursor)
		}
		offsets = append(offsets, off)
		cursor += 4
	}
	cursor += alignPad(v, cursor)

	return &Header{
		Version:           v,
		GlobalsSize:       globalsSize,
		Models:            models,
		MainSize:          mainSize,
		MissionOffsets:    offsets,
		MainSegmentOffset: cursor,
	}, nil
}

func cStringFromPadded(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
