package disasm

import "sort"

// Disassembly walks offsets in ascending order and produces the final
// DecompiledData stream: a label definition before every explored
// instruction whose offset was referenced as a branch target, one element
// per explored command, and one KindHex element per unexplored byte run.
func (d *Disassembler) Disassembly() []DecompiledData {
	starts := d.sortedInstrStarts()

	var out []DecompiledData
	cursor := 0
	flushHex := func(until int) {
		if until <= cursor {
			return
		}
		raw, ok := d.buf.Bytes(cursor, until-cursor)
		if !ok || len(raw) == 0 {
			return
		}
		hex := make([]byte, len(raw))
		copy(hex, raw)
		out = append(out, DecompiledData{Offset: cursor, Kind: KindHex, Hex: hex, Len: len(hex)})
	}

	for _, off := range starts {
		flushHex(off)
		if d.labelOffsets[off] {
			out = append(out, DecompiledData{Offset: off, Kind: KindLabel, Len: 0})
		}
		length := d.instrLen[off]
		out = append(out, DecompiledData{
			Offset:  off,
			Kind:    KindCommand,
			Command: d.decoded[off],
			Len:     length,
		})
		cursor = off + length
	}
	flushHex(d.buf.Len())

	d.data = out
	return out
}

// GetData returns the materialized stream. Disassembly must have run first.
func (d *Disassembler) GetData() []DecompiledData { return d.data }

// GetDataIndex answers an offset-to-index query via binary search over the
// sorted stream. It reports false if offset is not an element boundary.
func (d *Disassembler) GetDataIndex(offset int) (int, bool) {
	i := sort.Search(len(d.data), func(i int) bool { return d.data[i].Offset >= offset })
	if i < len(d.data) && d.data[i].Offset == offset {
		return i, true
	}
	return 0, false
}
