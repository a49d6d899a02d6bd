package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scmcc/internal/cmddb"
	"scmcc/internal/disasm"
)

func opcode(id cmddb.CommandID) []byte { return []byte{byte(id), byte(id >> 8)} }
func i32Arg(v int32) []byte {
	return []byte{0x01, byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func mainSegment(buf []byte) SegmentInput {
	d := disasm.NewMain(buf, cmddb.Default())
	d.RunAnalyzer(0)
	data := d.Disassembly()
	return SegmentInput{Seg: SegMain, Index: 0, Data: data, Resolve: func(off int) (int, bool) { return d.GetDataIndex(off) }}
}

// diamond builds: A: JF C -> {fallthrough B, target C}; B: GOTO D; C: fallthrough D; D: RETURN.
func TestDiamondDominance(t *testing.T) {
	var buf []byte
	buf = append(buf, opcode(cmddb.JF)...)
	targetFix := len(buf) + 1
	buf = append(buf, i32Arg(0)...)

	// B
	buf = append(buf, opcode(cmddb.GOTO)...)
	bGotoFix := len(buf) + 1
	buf = append(buf, i32Arg(0)...)

	// C
	cOff := len(buf)
	buf = append(buf, opcode(cmddb.NOP)...)

	// D
	dOff := len(buf)
	buf = append(buf, opcode(cmddb.RETURN)...)

	buf[targetFix] = byte(cOff)
	buf[bGotoFix] = byte(dOff)

	in := mainSegment(buf)
	bl, err := Build(Input{DB: cmddb.Default(), Main: in})
	require.NoError(t, err)

	// Find block D (RETURN) and assert A dominates it, and that A dominates itself.
	idxOf := func(off int) int {
		for _, b := range bl.Blocks {
			if b.Start.Seg == SegMain && b.InstrCount > 0 {
				seg := in
				if seg.Data[b.Start.DataIndex].Offset == off {
					return b.ID
				}
			}
		}
		return -1
	}
	aID := idxOf(0)
	dID := idxOf(dOff)
	require.NotEqual(t, -1, aID)
	require.NotEqual(t, -1, dID)
	assert.True(t, bl.Blocks[dID].Dominators.Has(aID))
	assert.True(t, bl.Blocks[aID].Dominators.Has(aID))
}

// TestBackEdgeFormsNaturalLoop builds H: JF EXIT -> {fallthrough T, target EXIT};
// T: GOTO H (back-edge); EXIT: RETURN.
func TestBackEdgeFormsNaturalLoop(t *testing.T) {
	var buf []byte
	hOff := len(buf)
	buf = append(buf, opcode(cmddb.JF)...)
	exitFix := len(buf) + 1
	buf = append(buf, i32Arg(0)...)

	tOff := len(buf)
	buf = append(buf, opcode(cmddb.GOTO)...)
	backFix := len(buf) + 1
	buf = append(buf, i32Arg(int32(hOff))...)

	exitOff := len(buf)
	buf = append(buf, opcode(cmddb.RETURN)...)

	buf[exitFix] = byte(exitOff)
	buf[backFix] = byte(hOff)

	in := mainSegment(buf)
	bl, err := Build(Input{DB: cmddb.Default(), Main: in})
	require.NoError(t, err)

	findBlockAtOffset := func(off int) int {
		for _, b := range bl.Blocks {
			if b.InstrCount > 0 && in.Data[b.Start.DataIndex].Offset == off {
				return b.ID
			}
		}
		return -1
	}
	hID := findBlockAtOffset(hOff)
	tID := findBlockAtOffset(tOff)
	require.NotEqual(t, -1, hID)
	require.NotEqual(t, -1, tID)

	loops := FindNaturalLoops(bl)
	require.Len(t, loops, 1)
	assert.Equal(t, hID, loops[0].Head)
	assert.Equal(t, tID, loops[0].Tail)
	assert.True(t, bl.Blocks[tID].Dominators.Has(hID))
}
