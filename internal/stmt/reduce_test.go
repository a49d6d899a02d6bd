package stmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scmcc/internal/cmddb"
	"scmcc/internal/disasm"
	"scmcc/internal/flow"
)

func opcode(id cmddb.CommandID) []byte { return []byte{byte(id), byte(id >> 8)} }
func i32Arg(v int32) []byte {
	return []byte{0x01, byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func mainSegment(buf []byte) (flow.SegmentInput, *disasm.Disassembler) {
	d := disasm.NewMain(buf, cmddb.Default())
	d.RunAnalyzer(0)
	data := d.Disassembly()
	return flow.SegmentInput{Seg: flow.SegMain, Index: 0, Data: data, Resolve: func(off int) (int, bool) { return d.GetDataIndex(off) }}, d
}

// TestIfElseReconverges builds A: JF C -> {fallthrough B, target C};
// B: GOTO D; C: fallthrough D; D: RETURN, and checks the reduced tree
// wraps A's StatementBlock in a KindIfElse that reconverges at D.
func TestIfElseReconverges(t *testing.T) {
	var buf []byte
	buf = append(buf, opcode(cmddb.JF)...)
	targetFix := len(buf) + 1
	buf = append(buf, i32Arg(0)...)

	buf = append(buf, opcode(cmddb.GOTO)...)
	bGotoFix := len(buf) + 1
	buf = append(buf, i32Arg(0)...)

	cOff := len(buf)
	buf = append(buf, opcode(cmddb.NOP)...)

	dOff := len(buf)
	buf = append(buf, opcode(cmddb.RETURN)...)

	buf[targetFix] = byte(cOff)
	buf[bGotoFix] = byte(dOff)

	in, _ := mainSegment(buf)
	bl, err := flow.Build(flow.Input{DB: cmddb.Default(), Main: in})
	require.NoError(t, err)
	require.Len(t, bl.Procs, 1)

	tree := Reduce(bl, &bl.Procs[0])
	require.NotNil(t, tree.Entry)
	assert.Equal(t, KindIfElse, tree.Entry.Kind)
	require.NotNil(t, tree.Entry.Next)
	assert.Equal(t, KindBlock, tree.Entry.Next.Kind)
	assert.Equal(t, dOff, in.Data[bl.Blocks[tree.Entry.Next.BlockID].Start.DataIndex].Offset)
}

// TestLoopBecomesWhile builds H: JF EXIT -> {fallthrough T, target EXIT};
// T: GOTO H (back-edge); EXIT: RETURN, and checks Reduce wraps H in a
// KindWhile whose Next is the exit block.
func TestLoopBecomesWhile(t *testing.T) {
	var buf []byte
	hOff := len(buf)
	buf = append(buf, opcode(cmddb.JF)...)
	exitFix := len(buf) + 1
	buf = append(buf, i32Arg(0)...)

	buf = append(buf, opcode(cmddb.GOTO)...)
	backFix := len(buf) + 1
	buf = append(buf, i32Arg(int32(hOff))...)

	exitOff := len(buf)
	buf = append(buf, opcode(cmddb.RETURN)...)

	buf[exitFix] = byte(exitOff)
	buf[backFix] = byte(hOff)

	in, _ := mainSegment(buf)
	bl, err := flow.Build(flow.Input{DB: cmddb.Default(), Main: in})
	require.NoError(t, err)
	require.Len(t, bl.Procs, 1)

	tree := Reduce(bl, &bl.Procs[0])
	require.NotNil(t, tree.Entry)
	assert.Equal(t, KindWhile, tree.Entry.Kind)
	require.NotNil(t, tree.Entry.Body)
	assert.Equal(t, KindBlock, tree.Entry.Body.Kind)
	require.NotNil(t, tree.Entry.Next)
	assert.Equal(t, exitOff, in.Data[bl.Blocks[tree.Entry.Next.BlockID].Start.DataIndex].Offset)
}
