package disasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scmcc/internal/cmddb"
)

func TestGotoThenHex(t *testing.T) {
	// GOTO +8 (opcode 0x0002, tag i32, target 8), then 4 zero bytes.
	buf := []byte{0x02, 0x00, 0x01, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	d := NewMain(buf, cmddb.Default())
	d.RunAnalyzer(0)
	data := d.Disassembly()

	require.Len(t, data, 2)
	assert.Equal(t, KindCommand, data[0].Kind)
	assert.Equal(t, cmddb.GOTO, data[0].Command.ID())
	assert.Equal(t, KindHex, data[1].Kind)
	assert.Equal(t, 0, data[1].Offset)
	assert.Equal(t, 8, data[0].Len)
}

func TestLabelDefinitionEmittedBeforeTarget(t *testing.T) {
	// 0: GOTO +7 (unconditional, no fallthrough)
	// 7: NOP
	buf := make([]byte, 9)
	buf[0], buf[1] = 0x02, 0x00
	buf[2] = 0x01
	buf[3], buf[4], buf[5], buf[6] = 7, 0, 0, 0
	buf[7], buf[8] = 0x00, 0x00 // NOP

	d := NewMain(buf, cmddb.Default())
	d.RunAnalyzer(0)
	data := d.Disassembly()

	require.Len(t, data, 3)
	assert.Equal(t, KindCommand, data[0].Kind)
	assert.Equal(t, KindLabel, data[1].Kind)
	assert.Equal(t, 7, data[1].Offset)
	assert.Equal(t, KindCommand, data[2].Kind)
	assert.Equal(t, cmddb.NOP, data[2].Command.ID())
}

func TestUnknownOpcodeBecomesHex(t *testing.T) {
	buf := []byte{0xFF, 0x7F, 0x00, 0x00}
	d := NewMain(buf, cmddb.Default())
	d.RunAnalyzer(0)
	data := d.Disassembly()

	require.Len(t, data, 1)
	assert.Equal(t, KindHex, data[0].Kind)
	assert.NotEmpty(t, d.Advisories())
}

func opcode(id cmddb.CommandID) []byte { return []byte{byte(id), byte(id >> 8)} }

func i32Arg(v int32) []byte {
	return []byte{0x01, byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func TestConditionalBranchExploresBothSuccessors(t *testing.T) {
	var buf []byte
	buf = append(buf, opcode(cmddb.JF)...)
	jfTargetFix := len(buf) + 1 // index of the target's low byte, patched below
	buf = append(buf, i32Arg(0)...)
	fallthroughOff := len(buf)
	buf = append(buf, opcode(cmddb.NOP)...)
	buf = append(buf, opcode(cmddb.RETURN)...)
	branchTargetOff := len(buf)
	buf = append(buf, opcode(cmddb.RETURN)...)
	buf[jfTargetFix] = byte(branchTargetOff)

	d := NewMain(buf, cmddb.Default())
	d.RunAnalyzer(0)
	data := d.Disassembly()

	var offsets []int
	for _, e := range data {
		if e.Kind == KindCommand {
			offsets = append(offsets, e.Offset)
		}
	}
	assert.Contains(t, offsets, 0)
	assert.Contains(t, offsets, fallthroughOff)
	assert.Contains(t, offsets, branchTargetOff)
}

func TestSwitchChainConsumesExactCaseCount(t *testing.T) {
	var buf []byte
	buf = append(buf, opcode(cmddb.SWITCH_START)...)
	buf = append(buf, 0x02, 0, 0) // global var tag + u16 offset
	buf = append(buf, 2)          // case count

	var caseTargetFixups []int
	for i := 0; i < 2; i++ {
		buf = append(buf, opcode(cmddb.SWITCH_CONTINUED)...)
		caseTargetFixups = append(caseTargetFixups, len(buf)+1)
		buf = append(buf, i32Arg(0)...)
	}
	caseTarget := len(buf)
	buf = append(buf, opcode(cmddb.RETURN)...)
	for _, fix := range caseTargetFixups {
		buf[fix] = byte(caseTarget)
	}

	d := NewMain(buf, cmddb.Default())
	d.RunAnalyzer(0)
	data := d.Disassembly()

	var ids []cmddb.CommandID
	for _, e := range data {
		if e.Kind == KindCommand {
			ids = append(ids, e.Command.ID())
		}
	}
	assert.Contains(t, ids, cmddb.SWITCH_START)
	count := 0
	for _, id := range ids {
		if id == cmddb.SWITCH_CONTINUED {
			count++
		}
	}
	assert.Equal(t, 2, count)
}
