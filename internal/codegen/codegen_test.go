package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"

	"scmcc/internal/argtype"
	"scmcc/internal/cmddb"
	"scmcc/internal/disasm"
)

func decodeAll(t *testing.T, code []byte) []x86asm.Inst {
	t.Helper()
	var insts []x86asm.Inst
	for off := 0; off < len(code); {
		inst, err := x86asm.Decode(code[off:], 32)
		require.NoError(t, err, "decoding at offset %d", off)
		insts = append(insts, inst)
		off += inst.Len
	}
	return insts
}

func TestWaitEmitsPushPushCallAndCleanup(t *testing.T) {
	cg := New(cmddb.Default(), nil, map[string]uint32{"DYNAREC_RTL_Wait": 0x00401000})
	cmd := disasm.DecompiledCommand{Opcode: uint16(cmddb.WAIT), Args: []argtype.Value{argtype.Int(500, argtype.TagInt32)}}
	_, err := genWait(cg, cmd, 0)
	require.NoError(t, err)

	_, err = cg.Link()
	require.NoError(t, err)

	insts := decodeAll(t, cg.asm.Bytes())
	require.Len(t, insts, 4) // push imm32, push esi, call rel32, add esp,8
	assert.Equal(t, x86asm.PUSH, insts[0].Op)
	assert.Equal(t, x86asm.PUSH, insts[1].Op)
	assert.Equal(t, x86asm.CALL, insts[2].Op)
	assert.Equal(t, x86asm.ADD, insts[3].Op)
}

func TestGotoPatchesForwardLabel(t *testing.T) {
	cg := New(cmddb.Default(), nil, nil)
	cmd := disasm.DecompiledCommand{Opcode: uint16(cmddb.GOTO), Args: []argtype.Value{argtype.Int(100, argtype.TagInt32)}}
	_, err := genGoto(cg, cmd, 0)
	require.NoError(t, err)

	cg.asm.Bind(cg.AddLabel(100))
	cg.asm.Ret()

	size, err := cg.Link()
	require.NoError(t, err)
	require.Greater(t, size, 0)

	insts := decodeAll(t, cg.asm.Bytes())
	assert.Equal(t, x86asm.JMP, insts[0].Op)
	assert.Equal(t, x86asm.RET, insts[len(insts)-1].Op)
}

func TestLinkFailsOnUnboundLabel(t *testing.T) {
	cg := New(cmddb.Default(), nil, nil)
	cmd := disasm.DecompiledCommand{Opcode: uint16(cmddb.GOTO), Args: []argtype.Value{argtype.Int(100, argtype.TagInt32)}}
	_, err := genGoto(cg, cmd, 0)
	require.NoError(t, err)

	_, err = cg.Link()
	assert.Error(t, err)
}

func TestAssignEmitsMemoryWrite(t *testing.T) {
	cg := New(cmddb.Default(), nil, nil)
	cmd := disasm.DecompiledCommand{
		Opcode: uint16(cmddb.SET),
		Args:   []argtype.Value{argtype.GlobalVar(8), argtype.Int(42, argtype.TagInt32)},
	}
	_, err := genAssign(cg, cmd, 0)
	require.NoError(t, err)

	_, err = cg.Link()
	require.NoError(t, err)

	insts := decodeAll(t, cg.asm.Bytes())
	require.Len(t, insts, 1)
	assert.Equal(t, x86asm.MOV, insts[0].Op)
}

func TestUnknownCommandIDFails(t *testing.T) {
	cg := New(cmddb.Default(), nil, nil)
	_, err := cg.RunGenerator(disasm.DecompiledCommand{Opcode: 0x7FFE}, 0)
	assert.Error(t, err)
}
