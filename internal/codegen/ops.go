package codegen

import (
	"scmcc/internal/cmddb"
	"scmcc/internal/disasm"
)

// initGenerators populates the dispatch map with one emitter per command
// id this pipeline treats specially. Every id the command database can
// report must have an entry here or RunGenerator fails per the spec's
// "unknown id is an error" contract; genNop covers the ids whose code
// generation this module does not specify beyond "falls through".
func (cg *CodeGenerator) initGenerators() {
	cg.dispatch = map[cmddb.CommandID]emitter{
		cmddb.NOP:                     genNop,
		cmddb.WAIT:                    genWait,
		cmddb.SET:                     genAssign,
		cmddb.GOTO:                    genGoto,
		cmddb.RETURN:                  genReturn,
		cmddb.END_THREAD:              genReturn,
		cmddb.TERMINATE_THIS_SCRIPT:   genReturn,
		cmddb.GOSUB:                   genCallLabel,
		cmddb.GOSUB_FILE:              genCallLabel,
		cmddb.IF:                      genNop,
		cmddb.JF:                      genNop,
		cmddb.ANDOR:                   genNop,
		cmddb.START_NEW_SCRIPT:        genNop,
		cmddb.LAUNCH_MISSION:          genNop,
		cmddb.LOAD_AND_LAUNCH_MISSION: genNop,
		cmddb.SWITCH_START:            genNop,
		cmddb.SWITCH_CONTINUED:        genNop,
	}
}

// genNop emits no code and advances one instruction, per NOP's contract.
// It also backs every command id this module registers a schema for but
// does not define emission semantics for beyond "it falls through";
// wiring the real one requires the host's actual calling sequence for
// that command, which is out of this module's scope.
func genNop(cg *CodeGenerator, cmd disasm.DecompiledCommand, it int) (int, error) {
	return it + 1, nil
}

// genWait emits a C-ABI call to the runtime "wait" import with the
// current thread tag and the command's single tick-count argument: push
// the tick count, push the thread register, call, then caller-cleanup the
// two pushed dwords.
func genWait(cg *CodeGenerator, cmd disasm.DecompiledCommand, it int) (int, error) {
	if len(cmd.Args) != 1 {
		return 0, errArgCount("WAIT", 1, len(cmd.Args))
	}
	if err := cg.EmitPushI32(cmd.Args[0]); err != nil {
		return 0, err
	}
	cg.EmitPush(0)
	addr, err := cg.ResolveExtern("DYNAREC_RTL_Wait")
	if err != nil {
		return 0, err
	}
	cg.asm.CallRel32(int32(addr))
	cg.asm.AddESP(8)
	return it + 1, nil
}

// genAssign emits movi32(dst, src) for SET's two operands.
func genAssign(cg *CodeGenerator, cmd disasm.DecompiledCommand, it int) (int, error) {
	if len(cmd.Args) != 2 {
		return 0, errArgCount("SET", 2, len(cmd.Args))
	}
	if err := cg.EmitMovI32(cmd.Args[0], cmd.Args[1]); err != nil {
		return 0, err
	}
	return it + 1, nil
}

// genGoto flushes cached thread state, emits an unconditional branch to
// the label named by the command's single operand, and pads to a 16-byte
// boundary so the target of a later patch always starts aligned.
func genGoto(cg *CodeGenerator, cmd disasm.DecompiledCommand, it int) (int, error) {
	if len(cmd.Args) != 1 || !cmd.Args[0].IsLabelCandidate() {
		return 0, errArgCount("GOTO", 1, len(cmd.Args))
	}
	cg.EmitFlush()
	cg.asm.JmpLabel(cg.AddLabel(cmd.Args[0].Int))
	cg.asm.Align(16)
	return it + 1, nil
}

// genReturn flushes and emits a bare ret; it backs RETURN, END_THREAD, and
// TERMINATE_THIS_SCRIPT alike, since none of them carry operands this
// backend's calling convention needs to unwind beyond a plain return.
func genReturn(cg *CodeGenerator, cmd disasm.DecompiledCommand, it int) (int, error) {
	cg.EmitFlush()
	cg.asm.Ret()
	return it + 1, nil
}

// genCallLabel emits a direct call to the label named by the command's
// single operand, for GOSUB/GOSUB_FILE.
func genCallLabel(cg *CodeGenerator, cmd disasm.DecompiledCommand, it int) (int, error) {
	if len(cmd.Args) != 1 || !cmd.Args[0].IsLabelCandidate() {
		return 0, errArgCount("GOSUB", 1, len(cmd.Args))
	}
	cg.EmitFlush()
	cg.asm.CallLabel(cg.AddLabel(cmd.Args[0].Int))
	return it + 1, nil
}
