package codegen

import (
	"math"

	"scmcc/internal/argtype"
	"scmcc/internal/asm"
)

// varDisp returns the (base register, displacement) addressing a variable
// operand, per the external interface's global/local addressing modes:
// globals sit at globalsReg+offset; locals sit at
// threadBaseReg+tlsOffsetBase+offset*4.
func varDisp(v argtype.Var) (asm.Reg, int32) {
	if v.Global {
		return globalsReg, int32(v.Offset)
	}
	return threadBaseReg, tlsOffsetBase + int32(v.Offset)*4
}

// EmitPushI32 pushes an immediate, a global variable, or a thread-local
// onto the stack. Variable-array pushes are reserved, per the spec.
func (cg *CodeGenerator) EmitPushI32(v argtype.Value) error {
	switch v.Kind {
	case argtype.KindImmInt:
		cg.asm.PushImm32(v.Int)
	case argtype.KindImmFloat:
		cg.asm.PushImm32(int32(math.Float32bits(v.Float)))
	case argtype.KindVar:
		base, disp := varDisp(v.Var)
		cg.asm.PushMem(base, disp)
	default:
		return argErr(v)
	}
	return nil
}

// EmitMovI32 mirrors EmitPushI32: src is immediate or variable, dst must
// be a variable.
func (cg *CodeGenerator) EmitMovI32(dst, src argtype.Value) error {
	if dst.Kind != argtype.KindVar {
		return argErr(dst)
	}
	dstBase, dstDisp := varDisp(dst.Var)

	switch src.Kind {
	case argtype.KindImmInt:
		cg.asm.MovMemImm32(dstBase, dstDisp, src.Int)
	case argtype.KindImmFloat:
		cg.asm.MovMemImm32(dstBase, dstDisp, int32(math.Float32bits(src.Float)))
	case argtype.KindVar:
		srcBase, srcDisp := varDisp(src.Var)
		cg.asm.MovRegMem(asm.EAX, srcBase, srcDisp)
		cg.asm.MovMemReg(dstBase, dstDisp, asm.EAX)
	default:
		return argErr(src)
	}
	return nil
}

// EmitPush pushes the running thread's base register; tag is accepted for
// symmetry with the spec's emit_push(thread_context_tag) but unused, since
// this backend keeps exactly one thread register live per procedure.
func (cg *CodeGenerator) EmitPush(tag int) {
	cg.asm.PushReg(threadBaseReg)
}

func (cg *CodeGenerator) pushArgsReverse(args []argtype.Value) error {
	for i := len(args) - 1; i >= 0; i-- {
		if err := cg.EmitPushI32(args[i]); err != nil {
			return err
		}
	}
	return nil
}

// EmitCCall pushes args in reverse order, calls the resolved import, then
// adjusts the stack by 4*argc (caller cleanup).
func (cg *CodeGenerator) EmitCCall(name string, args ...argtype.Value) error {
	if err := cg.pushArgsReverse(args); err != nil {
		return err
	}
	addr, err := cg.ResolveExtern(name)
	if err != nil {
		return err
	}
	cg.asm.CallRel32(int32(addr))
	cg.asm.AddESP(int32(4 * len(args)))
	return nil
}

// EmitStdCall is EmitCCall without the caller-side stack adjustment: the
// callee is responsible for its own cleanup.
func (cg *CodeGenerator) EmitStdCall(name string, args ...argtype.Value) error {
	if err := cg.pushArgsReverse(args); err != nil {
		return err
	}
	addr, err := cg.ResolveExtern(name)
	if err != nil {
		return err
	}
	cg.asm.CallRel32(int32(addr))
	return nil
}

// EmitThisCall loads thisPtr into the platform's designated first-argument
// register (ECX, per the Microsoft thiscall convention this backend
// targets), pushes the remaining args in reverse, and calls with caller
// cleanup.
func (cg *CodeGenerator) EmitThisCall(name string, thisPtr argtype.Value, args ...argtype.Value) error {
	switch thisPtr.Kind {
	case argtype.KindImmInt:
		cg.asm.MovRegImm32(asm.ECX, thisPtr.Int)
	case argtype.KindVar:
		base, disp := varDisp(thisPtr.Var)
		cg.asm.MovRegMem(asm.ECX, base, disp)
	default:
		return argErr(thisPtr)
	}
	if err := cg.pushArgsReverse(args); err != nil {
		return err
	}
	addr, err := cg.ResolveExtern(name)
	if err != nil {
		return err
	}
	cg.asm.CallRel32(int32(addr))
	cg.asm.AddESP(int32(4 * len(args)))
	return nil
}

// EmitFlush writes any register-cached pieces of the thread context back
// to the thread structure. This backend caches only the instruction
// pointer's dirtiness, not its value in a register, so a flush is a
// bookkeeping no-op; a fuller recompiler would emit the pending writes
// here instead.
func (cg *CodeGenerator) EmitFlush() {
	cg.dirtyIP = false
}
