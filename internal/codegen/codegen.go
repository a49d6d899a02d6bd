// Package codegen lowers decompiled commands and structured statements into
// native x86-32 machine code, dispatching each command id to a registered
// emitter and linking call sites to host runtime functions by name.
package codegen

import (
	"fmt"

	"scmcc/internal/argtype"
	"scmcc/internal/asm"
	"scmcc/internal/cmddb"
	"scmcc/internal/disasm"
	"scmcc/internal/scmerr"
	"scmcc/log"
)

// emitter lowers one decompiled command starting at data index it, and
// returns the index of the next command to process.
type emitter func(cg *CodeGenerator, cmd disasm.DecompiledCommand, it int) (next int, err error)

// Conventional register assignments used throughout emission: the running
// thread's context base lives in ESI for the lifetime of one procedure's
// generated code, and globals are addressed off EBP as the fixed globals
// base — both chosen to match the calling convention section's "thread
// base register" / "globals + offset" addressing without needing a real
// register allocator.
const (
	threadBaseReg = asm.ESI
	globalsReg    = asm.EBP
	tlsOffsetBase = 0 // thread-local storage starts at offset 0 from threadBaseReg
)

// CodeGenerator is the per-procedure emission state.
type CodeGenerator struct {
	asm *asm.Assembler

	// Main is non-nil only for a mission's CodeGenerator, mirroring the
	// disassembler's "reference to the main disassembler" design: negative
	// label keys resolve through it instead of this generator's own table.
	Main *CodeGenerator

	labelForKey map[int32]asm.Label
	db          cmddb.DB
	data        []disasm.DecompiledData
	errs        *scmerr.Context

	imports map[string]uint32 // resolve_extern's backing table

	dispatch map[cmddb.CommandID]emitter

	dirtyIP bool // whether emit_flush has pending thread-ip state to write back
}

// New constructs the main procedure's CodeGenerator.
func New(db cmddb.DB, data []disasm.DecompiledData, imports map[string]uint32) *CodeGenerator {
	cg := &CodeGenerator{
		asm:         asm.NewAssembler(),
		labelForKey: make(map[int32]asm.Label),
		db:          db,
		data:        data,
		errs:        scmerr.New(log.ModuleCodegen),
		imports:     imports,
	}
	cg.initGenerators()
	return cg
}

// NewMission constructs a mission's CodeGenerator, wired to main for
// negative (cross-segment) label keys.
func NewMission(db cmddb.DB, data []disasm.DecompiledData, imports map[string]uint32, main *CodeGenerator) *CodeGenerator {
	cg := New(db, data, imports)
	cg.Main = main
	return cg
}

// AddLabel returns the assembler label for key k, allocating one on first
// use. Negative keys are cross-segment references resolved against Main.
func (cg *CodeGenerator) AddLabel(k int32) asm.Label {
	if k < 0 && cg.Main != nil {
		return cg.Main.AddLabel(-k)
	}
	if l, ok := cg.labelForKey[k]; ok {
		return l
	}
	l := cg.asm.NewLabel()
	cg.labelForKey[k] = l
	return l
}

// RunGenerator looks up the emitter for cmd's command id (masked to drop
// the not-flag bit) and applies it.
func (cg *CodeGenerator) RunGenerator(cmd disasm.DecompiledCommand, it int) (int, error) {
	e, ok := cg.dispatch[cmd.ID()]
	if !ok {
		return 0, cg.errs.Fatalf(scmerr.KindEmitterFailure, "no emitter registered for command id 0x%04x", cmd.ID())
	}
	return e(cg, cmd, it)
}

// Generate walks the decompiled stream from start, binding a label at
// every offset that data's label definitions name, and running the
// generator for every command.
func (cg *CodeGenerator) Generate(start int) error {
	it := start
	for it < len(cg.data) {
		d := cg.data[it]
		switch d.Kind {
		case disasm.KindLabel:
			cg.EmitFlush()
			cg.asm.Bind(cg.AddLabel(int32(d.Offset)))
			it++
		case disasm.KindCommand:
			next, err := cg.RunGenerator(d.Command, it)
			if err != nil {
				return err
			}
			it = next
		default: // KindHex: not executable, skip
			it++
		}
	}
	return nil
}

// ResolveExtern maps a symbolic runtime import name to its absolute
// address for the current host. Unknown names are fatal, per the error
// handling design's emitter-failure kind.
func (cg *CodeGenerator) ResolveExtern(name string) (uint32, error) {
	addr, ok := cg.imports[name]
	if !ok {
		return 0, cg.errs.Fatalf(scmerr.KindEmitterFailure, "unresolved import %q", name)
	}
	return addr, nil
}

// Link asks the assembler for the final code size.
func (cg *CodeGenerator) Link() (int, error) {
	return cg.asm.Link()
}

// Encode serializes the linked program into buf.
func (cg *CodeGenerator) Encode(buf []byte) error {
	return cg.asm.Encode(buf)
}

// Advisories returns every non-fatal condition recorded during generation.
func (cg *CodeGenerator) Advisories() []scmerr.Advisory {
	return cg.errs.Advisories()
}

func argErr(v argtype.Value) error {
	return fmt.Errorf("codegen: unsupported argument shape %s", v)
}

func errArgCount(name string, want, got int) error {
	return fmt.Errorf("codegen: %s expects %d argument(s), got %d", name, want, got)
}
