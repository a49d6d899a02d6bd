package disasm

import (
	"sort"

	"scmcc/internal/argtype"
	"scmcc/internal/cmddb"
	"scmcc/internal/fetch"
	"scmcc/internal/scmerr"
	"scmcc/log"
)

// exploreFrame is one entry on the exploration stack. switchCasesLeft is
// non-zero only when offset is expected to be a SWITCH_CONTINUED that
// belongs to an active switch chain; it is carried per-frame rather than
// as shared analyzer state so that independent exploration paths never
// observe each other's case counters.
type exploreFrame struct {
	offset          int
	switchCasesLeft int
}

// Disassembler explores one segment (the main segment, or one mission) of
// an SCM image and materializes its reachable bytes into a DecompiledData
// stream. Main is nil for the main disassembler itself, and non-nil for a
// mission disassembler, which uses it to resolve negative (cross-segment)
// label offsets.
type Disassembler struct {
	buf *fetch.Fetcher
	db  cmddb.DB
	Main *Disassembler

	errs *scmerr.Context

	explored    []bool
	instrLen    map[int]int
	decoded     map[int]DecompiledCommand
	labelOffsets map[int]bool

	toExplore []exploreFrame

	data []DecompiledData
}

// NewMain constructs the main disassembler for a segment's byte image.
func NewMain(buf []byte, db cmddb.DB) *Disassembler {
	return newDisassembler(buf, db, nil)
}

// NewMission constructs a mission disassembler whose negative label
// offsets resolve against main.
func NewMission(buf []byte, db cmddb.DB, main *Disassembler) *Disassembler {
	return newDisassembler(buf, db, main)
}

func newDisassembler(buf []byte, db cmddb.DB, main *Disassembler) *Disassembler {
	return &Disassembler{
		buf:          fetch.New(buf),
		db:           db,
		Main:         main,
		errs:         scmerr.New(log.ModuleDisasm),
		explored:     make([]bool, len(buf)),
		instrLen:     make(map[int]int),
		decoded:      make(map[int]DecompiledCommand),
		labelOffsets: make(map[int]bool),
	}
}

// IsMission reports whether this disassembler targets a mission segment
// rather than the main segment.
func (d *Disassembler) IsMission() bool { return d.Main != nil }

// Advisories returns every non-fatal condition recorded during analysis.
func (d *Disassembler) Advisories() []scmerr.Advisory { return d.errs.Advisories() }

// RunAnalyzer performs the depth-first exploration pass, seeded at entry,
// an offset into this disassembler's own buffer (internal/pipeline passes
// 0 for the main segment and for each mission, whose buffers start at
// their first instruction).
func (d *Disassembler) RunAnalyzer(entry int) {
	d.push(exploreFrame{offset: entry})
	for len(d.toExplore) > 0 {
		frame := d.pop()
		d.exploreOne(frame)
	}
}

func (d *Disassembler) push(f exploreFrame) { d.toExplore = append(d.toExplore, f) }

func (d *Disassembler) pop() exploreFrame {
	n := len(d.toExplore) - 1
	f := d.toExplore[n]
	d.toExplore = d.toExplore[:n]
	return f
}

func (d *Disassembler) withinSegment(offset int) bool {
	return offset >= 0 && offset < d.buf.Len()
}

func (d *Disassembler) alreadyExplored(offset int) bool {
	return offset >= 0 && offset < len(d.explored) && d.explored[offset]
}

// pushLabelTarget records target as a label and, if it addresses this
// segment, schedules it for exploration. Negative offsets reference the
// main segment from a mission; out-of-range offsets are reported and
// otherwise ignored, per the error handling design.
func (d *Disassembler) pushLabelTarget(sourceOffset int, target int, frame exploreFrame) {
	if target >= 0 {
		if !d.withinSegment(target) {
			d.errs.Advise(scmerr.KindUnresolvableLabel, sourceOffset, "label offset outside segment")
			return
		}
		d.labelOffsets[target] = true
		if !d.alreadyExplored(target) {
			frame.offset = target
			d.push(frame)
		}
		return
	}
	// Negative offset: a mission referencing the main segment.
	if d.Main == nil {
		d.errs.Advise(scmerr.KindUnresolvableLabel, sourceOffset, "negative label offset in main segment")
		return
	}
	mainTarget := -target
	if !d.Main.withinSegment(mainTarget) {
		d.errs.Advise(scmerr.KindUnresolvableLabel, sourceOffset, "negative label offset outside main segment")
		return
	}
	d.Main.labelOffsets[mainTarget] = true
	if !d.Main.alreadyExplored(mainTarget) {
		d.Main.push(exploreFrame{offset: mainTarget})
	}
}

func (d *Disassembler) markExplored(offset, length int, cmd DecompiledCommand) {
	for o := offset; o < offset+length && o < len(d.explored); o++ {
		d.explored[o] = true
	}
	d.instrLen[offset] = length
	d.decoded[offset] = cmd
}

func (d *Disassembler) exploreOne(frame exploreFrame) {
	offset := frame.offset
	if d.alreadyExplored(offset) {
		return
	}
	if !d.withinSegment(offset) {
		d.errs.Advise(scmerr.KindUnresolvableLabel, offset, "explore target outside segment")
		return
	}

	rawOpcode, ok := d.buf.U16(offset)
	if !ok {
		d.errs.Advise(scmerr.KindTruncation, offset, "truncated opcode")
		return
	}
	id := cmddb.CommandID(rawOpcode &^ 0x8000)

	spec, ok := d.db.Lookup(id)
	if !ok {
		d.errs.Advise(scmerr.KindUnknownOpcodeOrTag, offset, "unknown opcode")
		return
	}

	cursor := offset + 2
	var args []argtype.Value
	var labelValue int32
	haveLabel := false
	casesThisFrame := frame.switchCasesLeft

	switch spec.ArgKind {
	case cmddb.ArgFixed:
		for i := 0; i < spec.NumArgs; i++ {
			v, next, ok := decodeArg(d.buf, cursor)
			if !ok {
				d.errs.Advise(scmerr.KindTruncation, offset, "truncated fixed argument")
				return
			}
			args = append(args, v)
			cursor = next
			if spec.HasLabel && i == spec.NumArgs-1 && v.IsLabelCandidate() {
				labelValue = v.Int
				haveLabel = true
			}
		}
	case cmddb.ArgVariadic:
		first := true
		for {
			tag, ok := d.buf.U8(cursor)
			if !ok {
				d.errs.Advise(scmerr.KindTruncation, offset, "unterminated variadic argument list")
				return
			}
			if argtype.Tag(tag) == argtype.TagEndOfList {
				args = append(args, argtype.EndOfList())
				cursor++
				break
			}
			v, next, ok := decodeArg(d.buf, cursor)
			if !ok {
				d.errs.Advise(scmerr.KindTruncation, offset, "truncated variadic argument")
				return
			}
			if spec.HasLabel && first && v.IsLabelCandidate() {
				labelValue = v.Int
				haveLabel = true
			}
			first = false
			args = append(args, v)
			cursor = next
		}
	case cmddb.ArgCaseList:
		switch spec.Role {
		case cmddb.RoleSwitchStart:
			v, next, ok := decodeArg(d.buf, cursor)
			if !ok {
				d.errs.Advise(scmerr.KindTruncation, offset, "truncated switch variable")
				return
			}
			args = append(args, v)
			cursor = next
			count, ok := d.buf.U8(cursor)
			if !ok {
				d.errs.Advise(scmerr.KindTruncation, offset, "truncated switch case count")
				return
			}
			cursor++
			casesThisFrame = int(count)
		case cmddb.RoleSwitchCase:
			v, next, ok := decodeArg(d.buf, cursor)
			if !ok {
				d.errs.Advise(scmerr.KindTruncation, offset, "truncated switch case target")
				return
			}
			args = append(args, v)
			cursor = next
			if v.IsLabelCandidate() {
				labelValue = v.Int
				haveLabel = true
			}
		}
	}

	length := cursor - offset
	cmd := DecompiledCommand{Opcode: rawOpcode, Args: args}
	d.markExplored(offset, length, cmd)

	nextOffset := offset + length

	switch spec.Role {
	case cmddb.RoleUncondBranch:
		if haveLabel {
			d.pushLabelTarget(offset, int(labelValue), exploreFrame{})
		}
	case cmddb.RoleCondBranch:
		if haveLabel {
			d.pushLabelTarget(offset, int(labelValue), exploreFrame{})
		}
		d.push(exploreFrame{offset: nextOffset})
	case cmddb.RoleReturn, cmddb.RoleTerminate:
		// no fall-through, no label target
	case cmddb.RoleCall, cmddb.RoleSpawn:
		if haveLabel {
			d.pushLabelTarget(offset, int(labelValue), exploreFrame{})
		}
		d.push(exploreFrame{offset: nextOffset})
	case cmddb.RoleSwitchStart:
		d.push(exploreFrame{offset: nextOffset, switchCasesLeft: casesThisFrame})
	case cmddb.RoleSwitchCase:
		if haveLabel {
			d.pushLabelTarget(offset, int(labelValue), exploreFrame{})
		}
		if casesThisFrame > 1 {
			d.push(exploreFrame{offset: nextOffset, switchCasesLeft: casesThisFrame - 1})
		}
	default: // RoleNone
		d.push(exploreFrame{offset: nextOffset})
	}
}

// decodeArg reads one tagged argument at offset, returning the decoded
// value and the offset of the byte following it.
func decodeArg(f *fetch.Fetcher, offset int) (argtype.Value, int, bool) {
	tagByte, ok := f.U8(offset)
	if !ok {
		return argtype.Value{}, offset, false
	}
	tag := argtype.Tag(tagByte)
	cursor := offset + 1
	switch tag {
	case argtype.TagEndOfList:
		return argtype.EndOfList(), cursor, true
	case argtype.TagInt32:
		v, ok := f.I32(cursor)
		return argtype.Int(v, tag), cursor + 4, ok
	case argtype.TagGlobalVar:
		v, ok := f.U16(cursor)
		return argtype.GlobalVar(v), cursor + 2, ok
	case argtype.TagLocalVar:
		v, ok := f.U16(cursor)
		return argtype.LocalVar(v), cursor + 2, ok
	case argtype.TagInt8:
		v, ok := f.I8(cursor)
		return argtype.Int(int32(v), tag), cursor + 1, ok
	case argtype.TagInt16:
		v, ok := f.I16(cursor)
		return argtype.Int(int32(v), tag), cursor + 2, ok
	case argtype.TagFloat:
		v, ok := f.F32(cursor)
		return argtype.Float(v), cursor + 4, ok
	case argtype.TagArrayVar:
		base, ok := f.U16(cursor)
		if !ok {
			return argtype.Value{}, cursor, false
		}
		index, ok := f.U16(cursor + 2)
		return argtype.ArrayVar(argtype.Var{Offset: base}, argtype.Var{Offset: index}), cursor + 4, ok
	case argtype.TagFixedString:
		b, ok := f.Bytes(cursor, 8)
		return argtype.FixedString(b), cursor + 8, ok
	case argtype.TagVarLenString:
		n, ok := f.U8(cursor)
		if !ok {
			return argtype.Value{}, cursor, false
		}
		b, ok := f.Bytes(cursor+1, int(n))
		return argtype.VarString(b), cursor + 1 + int(n), ok
	default:
		return argtype.Value{}, offset, false
	}
}

// sortedInstrStarts returns every explored instruction's start offset, ascending.
func (d *Disassembler) sortedInstrStarts() []int {
	starts := make([]int, 0, len(d.instrLen))
	for off := range d.instrLen {
		starts = append(starts, off)
	}
	sort.Ints(starts)
	return starts
}
