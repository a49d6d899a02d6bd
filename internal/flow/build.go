package flow

import (
	"scmcc/internal/cmddb"
	"scmcc/internal/disasm"
)

// SegmentInput is one segment's disassembled stream, plus a way to map a
// branch operand's byte offset back to an index in Data (the same
// contract disasm.Disassembler.GetDataIndex exposes).
type SegmentInput struct {
	Seg     SegType
	Index   int // mission index; 0 for Main
	Data    []disasm.DecompiledData
	Resolve func(offset int) (dataIndex int, ok bool)
}

// Input is everything flow.Build needs to construct a BlockList.
type Input struct {
	DB       cmddb.DB
	Main     SegmentInput
	Missions []SegmentInput

	// MissionEntryIndex maps a mission index (as carried by a
	// LAUNCH_MISSION/LOAD_AND_LAUNCH_MISSION operand) to that mission's
	// SegmentInput.Index. The caller supplies this from the header's
	// mission offset table (internal/pipeline does); nil means such
	// operands are left unresolved and no cross-reference is recorded.
	MissionEntryIndex func(missionIndex int32) (segIndex int, ok bool)
}

type segKey struct {
	seg SegType
	idx int
}

type builder struct {
	in  Input
	bl  *BlockList
	// blockOfData[segKey][dataIndex] = block id, for every command/label element.
	blockOfData map[segKey]map[int]int
	procOfEntry map[int]int // entry block id -> proc id
}

// Build runs the flow-analysis pipeline: block discovery, ranges, edges,
// call/spawn cross-references, dominators, and post-dominators. Natural
// loops are not computed here; FindNaturalLoops does that on the result.
func Build(in Input) (*BlockList, error) {
	b := &builder{
		in:          in,
		bl:          &BlockList{},
		blockOfData: make(map[segKey]map[int]int),
		procOfEntry: make(map[int]int),
	}
	b.findBasicBlocks(SegMain, in.Main)
	b.bl.MainRange = Range{Start: 0, End: len(b.bl.Blocks)}

	b.bl.MissionRanges = make([]Range, len(in.Missions))
	for _, m := range in.Missions {
		start := len(b.bl.Blocks)
		b.findBasicBlocks(SegMission, m)
		b.bl.MissionRanges[m.Index] = Range{Start: start, End: len(b.bl.Blocks)}
	}

	if err := b.findEdges(); err != nil {
		return nil, err
	}
	if err := b.findCallEdges(); err != nil {
		return nil, err
	}
	b.computeDominators()
	b.computePostDominators()

	return b.bl, nil
}

func (b *builder) segment(k segKey) SegmentInput {
	if k.seg == SegMain {
		return b.in.Main
	}
	for _, m := range b.in.Missions {
		if m.Index == k.idx {
			return m
		}
	}
	return SegmentInput{}
}

// effectiveRole maps a command's schema role onto the role that governs
// block splitting and edge construction. SWITCH_CONTINUED behaves like a
// conditional branch (case target, then fall-through into the next case
// or the code after the switch); SWITCH_START never ends a block, since
// it falls straight into the first SWITCH_CONTINUED.
func effectiveRole(role cmddb.Role) cmddb.Role {
	switch role {
	case cmddb.RoleSwitchCase:
		return cmddb.RoleCondBranch
	case cmddb.RoleSwitchStart:
		return cmddb.RoleNone
	default:
		return role
	}
}

// isBlockEnder reports whether a command's role terminates a basic block.
func isBlockEnder(role cmddb.Role) bool {
	switch effectiveRole(role) {
	case cmddb.RoleUncondBranch, cmddb.RoleCondBranch, cmddb.RoleReturn, cmddb.RoleTerminate:
		return true
	default:
		return false
	}
}

func (b *builder) findBasicBlocks(seg SegType, in SegmentInput) {
	key := segKey{seg, in.Index}
	b.blockOfData[key] = make(map[int]int)

	var curBlockID = -1
	prevWasEnder := true // the segment's first instruction is always a leader
	var pendingLabels []int

	for i, d := range in.Data {
		if d.Kind == disasm.KindHex {
			prevWasEnder = true // a hex gap starts a fresh block on the far side
			continue
		}
		if d.Kind == disasm.KindLabel {
			prevWasEnder = true // force the next command to start a new block
			pendingLabels = append(pendingLabels, i)
			continue
		}
		// d.Kind == KindCommand
		isLeader := curBlockID == -1 || prevWasEnder
		if isLeader {
			blk := Block{ID: len(b.bl.Blocks), Start: SegReference{Seg: seg, SegIndex: in.Index, DataIndex: i}, Proc: -1}
			curBlockID = blk.ID
			b.bl.Blocks = append(b.bl.Blocks, blk)
		}
		b.bl.Blocks[curBlockID].InstrCount++
		b.blockOfData[key][i] = curBlockID

		// A label def shares its offset with the command it precedes, so
		// get_dataindex resolves a branch to the label's (lower) index; map
		// that index to the same block the command landed in.
		for _, li := range pendingLabels {
			b.blockOfData[key][li] = curBlockID
		}
		pendingLabels = pendingLabels[:0]

		spec, _ := b.in.DB.Lookup(d.Command.ID())
		prevWasEnder = isBlockEnder(spec.Role)
	}
}
