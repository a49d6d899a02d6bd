package flow

import (
	"scmcc/internal/argtype"
	"scmcc/internal/cmddb"
	"scmcc/internal/disasm"
)

// lastCommandIndex returns the data index of the block's terminating
// command, i.e. the last command belonging to it.
func (b *builder) lastCommandIndex(blk *Block) int {
	key := segKey{blk.Start.Seg, blk.Start.SegIndex}
	m := b.blockOfData[key]
	last := blk.Start.DataIndex
	for idx, id := range m {
		if id == blk.ID && idx > last {
			last = idx
		}
	}
	return last
}

// blockAt resolves a data index within a segment to its block id.
func (b *builder) blockAt(seg SegType, segIndex, dataIndex int) (int, bool) {
	m, ok := b.blockOfData[segKey{seg, segIndex}]
	if !ok {
		return 0, false
	}
	id, ok := m[dataIndex]
	return id, ok
}

// findEdges establishes ProcEntry for Main, every mission root, and every
// resolvable call/spawn target, then links block successors/predecessors,
// creating a procedure's dummy exit block when one of its blocks ends in
// a return-like command.
func (b *builder) findEdges() error {
	// Seed procedure entries for Main and each Mission root before
	// resolving in-segment branch targets, so calls discovered below can
	// find them.
	if b.bl.MainRange.End > b.bl.MainRange.Start {
		b.newProc(ProcMain, b.bl.MainRange.Start)
	}
	for _, r := range b.bl.MissionRanges {
		if r.End > r.Start {
			b.newProc(ProcMission, r.Start)
		}
	}
	// Seed call/spawn targets too, so a RETURN below links to the exit
	// block of the procedure that encloses it rather than to Main's.
	for _, in := range b.allSegments() {
		for _, d := range in.Data {
			if d.Kind != disasm.KindCommand {
				continue
			}
			spec, _ := b.in.DB.Lookup(d.Command.ID())
			if spec.Role == cmddb.RoleCall || spec.Role == cmddb.RoleSpawn {
				b.resolveCallTarget(in, d.Command, spec)
			}
		}
	}

	for i := range b.bl.Blocks {
		blk := &b.bl.Blocks[i]
		if blk.InstrCount == 0 {
			continue // dummy exit blocks, appended below
		}
		lastIdx := b.lastCommandIndex(blk)
		seg := b.segment(segKey{blk.Start.Seg, blk.Start.SegIndex})
		cmd := seg.Data[lastIdx].Command
		spec, _ := b.in.DB.Lookup(cmd.ID())
		role := effectiveRole(spec.Role)

		proc := b.procForBlock(blk.ID)

		switch role {
		case cmddb.RoleUncondBranch:
			if tgt, ok := b.resolveInSegmentLabel(seg, cmd, spec); ok {
				b.link(blk.ID, tgt)
			}
		case cmddb.RoleCondBranch:
			if tgt, ok := b.resolveInSegmentLabel(seg, cmd, spec); ok {
				b.link(blk.ID, tgt)
			}
			if fall, ok := b.fallThroughBlock(blk, lastIdx, seg); ok {
				b.link(blk.ID, fall)
			}
		case cmddb.RoleReturn, cmddb.RoleTerminate:
			exit := b.exitBlockFor(proc)
			b.link(blk.ID, exit)
		default:
			if fall, ok := b.fallThroughBlock(blk, lastIdx, seg); ok {
				b.link(blk.ID, fall)
			}
		}
	}
	return nil
}

func (b *builder) link(from, to int) {
	b.bl.Blocks[from].addSucc(to)
	b.bl.Blocks[to].addPred(from)
}

func (b *builder) fallThroughBlock(blk *Block, lastIdx int, seg SegmentInput) (int, bool) {
	for i := lastIdx + 1; i < len(seg.Data); i++ {
		if seg.Data[i].Kind == disasm.KindCommand {
			return b.blockAt(blk.Start.Seg, blk.Start.SegIndex, i)
		}
	}
	return 0, false
}

// resolveInSegmentLabel finds the block a branch/case command's label
// argument targets, within the command's own segment. Negative offsets
// (a mission referencing main) resolve against the main segment.
func (b *builder) resolveInSegmentLabel(seg SegmentInput, cmd disasm.DecompiledCommand, spec cmddb.Spec) (int, bool) {
	target, ok := labelOperand(cmd, spec)
	if !ok {
		return 0, false
	}
	if target >= 0 {
		idx, ok := seg.Resolve(int(target))
		if !ok {
			return 0, false
		}
		return b.blockAt(seg.Seg, seg.Index, idx)
	}
	idx, ok := b.in.Main.Resolve(int(-target))
	if !ok {
		return 0, false
	}
	return b.blockAt(SegMain, 0, idx)
}

// labelOperand extracts the branch-target operand from a decoded command,
// per the schema's declared argument layout.
func labelOperand(cmd disasm.DecompiledCommand, spec cmddb.Spec) (int32, bool) {
	if !spec.HasLabel || len(cmd.Args) == 0 {
		return 0, false
	}
	var v argtype.Value
	switch spec.ArgKind {
	case cmddb.ArgFixed:
		v = cmd.Args[len(cmd.Args)-1]
	case cmddb.ArgVariadic:
		v = cmd.Args[0]
	case cmddb.ArgCaseList:
		v = cmd.Args[len(cmd.Args)-1]
	default:
		return 0, false
	}
	if !v.IsLabelCandidate() {
		return 0, false
	}
	return v.Int, true
}

func (b *builder) newProc(t ProcType, entryBlock int) int {
	if existing, ok := b.procOfEntry[entryBlock]; ok {
		b.bl.Procs[existing].Type |= t
		return existing
	}
	id := len(b.bl.Procs)
	b.bl.Procs = append(b.bl.Procs, ProcEntry{ID: id, Type: t, Entry: entryBlock, Exit: -1})
	b.procOfEntry[entryBlock] = id
	b.bl.Blocks[entryBlock].Proc = id
	return id
}

// procForBlock returns the id of the procedure that owns blk, by walking
// predecessors back to a known entry. Every block is reachable from
// exactly one procedure's entry in a well-formed graph; the first entry
// discovered during the walk is used.
func (b *builder) procForBlock(blockID int) int {
	if p := b.bl.Blocks[blockID].Proc; p != -1 {
		return p
	}
	seen := map[int]bool{blockID: true}
	queue := []int{blockID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if pid, ok := b.procOfEntry[cur]; ok {
			b.bl.Blocks[blockID].Proc = pid
			return pid
		}
		for _, p := range b.bl.Blocks[cur].Pred {
			if !seen[p] {
				seen[p] = true
				queue = append(queue, p)
			}
		}
	}
	return 0
}

// exitBlockFor returns the dummy exit block for proc, creating it on
// first use. Dummy exit blocks live in the trailing, non-offset-sorted
// dummy range.
func (b *builder) exitBlockFor(procID int) int {
	p := &b.bl.Procs[procID]
	if p.Exit != -1 {
		return p.Exit
	}
	id := len(b.bl.Blocks)
	b.bl.Blocks = append(b.bl.Blocks, Block{ID: id, Start: SegReference{Seg: SegExit, DataIndex: procID}, Proc: procID})
	p.Exit = id
	if b.bl.DummyRange.Start == 0 && b.bl.DummyRange.End == 0 {
		b.bl.DummyRange.Start = id
	}
	b.bl.DummyRange.End = id + 1
	return id
}

// findCallEdges scans every block's terminating-or-interior call/spawn
// command and records the cross-reference in both directions. The callee
// procedure entry normally already exists (created during findEdges);
// resolveCallTarget creates it otherwise. A target that resolves to no
// known block is skipped and no cross-reference is recorded for it.
func (b *builder) findCallEdges() error {
	for _, in := range b.allSegments() {
		for i, d := range in.Data {
			if d.Kind != disasm.KindCommand {
				continue
			}
			spec, _ := b.in.DB.Lookup(d.Command.ID())
			switch spec.Role {
			case cmddb.RoleCall, cmddb.RoleSpawn:
			default:
				continue
			}
			callerBlock, ok := b.blockAt(in.Seg, in.Index, i)
			if !ok {
				continue
			}
			callerProc := b.procForBlock(callerBlock)

			calleeProc, ok := b.resolveCallTarget(in, d.Command, spec)
			if !ok {
				continue // unresolvable: no cross-reference recorded
			}
			if spec.Role == cmddb.RoleCall {
				b.bl.Procs[callerProc].linkCall(calleeProc)
				b.bl.Procs[calleeProc].CalledFrom = appendUnique(b.bl.Procs[calleeProc].CalledFrom, callerProc)
			} else {
				b.bl.Procs[callerProc].linkSpawn(calleeProc)
				b.bl.Procs[calleeProc].SpawnedFrom = appendUnique(b.bl.Procs[calleeProc].SpawnedFrom, callerProc)
			}
		}
	}
	return nil
}

func (b *builder) allSegments() []SegmentInput {
	out := []SegmentInput{b.in.Main}
	return append(out, b.in.Missions...)
}

// resolveCallTarget maps a GOSUB/GOSUB_FILE/START_NEW_SCRIPT/LAUNCH_MISSION*
// operand to the proc id of its target, creating a new ProcEntry for a
// block that has none yet (e.g. a GOSUB target reached only via call, not
// via any branch).
func (b *builder) resolveCallTarget(in SegmentInput, cmd disasm.DecompiledCommand, spec cmddb.Spec) (int, bool) {
	switch spec.ID {
	case cmddb.LAUNCH_MISSION, cmddb.LOAD_AND_LAUNCH_MISSION:
		v, ok := labelOperand(cmd, spec)
		if !ok || b.in.MissionEntryIndex == nil {
			return 0, false
		}
		segIdx, ok := b.in.MissionEntryIndex(v)
		if !ok {
			return 0, false
		}
		for _, m := range b.in.Missions {
			if m.Index == segIdx {
				r := b.bl.MissionRanges[segIdx]
				if r.End <= r.Start {
					return 0, false
				}
				return b.newProc(ProcMission, r.Start), true
			}
		}
		return 0, false
	default:
		target, ok := labelOperand(cmd, spec)
		if !ok {
			return 0, false
		}
		var blockID int
		if target >= 0 {
			idx, ok := in.Resolve(int(target))
			if !ok {
				return 0, false
			}
			blockID, ok = b.blockAt(in.Seg, in.Index, idx)
			if !ok {
				return 0, false
			}
		} else {
			idx, ok := b.in.Main.Resolve(int(-target))
			if !ok {
				return 0, false
			}
			blockID, ok = b.blockAt(SegMain, 0, idx)
			if !ok {
				return 0, false
			}
		}
		t := ProcGosub
		if spec.Role == cmddb.RoleSpawn {
			t = ProcScript
		}
		return b.newProc(t, blockID), true
	}
}
