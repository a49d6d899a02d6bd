// Package flow builds the global result of flow analysis: basic blocks,
// control-flow edges, procedure entries with call/spawn cross-references,
// and dominator/post-dominator sets and natural loops per procedure.
package flow

import "fmt"

// SegType names which kind of segment a SegReference points into.
type SegType int

const (
	SegMain SegType = iota
	SegMission
	SegExit // the synthetic dummy-exit range, at most one block per procedure
)

// SegReference locates a disassembled element within either the main
// segment, a mission segment, or the synthetic exit range. References
// order lexicographically by (SegType, SegIndex, DataIndex).
type SegReference struct {
	Seg       SegType
	SegIndex  int // mission index; meaningless for SegMain and SegExit
	DataIndex int // index into that segment's DecompiledData stream
}

func (r SegReference) Less(o SegReference) bool {
	if r.Seg != o.Seg {
		return r.Seg < o.Seg
	}
	if r.SegIndex != o.SegIndex {
		return r.SegIndex < o.SegIndex
	}
	return r.DataIndex < o.DataIndex
}

func (r SegReference) String() string {
	switch r.Seg {
	case SegMain:
		return fmt.Sprintf("main[%d]", r.DataIndex)
	case SegMission:
		return fmt.Sprintf("mission[%d][%d]", r.SegIndex, r.DataIndex)
	default:
		return fmt.Sprintf("exit[%d]", r.DataIndex)
	}
}

// ProcType combines as bit flags: the same entry block can be reachable as
// the program's Main entry, as a Gosub target, and so on simultaneously.
type ProcType int

const (
	ProcMain ProcType = 1 << iota
	ProcGosub
	ProcScript
	ProcSubscript
	ProcMission
)

func (t ProcType) Has(f ProcType) bool { return t&f != 0 }

// Block is a maximal straight-line run of instructions: one entry, one
// control-flow exit. Non-dummy blocks are sorted by Start within their
// segment; dummy exit blocks are appended after and are not offset-sorted.
// A procedure gets an exit block only if one of its blocks ends in
// RETURN, END_THREAD or TERMINATE_THIS_SCRIPT; a procedure with none keeps
// Exit == -1 and no post-dominator sets are computed for its blocks.
type Block struct {
	ID    int
	Start SegReference

	// InstrCount is the number of DecompiledData elements (commands,
	// excluding label definitions) this block covers. Zero for a dummy
	// exit block.
	InstrCount int

	Pred []int
	Succ []int

	Dominators     Bitset
	PostDominators Bitset

	// Proc is the id of the owning ProcEntry, set once procedures are known.
	Proc int
}

func (b *Block) addSucc(to int) {
	for _, s := range b.Succ {
		if s == to {
			return
		}
	}
	b.Succ = append(b.Succ, to)
}

func (b *Block) addPred(from int) {
	for _, p := range b.Pred {
		if p == from {
			return
		}
	}
	b.Pred = append(b.Pred, from)
}

// ProcEntry is a procedure: a code region reachable as a call/spawn entry
// point, or the program's Main/Mission roots.
type ProcEntry struct {
	ID    int
	Type  ProcType
	Entry int // block id
	Exit  int // dummy exit block id; -1 until edge resolution assigns it

	CallsInto  []int // procedure ids this procedure calls via GOSUB/GOSUB_FILE
	CalledFrom []int

	SpawnsScript []int // procedure ids this procedure spawns via START_NEW_SCRIPT/LAUNCH_MISSION*
	SpawnedFrom  []int
}

func (p *ProcEntry) linkCall(calleeID int) {
	p.CallsInto = appendUnique(p.CallsInto, calleeID)
}

func (p *ProcEntry) linkSpawn(calleeID int) {
	p.SpawnsScript = appendUnique(p.SpawnsScript, calleeID)
}

func appendUnique(s []int, v int) []int {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

// Range describes a contiguous, offset-sorted run of block ids belonging
// to one segment.
type Range struct {
	Start, End int // [Start, End)
}

// Loop is a natural loop identified by the back-edge Tail -> Head, where
// Head dominates Tail.
type Loop struct {
	Head, Tail int
	Body       map[int]bool
}

// BlockList is the global result of flow analysis.
type BlockList struct {
	Blocks []Block
	Procs  []ProcEntry

	MainRange     Range
	MissionRanges []Range // indexed by mission index
	DummyRange    Range
}
