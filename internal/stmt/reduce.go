package stmt

import "scmcc/internal/flow"

// Reduce builds the full structured-statement tree for one procedure:
// to_statements, then structure_dowhile over proc's natural loops
// (innermost first), then the if/if-else straightening pass.
func Reduce(bl *flow.BlockList, proc *flow.ProcEntry) *Tree {
	t := ToStatements(bl, proc)

	nextID := len(t.byBlock)
	loops := filterLoopsForProc(bl, proc, flow.FindNaturalLoops(bl))
	loops = flow.SortNaturalLoops(bl, loops)
	StructureDoWhile(t, bl, loops, &nextID)
	StructureIfElse(t, bl, &nextID)
	return t
}

// filterLoopsForProc keeps only loops whose head belongs to proc; a
// BlockList's loops are computed once over every block, but each
// procedure reduces only its own.
func filterLoopsForProc(bl *flow.BlockList, proc *flow.ProcEntry, loops []flow.Loop) []flow.Loop {
	var out []flow.Loop
	for _, l := range loops {
		if bl.Blocks[l.Head].Proc == proc.ID {
			out = append(out, l)
		}
	}
	return out
}
