package stmt

import "scmcc/internal/flow"

// ToStatements performs a depth-first traversal of proc's CFG within bl,
// producing exactly one StatementBlock per reachable Block. Shared
// successors (a block reached along more than one path) collapse into a
// single re-used node, so the result is a DAG, not yet a tree; loop and
// if/else reduction turn it into one below.
func ToStatements(bl *flow.BlockList, proc *flow.ProcEntry) *Tree {
	t := &Tree{byBlock: make(map[int]*Node)}
	nextID := 0
	var visit func(blockID int) *Node
	visit = func(blockID int) *Node {
		if n, ok := t.byBlock[blockID]; ok {
			return n
		}
		blk := &bl.Blocks[blockID]
		n := &Node{
			ID:      nextID,
			Kind:    KindBlock,
			BlockID: blockID,
			From:    0,
			Until:   blk.InstrCount,
		}
		nextID++
		t.byBlock[blockID] = n
		for _, succ := range blk.Succ {
			child := visit(succ)
			n.Succ = append(n.Succ, child)
			child.addPred(n)
		}
		return n
	}
	t.Entry = visit(proc.Entry)
	return t
}
