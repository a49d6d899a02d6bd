package stmt

import "scmcc/internal/flow"

// StructureIfElse runs after every loop has been reduced. It introduces
// KindIf / KindIfElse at every StatementBlock whose underlying Block still
// has two live successors and which converge again at a common
// post-dominator.
func StructureIfElse(t *Tree, bl *flow.BlockList, nextID *int) {
	for blockID, n := range t.byBlock {
		if n.Kind != KindBlock || len(n.Succ) != 2 {
			continue
		}
		if n.Succ[0].Kind == KindBreak || n.Succ[1].Kind == KindBreak {
			continue // already resolved by structure_dowhile; not a reconverging branch
		}
		mergeBlockID, ok := immediatePostDominator(bl, blockID)
		if !ok {
			continue
		}
		merge, ok := t.byBlock[mergeBlockID]
		if !ok {
			continue
		}

		then, els := n.Succ[0], n.Succ[1]
		var w *Node
		switch {
		case then == merge && els == merge:
			continue // nothing to straighten: both sides are empty
		case then == merge:
			w = &Node{ID: *nextID, Kind: KindIf, Cond: n, Succ: []*Node{els}, Next: merge}
		case els == merge:
			w = &Node{ID: *nextID, Kind: KindIf, Cond: n, Succ: []*Node{then}, Next: merge}
		default:
			w = &Node{ID: *nextID, Kind: KindIfElse, Cond: n, Succ: []*Node{then, els}, Next: merge}
		}
		*nextID++

		preds := make([]*Node, len(n.Pred))
		copy(preds, n.Pred)
		for _, p := range preds {
			replaceSucc(p, n, w)
		}
		n.Pred = nil

		for _, branch := range []*Node{then, els} {
			if branch == merge {
				continue
			}
			removePred(branch, n)
			branch.addPred(w)
		}
		removePred(merge, n)
		merge.addPred(w)
		n.Succ = nil

		if t.Entry == n {
			t.Entry = w
		}
	}
}

// immediatePostDominator picks, among blockID's strict post-dominators,
// the nearest one: the strict post-dominator whose own post-dominator set
// is the largest, since post-dominator chains are totally ordered by
// subset inclusion and the nearest one's set is a superset of every
// farther one's.
func immediatePostDominator(bl *flow.BlockList, blockID int) (int, bool) {
	pd := bl.Blocks[blockID].PostDominators
	best := -1
	bestCount := -1
	for _, cand := range pd.Items() {
		if cand == blockID {
			continue
		}
		count := len(bl.Blocks[cand].PostDominators.Items())
		if count > bestCount {
			best, bestCount = cand, count
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}
