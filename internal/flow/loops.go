package flow

import "sort"

// FindNaturalLoops finds, for every back-edge n -> h with h dominating n,
// the natural loop (h, n) and grows its body by reverse reachability from
// n staying within blocks dominated by h.
func FindNaturalLoops(bl *BlockList) []Loop {
	var loops []Loop
	for n := range bl.Blocks {
		for _, h := range bl.Blocks[n].Succ {
			if !bl.Blocks[n].Dominators.Has(h) {
				continue
			}
			loop := Loop{Head: h, Tail: n, Body: map[int]bool{h: true}}
			queue := []int{n}
			loop.Body[n] = true
			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]
				for _, p := range bl.Blocks[cur].Pred {
					if loop.Body[p] {
						continue
					}
					if !bl.Blocks[p].Dominators.Has(h) {
						continue
					}
					loop.Body[p] = true
					queue = append(queue, p)
				}
			}
			loops = append(loops, loop)
		}
	}
	return loops
}

// SortNaturalLoops orders loops so that inner loops precede their
// enclosing loops: A precedes B iff A.Head is dominated by B.Head and
// A != B. Ties are broken by head block id.
func SortNaturalLoops(bl *BlockList, loops []Loop) []Loop {
	out := make([]Loop, len(loops))
	copy(out, loops)
	sort.SliceStable(out, func(i, j int) bool {
		a, c := out[i], out[j]
		aInC := bl.Blocks[a.Head].Dominators.Has(c.Head) && a.Head != c.Head
		cInA := bl.Blocks[c.Head].Dominators.Has(a.Head) && a.Head != c.Head
		switch {
		case aInC && !cInA:
			return true
		case cInA && !aInC:
			return false
		default:
			return a.Head < c.Head
		}
	})
	return out
}
