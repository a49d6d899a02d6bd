package stmt

import "scmcc/internal/flow"

// StructureDoWhile reduces every natural loop in loops (already sorted
// inner-first by flow.SortNaturalLoops) into a KindWhile node. Loops whose
// head is unreachable from t.Entry are skipped: they belong to a
// different procedure's share of the same BlockList, or to dead code the
// traversal in ToStatements never reached.
func StructureDoWhile(t *Tree, bl *flow.BlockList, loops []flow.Loop, nextID *int) {
	for _, loop := range loops {
		head, ok := t.byBlock[loop.Head]
		if !ok {
			continue
		}
		tail, ok := t.byBlock[loop.Tail]
		if !ok {
			continue
		}

		w := &Node{ID: *nextID, Kind: KindWhile, Body: head}
		*nextID++

		// 2. Every predecessor of head except tail now points at w instead.
		preds := make([]*Node, len(head.Pred))
		copy(preds, head.Pred)
		var keptPreds []*Node
		for _, p := range preds {
			if p == tail {
				keptPreds = append(keptPreds, p)
				continue
			}
			replaceSucc(p, head, w)
			keptPreds = append(keptPreds, w)
		}
		head.Pred = dedupNodes(keptPreds)

		// 3. The head's successor outside the loop body is the break target.
		for _, s := range head.Succ {
			if _, inBody := loop.Body[blockIDOf(s)]; inBody {
				continue
			}
			brk := &Node{ID: *nextID, Kind: KindBreak}
			*nextID++
			replaceSucc(head, s, brk)
			w.Next = s
			s.addPred(w)
			removePred(s, head)
		}

		// 4. Elide the tail's back-jump from emission.
		if tail.Kind == KindBlock && tail.Until > tail.From {
			tail.Until--
		}

		// 5. A loop head that was the tree's entry is replaced by the loop.
		if t.Entry == head {
			t.Entry = w
		}
	}
}

// blockIDOf returns the underlying flow.Block id a statement node
// ultimately derives from, looking through Break/While/If wrappers that
// may already wrap it from an inner, already-reduced loop.
func blockIDOf(n *Node) int {
	switch n.Kind {
	case KindBlock:
		return n.BlockID
	case KindWhile:
		if n.Body != nil {
			return blockIDOf(n.Body)
		}
	case KindIf, KindIfElse:
		if n.Cond != nil {
			return blockIDOf(n.Cond)
		}
	}
	return -1
}

func dedupNodes(in []*Node) []*Node {
	var out []*Node
	seen := make(map[*Node]bool)
	for _, n := range in {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func removePred(n *Node, p *Node) {
	var out []*Node
	for _, x := range n.Pred {
		if x != p {
			out = append(out, x)
		}
	}
	n.Pred = out
}
