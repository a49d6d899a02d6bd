// Package stmt reduces a procedure's control-flow graph (a flow.BlockList
// restricted to one flow.ProcEntry) to a tree of typed structured
// statements with explicit break/continue, suitable for direct code
// generation without a goto-based fallback.
package stmt

// Kind tags which structured form a Node takes.
type Kind int

const (
	KindBlock Kind = iota
	KindWhile
	KindIf
	KindIfElse
	KindBreak
)

func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "Block"
	case KindWhile:
		return "While"
	case KindIf:
		return "If"
	case KindIfElse:
		return "IfElse"
	case KindBreak:
		return "Break"
	default:
		return "Unknown"
	}
}

// Node is one node of the structured statement tree. Which fields apply
// depends on Kind:
//
//   - KindBlock:   BlockID, From, Until, Break, Continue, and up to two
//     entries in Succ (mirroring the underlying flow.Block's Succ list
//     until loop/if reduction rewrites them).
//   - KindWhile:   Body is the loop's head statement; Next is the single
//     post-loop continuation, if any.
//   - KindIf:      Cond is the guarding block statement; Succ[0] is the
//     "then" branch; Next is the reconvergence point, if any.
//   - KindIfElse:  Cond is the guarding block statement; Succ[0] is "then",
//     Succ[1] is "else"; Next is the reconvergence point, if any.
//   - KindBreak:   no further fields; represents a loop exit in place of
//     the original branch target.
//
// Succ references are strong (they are what keeps a node's subtree
// alive); Pred references are weak — informational only, used during
// reduction to find and redirect predecessors, never walked to decide
// ownership or traversal order.
type Node struct {
	ID   int
	Kind Kind

	// KindBlock fields.
	BlockID  int
	From     int // first data index within the block still emitted
	Until    int // one past the last data index still emitted
	Break    bool
	Continue bool

	// KindWhile / KindIf / KindIfElse fields.
	Cond *Node
	Body *Node
	Next *Node

	Succ []*Node
	Pred []*Node
}

func (n *Node) addPred(p *Node) {
	for _, x := range n.Pred {
		if x == p {
			return
		}
	}
	n.Pred = append(n.Pred, p)
}

// replaceSucc rewrites every occurrence of old in n.Succ with neu, and
// adds n to neu's weak Pred back-links; removing n from old's Pred is left
// to the caller. Used by structure_dowhile
// and the if/if-else pass to redirect edges without duplicating nodes.
func replaceSucc(n *Node, old, neu *Node) {
	changed := false
	for i, s := range n.Succ {
		if s == old {
			n.Succ[i] = neu
			changed = true
		}
	}
	if !changed {
		return
	}
	neu.addPred(n)
}

// Tree is the structured-statement result for one procedure.
type Tree struct {
	Entry *Node
	// byBlock maps a flow.Block id to its (possibly since-wrapped) node,
	// so later passes and callers can look a block back up.
	byBlock map[int]*Node
}

func (t *Tree) NodeForBlock(blockID int) (*Node, bool) {
	n, ok := t.byBlock[blockID]
	return n, ok
}
