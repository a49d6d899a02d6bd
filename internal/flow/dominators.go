package flow

// assignProcs resolves the Proc field of every block reachable from a
// procedure entry, so dominator computation can partition blocks by owning
// procedure. A block reachable from no entry keeps Proc == -1.
func (b *builder) assignProcs() {
	for i := range b.bl.Blocks {
		b.procForBlock(b.bl.Blocks[i].ID)
	}
}

// blocksOfProc returns every block id belonging to proc, in ascending id order.
func (b *builder) blocksOfProc(proc *ProcEntry) []int {
	var ids []int
	for i := range b.bl.Blocks {
		if b.bl.Blocks[i].Proc == proc.ID {
			ids = append(ids, i)
		}
	}
	return ids
}

// computeDominators runs the classical iterative dataflow to a fixed
// point, once per procedure: dom(entry) = {entry}; for every other block
// b, dom(b) = {b} ∪ ⋂_{p ∈ pred(b)} dom(p).
func (b *builder) computeDominators() {
	b.assignProcs()
	for pi := range b.bl.Procs {
		proc := &b.bl.Procs[pi]
		ids := b.blocksOfProc(proc)
		n := len(b.bl.Blocks)

		for _, id := range ids {
			bs := NewBitset(n)
			if id != proc.Entry {
				bs.SetAll()
			} else {
				bs.Set(id)
			}
			b.bl.Blocks[id].Dominators = bs
		}

		changed := true
		for changed {
			changed = false
			for _, id := range ids {
				if id == proc.Entry {
					continue
				}
				blk := &b.bl.Blocks[id]
				next := NewBitset(n)
				first := true
				for _, p := range blk.Pred {
					if b.bl.Blocks[p].Proc != proc.ID {
						continue
					}
					if first {
						next.CopyFrom(b.bl.Blocks[p].Dominators)
						first = false
					} else {
						next.IntersectWith(b.bl.Blocks[p].Dominators)
					}
				}
				next.Set(id)
				if !next.Equal(blk.Dominators) {
					blk.Dominators = next
					changed = true
				}
			}
		}
	}
}

// computePostDominators is the dual of computeDominators: it starts at
// the procedure's exit block and intersects over successors in place of
// predecessors. Procedures without an exit block are skipped.
func (b *builder) computePostDominators() {
	for pi := range b.bl.Procs {
		proc := &b.bl.Procs[pi]
		if proc.Exit == -1 {
			continue
		}
		ids := b.blocksOfProc(proc)
		n := len(b.bl.Blocks)

		for _, id := range ids {
			bs := NewBitset(n)
			if id != proc.Exit {
				bs.SetAll()
			} else {
				bs.Set(id)
			}
			b.bl.Blocks[id].PostDominators = bs
		}

		changed := true
		for changed {
			changed = false
			for _, id := range ids {
				if id == proc.Exit {
					continue
				}
				blk := &b.bl.Blocks[id]
				next := NewBitset(n)
				first := true
				for _, s := range blk.Succ {
					if b.bl.Blocks[s].Proc != proc.ID {
						continue
					}
					if first {
						next.CopyFrom(b.bl.Blocks[s].PostDominators)
						first = false
					} else {
						next.IntersectWith(b.bl.Blocks[s].PostDominators)
					}
				}
				next.Set(id)
				if !next.Equal(blk.PostDominators) {
					blk.PostDominators = next
					changed = true
				}
			}
		}
	}
}
