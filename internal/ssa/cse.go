package ssa

// GetCS returns the representative earlier instruction i is redundant
// with, or nil if i must itself be computed. The result is memoized: the
// search runs at most once per instruction regardless of how many times
// GetCS is called (e.g. once from String, again from EffectiveID, again
// from a later instruction's own search walking through i).
func (i *Inst) GetCS() *Inst {
	if noCSE(i.Op) {
		return nil
	}
	if !i.csComputed {
		i.cs = i.computeCS()
		i.csComputed = true
	}
	return i.cs
}

// computeCS walks the CSE chain backwards from i: first along i's own
// block's intra-block op_last_inst chain, then, once that chain is
// exhausted, into each ancestor block found by following getPrevCSBlock,
// restarting from that block's own chain head for i's opcode. At every
// ancestor hop it checks that block's kill_stores first, since a sibling
// region's stores are not otherwise visible from this walk.
//
// The search stops and reports no equivalent the moment a kill is found,
// and reports the first equivalent instruction encountered otherwise.
func (i *Inst) computeCS() *Inst {
	key := i.Op
	if key == STORE {
		key = LOAD
	}

	b := i.block
	cur := i.opLastInst
	for {
		if cur != nil {
			if i.IsCommonSubexpressionOf(cur) {
				return cur
			}
			if isKill(i, cur) {
				return nil
			}
			cur = cur.opLastInst
			continue
		}

		prev := b.getPrevCSBlock()
		if prev == nil {
			return nil
		}
		if Mem[i.Op] {
			for _, store := range prev.killStores {
				if isKill(i, store) {
					return nil
				}
			}
		}
		b = prev
		cur = b.csTable[key]
	}
}

// InvalidateAllCSE clears every instruction's memoized CSE result in fn,
// forcing the next GetCS call on each to recompute against the complete,
// finished block graph rather than whatever partial graph existed at the
// instruction's own emission time. Intended to run exactly once, after a
// whole computation has been fully emitted — a deliberate choice to avoid
// a CSE match (or kill) reached pessimistically early, before the rest of
// the graph it might have matched against existed.
func (fn *Function) InvalidateAllCSE() {
	for _, bb := range walkChain(fn.Entry, nil) {
		for _, inst := range bb.Instructions {
			inst.cs = nil
			inst.csComputed = false
		}
	}
}

// InvalidateAllCSE invalidates every function's memoized CSE results,
// including main's.
func (p *Program) InvalidateAllCSE() {
	for _, name := range p.FuncOrder {
		p.Functions[name].InvalidateAllCSE()
	}
}

// isKill reports whether store invalidates a's potential CSE match: store
// must itself target the same identifier as a, must be an actual STORE
// (not a LOAD reached via the shared chain key), and must not itself be a
// redundant store (one whose own GetCS found an earlier equivalent store)
// — a redundant store changes nothing, so it does not invalidate what came
// before it.
func isKill(a, store *Inst) bool {
	if !Mem[a.Op] || store.Op != STORE {
		return false
	}
	if store.GetCS() != nil {
		return false
	}
	aIdent, aOK := a.Identifier()
	sIdent, sOK := store.Identifier()
	return aOK && sOK && aIdent == sIdent
}
