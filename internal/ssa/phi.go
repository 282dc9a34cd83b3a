package ssa

import "github.com/tandf/ssac/token"

// walkChain returns every BasicBlock from first to last (inclusive),
// following the .next linear-layout chain built by Link as each construct
// was emitted and also each branch block's taken target (a then-arm or a
// loop body, which is not on the .next chain). The walk does not continue
// past last; a nil last walks to the end of the function. Each block is
// listed once.
func walkChain(first, last *BasicBlock) []*BasicBlock {
	var out []*BasicBlock
	seen := make(map[*BasicBlock]bool)
	var visit func(bb *BasicBlock)
	visit = func(bb *BasicBlock) {
		if bb == nil || seen[bb] {
			return
		}
		seen[bb] = true
		out = append(out, bb)
		if bb == last {
			return
		}
		visit(bb.branchBlock)
		if bb.next != bb {
			visit(bb.next)
		}
	}
	visit(first)
	return out
}

// collectStores gathers every STORE instruction appended anywhere in
// first..last, for use as a Join block's kill_stores: a conservative set
// of writes a later CSE search would otherwise miss because they live in
// a sibling region its own prev-chain never crosses.
func collectStores(first, last *BasicBlock) []*Inst {
	var stores []*Inst
	for _, bb := range walkChain(first, last) {
		for _, inst := range bb.Instructions {
			if inst.Op == STORE {
				stores = append(stores, inst)
			}
		}
	}
	return stores
}

// replaceOperandInChain rewrites, in every block from first to last, any
// operand equal to from and bound to fromIdent, to to.
func replaceOperandInChain(first, last *BasicBlock, from Value, fromIdent token.IdentID, to Value) {
	for _, bb := range walkChain(first, last) {
		bb.ReplaceOperand(from, fromIdent, to)
	}
}

// dirtySet tracks which scalars were (re)bound while emitting one arm of
// an if/else or the body of a while loop, so the join point knows which
// identifiers need a phi.
type dirtySet map[token.IdentID]bool

func newDirtySet() dirtySet { return make(dirtySet) }

func (d dirtySet) mark(id token.IdentID) { d[id] = true }

// union returns the identifiers present in either set.
func union(a, b dirtySet) []token.IdentID {
	seen := make(map[token.IdentID]bool)
	var out []token.IdentID
	for id := range a {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for id := range b {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// setIdentifier stamps inst's identifier field directly, bypassing the
// value-table clone path. Used when a phi's own binding (it has no "prior
// value" to clone from) is the first thing to occupy a table slot.
func setIdentifier(inst *Inst, id token.IdentID) {
	inst.identifier = id
}

// finishIfJoin fills in join (already allocated when the if was opened, so
// the then-arm's closing BRA has somewhere to point) for an if/then[/else]
// statement. relBlock is the relation test; thenFirst/thenLast span the
// then-arm; elseFirst/elseLast span the else-arm (both nil when there is
// no else branch). thenDirty/elseDirty are the scalars each arm rebound.
func finishIfJoin(gen *idGen, join, relBlock, thenFirst, thenLast, elseFirst, elseLast *BasicBlock, thenDirty, elseDirty dirtySet) {
	_ = thenFirst

	if elseLast != nil {
		join.joiningBlock = elseLast
		join.killStores = collectStores(elseFirst, elseLast)
	} else {
		join.joiningBlock = relBlock
	}

	for _, id := range union(thenDirty, elseDirty) {
		thenVal, ok := thenLast.Get(id)
		if !ok {
			thenVal, _ = relBlock.Get(id)
		}
		var elseVal Value
		if elseLast != nil {
			elseVal, ok = elseLast.Get(id)
			if !ok {
				elseVal, _ = relBlock.Get(id)
			}
		} else {
			elseVal, _ = relBlock.Get(id)
		}
		if thenVal == nil || elseVal == nil || thenVal.ID() == elseVal.ID() {
			// Both arms agree (or one never touched it): no join needed,
			// whichever side is non-nil becomes the visible value.
			if thenVal != nil {
				join.valueTable[id] = thenVal
			} else {
				join.valueTable[id] = elseVal
			}
			continue
		}
		phi := newInst(gen, PHI, thenVal, elseVal)
		setIdentifier(phi, id)
		join.AppendPhi(phi)
		join.valueTable[id] = phi
	}
}

// buildWhileJoin finishes a while loop's header block after its relation
// test and body have both been emitted. head is the loop header (already
// linked as the predecessor of relBlock, which is in turn bodyFirst's
// predecessor); bodyFirst/bodyLast
// span the loop body; bodyDirty holds the scalars the body rebound.
//
// Every scalar the body redefines needs a phi at head merging "value on
// entry" with "value after one iteration of the body" — but by the time
// the body is fully emitted, its instructions already reference the
// pre-loop value directly (single-pass construction has no way to know in
// advance that a phi will be needed). buildWhileJoin repairs this: once
// the phi exists, every use of the pre-loop value within the relation
// test and the body is rewritten to read the phi instead.
func buildWhileJoin(gen *idGen, head, relBlock, bodyFirst, bodyLast *BasicBlock, bodyDirty dirtySet) {
	head.joiningBlock = bodyLast
	head.killStores = collectStores(bodyFirst, bodyLast)

	for id := range bodyDirty {
		preVal, ok := head.Get(id)
		if !ok {
			continue
		}
		bodyVal, ok := bodyLast.Get(id)
		if !ok || bodyVal.ID() == preVal.ID() {
			continue
		}
		phi := newInst(gen, PHI, bodyVal, preVal)
		setIdentifier(phi, id)
		head.AppendPhi(phi)
		head.valueTable[id] = phi

		replaceOperandInChain(relBlock, relBlock, preVal, id, phi)
		replaceOperandInChain(bodyFirst, bodyLast, preVal, id, phi)
	}
}
