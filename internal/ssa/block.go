package ssa

import "github.com/tandf/ssac/token"

// BlockKind distinguishes the three shapes a BasicBlock can take.
type BlockKind int

const (
	Plain BlockKind = iota
	BranchKind
	JoinKind
)

// Block is implemented by both BasicBlock and SuperBlock so control-flow
// linking (SetPrevBB/SetNextBB) and loop-phi operand rewriting
// (ReplaceOperand) can treat a nested region the same as a single block:
// a SuperBlock forwards prev/next to its head/tail leaf and visits every
// contained basic block.
type Block interface {
	FirstBB() *BasicBlock
	LastBB() *BasicBlock
	PrevBB() *BasicBlock
	NextBB() *BasicBlock
	SetPrevBB(*BasicBlock)
	SetNextBB(*BasicBlock)
	ReplaceOperand(from Value, fromIdent token.IdentID, to Value)
}

// bindable is implemented by the Value kinds that can be held in a
// ValueTable: each clones itself on bind, stamping the clone with the
// identifier it is now bound to, so the original instruction is never
// mutated by an assignment.
type bindable interface {
	Value
	bindClone(gen *idGen, ident token.IdentID) Value
}

// identifierOf returns the scalar v is currently bound to, for the Value
// kinds that track one.
func identifierOf(v Value) (token.IdentID, bool) {
	switch vv := v.(type) {
	case *Const:
		return vv.Identifier()
	case *Inst:
		return vv.Identifier()
	case *CallInst:
		return vv.Identifier()
	default:
		return token.InvalidIdent, false
	}
}

// ValueTable is the per-block map from a scalar's identifier to the Value
// it currently reads as. Lookups that miss walk the dominator chain via
// BasicBlock.prev (BasicBlock.Get); binds always clone (BasicBlock.Set).
type ValueTable map[token.IdentID]Value

// BasicBlock is a straight-line sequence of instructions: the unit the CSE
// engine and the value table operate on.
type BasicBlock struct {
	Label string
	Kind  BlockKind

	Instructions []*Inst
	Calls        []*CallInst
	valueTable   ValueTable

	// csTable holds, per opcode, the most recently appended instruction of
	// that opcode in THIS block (the head of its intra-block CSE chain).
	csTable map[Opcode]*Inst

	// lastCSBlock, when set, overrides prev_bb as the block the CSE search
	// continues into once this block's own chains are exhausted. Nothing in
	// this package sets it, so the search always continues into prev.
	lastCSBlock *BasicBlock

	// killStores holds STORE instructions from the sibling region this
	// block's CSE search does not otherwise reach (the non-taken arm of an
	// if/else, or a while loop's body as seen from after the loop): a
	// conservative extra kill set consulted before this block's own chains.
	killStores []*Inst

	prev, next *BasicBlock

	// phiInsts holds this block's phi instructions, populated only when
	// Kind == JoinKind. They are placed ahead of Instructions in program
	// order but are tracked separately since they are never CSE-chained.
	phiInsts []*Inst

	// branchBlock is set on a BranchKind block: the block instructions
	// branch to when the tested relation holds.
	branchBlock *BasicBlock

	// TakenOn is the branch opcode a BranchKind block's relation compiles
	// to, recorded for the textual/DOT dump.
	TakenOn Opcode

	// joiningBlock is set on a JoinKind block: the other predecessor,
	// reached by a branch rather than by fallthrough/prev linkage.
	joiningBlock *BasicBlock
}

// NewBasicBlock creates an unlinked block: prev and next are self
// (sentinels meaning "no predecessor"/"no successor yet") until Link wires
// it into a control-flow graph.
func NewBasicBlock(label string, kind BlockKind) *BasicBlock {
	b := &BasicBlock{
		Label:      label,
		Kind:       kind,
		valueTable: make(ValueTable),
		csTable:    make(map[Opcode]*Inst),
	}
	b.prev, b.next = b, b
	return b
}

func (b *BasicBlock) FirstBB() *BasicBlock { return b }
func (b *BasicBlock) LastBB() *BasicBlock  { return b }
func (b *BasicBlock) PrevBB() *BasicBlock  { return b.prev }
func (b *BasicBlock) NextBB() *BasicBlock  { return b.next }
func (b *BasicBlock) SetPrevBB(p *BasicBlock) { b.prev = p }
func (b *BasicBlock) SetNextBB(n *BasicBlock) { b.next = n }

// Link wires b as the immediate predecessor of n: b.next = n, n.prev = b.
func Link(b, n Block) {
	b.SetNextBB(n.FirstBB())
	n.SetPrevBB(b.LastBB())
}

// Append adds inst to the end of b's instruction list and performs the CSE
// bookkeeping appropriate to inst.Op: opcodes on the no-CSE blacklist are
// skipped entirely; STORE is chained under the LOAD key so loads and
// stores to the same address family are findable from one walk; every
// other opcode is chained under its own key. Either way, inst becomes the
// new head for its key in this block.
func (b *BasicBlock) Append(inst *Inst) {
	inst.block = b
	b.Instructions = append(b.Instructions, inst)
	if noCSE(inst.Op) {
		return
	}
	key := inst.Op
	if key == STORE {
		key = LOAD
	}
	inst.opLastInst = b.csTable[key]
	b.csTable[key] = inst
}

// AppendCall records a CallInst against b. CallInst is a distinct Value
// kind that is never CSE-chained, so it is tracked in its own slice rather
// than going through Append's Inst-shaped bookkeeping.
func (b *BasicBlock) AppendCall(c *CallInst) {
	b.Calls = append(b.Calls, c)
}

// AppendPhi adds a phi instruction to a JoinKind block, ahead of (and
// untouched by) the regular CSE-chained instruction stream.
func (b *BasicBlock) AppendPhi(inst *Inst) {
	inst.block = b
	b.phiInsts = append(b.phiInsts, inst)
}

// BranchTarget returns the block a BranchKind block transfers control to
// when its relation holds, or nil.
func (b *BasicBlock) BranchTarget() *BasicBlock { return b.branchBlock }

// JoiningBlock returns a JoinKind block's second predecessor — the one
// reached by a branch rather than by fallthrough/prev linkage — or nil.
func (b *BasicBlock) JoiningBlock() *BasicBlock { return b.joiningBlock }

// Phis returns a JoinKind block's phi instructions, in insertion order.
func (b *BasicBlock) Phis() []*Inst { return b.phiInsts }

// KillStores returns the conservative extra kill set checked before this
// block's own CSE chains during a search.
func (b *BasicBlock) KillStores() []*Inst { return b.killStores }

// FirstInstruction returns the first regular (non-phi) instruction
// appended to b, or nil if none has been appended yet.
func (b *BasicBlock) FirstInstruction() *Inst {
	if len(b.Instructions) == 0 {
		return nil
	}
	return b.Instructions[0]
}

// emitNOP appends a fresh NOP to b, bypassing CSE bookkeeping (NOP is
// blacklisted), and returns it. Used only by MetaRef.Resolve to give an
// otherwise-empty branch target somewhere concrete to point at.
func (b *BasicBlock) emitNOP(gen *idGen) *Inst {
	nop := newInst(gen, NOP, nil, nil)
	b.Append(nop)
	return nop
}

// getPrevCSBlock returns the block the CSE search should continue into
// once b's own chains are exhausted, or nil if b has no predecessor
// (function entry).
func (b *BasicBlock) getPrevCSBlock() *BasicBlock {
	if b.lastCSBlock != nil {
		return b.lastCSBlock
	}
	if b.prev == b {
		return nil
	}
	return b.prev
}

// Get resolves id by walking the dominator chain starting at b: b's own
// table, then b.prev, then b.prev.prev, stopping at the function-entry
// sentinel (prev == self).
func (b *BasicBlock) Get(id token.IdentID) (Value, bool) {
	for cur := b; ; cur = cur.prev {
		if v, ok := cur.valueTable[id]; ok {
			return v, true
		}
		if cur.prev == cur {
			return nil, false
		}
	}
}

// Set binds id to v in b's own value table. v is cloned first (bindClone)
// so the instruction or constant v refers to is never mutated by the
// assignment — only the fresh clone records the binding.
func (b *BasicBlock) Set(gen *idGen, id token.IdentID, v Value) Value {
	bv, ok := v.(bindable)
	if !ok {
		b.valueTable[id] = v
		return v
	}
	bound := bv.bindClone(gen, id)
	b.valueTable[id] = bound
	return bound
}

// ReplaceOperand rewrites, in every instruction and phi appended to b
// (including phis), any operand that is both identical to from (by id)
// and bound to fromIdent, replacing it with to. Used to redirect a loop's
// body and relation instructions at the phi a while-header inserts for a
// scalar the body redefines.
func (b *BasicBlock) ReplaceOperand(from Value, fromIdent token.IdentID, to Value) {
	replace := func(v Value) Value {
		if v == nil || from == nil || v.ID() != from.ID() {
			return v
		}
		if id, ok := identifierOf(v); ok && id == fromIdent {
			return to
		}
		return v
	}
	for _, inst := range b.Instructions {
		inst.X = replace(inst.X)
		inst.Y = replace(inst.Y)
	}
	for _, phi := range b.phiInsts {
		phi.X = replace(phi.X)
		phi.Y = replace(phi.Y)
	}
}

// SuperBlock is a named region spanning a head and a tail Block — a
// function body, or the nested body of an if/while — used so control-flow
// linking and loop-phi rewriting can treat "the whole if statement" as one
// unit without flattening its internal structure.
type SuperBlock struct {
	Name       string
	Head, Tail Block
}

func (s *SuperBlock) FirstBB() *BasicBlock     { return s.Head.FirstBB() }
func (s *SuperBlock) LastBB() *BasicBlock      { return s.Tail.LastBB() }
func (s *SuperBlock) PrevBB() *BasicBlock      { return s.FirstBB().PrevBB() }
func (s *SuperBlock) NextBB() *BasicBlock      { return s.LastBB().NextBB() }
func (s *SuperBlock) SetPrevBB(p *BasicBlock)  { s.Head.SetPrevBB(p) }
func (s *SuperBlock) SetNextBB(n *BasicBlock)  { s.Tail.SetNextBB(n) }

// ReplaceOperand visits every basic block contained in s, walking the
// .next chain from s's first leaf to its last.
func (s *SuperBlock) ReplaceOperand(from Value, fromIdent token.IdentID, to Value) {
	for bb := s.FirstBB(); ; bb = bb.next {
		bb.ReplaceOperand(from, fromIdent, to)
		if bb == s.LastBB() {
			return
		}
	}
}
