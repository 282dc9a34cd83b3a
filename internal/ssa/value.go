package ssa

import (
	"fmt"

	"github.com/tandf/ssac/token"
)

// Value is the closed set of IR value kinds: Const, FramePointer, Inst,
// CallInst, and MetaRef. Equality between two Values is
// equality of ID(). A value-table clone (see bindable) keeps the ID of the
// value it was cloned from, so the two compare equal while only the clone
// carries the scalar's identifier.
type Value interface {
	ID() int
	String() string
}

// idGen hands out the process-unique, monotonically increasing, dense
// ids every Value carries (invariant 1), scoped to one compiled program.
type idGen struct{ next int }

func (g *idGen) alloc() int {
	id := g.next
	g.next++
	return id
}

// Const is an immediate integer, pooled per function: requesting
// the same numeric value twice from the same function returns the same
// Const.
type Const struct {
	id         int
	Num        int64
	identifier token.IdentID
}

func newConst(gen *idGen, n int64) *Const {
	return &Const{id: gen.alloc(), Num: n, identifier: token.InvalidIdent}
}

func (c *Const) ID() int        { return c.id }
func (c *Const) String() string { return fmt.Sprintf("%d: const #%d", c.id, c.Num) }

// Identifier returns the scalar c was last bound to, if any.
func (c *Const) Identifier() (token.IdentID, bool) {
	if c.identifier == token.InvalidIdent {
		return token.InvalidIdent, false
	}
	return c.identifier, true
}

// clone returns a new Const with c's id, bound to ident, leaving c itself
// untouched (value_table.set clones rather than mutates the original
// instruction's identifier).
func (c *Const) clone(gen *idGen, ident token.IdentID) *Const {
	clone := *c
	clone.identifier = ident
	return &clone
}

func (c *Const) bindClone(gen *idGen, ident token.IdentID) Value { return c.clone(gen, ident) }

// FramePointer is the process-singleton-per-function symbolic base used
// to allocate stack slots for arrays. Its offset only ever grows
// (invariant 6).
type FramePointer struct {
	id     int
	Offset int
}

func newFramePointer(gen *idGen) *FramePointer {
	return &FramePointer{id: gen.alloc()}
}

func (f *FramePointer) ID() int        { return f.id }
func (f *FramePointer) String() string { return fmt.Sprintf("%d: framePtr", f.id) }

// Increment advances the frame pointer's byte offset by k and returns the
// offset that was in effect before the call (the base a new array
// declaration should use).
func (f *FramePointer) Increment(k int) int {
	before := f.Offset
	f.Offset += k
	return before
}

// Inst is a computed instruction: an opcode plus up to two operands.
type Inst struct {
	id  int
	Op  Opcode
	X, Y Value // either may be nil depending on Op's arity

	// identifier is the scalar this value was most recently bound to, if
	// any — needed for loop-phi operand rewriting and store/load kill
	// tracking.
	identifier token.IdentID

	// opLastInst chains this instruction to the previous instruction of
	// the same opcode in the same basic block (the CSE linked list).
	opLastInst *Inst

	block *BasicBlock

	// cs memoizes the representative earlier instruction found by the
	// CSE search, if any; csComputed distinguishes "not searched yet"
	// from "searched, no equivalent found".
	cs         *Inst
	csComputed bool
}

func newInst(gen *idGen, op Opcode, x, y Value) *Inst {
	return &Inst{id: gen.alloc(), Op: op, X: x, Y: y, identifier: token.InvalidIdent}
}

func (i *Inst) ID() int { return i.id }

func (i *Inst) String() string {
	s := fmt.Sprintf("%d: %s", i.id, i.Op)
	if i.X != nil {
		s += fmt.Sprintf(" %d", i.X.ID())
	}
	if i.Y != nil {
		s += fmt.Sprintf(" %d", i.Y.ID())
	}
	if cs := i.GetCS(); cs != nil {
		s += fmt.Sprintf(" [cs: %d]", cs.id)
	}
	return s
}

// Block returns the basic block this instruction was appended to.
func (i *Inst) Block() *BasicBlock { return i.block }

// Identifier returns the scalar this instruction was last bound to, and
// whether it has one at all.
func (i *Inst) Identifier() (token.IdentID, bool) {
	if i.identifier == token.InvalidIdent {
		return token.InvalidIdent, false
	}
	return i.identifier, true
}

// clone returns a new Inst that is a bookkeeping alias of i — same id, op,
// operands and block, stamped with ident — for storing into a
// value table without mutating i. The clone is never appended to
// any block's instruction list or CSE chain: it exists purely to record
// "which scalar currently reads as this value".
func (i *Inst) clone(gen *idGen, ident token.IdentID) *Inst {
	clone := *i
	clone.identifier = ident
	clone.cs = nil
	clone.csComputed = false
	return &clone
}

// EffectiveID returns the CSE-aware observable id of i: the id of its
// representative earlier instruction if one was found, else its own id.
func (i *Inst) EffectiveID() int {
	if cs := i.GetCS(); cs != nil {
		return cs.EffectiveID()
	}
	return i.id
}

// IsCommonSubexpressionOf reports whether i and other are CSE-equivalent:
// same opcode, and either identical operands in order, or (for a
// commutative opcode) identical operands swapped.
func (i *Inst) IsCommonSubexpressionOf(other *Inst) bool {
	if i.Op != other.Op {
		return false
	}
	if sameOperand(i.X, other.X) && sameOperand(i.Y, other.Y) {
		return true
	}
	if Commutative[i.Op] && sameOperand(i.X, other.Y) && sameOperand(i.Y, other.X) {
		return true
	}
	return false
}

// sameOperand compares two operands by their CSE-aware EffectiveID rather
// than by raw ID, so that CSE composes through nested expressions: if X's
// own recomputation was itself eliminated in favor of an earlier X, an
// instruction using the recomputed X is still recognized as redundant with
// one that used the original.
func sameOperand(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return effectiveID(a) == effectiveID(b)
}

func effectiveID(v Value) int {
	if inst, ok := v.(*Inst); ok {
		return inst.EffectiveID()
	}
	return v.ID()
}

// CallInst is a user-procedure call. It is never CSE-eliminated and never
// kills anything; this is conservative, since a callee's effect on memory
// or globals is never analyzed.
type CallInst struct {
	id         int
	Name       string
	Args       []Value
	identifier token.IdentID
}

func newCallInst(gen *idGen, name string, args []Value) *CallInst {
	return &CallInst{id: gen.alloc(), Name: name, Args: args, identifier: token.InvalidIdent}
}

func (c *CallInst) ID() int { return c.id }
func (c *CallInst) String() string {
	return fmt.Sprintf("%d: call %s (argc=%d)", c.id, c.Name, len(c.Args))
}

// Identifier returns the scalar this call's result was last bound to.
func (c *CallInst) Identifier() (token.IdentID, bool) {
	if c.identifier == token.InvalidIdent {
		return token.InvalidIdent, false
	}
	return c.identifier, true
}

func (c *CallInst) clone(gen *idGen, ident token.IdentID) *CallInst {
	clone := *c
	clone.identifier = ident
	return &clone
}

func (c *CallInst) bindClone(gen *idGen, ident token.IdentID) Value { return c.clone(gen, ident) }

func (i *Inst) bindClone(gen *idGen, ident token.IdentID) Value { return i.clone(gen, ident) }

// metaRefKind distinguishes the two MetaRef flavors.
type metaRefKind int

const (
	metaRefFirstOf metaRefKind = iota
	metaRefFirstOfNext
)

// MetaRef is a deferred branch target: "the first instruction of block B"
// or "the first instruction of the block after B". It resolves lazily, at
// ID()/Resolve() time (String only names B), not at construction time:
// this matters because B
// (or B.next) may not be fully built yet when the MetaRef is created as a
// branch operand.
type MetaRef struct {
	kind  metaRefKind
	block *BasicBlock
	gen   *idGen
}

func newMetaRefFirstOf(gen *idGen, b *BasicBlock) *MetaRef {
	return &MetaRef{kind: metaRefFirstOf, block: b, gen: gen}
}

func newMetaRefFirstOfNext(gen *idGen, b *BasicBlock) *MetaRef {
	return &MetaRef{kind: metaRefFirstOfNext, block: b, gen: gen}
}

// Resolve returns the concrete instruction this MetaRef points to,
// inserting a NOP into the target block if it is still empty.
func (m *MetaRef) Resolve() *Inst {
	target := m.block
	if m.kind == metaRefFirstOfNext {
		target = target.next
	}
	if first := target.FirstInstruction(); first != nil {
		return first
	}
	return target.emitNOP(m.gen)
}

func (m *MetaRef) ID() int { return m.Resolve().id }
func (m *MetaRef) String() string {
	kind := "firstOf"
	if m.kind == metaRefFirstOfNext {
		kind = "firstOfNext"
	}
	return fmt.Sprintf("meta(%s %s)", kind, m.block.Label)
}
