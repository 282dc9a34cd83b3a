package ssa

// IfBuilder drives the construction of one if[/else] statement. The
// parser calls BeginIf when it scans "if", BeginThen once the relation has
// been emitted and "then" is scanned, Else if it scans "else", and End
// when it scans "fi".
type IfBuilder struct {
	e    *Emitter
	rel  *BasicBlock
	join *BasicBlock
	cmp  Value

	thenHead, thenTail *BasicBlock
	elseHead, elseTail *BasicBlock
	thenDirty, elseDirty dirtySet
	hasElse              bool
}

// BeginIf opens the relation-test block and makes it the insertion point;
// the parser emits the CMP for the if's condition into it next.
func (e *Emitter) BeginIf() *IfBuilder {
	rel := NewBasicBlock("if.cond", BranchKind)
	Link(e.block, rel)
	e.block = rel
	return &IfBuilder{e: e, rel: rel, join: NewBasicBlock("if.join", JoinKind)}
}

// BranchOn records which branch opcode this if's relation compiles to and
// the CMP value it tests. The real conditional-branch Inst can't be built
// yet — its target is the then-arm's first instruction, which doesn't
// exist until BeginThen — so this only stamps bookkeeping BeginThen/Else/
// End consume.
func (b *IfBuilder) BranchOn(rel RelOp, cmp Value) {
	b.rel.TakenOn = rel.BranchOpcode()
	b.cmp = cmp
}

// BeginThen opens the then-arm and appends the real conditional-branch
// instruction (CMP's opcode-derived Bxx, testing b.cmp) to the relation
// block, now that the then-arm's entry block exists to target.
func (b *IfBuilder) BeginThen() {
	b.thenHead = NewBasicBlock("if.then", Plain)
	Link(b.rel, b.thenHead)
	b.rel.branchBlock = b.thenHead

	bxx := newInst(b.e.Prog.gen, b.rel.TakenOn, b.cmp, newMetaRefFirstOf(b.e.Prog.gen, b.thenHead))
	b.rel.Append(bxx)

	b.e.block = b.thenHead
	b.e.pushScope()
}

// Else closes the then-arm, wires a jump around the else-arm, appends the
// relation's false-edge branch to the else-arm, and opens the else-arm.
func (b *IfBuilder) Else() {
	b.hasElse = true
	b.thenTail = b.e.block
	b.thenDirty = b.e.popScope()

	braJoin := newInst(b.e.Prog.gen, BRA, newMetaRefFirstOf(b.e.Prog.gen, b.join), nil)
	b.thenTail.Append(braJoin)

	b.elseHead = NewBasicBlock("if.else", Plain)
	b.rel.next = b.elseHead
	b.elseHead.prev = b.rel

	braElse := newInst(b.e.Prog.gen, BRA, newMetaRefFirstOf(b.e.Prog.gen, b.elseHead), nil)
	b.rel.Append(braElse)

	b.e.block = b.elseHead
	b.e.pushScope()
}

// End closes whichever arm is open, builds the join block (inserting phis
// for every scalar either arm rebound), and advances the insertion point
// to it.
func (b *IfBuilder) End() *BasicBlock {
	if b.hasElse {
		b.elseTail = b.e.block
		b.elseDirty = b.e.popScope()
		b.elseTail.next = b.join
	} else {
		b.thenTail = b.e.block
		b.thenDirty = b.e.popScope()
		b.rel.next = b.join

		braJoin := newInst(b.e.Prog.gen, BRA, newMetaRefFirstOf(b.e.Prog.gen, b.join), nil)
		b.rel.Append(braJoin)
	}

	finishIfJoin(b.e.Prog.gen, b.join, b.rel, b.thenHead, b.thenTail, b.elseHead, b.elseTail, b.thenDirty, b.elseDirty)
	b.join.prev = b.thenTail
	b.thenTail.next = b.join

	b.e.fn.Regions = append(b.e.fn.Regions, &SuperBlock{Name: "if", Head: b.rel, Tail: b.join})

	b.e.block = b.join
	return b.join
}

// WhileBuilder drives the construction of one while statement. The parser
// calls BeginWhile when it scans "while", BeginBody once the relation has
// been emitted and "do" is scanned, and End when it scans "od".
type WhileBuilder struct {
	e    *Emitter
	head *BasicBlock
	rel  *BasicBlock
	cmp  Value

	bodyHead, bodyTail *BasicBlock
	bodyDirty          dirtySet
}

// BeginWhile opens the loop header and the relation-test block.
func (e *Emitter) BeginWhile() *WhileBuilder {
	head := NewBasicBlock("while.head", JoinKind)
	Link(e.block, head)
	rel := NewBasicBlock("while.cond", BranchKind)
	Link(head, rel)
	e.block = rel
	return &WhileBuilder{e: e, head: head, rel: rel}
}

// BranchOn records which branch opcode this loop's relation compiles to
// and the CMP value it tests; see IfBuilder.BranchOn for why the real
// branch Inst waits until the target block exists.
func (b *WhileBuilder) BranchOn(rel RelOp, cmp Value) {
	b.rel.TakenOn = rel.BranchOpcode()
	b.cmp = cmp
}

// BeginBody opens the loop body and appends the real conditional-branch
// instruction to the relation block, now that the body's entry block
// exists to target. The body is dominated by the relation test (the only
// way in), so its prev is b.rel — set directly rather than through Link,
// which would otherwise claim b.rel.next (reserved for the
// fallthrough-when-false edge wired up in End).
func (b *WhileBuilder) BeginBody() {
	b.bodyHead = NewBasicBlock("while.body", Plain)
	b.bodyHead.prev = b.rel
	b.rel.branchBlock = b.bodyHead

	bxx := newInst(b.e.Prog.gen, b.rel.TakenOn, b.cmp, newMetaRefFirstOf(b.e.Prog.gen, b.bodyHead))
	b.rel.Append(bxx)

	b.e.block = b.bodyHead
	b.e.pushScope()
}

// End closes the body, emits the back edge to the loop header, inserts
// phis for every scalar the body rebinds (repairing uses inside the
// relation test and body that were emitted before the phi existed), and
// advances the insertion point to a new while.after block linked after the
// relation block — the block the loop falls through to once its condition
// tests false, and where subsequent statements are emitted.
func (b *WhileBuilder) End() *BasicBlock {
	b.bodyTail = b.e.block
	b.bodyDirty = b.e.popScope()

	bra := newInst(b.e.Prog.gen, BRA, newMetaRefFirstOf(b.e.Prog.gen, b.head), nil)
	b.bodyTail.Append(bra)

	buildWhileJoin(b.e.Prog.gen, b.head, b.rel, b.bodyHead, b.bodyTail, b.bodyDirty)

	after := NewBasicBlock("while.after", Plain)
	Link(b.rel, after)

	braAfter := newInst(b.e.Prog.gen, BRA, newMetaRefFirstOf(b.e.Prog.gen, after), nil)
	b.rel.Append(braAfter)

	b.e.fn.Regions = append(b.e.fn.Regions, &SuperBlock{Name: "while", Head: b.head, Tail: b.bodyTail})

	b.e.block = after
	return after
}
