// Package ssa builds SSA-form intermediate code directly during a single
// recursive-descent parse: there is no separate AST stage. A parser drives
// an Emitter one grammar production at a time, and the Emitter's job is to
// turn each production into instructions, performing constant pooling,
// common-subexpression elimination, and phi insertion as it goes.
package ssa

import (
	"errors"
	"fmt"

	"github.com/tandf/ssac/token"
)

// ErrUndeclaredFunction is the sentinel Call wraps its error with when name
// names neither a builtin nor a declared function, so callers can
// distinguish "undeclared" from an arity/argument-count mismatch.
var ErrUndeclaredFunction = errors.New("call to undeclared function")

const wordSize = 4

// ArrayInfo records an array's declared shape and its byte offset from the
// owning function's frame pointer.
type ArrayInfo struct {
	Dims   []int
	Offset int
}

func arrayLength(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// Function is one user procedure or the implicit main function: its own
// frame (for array storage), its own constant pool, and the set of
// identifiers declared in its scope (params, locals, local arrays).
type Function struct {
	Name   string
	IsVoid bool
	Params []token.IdentID

	Entry *BasicBlock

	// Regions records one SuperBlock per if/while construct emitted in
	// this function's body, in the order their headers were opened — the
	// visualizer clusters a function's blocks this way.
	Regions []*SuperBlock

	frame    *FramePointer
	consts   map[int64]*Const
	arrays   map[token.IdentID]*ArrayInfo
	declared map[token.IdentID]bool
}

// Program is a whole compiled unit: the shared id generator (ids are
// unique across the entire program, not per-function), the identifier
// table, every declared function, and global scope declarations.
type Program struct {
	Names *token.Names
	gen   *idGen

	Functions map[string]*Function
	FuncOrder []string
	Main      *Function

	GlobalArrays  map[token.IdentID]*ArrayInfo
	GlobalScalars map[token.IdentID]bool
	frame         *FramePointer
}

// NewProgram creates an empty Program sharing names as its identifier
// table.
func NewProgram(names *token.Names) *Program {
	return &Program{
		Names:         names,
		gen:           &idGen{},
		Functions:     make(map[string]*Function),
		GlobalArrays:  make(map[token.IdentID]*ArrayInfo),
		GlobalScalars: make(map[token.IdentID]bool),
	}
}

// DeclareGlobalScalar registers id as a main-level scalar. It reports
// whether id was already declared at global scope (scalar or array).
func (p *Program) DeclareGlobalScalar(id token.IdentID) (redeclared bool) {
	redeclared = p.isGlobalDeclared(id)
	p.GlobalScalars[id] = true
	return redeclared
}

// DeclareGlobalArray registers id as a main-level array with the given
// dimensions, allocating it frame space. It reports whether id was
// already declared at global scope.
func (p *Program) DeclareGlobalArray(id token.IdentID, dims []int) (redeclared bool) {
	redeclared = p.isGlobalDeclared(id)
	if p.frame == nil {
		p.frame = newFramePointer(p.gen)
	}
	offset := p.frame.Increment(arrayLength(dims) * wordSize)
	p.GlobalArrays[id] = &ArrayInfo{Dims: append([]int(nil), dims...), Offset: offset}
	return redeclared
}

func (p *Program) isGlobalDeclared(id token.IdentID) bool {
	return p.GlobalScalars[id] || p.GlobalArrays[id] != nil
}

// DeclareFunction registers a new function (or main, conventionally named
// "main") and returns it ready for an Emitter to be attached.
func (p *Program) DeclareFunction(name string, isVoid bool, params []token.IdentID) *Function {
	fn := &Function{
		Name:     name,
		IsVoid:   isVoid,
		Params:   append([]token.IdentID(nil), params...),
		frame:    newFramePointer(p.gen),
		consts:   make(map[int64]*Const),
		arrays:   make(map[token.IdentID]*ArrayInfo),
		declared: make(map[token.IdentID]bool),
	}
	for _, id := range params {
		fn.declared[id] = true
	}
	p.Functions[name] = fn
	p.FuncOrder = append(p.FuncOrder, name)
	if name == "main" {
		p.Main = fn
	}
	return fn
}

// VarDecl registers id as a local scalar of fn. It reports whether id was
// already declared in fn's scope.
func (fn *Function) VarDecl(id token.IdentID) (redeclared bool) {
	redeclared = fn.IsDeclared(id)
	fn.declared[id] = true
	return redeclared
}

// ArrayDecl registers id as a local array of fn with the given
// dimensions. It reports whether id was already declared in fn's scope.
func (fn *Function) ArrayDecl(id token.IdentID, dims []int) (redeclared bool) {
	redeclared = fn.IsDeclared(id)
	fn.declared[id] = true
	offset := fn.frame.Increment(arrayLength(dims) * wordSize)
	fn.arrays[id] = &ArrayInfo{Dims: append([]int(nil), dims...), Offset: offset}
	return redeclared
}

// IsDeclared reports whether id has been declared (param, local scalar,
// or local array) in fn's scope.
func (fn *Function) IsDeclared(id token.IdentID) bool {
	return fn.declared[id] || fn.arrays[id] != nil
}

// HasArray reports whether id names a local array of fn.
func (fn *Function) HasArray(id token.IdentID) bool {
	_, ok := fn.arrays[id]
	return ok
}

// ArrayDims returns the declared dimensions of the array id, checking
// local arrays of fn before falling back to prog's global arrays, and
// whether id names an array at all.
func (fn *Function) ArrayDims(prog *Program, id token.IdentID) ([]int, bool) {
	if info, ok := fn.arrays[id]; ok {
		return info.Dims, true
	}
	if info, ok := prog.GlobalArrays[id]; ok {
		return info.Dims, true
	}
	return nil, false
}

// Emitter drives IR construction for one function body. The current
// insertion point is e.block; statement-emitting methods append to it,
// and control-flow constructs (If/While) advance it to the block
// subsequent code should continue from.
type Emitter struct {
	Prog *Program
	fn   *Function
	block *BasicBlock

	// dirtyStack has one entry per enclosing if-arm/while-body currently
	// being emitted; marking an identifier dirty touches every entry, so
	// an outer while sees a scalar changed by a nested if as dirty too.
	dirtyStack []dirtySet
}

// NewEmitter creates an Emitter positioned at the start of fn's body,
// binding each parameter to a synthetic ARG instruction standing for "the
// value passed at the call site".
func NewEmitter(prog *Program, fn *Function) *Emitter {
	entry := NewBasicBlock(fn.Name+".entry", Plain)
	fn.Entry = entry
	for _, id := range fn.Params {
		p := newInst(prog.gen, ARG, nil, nil)
		setIdentifier(p, id)
		entry.Append(p)
		entry.valueTable[id] = p
	}
	return &Emitter{Prog: prog, fn: fn, block: entry}
}

// Block returns the current insertion point.
func (e *Emitter) Block() *BasicBlock { return e.block }

func (e *Emitter) pushScope() { e.dirtyStack = append(e.dirtyStack, newDirtySet()) }

func (e *Emitter) popScope() dirtySet {
	n := len(e.dirtyStack)
	d := e.dirtyStack[n-1]
	e.dirtyStack = e.dirtyStack[:n-1]
	return d
}

func (e *Emitter) markDirty(id token.IdentID) {
	for _, d := range e.dirtyStack {
		d.mark(id)
	}
}

// Number returns the pooled Const for n, allocating it the first time n is
// requested from this function.
func (e *Emitter) Number(n int64) Value {
	if c, ok := e.fn.consts[n]; ok {
		return c
	}
	c := newConst(e.Prog.gen, n)
	e.fn.consts[n] = c
	return c
}

func (e *Emitter) emit(op Opcode, x, y Value) *Inst {
	inst := newInst(e.Prog.gen, op, x, y)
	e.block.Append(inst)
	return inst
}

// Add, Sub, Mul, Div emit the corresponding arithmetic instruction into
// the current block (with CSE applied automatically on read via GetCS).
func (e *Emitter) Add(x, y Value) Value { return e.emit(ADD, x, y) }
func (e *Emitter) Sub(x, y Value) Value { return e.emit(SUB, x, y) }
func (e *Emitter) Mul(x, y Value) Value { return e.emit(MUL, x, y) }
func (e *Emitter) Div(x, y Value) Value { return e.emit(DIV, x, y) }

func (e *Emitter) isDeclared(id token.IdentID) bool {
	return e.fn.IsDeclared(id) || e.Prog.isGlobalDeclared(id)
}

// ArrayDims returns the declared dimensions of the array id (checked
// against this function's own arrays, then the program's globals), for
// validating a constant index against its bound before emission.
func (e *Emitter) ArrayDims(id token.IdentID) ([]int, bool) {
	return e.fn.ArrayDims(e.Prog, id)
}

// ReadScalar resolves a scalar reference, returning the visible value
// (walking the dominator chain from the current block) and whether the
// read found no prior binding and was defaulted to the constant zero —
// that case is a warning, not a hard error, since PL/0-family languages
// leave scalars implicitly zero-initialized.
func (e *Emitter) ReadScalar(id token.IdentID) (Value, bool, error) {
	if !e.isDeclared(id) {
		return nil, false, fmt.Errorf("identifier %d used but never declared", id)
	}
	if v, ok := e.block.Get(id); ok {
		return v, false, nil
	}
	return e.Number(0), true, nil
}

// AssignScalar binds id to v in the current block's value table and
// reports the change to every enclosing dirty scope. Mirrors ReadScalar's
// declaration check: assigning to a name never declared via varDecl/
// funcDecl/param is a fatal error, not a silent new binding.
func (e *Emitter) AssignScalar(id token.IdentID, v Value) (Value, error) {
	if !e.isDeclared(id) {
		return nil, fmt.Errorf("identifier %d used but never declared", id)
	}
	bound := e.block.Set(e.Prog.gen, id, v)
	e.markDirty(id)
	return bound, nil
}

// arrayAddress computes the byte address of indices into the array id,
// row-major: ((i0*dim1 + i1)*dim2 + i2 ...)*wordSize + array.Offset, added
// to the owning frame pointer (the function's own frame for a local
// array, the program's shared frame for a global one).
func (e *Emitter) arrayAddress(id token.IdentID, indices []Value) (Value, error) {
	var info *ArrayInfo
	var frame *FramePointer
	if local, ok := e.fn.arrays[id]; ok {
		info, frame = local, e.fn.frame
	} else if global, ok := e.Prog.GlobalArrays[id]; ok {
		info, frame = global, e.Prog.frame
	} else {
		return nil, fmt.Errorf("identifier %d is not an array", id)
	}
	if len(indices) != len(info.Dims) {
		return nil, fmt.Errorf("array %d expects %d index(es), got %d", id, len(info.Dims), len(indices))
	}
	var linear Value = e.Number(0)
	for k, idx := range indices {
		if k > 0 {
			linear = e.Mul(linear, e.Number(int64(info.Dims[k])))
		}
		linear = e.Add(linear, idx)
	}
	byteOffset := e.Mul(linear, e.Number(wordSize))
	total := e.Add(byteOffset, e.Number(int64(info.Offset)))
	adda := e.emit(ADDA, frame, total)
	setIdentifier(adda, id)
	return adda, nil
}

// ReadArray emits the address computation and LOAD for indices into array
// id.
func (e *Emitter) ReadArray(id token.IdentID, indices []Value) (Value, error) {
	addr, err := e.arrayAddress(id, indices)
	if err != nil {
		return nil, err
	}
	load := e.emit(LOAD, addr, nil)
	setIdentifier(load, id)
	return load, nil
}

// StoreArray emits the address computation and STORE for indices into
// array id.
func (e *Emitter) StoreArray(id token.IdentID, indices []Value, v Value) error {
	addr, err := e.arrayAddress(id, indices)
	if err != nil {
		return err
	}
	store := e.emit(STORE, v, addr)
	setIdentifier(store, id)
	e.markDirty(id)
	return nil
}

// Relation emits the CMP instruction for a relational expression. The
// relational operator itself is not baked in here: the IfBuilder/
// WhileBuilder that consumes this CMP records which branch opcode the
// operator maps to via BranchOn.
func (e *Emitter) Relation(x, y Value) Value {
	return e.emit(CMP, x, y)
}

// Read emits the builtin scalar-input instruction.
func (e *Emitter) Read() Value { return e.emit(READ, nil, nil) }

// Write emits the builtin scalar-output instruction.
func (e *Emitter) Write(v Value) { e.emit(WRITE, v, nil) }

// WriteNL emits the builtin newline-output instruction.
func (e *Emitter) WriteNL() { e.emit(WRITENL, nil, nil) }

// The three predeclared I/O procedures every program may call without a
// function declaration of its own — they compile directly to READ/WRITE/
// WRITENL rather than a CALL.
const (
	BuiltinInputNum      = "InputNum"
	BuiltinOutputNum     = "OutputNum"
	BuiltinOutputNewLine = "OutputNewLine"
)

// IsBuiltin reports whether name is one of the three predeclared I/O
// procedures.
func IsBuiltin(name string) bool {
	switch name {
	case BuiltinInputNum, BuiltinOutputNum, BuiltinOutputNewLine:
		return true
	default:
		return false
	}
}

// Call emits a user-procedure call: one ARG per argument followed by a
// CallInst. The three builtin I/O procedures are special-cased to their
// dedicated opcodes instead. Returns nil for a call to a void function
// (or to OutputNum/OutputNewLine, which produce no value).
func (e *Emitter) Call(name string, args []Value) (Value, error) {
	switch name {
	case BuiltinInputNum:
		if len(args) != 0 {
			return nil, fmt.Errorf("%s takes no arguments", name)
		}
		return e.Read(), nil
	case BuiltinOutputNum:
		if len(args) != 1 {
			return nil, fmt.Errorf("%s takes exactly one argument", name)
		}
		e.Write(args[0])
		return nil, nil
	case BuiltinOutputNewLine:
		if len(args) != 0 {
			return nil, fmt.Errorf("%s takes no arguments", name)
		}
		e.WriteNL()
		return nil, nil
	}

	fn, ok := e.Prog.Functions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUndeclaredFunction, name)
	}
	if len(args) != len(fn.Params) {
		return nil, fmt.Errorf("function %q expects %d argument(s), got %d", name, len(fn.Params), len(args))
	}
	for _, a := range args {
		e.emit(ARG, a, nil)
	}
	call := newCallInst(e.Prog.gen, name, append([]Value(nil), args...))
	e.block.AppendCall(call)
	if fn.IsVoid {
		return nil, nil
	}
	return call, nil
}

// Return emits the function's RET instruction. v is nil for a void
// return.
func (e *Emitter) Return(v Value) {
	e.emit(RET, v, nil)
}

// End emits the program's END terminator instruction, closing main's
// body. User functions close with Return instead; only the implicit main
// function ever reaches End.
func (e *Emitter) End() {
	e.emit(END, nil, nil)
}
