package ssa

import "github.com/tandf/ssac/token"

// Opcode is the closed instruction set of the IR.
type Opcode int

const (
	ADD Opcode = iota
	SUB
	MUL
	DIV

	CMP

	ADDA

	LOAD
	STORE

	PHI

	END
	BRA
	BNE
	BEQ
	BLE
	BLT
	BGE
	BGT

	READ
	WRITE
	WRITENL

	CALL
	ARG
	RET

	NOP
	EMPTY
)

var opcodeNames = map[Opcode]string{
	ADD: "add", SUB: "sub", MUL: "mul", DIV: "div", CMP: "cmp", ADDA: "adda",
	LOAD: "load", STORE: "store", PHI: "phi",
	END: "end", BRA: "bra", BNE: "bne", BEQ: "beq", BLE: "ble", BLT: "blt", BGE: "bge", BGT: "bgt",
	READ: "read", WRITE: "write", WRITENL: "writeNL",
	CALL: "call", ARG: "arg", RET: "ret",
	NOP: "nop", EMPTY: "empty",
}

func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return "?"
}

// Commutative holds the opcodes whose operand order does not matter for
// common-subexpression matching.
var Commutative = map[Opcode]bool{ADD: true, MUL: true}

// IO holds the three built-in I/O opcodes, which are never CSE-eliminated
// or chained.
var IO = map[Opcode]bool{READ: true, WRITE: true, WRITENL: true}

// Branch holds every control-transfer opcode, which — like IO and PHI —
// is never searched for or inserted into a CSE chain.
var Branch = map[Opcode]bool{
	END: true, BRA: true, BNE: true, BEQ: true, BLE: true, BLT: true, BGE: true, BGT: true,
}

// Mem holds the two memory opcodes subject to store/load kill tracking.
var Mem = map[Opcode]bool{LOAD: true, STORE: true}

// Func holds the procedure-call-family opcodes.
var Func = map[Opcode]bool{CALL: true, ARG: true, RET: true}

// noCSE is the blacklist of opcodes that never participate in CSE
// bookkeeping at all.
func noCSE(op Opcode) bool {
	return IO[op] || Branch[op] || op == PHI || op == NOP || op == EMPTY
}

// RelOp is one of the six source-language relational tokens.
type RelOp int

const (
	RelEQ RelOp = iota
	RelNE
	RelLT
	RelGE
	RelLE
	RelGT
)

// branchOpcode maps a relational operator to the opcode used to branch to
// the "true" target of the relation it tests: == != < >= <= > map
// deterministically to BEQ BNE BLT BGE BLE BGT.
var branchOpcode = map[RelOp]Opcode{
	RelEQ: BEQ, RelNE: BNE, RelLT: BLT, RelGE: BGE, RelLE: BLE, RelGT: BGT,
}

// BranchOpcode returns the opcode used when branching on rel holding true.
func (rel RelOp) BranchOpcode() Opcode { return branchOpcode[rel] }

// RelOpFromToken converts a scanned relational token into a RelOp. ok is
// false if k is not a relational token kind.
func RelOpFromToken(k token.Kind) (RelOp, bool) {
	switch k {
	case token.EQ:
		return RelEQ, true
	case token.NEQ:
		return RelNE, true
	case token.LT:
		return RelLT, true
	case token.GE:
		return RelGE, true
	case token.LE:
		return RelLE, true
	case token.GT:
		return RelGT, true
	default:
		return 0, false
	}
}
