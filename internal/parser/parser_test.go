package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tandf/ssac/internal/diag"
	"github.com/tandf/ssac/internal/ssa"
)

func TestSimpleMainProgram(t *testing.T) {
	src := `main var x; {
		let x <- 1 + 2;
		call OutputNum(x)
	}.`
	prog, diags := ParseProgram("t.ssa", src)
	assert.Empty(t, diags)
	assert.NotNil(t, prog)

	main := prog.Functions["main"]
	assert.NotNil(t, main)

	var sawWrite bool
	for bb := main.Entry; ; bb = bb.NextBB() {
		for _, inst := range bb.Instructions {
			if inst.Op == ssa.WRITE {
				sawWrite = true
			}
		}
		if bb.NextBB() == bb {
			break
		}
	}
	assert.True(t, sawWrite, "OutputNum(x) must compile to a WRITE instruction")
}

func TestBuiltinsCompileToDedicatedOpcodes(t *testing.T) {
	src := `main var x; {
		let x <- call InputNum();
		call OutputNum(x);
		call OutputNewLine()
	}.`
	prog, diags := ParseProgram("t.ssa", src)
	assert.Empty(t, diags)

	var ops []ssa.Opcode
	main := prog.Functions["main"]
	for bb := main.Entry; ; bb = bb.NextBB() {
		for _, inst := range bb.Instructions {
			ops = append(ops, inst.Op)
		}
		if bb.NextBB() == bb {
			break
		}
	}
	assert.Contains(t, ops, ssa.READ)
	assert.Contains(t, ops, ssa.WRITE)
	assert.Contains(t, ops, ssa.WRITENL)
	for _, bb := range blocksOf(main) {
		assert.Empty(t, bb.Calls, "predeclared I/O procedures must never produce a CallInst")
	}
}

func TestIfElseInsertsJoinPhi(t *testing.T) {
	src := `main var x; {
		let x <- 0;
		if x < 1 then
			let x <- 10
		else
			let x <- 20
		fi;
		call OutputNum(x)
	}.`
	prog, diags := ParseProgram("t.ssa", src)
	assert.Empty(t, diags)

	main := prog.Functions["main"]
	assert.Len(t, main.Regions, 1)
	assert.Equal(t, "if", main.Regions[0].Name)

	var sawPhi bool
	for _, bb := range blocksOf(main) {
		if len(bb.Phis()) > 0 {
			sawPhi = true
		}
	}
	assert.True(t, sawPhi, "an if/else that reassigns x on both arms must insert a join phi")
}

func TestIfWithoutElseStillBranches(t *testing.T) {
	src := `main var x; {
		let x <- 0;
		if x < 1 then
			let x <- 10
		fi;
		call OutputNum(x)
	}.`
	prog, diags := ParseProgram("t.ssa", src)
	assert.Empty(t, diags)

	main := prog.Functions["main"]
	var sawBranch bool
	for _, bb := range blocksOf(main) {
		if bb.BranchTarget() != nil {
			sawBranch = true
		}
	}
	assert.True(t, sawBranch)
}

func TestIfEmitsARealConditionalBranchInstruction(t *testing.T) {
	src := `main var x; {
		let x <- 0;
		if x < 1 then
			let x <- 10
		fi;
		call OutputNum(x)
	}.`
	prog, diags := ParseProgram("t.ssa", src)
	assert.Empty(t, diags)

	main := prog.Functions["main"]
	var sawBLT bool
	for _, bb := range blocksOf(main) {
		for _, inst := range bb.Instructions {
			if inst.Op == ssa.BLT {
				sawBLT = true
			}
		}
	}
	assert.True(t, sawBLT, "x < 1 must compile to a real BLT instruction, not just BranchTarget metadata")
}

func TestWhileEmitsARealConditionalBranchInstruction(t *testing.T) {
	src := `main var x, n; {
		let x <- 0;
		let n <- 10;
		while x < n do
			let x <- x + 1
		od;
		call OutputNum(x)
	}.`
	prog, diags := ParseProgram("t.ssa", src)
	assert.Empty(t, diags)

	main := prog.Functions["main"]
	var sawBLT bool
	var sawBackEdgeBRA int
	for _, bb := range blocksOf(main) {
		for _, inst := range bb.Instructions {
			switch inst.Op {
			case ssa.BLT:
				sawBLT = true
			case ssa.BRA:
				sawBackEdgeBRA++
			}
		}
	}
	assert.True(t, sawBLT)
	assert.GreaterOrEqual(t, sawBackEdgeBRA, 2, "the loop back edge and the false-edge fallthrough must both be real BRA instructions")
}

func TestMainBodyEndsWithEndNotReturn(t *testing.T) {
	src := `main var x; {
		let x <- 1;
		call OutputNum(x)
	}.`
	prog, diags := ParseProgram("t.ssa", src)
	assert.Empty(t, diags)

	main := prog.Functions["main"]
	var sawEnd, sawRet bool
	for _, bb := range blocksOf(main) {
		for _, inst := range bb.Instructions {
			switch inst.Op {
			case ssa.END:
				sawEnd = true
			case ssa.RET:
				sawRet = true
			}
		}
	}
	assert.True(t, sawEnd, "main's closing brace must compile to END")
	assert.False(t, sawRet, "main never returns a value, so it must not emit RET")
}

func TestAssigningUndeclaredScalarReportsUndefinedIdent(t *testing.T) {
	src := `main {
		let y <- 1
	}.`
	_, diags := ParseProgram("t.ssa", src)
	assert.NotEmpty(t, diags)
	var sawUndefinedIdent bool
	for _, d := range diags {
		if d.Code == diag.ErrUndefinedIdent {
			sawUndefinedIdent = true
		}
	}
	assert.True(t, sawUndefinedIdent)
}

func TestCallingUndeclaredFunctionReportsUndefinedIdentNotArity(t *testing.T) {
	src := `main var x; {
		let x <- call notDeclared(1);
		call OutputNum(x)
	}.`
	_, diags := ParseProgram("t.ssa", src)
	assert.NotEmpty(t, diags)
	var sawUndefinedIdent bool
	for _, d := range diags {
		if d.Code == diag.ErrUndefinedIdent {
			sawUndefinedIdent = true
		}
		assert.NotEqual(t, diag.ErrArityMismatch, d.Code, "calling an undeclared function is not an arity mismatch")
	}
	assert.True(t, sawUndefinedIdent)
}

func TestWhileLoopInsertsHeaderPhi(t *testing.T) {
	src := `main var x, n; {
		let x <- 0;
		let n <- 10;
		while x < n do
			let x <- x + 1
		od;
		call OutputNum(x)
	}.`
	prog, diags := ParseProgram("t.ssa", src)
	assert.Empty(t, diags)

	main := prog.Functions["main"]
	assert.Len(t, main.Regions, 1)
	assert.Equal(t, "while", main.Regions[0].Name)

	var sawPhi bool
	for _, bb := range blocksOf(main) {
		if len(bb.Phis()) > 0 {
			sawPhi = true
		}
	}
	assert.True(t, sawPhi, "a while loop reassigning its condition variable must insert a header phi")
}

func TestArrayDeclareStoreLoad(t *testing.T) {
	src := `main array[3] a; {
		let a[0] <- 42;
		call OutputNum(a[0])
	}.`
	prog, diags := ParseProgram("t.ssa", src)
	assert.Empty(t, diags)

	main := prog.Functions["main"]
	var sawStore, sawLoad bool
	for _, bb := range blocksOf(main) {
		for _, inst := range bb.Instructions {
			switch inst.Op {
			case ssa.STORE:
				sawStore = true
			case ssa.LOAD:
				sawLoad = true
			}
		}
	}
	assert.True(t, sawStore)
	assert.True(t, sawLoad)
}

func TestConstantIndexOutOfBoundIsAnError(t *testing.T) {
	src := `main array[3] a; {
		call OutputNum(a[5])
	}.`
	_, diags := ParseProgram("t.ssa", src)
	assert.NotEmpty(t, diags)
}

func TestVariableIndexIsNotBoundChecked(t *testing.T) {
	src := `main var i; array[3] a; {
		let i <- 5;
		call OutputNum(a[i])
	}.`
	_, diags := ParseProgram("t.ssa", src)
	assert.Empty(t, diags, "a non-constant index cannot be checked at compile time and must not be flagged")
}

func TestWrongArrayDimensionCountIsAnError(t *testing.T) {
	src := `main array[3][3] a; {
		call OutputNum(a[0])
	}.`
	_, diags := ParseProgram("t.ssa", src)
	assert.NotEmpty(t, diags)
}

func TestRedeclaredGlobalIsAnError(t *testing.T) {
	src := `main var x, x; {
		call OutputNum(x)
	}.`
	_, diags := ParseProgram("t.ssa", src)
	assert.NotEmpty(t, diags)
}

func TestUndeclaredIdentifierIsAnError(t *testing.T) {
	src := `main {
		call OutputNum(y)
	}.`
	_, diags := ParseProgram("t.ssa", src)
	assert.NotEmpty(t, diags)
}

func TestUserFunctionCallProducesCallInst(t *testing.T) {
	src := `main var x;
	function double(n); {
		return n + n
	};
	{
		let x <- call double(21);
		call OutputNum(x)
	}.`
	prog, diags := ParseProgram("t.ssa", src)
	assert.Empty(t, diags)

	assert.Contains(t, prog.Functions, "double")
	main := prog.Functions["main"]
	var sawCall bool
	for _, bb := range blocksOf(main) {
		if len(bb.Calls) > 0 {
			sawCall = true
		}
	}
	assert.True(t, sawCall)
}

// blocksOf collects a function's basic blocks: the chain from Entry to the
// final sentinel-terminated block, plus the blocks reached only through a
// taken branch (then-arms and loop bodies), each listed once.
func blocksOf(fn *ssa.Function) []*ssa.BasicBlock {
	var out []*ssa.BasicBlock
	seen := make(map[*ssa.BasicBlock]bool)
	var visit func(bb *ssa.BasicBlock)
	visit = func(bb *ssa.BasicBlock) {
		if bb == nil || seen[bb] {
			return
		}
		seen[bb] = true
		out = append(out, bb)
		visit(bb.BranchTarget())
		if bb.NextBB() != bb {
			visit(bb.NextBB())
		}
	}
	visit(fn.Entry)
	return out
}
