package ssa

import (
	"fmt"
	"strings"
)

// Dump renders prog as the human-readable instruction listing: one
// section per function, one line per block header, one line per
// instruction via Inst.String()'s `id: op [operand_ids] [cs: id]` form.
// Blocks are listed along each function's .next chain from its entry
// block; a then-arm or loop body, entered only by a taken branch and not on
// that chain, is not listed.
// Used by the CLI's verbose mode and by tests asserting on emitted shape.
func Dump(prog *Program) string {
	var b strings.Builder
	for _, name := range prog.FuncOrder {
		dumpFunction(&b, prog.Functions[name])
	}
	return b.String()
}

func dumpFunction(b *strings.Builder, fn *Function) {
	fmt.Fprintf(b, "function %s:\n", fn.Name)
	for bb := fn.Entry; ; bb = bb.NextBB() {
		dumpBlock(b, bb)
		if bb.NextBB() == bb {
			break
		}
	}
}

func dumpBlock(b *strings.Builder, bb *BasicBlock) {
	fmt.Fprintf(b, "  %s:\n", bb.Label)
	for _, phi := range bb.Phis() {
		fmt.Fprintf(b, "    %s\n", phi.String())
	}
	for _, inst := range bb.Instructions {
		fmt.Fprintf(b, "    %s\n", inst.String())
	}
	for _, call := range bb.Calls {
		fmt.Fprintf(b, "    %s\n", call.String())
	}
	if target := bb.BranchTarget(); target != nil {
		fmt.Fprintf(b, "    -> %s on %s\n", target.Label, bb.TakenOn)
	}
}
