// Package dot renders a compiled ssa.Program as Graphviz DOT source: one
// cluster subgraph per SuperBlock, one node per BasicBlock listing its
// instructions, branch edges styled differently from fall-through edges.
// The rendered text is meant to be piped to the external `dot` binary;
// invoking that binary is outside this package's job.
package dot

import (
	"fmt"
	"strings"

	"github.com/tandf/ssac/internal/ssa"
)

// Printer accumulates DOT source in a small indent-tracking
// strings.Builder wrapper.
type Printer struct {
	indent int
	out    strings.Builder
}

func newPrinter() *Printer { return &Printer{} }

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.out.WriteString(strings.Repeat("  ", p.indent))
	fmt.Fprintf(&p.out, format, args...)
	p.out.WriteString("\n")
}

// Render returns the DOT source for prog: one subgraph per function, with
// a nested cluster per if/while region and an edge set distinguishing
// taken branches (dashed) from fall-through/ordinary successors (solid).
func Render(prog *ssa.Program) string {
	p := newPrinter()
	p.writeLine("digraph ssac {")
	p.indent++
	p.writeLine(`node [shape=box, fontname="monospace"];`)

	for _, name := range prog.FuncOrder {
		fn := prog.Functions[name]
		p.renderFunction(fn)
	}

	p.indent--
	p.writeLine("}")
	return p.out.String()
}

func (p *Printer) renderFunction(fn *ssa.Function) {
	p.writeLine("subgraph cluster_%s {", sanitize(fn.Name))
	p.indent++
	p.writeLine("label = %q;", fn.Name)

	clustered := make(map[*ssa.BasicBlock]bool)
	for i, region := range fn.Regions {
		p.renderRegion(fmt.Sprintf("%s_r%d", fn.Name, i), region, clustered)
	}

	for bb := fn.Entry; ; bb = bb.NextBB() {
		if !clustered[bb] {
			p.renderBlock(bb)
		}
		if bb.NextBB() == bb {
			break
		}
	}

	p.indent--
	p.writeLine("}")

	p.renderEdges(fn)
}

// renderRegion emits one cluster subgraph per SuperBlock, walking its
// blocks via the .next chain between Head and Tail.
func (p *Printer) renderRegion(name string, region *ssa.SuperBlock, clustered map[*ssa.BasicBlock]bool) {
	p.writeLine("subgraph cluster_%s {", sanitize(name))
	p.indent++
	p.writeLine(`label = %q; style=dashed;`, region.Name)
	for bb := region.FirstBB(); ; bb = bb.NextBB() {
		p.renderBlock(bb)
		clustered[bb] = true
		if bb == region.LastBB() {
			break
		}
	}
	p.indent--
	p.writeLine("}")
}

func (p *Printer) renderBlock(bb *ssa.BasicBlock) {
	var lines []string
	for _, phi := range bb.Phis() {
		lines = append(lines, phi.String())
	}
	for _, inst := range bb.Instructions {
		lines = append(lines, inst.String())
	}
	for _, call := range bb.Calls {
		lines = append(lines, call.String())
	}
	label := bb.Label + "\\n" + strings.Join(lines, "\\n")
	p.writeLine("%s [label=%q];", nodeID(bb), label)
}

// renderEdges walks a function's blocks once along the .next chain,
// emitting one dashed edge per taken branch and one solid edge per
// fall-through successor.
func (p *Printer) renderEdges(fn *ssa.Function) {
	for bb := fn.Entry; ; bb = bb.NextBB() {
		if target := bb.BranchTarget(); target != nil {
			p.writeLine("%s -> %s [style=dashed, label=%q];", nodeID(bb), nodeID(target), bb.TakenOn.String())
		}
		if next := bb.NextBB(); next != bb {
			p.writeLine("%s -> %s [style=solid];", nodeID(bb), nodeID(next))
		} else {
			break
		}
	}
}

func nodeID(bb *ssa.BasicBlock) string {
	return fmt.Sprintf("blk_%p", bb)
}

func sanitize(s string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(s)
}
