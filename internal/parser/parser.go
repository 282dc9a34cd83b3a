// Package parser turns a token stream directly into SSA-form IR: there is
// no intermediate AST. Each grammar production, recognized one token at a
// time, drives the corresponding internal/ssa.Emitter call as soon as
// enough of it has been seen — recognition and emission are the same walk.
package parser

import (
	"github.com/tandf/ssac/internal/diag"
	"github.com/tandf/ssac/internal/scanner"
	"github.com/tandf/ssac/internal/ssa"
	"github.com/tandf/ssac/token"
)

// Parser recursive-descends over a fixed token slice, emitting into the
// current function's Emitter as it goes.
type Parser struct {
	file    string
	tokens  []token.Token
	current int

	names *token.Names
	prog  *ssa.Program
	em    *ssa.Emitter

	diags []diag.Diagnostic
}

// NewParser creates a Parser over tokens already produced by a scanner.
// names must be the same identifier table the scanner used.
func NewParser(file string, tokens []token.Token, names *token.Names) *Parser {
	return &Parser{file: file, tokens: tokens, names: names}
}

// Diagnostics returns every parse/semantic diagnostic accumulated during
// parseComputation, in the order encountered.
func (p *Parser) Diagnostics() []diag.Diagnostic { return p.diags }

// ParseProgram scans source and parses it in one call, returning the
// compiled Program alongside whatever diagnostics either stage produced.
func ParseProgram(file, source string) (*ssa.Program, []diag.Diagnostic) {
	names := token.NewNames()
	sc := scanner.New(file, source, names)
	tokens := sc.ScanAll()

	p := NewParser(file, tokens, names)
	prog := p.parseComputation()

	diags := append([]diag.Diagnostic(nil), p.diags...)
	for _, e := range sc.Errors() {
		diags = append(diags, diag.NewError(diag.ErrScan, e.Message, e.Position).WithLength(e.Length))
	}
	return prog, diags
}

// computation = "main" {varDecl} {funcDecl} "{" statSequence "}" "."
func (p *Parser) parseComputation() *ssa.Program {
	p.consume(token.MAIN, "expected 'main'")

	prog := ssa.NewProgram(p.names)
	p.prog = prog

	for p.check(token.VAR) || p.check(token.ARRAY) {
		p.parseGlobalVarDecl()
	}
	for p.check(token.VOID) || p.check(token.FUNCTION) {
		p.parseFuncDecl()
	}

	main := prog.DeclareFunction("main", true, nil)
	p.em = ssa.NewEmitter(prog, main)

	p.consume(token.LBRACE, "expected '{' to open main's body")
	if p.startsStatement() {
		p.parseStatSequence()
	}
	p.consume(token.RBRACE, "expected '}' to close main's body")
	p.consume(token.PERIOD, "expected '.' after main's closing brace")

	p.em.End()

	// Run once, after every function (including main) is fully emitted:
	// recomputing CSE against the complete graph avoids a match or kill
	// reached pessimistically early, before a later equivalent instruction
	// existed to match against.
	prog.InvalidateAllCSE()
	return prog
}
