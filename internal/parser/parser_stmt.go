package parser

import (
	"github.com/tandf/ssac/internal/ssa"
	"github.com/tandf/ssac/token"
)

// statSequence = statement {";" statement} [";"]
func (p *Parser) parseStatSequence() {
	p.parseStatement()
	for p.check(token.SEMI) {
		p.advance()
		if !p.startsStatement() {
			// trailing ";" immediately before the construct's closing
			// keyword/brace
			return
		}
		p.parseStatement()
	}
}

// statement = assignment | funcCall | ifStatement | whileStatement | returnStatement
func (p *Parser) parseStatement() {
	switch p.peek().Kind {
	case token.LET:
		p.parseAssignment()
	case token.CALL:
		p.parseFuncCall()
	case token.IF:
		p.parseIfStatement()
	case token.WHILE:
		p.parseWhileStatement()
	case token.RETURN:
		p.parseReturnStatement()
	default:
		p.errorAtCurrent("expected a statement")
		p.synchronize()
	}
}

// assignment = "let" designator "<-" expression
func (p *Parser) parseAssignment() {
	p.consume(token.LET, "expected 'let'")
	d := p.parseDesignator()
	p.consume(token.ASSIGN, "expected '<-'")
	v := p.parseExpression()
	p.assignDesignator(d, v)
}

// ifStatement = "if" relation "then" statSequence ["else" statSequence] "fi"
//
// The relation block always ends with two branches: the conditional branch
// into the then-arm and a BRA for the false edge (to the else-arm, or to
// the join when there is no else-arm). The then-arm's jump around the
// else-arm is emitted only when an else-arm is present.
func (p *Parser) parseIfStatement() {
	p.consume(token.IF, "expected 'if'")
	ib := p.em.BeginIf()
	rel, cmp := p.parseRelation()
	ib.BranchOn(rel, cmp)

	p.consume(token.THEN, "expected 'then'")
	ib.BeginThen()
	p.parseStatSequence()

	if p.match(token.ELSE) {
		ib.Else()
		p.parseStatSequence()
	}
	p.consume(token.FI, "expected 'fi'")
	ib.End()
}

// whileStatement = "while" relation "do" statSequence "od"
func (p *Parser) parseWhileStatement() {
	p.consume(token.WHILE, "expected 'while'")
	wb := p.em.BeginWhile()
	rel, cmp := p.parseRelation()
	wb.BranchOn(rel, cmp)

	p.consume(token.DO, "expected 'do'")
	wb.BeginBody()
	p.parseStatSequence()
	p.consume(token.OD, "expected 'od'")
	wb.End()
}

// returnStatement = "return" [expression]
func (p *Parser) parseReturnStatement() {
	p.consume(token.RETURN, "expected 'return'")
	if p.startsExpression() {
		p.em.Return(p.parseExpression())
		return
	}
	p.em.Return(nil)
}

// relation = expression relOp expression
func (p *Parser) parseRelation() (ssa.RelOp, ssa.Value) {
	x := p.parseExpression()
	opTok := p.advance()
	rel, ok := ssa.RelOpFromToken(opTok.Kind)
	if !ok {
		p.errorAt(opTok, "expected a relational operator")
		rel = ssa.RelEQ
	}
	y := p.parseExpression()
	cmp := p.em.Relation(x, y)
	return rel, cmp
}
