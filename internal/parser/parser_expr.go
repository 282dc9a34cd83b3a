package parser

import (
	"errors"
	"strconv"

	"github.com/tandf/ssac/internal/diag"
	"github.com/tandf/ssac/internal/ssa"
	"github.com/tandf/ssac/token"
)

// indexExpr is one "[" expression "]" of a designator: the emitted value,
// plus — when the index was a bare number literal — the token and integer
// it came from, so a constant index can be checked against the array's
// declared bound before any address arithmetic is emitted for it.
type indexExpr struct {
	value   ssa.Value
	isConst bool
	constN  int
	tok     token.Token
}

// designator names a scalar or array reference: a bare identifier for a
// scalar, an identifier followed by one "[" expression "]" per dimension
// for an array element.
type designator struct {
	tok     token.Token
	id      token.IdentID
	indices []indexExpr
}

// designator = ident {"[" expression "]"}
func (p *Parser) parseDesignator() designator {
	tok := p.consume(token.IDENT, "expected an identifier")
	d := designator{tok: tok, id: p.identID(tok)}
	for p.match(token.LBRACKET) {
		start := p.current
		startTok := p.peek()
		v := p.parseExpression()

		idx := indexExpr{value: v, tok: startTok}
		if p.current-start == 1 && startTok.Kind == token.NUMBER {
			if n, err := strconv.Atoi(startTok.Lexeme); err == nil {
				idx.isConst, idx.constN = true, n
			}
		}
		d.indices = append(d.indices, idx)
		p.consume(token.RBRACKET, "expected ']'")
	}
	return d
}

// checkBounds reports an ErrConstOOBIndex diagnostic for every index of d
// that is a bare literal outside the array's declared dimension, and
// reports whether d's indices are all in bounds (a non-constant index is
// never checked — only its runtime value, which the compiler cannot see,
// would determine that).
func (p *Parser) checkBounds(d designator) bool {
	dims, ok := p.em.ArrayDims(d.id)
	if !ok || len(dims) != len(d.indices) {
		return true
	}
	inBounds := true
	for k, idx := range d.indices {
		if idx.isConst && (idx.constN < 0 || idx.constN >= dims[k]) {
			p.semanticError(diag.ErrConstOOBIndex,
				"array index out of bounds: dimension has size "+strconv.Itoa(dims[k])+", got "+strconv.Itoa(idx.constN),
				idx.tok)
			inBounds = false
		}
	}
	return inBounds
}

func (d designator) values() []ssa.Value {
	vals := make([]ssa.Value, len(d.indices))
	for i, idx := range d.indices {
		vals[i] = idx.value
	}
	return vals
}

func (p *Parser) readDesignator(d designator) ssa.Value {
	if len(d.indices) > 0 {
		p.checkBounds(d)
		v, err := p.em.ReadArray(d.id, d.values())
		if err != nil {
			p.semanticError(diag.ErrArrayDimension, err.Error(), d.tok)
			return p.em.Number(0)
		}
		return v
	}
	v, defaulted, err := p.em.ReadScalar(d.id)
	if err != nil {
		p.semanticError(diag.ErrUndefinedIdent, err.Error(), d.tok)
		return p.em.Number(0)
	}
	if defaulted {
		p.warnAt(diag.WarnUninitialized, "'"+d.tok.Lexeme+"' read before any assignment reaches it; defaulting to 0", d.tok)
	}
	return v
}

func (p *Parser) assignDesignator(d designator, v ssa.Value) {
	if len(d.indices) > 0 {
		p.checkBounds(d)
		if err := p.em.StoreArray(d.id, d.values(), v); err != nil {
			p.semanticError(diag.ErrArrayDimension, err.Error(), d.tok)
		}
		return
	}
	if _, err := p.em.AssignScalar(d.id, v); err != nil {
		p.semanticError(diag.ErrUndefinedIdent, err.Error(), d.tok)
	}
}

// funcCall = "call" ident [ "(" [expression {"," expression}] ")" ]
func (p *Parser) parseFuncCall() ssa.Value {
	p.consume(token.CALL, "expected 'call'")
	nameTok := p.consume(token.IDENT, "expected a function name")

	var args []ssa.Value
	if p.match(token.LPAREN) {
		if !p.check(token.RPAREN) {
			args = append(args, p.parseExpression())
			for p.match(token.COMMA) {
				args = append(args, p.parseExpression())
			}
		}
		p.consume(token.RPAREN, "expected ')'")
	}

	v, err := p.em.Call(nameTok.Lexeme, args)
	if err != nil {
		code := diag.ErrArityMismatch
		if errors.Is(err, ssa.ErrUndeclaredFunction) {
			code = diag.ErrUndefinedIdent
		}
		p.semanticError(code, err.Error(), nameTok)
		return p.em.Number(0)
	}
	return v
}

// expression = term {("+"|"-") term}
func (p *Parser) parseExpression() ssa.Value {
	v := p.parseTerm()
	for p.check(token.PLUS) || p.check(token.MINUS) {
		op := p.advance()
		rhs := p.parseTerm()
		if op.Kind == token.PLUS {
			v = p.em.Add(v, rhs)
		} else {
			v = p.em.Sub(v, rhs)
		}
	}
	return v
}

// term = factor {("*"|"/") factor}
func (p *Parser) parseTerm() ssa.Value {
	v := p.parseFactor()
	for p.check(token.STAR) || p.check(token.SLASH) {
		op := p.advance()
		rhs := p.parseFactor()
		if op.Kind == token.STAR {
			v = p.em.Mul(v, rhs)
		} else {
			v = p.em.Div(v, rhs)
		}
	}
	return v
}

// factor = designator | number | "(" expression ")" | funcCall
func (p *Parser) parseFactor() ssa.Value {
	switch p.peek().Kind {
	case token.NUMBER:
		tok := p.advance()
		n, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			p.errorAt(tok, "malformed number literal")
			n = 0
		}
		return p.em.Number(n)
	case token.LPAREN:
		p.advance()
		v := p.parseExpression()
		p.consume(token.RPAREN, "expected ')'")
		return v
	case token.CALL:
		return p.parseFuncCall()
	case token.IDENT:
		return p.readDesignator(p.parseDesignator())
	default:
		p.errorAtCurrent("expected an expression")
		return p.em.Number(0)
	}
}
