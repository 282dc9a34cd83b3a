package parser

import (
	"strconv"

	"github.com/tandf/ssac/internal/diag"
	"github.com/tandf/ssac/internal/ssa"
	"github.com/tandf/ssac/token"
)

// typeDecl = "var" | "array" "[" number "]" {"[" number "]"}
// Returns the declared dimensions (nil for a scalar) and whether this is an
// array declaration at all.
func (p *Parser) parseTypeDecl() ([]int, bool) {
	if p.match(token.VAR) {
		return nil, false
	}
	p.consume(token.ARRAY, "expected 'var' or 'array'")

	var dims []int
	p.consume(token.LBRACKET, "expected '[' after 'array'")
	dims = append(dims, p.parseDimension())
	p.consume(token.RBRACKET, "expected ']'")
	for p.check(token.LBRACKET) {
		p.advance()
		dims = append(dims, p.parseDimension())
		p.consume(token.RBRACKET, "expected ']'")
	}
	return dims, true
}

func (p *Parser) parseDimension() int {
	tok := p.consume(token.NUMBER, "expected an array dimension")
	n, err := strconv.Atoi(tok.Lexeme)
	if err != nil || n <= 0 {
		p.semanticError(diag.ErrParse, "array dimension must be a positive integer", tok)
		return 1
	}
	return n
}

// varDecl = typeDecl ident {"," ident} ";"
func (p *Parser) parseGlobalVarDecl() {
	dims, isArray := p.parseTypeDecl()
	for {
		tok := p.consume(token.IDENT, "expected a variable name")
		id := p.identID(tok)
		var redeclared bool
		if isArray {
			redeclared = p.prog.DeclareGlobalArray(id, dims)
		} else {
			redeclared = p.prog.DeclareGlobalScalar(id)
		}
		if redeclared {
			p.semanticError(diag.ErrRedefinedIdent, "identifier '"+tok.Lexeme+"' already declared", tok)
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	p.consume(token.SEMI, "expected ';' after variable declaration")
}

func (p *Parser) parseLocalVarDecl(fn *ssa.Function) {
	dims, isArray := p.parseTypeDecl()
	for {
		tok := p.consume(token.IDENT, "expected a variable name")
		id := p.identID(tok)
		var redeclared bool
		if isArray {
			redeclared = fn.ArrayDecl(id, dims)
		} else {
			redeclared = fn.VarDecl(id)
		}
		if redeclared {
			p.semanticError(diag.ErrRedefinedIdent, "identifier '"+tok.Lexeme+"' already declared", tok)
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	p.consume(token.SEMI, "expected ';' after variable declaration")
}

// funcDecl = ["void"] "function" ident formalParam ";" funcBody ";"
func (p *Parser) parseFuncDecl() {
	isVoid := p.match(token.VOID)
	p.consume(token.FUNCTION, "expected 'function'")
	nameTok := p.consume(token.IDENT, "expected a function name")
	name := nameTok.Lexeme
	if ssa.IsBuiltin(name) {
		p.semanticError(diag.ErrRedefinedIdent, "'"+name+"' is a predeclared procedure and cannot be redefined", nameTok)
	}
	if _, exists := p.prog.Functions[name]; exists {
		p.semanticError(diag.ErrRedefinedIdent, "function '"+name+"' already declared", nameTok)
	}

	params := p.parseFormalParam()
	p.consume(token.SEMI, "expected ';' after function signature")

	fn := p.prog.DeclareFunction(name, isVoid, params)

	saved := p.em
	p.em = ssa.NewEmitter(p.prog, fn)

	for p.check(token.VAR) || p.check(token.ARRAY) {
		p.parseLocalVarDecl(fn)
	}
	p.consume(token.LBRACE, "expected '{' to open function body")
	if p.startsStatement() {
		p.parseStatSequence()
	}
	p.consume(token.RBRACE, "expected '}' to close function body")
	p.consume(token.SEMI, "expected ';' after function body")

	if isVoid {
		p.em.Return(nil)
	}
	p.em = saved
}

// formalParam = "(" [ident {"," ident}] ")"
func (p *Parser) parseFormalParam() []token.IdentID {
	p.consume(token.LPAREN, "expected '(' to open the parameter list")
	var params []token.IdentID
	if !p.check(token.RPAREN) {
		for {
			tok := p.consume(token.IDENT, "expected a parameter name")
			params = append(params, p.identID(tok))
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "expected ')' to close the parameter list")
	return params
}
