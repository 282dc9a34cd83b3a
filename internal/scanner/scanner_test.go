package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tandf/ssac/token"
)

func scanKinds(t *testing.T, src string) []token.Kind {
	t.Helper()
	names := token.NewNames()
	s := New("test.txt", src, names)
	toks := s.ScanAll()
	assert.Empty(t, s.Errors(), "expected no scan errors")
	var kinds []token.Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	return kinds
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	kinds := scanKinds(t, "main var array function void if then else fi while do od let call return foo")
	expected := []token.Kind{
		token.MAIN, token.VAR, token.ARRAY, token.FUNCTION, token.VOID,
		token.IF, token.THEN, token.ELSE, token.FI,
		token.WHILE, token.DO, token.OD, token.LET, token.CALL, token.RETURN,
		token.IDENT, token.EOF,
	}
	assert.Equal(t, expected, kinds)
}

func TestOperatorsAndPunctuation(t *testing.T) {
	kinds := scanKinds(t, "+ - * / <- == != < <= > >= ( ) { } [ ] , ; .")
	expected := []token.Kind{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.ASSIGN,
		token.EQ, token.NEQ, token.LT, token.LE, token.GT, token.GE,
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.LBRACKET, token.RBRACKET, token.COMMA, token.SEMI, token.PERIOD,
		token.EOF,
	}
	assert.Equal(t, expected, kinds)
}

func TestNumbers(t *testing.T) {
	names := token.NewNames()
	s := New("t", "42 0 12345", names)
	toks := s.ScanAll()
	assert.Empty(t, s.Errors())
	assert.Equal(t, "42", toks[0].Lexeme)
	assert.Equal(t, "0", toks[1].Lexeme)
	assert.Equal(t, "12345", toks[2].Lexeme)
}

func TestLineCommentsAreSkipped(t *testing.T) {
	kinds := scanKinds(t, "let x <- 1 // trailing remark\n; let y <- 2")
	assert.Contains(t, kinds, token.LET)
	assert.Contains(t, kinds, token.ASSIGN)
}

func TestSameIdentifierSharesOneID(t *testing.T) {
	names := token.NewNames()
	s := New("t", "foo bar foo", names)
	toks := s.ScanAll()
	assert.Empty(t, s.Errors())

	id1 := s.AddName(toks[0].Lexeme)
	id2 := s.AddName(toks[1].Lexeme)
	id3 := s.AddName(toks[2].Lexeme)

	assert.Equal(t, id1, id3, "repeated name must resolve to the same id")
	assert.NotEqual(t, id1, id2)
}

func TestMalformedCharacterReportsError(t *testing.T) {
	names := token.NewNames()
	s := New("t", "let x <- 1 $ 2", names)
	s.ScanAll()
	assert.NotEmpty(t, s.Errors())
}

func TestPositionsTrackLineAndColumn(t *testing.T) {
	names := token.NewNames()
	s := New("t", "let x\n<- 1", names)
	toks := s.ScanAll()
	assert.Empty(t, s.Errors())
	assert.Equal(t, 1, toks[0].Position.Line)
	assert.Equal(t, 2, toks[2].Position.Line) // "<-"
}
