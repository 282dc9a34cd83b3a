package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tandf/ssac/token"
)

func TestErrorImplementsErrorInterface(t *testing.T) {
	d := NewError(ErrUndefinedIdent, "identifier not declared", token.Position{Line: 3, Column: 5})
	var err error = d
	assert.Contains(t, err.Error(), ErrUndefinedIdent)
	assert.Contains(t, err.Error(), "identifier not declared")
}

func TestWithLengthOverridesDefaultCaretSpan(t *testing.T) {
	d := NewWarning(WarnUninitialized, "uninitialized read", token.Position{Line: 1, Column: 1})
	assert.Equal(t, 1, d.Length)
	d = d.WithLength(4)
	assert.Equal(t, 4, d.Length)
}

func TestFormatIncludesOffendingSourceLineAndCaret(t *testing.T) {
	source := "main var x;\n{\n  let y <- 1\n}."
	r := NewReporter("t.ssa", source)
	d := NewError(ErrUndefinedIdent, "identifier 'y' used but never declared", token.Position{Line: 3, Column: 7}).WithLength(1)

	out := r.Format(d)
	assert.Contains(t, out, "let y <- 1")
	assert.Contains(t, out, "t.ssa:3:7")
	assert.Contains(t, out, ErrUndefinedIdent)
}

func TestFormatAllSeparatesMultipleDiagnostics(t *testing.T) {
	r := NewReporter("t.ssa", "main {}.")
	ds := []Diagnostic{
		NewError(ErrParse, "first", token.Position{Line: 1, Column: 1}),
		NewError(ErrParse, "second", token.Position{Line: 1, Column: 2}),
	}
	out := r.FormatAll(ds)
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")
}

func TestIsWarningDistinguishesWarnCodesFromErrorCodes(t *testing.T) {
	assert.True(t, IsWarning(WarnUninitialized))
	assert.False(t, IsWarning(ErrUndefinedIdent))
}
