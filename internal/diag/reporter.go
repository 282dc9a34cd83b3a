package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/tandf/ssac/token"
)

// Level is the severity of a Diagnostic.
type Level string

const (
	Error   Level = "error"
	Warning Level = "warning"
)

// Diagnostic is a structured compiler message: a code, a position, and the
// text shown to the user. Fatal diagnostics (Level == Error) abort
// compilation once reported; warnings are printed and compilation
// continues.
type Diagnostic struct {
	Level    Level
	Code     string
	Message  string
	Position token.Position
	Length   int // how many source characters the caret underlines
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: [%s] %s at %s", d.Level, d.Code, d.Message, d.Position)
}

// NewError builds a fatal Diagnostic at pos.
func NewError(code, message string, pos token.Position) Diagnostic {
	return Diagnostic{Level: Error, Code: code, Message: message, Position: pos, Length: 1}
}

// NewWarning builds a non-fatal Diagnostic at pos.
func NewWarning(code, message string, pos token.Position) Diagnostic {
	return Diagnostic{Level: Warning, Code: code, Message: message, Position: pos, Length: 1}
}

// WithLength overrides the default one-character caret span.
func (d Diagnostic) WithLength(n int) Diagnostic {
	d.Length = n
	return d
}

// Reporter formats Diagnostics against one source file, Rust-compiler
// style: a colored header, a `--> file:line:col` location line, the
// offending source line, and a caret underneath it.
type Reporter struct {
	filename string
	lines    []string
}

// NewReporter creates a Reporter for the given file and its source text.
func NewReporter(filename, source string) *Reporter {
	return &Reporter{filename: filename, lines: strings.Split(source, "\n")}
}

// Format renders d as a multi-line, human-readable message.
func (r *Reporter) Format(d Diagnostic) string {
	var b strings.Builder

	levelColor := color.New(color.FgRed, color.Bold).SprintFunc()
	if d.Level == Warning {
		levelColor = color.New(color.FgYellow, color.Bold).SprintFunc()
	}
	dim := color.New(color.Faint).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(&b, "%s[%s]: %s\n", levelColor(string(d.Level)), d.Code, d.Message)

	width := lineNumberWidth(d.Position.Line)
	indent := strings.Repeat(" ", width)
	fmt.Fprintf(&b, "%s %s %s:%d:%d\n", indent, dim("-->"), r.filename, d.Position.Line, d.Position.Column)
	fmt.Fprintf(&b, "%s %s\n", indent, dim("│"))

	if d.Position.Line >= 1 && d.Position.Line <= len(r.lines) {
		line := r.lines[d.Position.Line-1]
		fmt.Fprintf(&b, "%s %s %s\n", bold(pad(d.Position.Line, width)), dim("│"), line)

		col := d.Position.Column - 1
		if col < 0 {
			col = 0
		}
		length := d.Length
		if length < 1 {
			length = 1
		}
		marker := strings.Repeat(" ", col) + levelColor(strings.Repeat("^", length))
		fmt.Fprintf(&b, "%s %s %s\n", indent, dim("│"), marker)
	}

	return b.String()
}

func pad(n, width int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) < width {
		s = strings.Repeat(" ", width-len(s)) + s
	}
	return s
}

func lineNumberWidth(line int) int {
	w := len(fmt.Sprintf("%d", line))
	if w < 3 {
		w = 3
	}
	return w
}

// FormatAll renders each diagnostic in order, separated by a blank line.
func (r *Reporter) FormatAll(ds []Diagnostic) string {
	var b strings.Builder
	for _, d := range ds {
		b.WriteString(r.Format(d))
		b.WriteString("\n")
	}
	return b.String()
}
