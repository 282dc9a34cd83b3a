package lspserver

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/tandf/ssac/internal/diag"
)

// ConvertErrors maps this compiler's unified diagnostic kind (scan errors,
// parse errors, and semantic errors/warnings alike) onto LSP Diagnostics —
// the one conversion the teacher split into ConvertParseErrors and
// ConvertScanErrors, collapsed here because diag.Diagnostic already unifies
// every source of a compiler message.
func ConvertErrors(ds []diag.Diagnostic) []protocol.Diagnostic {
	var out []protocol.Diagnostic
	for _, d := range ds {
		length := d.Length
		if length < 1 {
			length = 1
		}
		severity := protocol.DiagnosticSeverityError
		if d.Level == diag.Warning {
			severity = protocol.DiagnosticSeverityWarning
		}
		line := uint32(0)
		if d.Position.Line > 0 {
			line = uint32(d.Position.Line - 1)
		}
		col := uint32(0)
		if d.Position.Column > 0 {
			col = uint32(d.Position.Column - 1)
		}
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: col},
				End:   protocol.Position{Line: line, Character: col + uint32(length)},
			},
			Severity: &severity,
			Source:   ptrString("ssac"),
			Message:  "[" + d.Code + "] " + d.Message,
		})
	}
	return out
}

func ptrString(s string) *string { return &s }
