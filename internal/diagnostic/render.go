package diagnostic

import (
	"github.com/fatih/color"
	"go.lsp.dev/protocol"
)

type style struct {
	severity func(Severity, string) string
	note     func(string) string
}

var plainStyle = style{
	severity: func(_ Severity, s string) string { return s },
	note:     func(s string) string { return s },
}

func colorStyle() style {
	errC := color.New(color.FgRed, color.Bold)
	warnC := color.New(color.FgYellow, color.Bold)
	infoC := color.New(color.FgCyan)
	for _, c := range []*color.Color{errC, warnC, infoC} {
		c.EnableColor()
	}
	return style{
		severity: func(sev Severity, s string) string {
			switch sev {
			case Error:
				return errC.Sprint(s)
			case Warning:
				return warnC.Sprint(s)
			}
			return infoC.Sprint(s)
		},
		note: func(s string) string { return infoC.Sprint(s) },
	}
}

// FormatColor is Format with ANSI colouring of severities and notes.
func (d *Diagnostics) FormatColor(filename string) string {
	return d.format(filename, colorStyle())
}

// LSP converts the collection for an editor client. Lines and columns are
// 1-based here and 0-based in the protocol.
func (d *Diagnostics) LSP() []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(d.items))
	for _, item := range d.items {
		line, col := zeroBased(item.Line), zeroBased(item.Column)
		msg := item.Message
		for _, rel := range item.Related {
			msg += "\n" + rel.Message
		}
		diag := protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: col},
				End:   protocol.Position{Line: line, Character: col + 1},
			},
			Severity: lspSeverity(item.Severity),
			Message:  msg,
			Source:   "relux",
		}
		if item.Code != "" {
			diag.Code = string(item.Code)
		}
		out = append(out, diag)
	}
	return out
}

func zeroBased(n int) uint32 {
	if n <= 0 {
		return 0
	}
	return uint32(n - 1)
}

func lspSeverity(s Severity) protocol.DiagnosticSeverity {
	switch s {
	case Error:
		return protocol.DiagnosticSeverityError
	case Warning:
		return protocol.DiagnosticSeverityWarning
	}
	return protocol.DiagnosticSeverityInformation
}
