package diagnostic

import (
	"strings"
	"testing"

	"go.lsp.dev/protocol"
)

func TestReportfSeverity(t *testing.T) {
	d := New()
	d.Reportf(MappingGap, 1, 2, "no mapping for %s", "Foo.bar")
	if d.HasErrors() {
		t.Fatal("MappingGap should be a warning")
	}
	mm := d.Reportf(TypeMismatch, 7, 9, "property %s changed type", "__mark")
	mm.Related = append(mm.Related, Location{Line: 3, Column: 9, Message: "first assigned here"})
	if !d.HasErrors() || d.ErrorCount() != 1 || d.WarningCount() != 1 {
		t.Fatalf("counts: errors=%d warnings=%d", d.ErrorCount(), d.WarningCount())
	}
	if got := d.WithCode(TypeMismatch); len(got) != 1 || len(got[0].Related) != 1 {
		t.Fatalf("WithCode(TypeMismatch) = %+v", got)
	}
}

func TestFormat(t *testing.T) {
	d := New()
	mm := d.Reportf(TypeMismatch, 7, 9, "property __mark changed type")
	mm.Related = []Location{{Line: 3, Column: 9, Message: "first assigned here"}}
	mm.Hint = "use one payload type per property"
	d.Warningf(1, 1, "plain")

	out := d.Format("marker.yaml")
	want := "error[TypeMismatch][marker.yaml:7:9]: property __mark changed type\n" +
		"  note[marker.yaml:3:9]: first assigned here\n" +
		"  hint: use one payload type per property\n" +
		"warning[marker.yaml:1:1]: plain"
	if out != want {
		t.Errorf("Format:\n%s\nwant:\n%s", out, want)
	}

	colored := d.FormatColor("marker.yaml")
	if !strings.Contains(colored, "\x1b[") {
		t.Errorf("FormatColor produced no escape codes: %q", colored)
	}
}

func TestLSP(t *testing.T) {
	d := New()
	d.Reportf(InvalidTarget, 4, 5, "cannot attach __n to i32")
	d.Reportf(MappingGap, 0, 0, "gap")
	got := d.LSP()
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Range.Start.Line != 3 || got[0].Range.Start.Character != 4 {
		t.Errorf("range = %+v", got[0].Range)
	}
	if got[0].Severity != protocol.DiagnosticSeverityError || got[1].Severity != protocol.DiagnosticSeverityWarning {
		t.Errorf("severities = %v, %v", got[0].Severity, got[1].Severity)
	}
	if got[0].Code != "InvalidTarget" {
		t.Errorf("code = %v", got[0].Code)
	}
}
