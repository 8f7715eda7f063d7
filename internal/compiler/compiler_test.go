package compiler

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lhaig/relux/internal/ast"
	"github.com/lhaig/relux/internal/backend"
	"github.com/lhaig/relux/internal/diagnostic"
	"github.com/lhaig/relux/internal/ir"
	"github.com/lhaig/relux/internal/mapping"
)

const markerDump = `
decls:
  - kind: plugin
    name: Marker
    line: 1
    col: 1
    items:
      - kind: fn
        name: visit_identifier
        line: 2
        col: 5
        params: [{name: self}, {name: node, type: Identifier, mut: true}]
        body:
          - kind: prop_assign
            line: 3
            col: 9
            node: {kind: ident, name: node}
            prop: __mark
            init: {kind: bool, value: true}
`

const conflictDump = `
decls:
  - kind: plugin
    name: Marker
    line: 1
    col: 1
    items:
      - kind: fn
        name: visit_identifier
        line: 2
        col: 5
        params: [{name: self}, {name: node, type: Identifier, mut: true}]
        body:
          - kind: prop_assign
            line: 3
            col: 9
            node: {kind: ident, name: node}
            prop: __mark
            init: {kind: bool, value: true}
          - kind: prop_assign
            line: 4
            col: 9
            node: {kind: ident, name: node}
            prop: __mark
            init: {kind: str, value: "x"}
`

func decode(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := ast.Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return prog
}

func setup(t *testing.T, name string) (backend.Backend, *mapping.Tables) {
	t.Helper()
	be, err := backend.Lookup(name)
	if err != nil {
		t.Fatal(err)
	}
	tables, err := LoadTables(name, nil)
	if err != nil {
		t.Fatal(err)
	}
	return be, tables
}

func TestCompileValidProgram(t *testing.T) {
	tests := []struct {
		backend string
		want    []string
	}{
		{"swc", []string{"impl VisitMut for Marker {", "fn visit_mut_ident(&mut self, node: &mut Ident)", `self.set_custom_prop(&*node, "__mark", CustomPropValue::Bool(true));`}},
		{"babel", []string{"module.exports = function ({ types: t }) {", "Identifier(path) {", "node.__mark = true;"}},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			be, tables := setup(t, tt.backend)
			res, err := Compile(decode(t, markerDump), be, tables, Options{})
			if err != nil {
				t.Fatal(err)
			}
			if res.Diagnostics.HasErrors() {
				t.Fatalf("Expected no errors, got:\n%s", res.Diagnostics.Format("test"))
			}
			for _, w := range tt.want {
				if !strings.Contains(res.Output, w) {
					t.Errorf("Expected output to contain %q\n%s", w, res.Output)
				}
			}
			if res.Decorated == nil || res.Rewritten == nil {
				t.Error("Expected intermediate trees to be kept")
			}
			if len(res.Props) != 1 || res.Props[0].Name != "__mark" || res.Props[0].Kinds[0] != "Identifier" {
				t.Errorf("Expected __mark on Identifier, got %+v", res.Props)
			}
		})
	}
}

func TestCompileDiagnosticsStopBeforeEmit(t *testing.T) {
	be, tables := setup(t, "swc")
	res, err := Compile(decode(t, conflictDump), be, tables, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Diagnostics.HasErrors() {
		t.Fatal("Expected a type mismatch")
	}
	if got := res.Diagnostics.WithCode(diagnostic.TypeMismatch); len(got) != 1 {
		t.Errorf("Expected one TypeMismatch, got %d", len(got))
	}
	if res.Output != "" || res.Rewritten != nil {
		t.Error("Expected no output on decoration errors")
	}
}

func TestCompileRejectsMismatchedTables(t *testing.T) {
	be, _ := setup(t, "babel")
	_, tables := setup(t, "swc")
	if _, err := Compile(decode(t, markerDump), be, tables, Options{}); err == nil {
		t.Fatal("Expected an error for swc tables with the babel backend")
	}
}

type brokenBackend struct{ backend.Backend }

func (brokenBackend) Generate(*ir.Program) string {
	ir.Failf("test", "boom")
	return ""
}

func TestCompileRecoversInvariantErrors(t *testing.T) {
	be, tables := setup(t, "swc")
	_, err := Compile(decode(t, markerDump), brokenBackend{be}, tables, Options{})
	var inv *ir.InvariantError
	if !errors.As(err, &inv) {
		t.Fatalf("Expected *ir.InvariantError, got %v", err)
	}
	if inv.Stage != "test" {
		t.Errorf("stage = %q", inv.Stage)
	}
}

func TestCompileLogsStages(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	be, tables := setup(t, "babel")
	if _, err := Compile(decode(t, markerDump), be, tables, Options{Logger: log}); err != nil {
		t.Fatal(err)
	}
	for _, stage := range []string{"msg=decorate", "msg=rewrite", "msg=emit", "backend=babel"} {
		if !strings.Contains(buf.String(), stage) {
			t.Errorf("Expected log to contain %q\n%s", stage, buf.String())
		}
	}
}

func TestCheck(t *testing.T) {
	_, tables := setup(t, "babel")
	if diags := Check(decode(t, markerDump), tables); diags.HasErrors() {
		t.Errorf("Expected no errors, got:\n%s", diags.Format("test"))
	}
	if diags := Check(decode(t, conflictDump), tables); !diags.HasErrors() {
		t.Error("Expected check errors")
	}
}

func TestLoadTablesOverlay(t *testing.T) {
	dir := t.TempDir()
	overlay := filepath.Join(dir, "overlay.yaml")
	if err := os.WriteFile(overlay, []byte("types:\n  Str: MyString\n"), 0644); err != nil {
		t.Fatal(err)
	}
	tables, err := LoadTables("swc", []string{overlay})
	if err != nil {
		t.Fatal(err)
	}
	if tables.Types["Str"] != "MyString" {
		t.Errorf("Str = %q", tables.Types["Str"])
	}
	if _, err := LoadTables("swc", []string{filepath.Join(dir, "missing.yaml")}); err == nil {
		t.Error("Expected an error for a missing overlay")
	}
	if _, err := LoadTables("wasm", nil); err == nil {
		t.Error("Expected an error for an unknown backend")
	}
}

func TestEmitToTargetCreatesFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "marker.yaml")
	if err := os.WriteFile(in, []byte(markerDump), 0644); err != nil {
		t.Fatal(err)
	}

	out, _, err := EmitToTarget(in, "babel", "", nil, Options{})
	if err != nil {
		t.Fatalf("EmitToTarget failed: %v", err)
	}
	if out != filepath.Join(dir, "marker.js") {
		t.Errorf("out = %s", out)
	}
	content, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Expected output file to exist: %v", err)
	}
	if !strings.Contains(string(content), "node.__mark = true;") {
		t.Errorf("unexpected output:\n%s", content)
	}

	bad := filepath.Join(dir, "conflict.yaml")
	if err := os.WriteFile(bad, []byte(conflictDump), 0644); err != nil {
		t.Fatal(err)
	}
	if _, res, err := EmitToTarget(bad, "swc", "", nil, Options{}); err == nil || res == nil {
		t.Error("Expected compilation errors with a result")
	}
	if _, err := os.Stat(filepath.Join(dir, "conflict.rs")); !os.IsNotExist(err) {
		t.Error("Expected no output file on errors")
	}
}

func TestOutputPath(t *testing.T) {
	swc, _ := backend.Lookup("swc")
	tests := []struct{ in, base, want string }{
		{"a/b.yaml", "", "a/b.rs"},
		{"a/b.yaml", "out/c", "out/c.rs"},
		{"a/b.yaml", "out/c.rs", "out/c.rs"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.in, tt.base, swc); got != tt.want {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tt.in, tt.base, got, tt.want)
		}
	}
}
