package ast

import (
	"strings"
	"testing"
)

const markerDump = `
uses: [swc]
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
        params: [{name: node, type: Identifier, mut: true}]
        body:
          - kind: prop_assign
            line: 3
            col: 9
            node: {kind: ident, name: node}
            prop: __mark
            init: {kind: bool, value: true}
          - kind: if
            cond: {kind: prop, node: {kind: ident, name: node}, prop: __mark}
            pattern: {kind: variant, path: [Some], args: [{kind: bind, name: m}]}
            then:
              - kind: return
            else: []
`

func TestDecodeProgram(t *testing.T) {
	prog, err := Decode([]byte(markerDump))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(prog.Uses) != 1 || prog.Uses[0].Path != "swc" {
		t.Fatalf("uses = %+v", prog.Uses)
	}
	plugin, ok := prog.Decls[0].(*PluginDecl)
	if !ok {
		t.Fatalf("expected *PluginDecl, got %T", prog.Decls[0])
	}
	if plugin.Name != "Marker" || plugin.IsWriter {
		t.Errorf("plugin = %s writer=%v", plugin.Name, plugin.IsWriter)
	}
	fn := plugin.Items[0].(*FnDecl)
	if fn.Params[0].Type.Name != "Identifier" || !fn.Params[0].Mutable {
		t.Errorf("param = %+v", fn.Params[0])
	}
	set := fn.Body.Statements[0].(*PropAssignStmt)
	if line, col := set.Pos(); line != 3 || col != 9 {
		t.Errorf("pos = %d:%d", line, col)
	}
	if b, ok := set.Value.(*BoolLit); !ok || !b.Value {
		t.Errorf("value = %#v", set.Value)
	}
	ifs := fn.Body.Statements[1].(*IfStmt)
	if vp, ok := ifs.Pattern.(*VariantPattern); !ok || vp.Name() != "Some" {
		t.Errorf("pattern = %#v", ifs.Pattern)
	}
	if ifs.Else == nil || len(ifs.Else.Statements) != 0 {
		t.Errorf("expected empty else block, got %#v", ifs.Else)
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := Decode([]byte("decls:\n  - kind: bogus\n    line: 4\n    col: 2\n"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "4:2") || !strings.Contains(err.Error(), "bogus") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want string
		args int
	}{
		{"Str", "Str", 0},
		{"Option<Str>", "Option<Str>", 1},
		{"HashMap<Str, Vec<i32>>", "HashMap<Str, Vec<i32>>", 2},
		{" Vec< Identifier > ", "Vec<Identifier>", 1},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		if err != nil {
			t.Errorf("ParseType(%q): %v", tt.in, err)
			continue
		}
		if got.String() != tt.want || len(got.TypeArgs) != tt.args {
			t.Errorf("ParseType(%q) = %s (%d args), want %s (%d args)", tt.in, got, len(got.TypeArgs), tt.want, tt.args)
		}
	}

	for _, bad := range []string{"", "Option<", "Vec<Str,>", "A B"} {
		if _, err := ParseType(bad); err == nil {
			t.Errorf("ParseType(%q): expected error", bad)
		}
	}
}

func TestPrint(t *testing.T) {
	prog, err := Decode([]byte(markerDump))
	if err != nil {
		t.Fatal(err)
	}
	out := Print(prog)
	for _, want := range []string{"Plugin: Marker", "Fn: visit_identifier", "PropAssign: __mark", "IfLet", "Pattern: Some"} {
		if !strings.Contains(out, want) {
			t.Errorf("Print output missing %q:\n%s", want, out)
		}
	}
}
