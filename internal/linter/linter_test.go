package linter

import (
	"strings"
	"testing"

	"github.com/lhaig/relux/internal/ast"
	"github.com/lhaig/relux/internal/diagnostic"
)

func decodeAndLint(t *testing.T, source string) []string {
	t.Helper()
	prog, err := ast.Decode([]byte(source))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	diag := Lint(prog)
	var warnings []string
	for _, d := range diag.All() {
		if d.Severity != diagnostic.Warning {
			t.Errorf("lint reported a non-warning: %s", d.Message)
		}
		warnings = append(warnings, d.Message)
	}
	return warnings
}

func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

// plugin wraps body statements in a visitor of a plugin named name.
func plugin(name, body string) string {
	src := `
decls:
  - kind: plugin
    name: ` + name + `
    items:
      - kind: fn
        name: visit_identifier
        params: [{name: self}, {name: node, type: Identifier, mut: true}]
        body:
`
	if body == "" {
		return src + "          []\n"
	}
	return src + body
}

const useNode = `          - kind: expr
            expr: {kind: member, object: {kind: ident, name: node}, field: name}
`

func TestEmptyVisitorBody(t *testing.T) {
	warnings := decodeAndLint(t, plugin("Marker", ""))
	if !containsWarning(warnings, "empty body") {
		t.Errorf("Expected empty body warning, got: %v", warnings)
	}
	if !containsWarning(warnings, "parameter 'node'") {
		t.Errorf("Expected unused parameter warning, got: %v", warnings)
	}
}

func TestCleanVisitorNoWarnings(t *testing.T) {
	warnings := decodeAndLint(t, plugin("Marker", useNode))
	if len(warnings) != 0 {
		t.Errorf("Expected no warnings, got: %v", warnings)
	}
}

func TestPluginNaming(t *testing.T) {
	warnings := decodeAndLint(t, plugin("my_plugin", useNode))
	if !containsWarning(warnings, "plugin 'my_plugin' should use PascalCase") {
		t.Errorf("Expected naming warning, got: %v", warnings)
	}
}

func TestUnusedAndMutableVariables(t *testing.T) {
	body := useNode + `          - kind: let
            name: unused
            init: {kind: int, value: 1}
          - kind: let
            name: count
            mut: true
            init: {kind: int, value: 0}
          - kind: expr
            expr: {kind: ident, name: count}
`
	warnings := decodeAndLint(t, plugin("Marker", body))
	if !containsWarning(warnings, "variable 'unused' is declared but never used") {
		t.Errorf("Expected unused variable warning, got: %v", warnings)
	}
	if !containsWarning(warnings, "variable 'count' is declared mutable but never reassigned") {
		t.Errorf("Expected mutable warning, got: %v", warnings)
	}
}

func TestCustomPropertyPrefix(t *testing.T) {
	body := `          - kind: prop_assign
            node: {kind: ident, name: node}
            prop: mark
            init: {kind: bool, value: true}
`
	warnings := decodeAndLint(t, plugin("Marker", body))
	if !containsWarning(warnings, "custom property 'mark' should start with '__'") {
		t.Errorf("Expected property prefix warning, got: %v", warnings)
	}
}

func TestNamingHelpers(t *testing.T) {
	tests := []struct {
		name   string
		snake  bool
		pascal bool
	}{
		{"visit_call", true, false},
		{"CallExpr", false, true},
		{"Bad_Name", false, false},
		{"9lives", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		if got := isSnakeCase(tt.name); got != tt.snake {
			t.Errorf("isSnakeCase(%q) = %v", tt.name, got)
		}
		if got := isPascalCase(tt.name); got != tt.pascal {
			t.Errorf("isPascalCase(%q) = %v", tt.name, got)
		}
	}
}
