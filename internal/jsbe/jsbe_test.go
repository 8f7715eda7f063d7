package jsbe

import (
	"errors"
	"strings"
	"testing"

	"github.com/lhaig/relux/internal/ast"
	"github.com/lhaig/relux/internal/decorate"
	"github.com/lhaig/relux/internal/diagnostic"
	"github.com/lhaig/relux/internal/ir"
	"github.com/lhaig/relux/internal/mapping"
	"github.com/lhaig/relux/internal/rewrite"
)

func id(name string) *ast.Ident                      { return &ast.Ident{Name: name} }
func let(name string, v ast.Expression) *ast.LetStmt { return &ast.LetStmt{Name: name, Value: v} }

func mem(obj ast.Expression, field string) *ast.MemberExpr {
	return &ast.MemberExpr{Object: obj, Field: field}
}

func visitor(kind string, body ...ast.Statement) *ast.FnDecl {
	return &ast.FnDecl{
		Name: "visit_node",
		Params: []*ast.Param{
			{Name: "self"},
			{Name: "node", Type: &ast.TypeRef{Name: kind}, Mutable: true},
		},
		Body: &ast.Block{Statements: body},
		Line: 1, Column: 1,
	}
}

func program(top []ast.Declaration, items ...ast.Declaration) *ast.Program {
	return &ast.Program{Decls: append(top, &ast.PluginDecl{Name: "P", Items: items, Line: 1, Column: 1})}
}

func emit(t *testing.T, prog *ast.Program) string {
	t.Helper()
	tables, err := mapping.Builtin("babel")
	if err != nil {
		t.Fatalf("loading babel tables: %v", err)
	}
	diags := diagnostic.New()
	decorated := decorate.Decorate(prog, tables, diags)
	if diags.HasErrors() {
		t.Fatalf("decoration failed:\n%s", diags.Format("t"))
	}
	return Generate(rewrite.Rewrite(decorated))
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q\n--- output ---\n%s", w, out)
		}
	}
}

func TestPluginShape(t *testing.T) {
	out := emit(t, program(nil, visitor("Identifier", let("n", mem(id("node"), "name")))))

	assertContains(t, out,
		"module.exports = function ({ types: t }) {",
		"    return {\n        name: \"P\",",
		"visitor: {\n            Identifier(path) {\n                const node = path.node;\n                const n = node.name;\n            },\n        },",
	)
}

func TestCustomPropertyOnNode(t *testing.T) {
	v := visitor("Identifier",
		&ast.PropAssignStmt{Node: id("node"), Property: "__mark", Value: &ast.BoolLit{Value: true}},
		&ast.IfStmt{
			Condition: &ast.PropAccessExpr{Node: id("node"), Property: "__mark"},
			Pattern:   &ast.VariantPattern{Path: []string{"Some"}, Args: []ast.Pattern{&ast.BindingPattern{Name: "m"}}},
			Then:      &ast.Block{},
		},
		&ast.PropAssignStmt{Node: id("node"), Property: "__mark", Value: &ast.NullLit{}},
	)
	out := emit(t, program(nil, v))

	assertContains(t, out,
		"node.__mark = true;",
		"if (node.__mark != null) {",
		"const m = node.__mark;",
		"delete node.__mark;",
	)
	if strings.Contains(out, "custom_prop") {
		t.Errorf("babel output uses a side table:\n%s", out)
	}
}

func TestNegatedShapeTest(t *testing.T) {
	neg := &ast.UnaryExpr{Op: ast.OpNot, Operand: &ast.MatchesExpr{
		Value:   mem(id("node"), "callee"),
		Pattern: &ast.VariantPattern{Path: []string{"Identifier"}},
	}}
	pos := &ast.MatchesExpr{
		Value:   mem(id("node"), "callee"),
		Pattern: &ast.VariantPattern{Path: []string{"Identifier"}},
	}
	out := emit(t, program(nil, visitor("CallExpression", let("a", neg), let("b", pos))))

	assertContains(t, out,
		"const a = (t.isIdentifier(node.callee) ? false : true);",
		"const b = (t.isIdentifier(node.callee) ? true : false);",
	)
}

func TestUserEnum(t *testing.T) {
	shape := &ast.EnumDecl{Name: "Shape", Variants: []*ast.VariantDecl{
		{Name: "Leaf", Fields: []*ast.FieldDecl{{Type: &ast.TypeRef{Name: "Str"}}}},
		{Name: "Empty"},
	}}
	describe := &ast.FnDecl{
		Name:   "describe",
		Params: []*ast.Param{{Name: "self"}, {Name: "s", Type: &ast.TypeRef{Name: "Shape"}}},
		Body: &ast.Block{Statements: []ast.Statement{
			&ast.MatchStmt{Value: id("s"), Arms: []*ast.MatchArm{
				{Pattern: &ast.VariantPattern{Path: []string{"Shape", "Leaf"}, Args: []ast.Pattern{&ast.BindingPattern{Name: "v"}}}, Body: &ast.Block{}},
				{Pattern: &ast.VariantPattern{Path: []string{"Shape", "Empty"}}, Body: &ast.Block{}},
			}},
		}},
	}
	out := emit(t, program([]ast.Declaration{shape}, describe))

	assertContains(t, out,
		"const Shape = Object.freeze({\n    Leaf: (_0) => ({ _tag: \"Leaf\", _0 }),\n    Empty: Object.freeze({ _tag: \"Empty\" }),\n});",
		"function describe(s) {",
		"if (s._tag === \"Leaf\") {",
		"const v = s._0;",
		"} else if (s._tag === \"Empty\") {",
	)
}

func TestGuardedMatchFallsThrough(t *testing.T) {
	m := &ast.MatchStmt{Value: mem(id("node"), "name"), Arms: []*ast.MatchArm{
		{Pattern: &ast.BindingPattern{Name: "n"}, Guard: &ast.BinaryExpr{Op: ast.OpEq, Left: id("n"), Right: &ast.StringLit{Value: "x"}}, Body: &ast.Block{}},
		{Pattern: &ast.WildcardPattern{}, Body: &ast.Block{}},
	}}
	out := emit(t, program(nil, visitor("Identifier", m)))

	assertContains(t, out,
		"$m0: {",
		"const n = node.name;",
		"if ((n === \"x\")) {",
		"break $m0;",
	)
}

func TestStateAndHooks(t *testing.T) {
	state := &ast.StructDecl{Name: "State", Fields: []*ast.FieldDecl{
		{Name: "count", Type: &ast.TypeRef{Name: "i32"}},
		{Name: "seen", Type: &ast.TypeRef{Name: "bool"}},
	}}
	exit := &ast.FnDecl{Name: "exit", Params: []*ast.Param{{Name: "self"}}, Body: &ast.Block{}}
	out := emit(t, program(nil, state, visitor("Identifier"), exit))

	assertContains(t, out,
		"pre(file) {\n            this.state = { count: 0, seen: false };\n        },",
		"post(file) {",
	)
}

func TestUndecoratedNodePanics(t *testing.T) {
	prog := &ir.Program{Decls: []ir.Decl{
		&ir.Func{Name: "f", Body: &ir.Block{Tail: &ir.Ident{Name: "x"}}},
	}}
	defer func() {
		err, _ := recover().(error)
		var inv *ir.InvariantError
		if !errors.As(err, &inv) || inv.Stage != "jsbe" {
			t.Fatalf("recovered %v, want jsbe invariant error", err)
		}
	}()
	Generate(prog)
}
