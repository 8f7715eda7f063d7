package rustbe

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

func plugin(decls ...ast.Declaration) *ast.Program {
	var items, top []ast.Declaration
	for _, d := range decls {
		switch d.(type) {
		case *ast.EnumDecl, *ast.StructDecl:
			top = append(top, d)
		default:
			items = append(items, d)
		}
	}
	return &ast.Program{Decls: append(top, &ast.PluginDecl{Name: "P", Items: items, Line: 1, Column: 1})}
}

// emit runs the whole tagged pipeline over prog.
func emit(t *testing.T, prog *ast.Program) string {
	t.Helper()
	tables, err := mapping.Builtin("swc")
	if err != nil {
		t.Fatalf("loading swc tables: %v", err)
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

var shape = &ast.EnumDecl{Name: "Shape", Variants: []*ast.VariantDecl{
	{Name: "Leaf", Fields: []*ast.FieldDecl{{Type: &ast.TypeRef{Name: "Str"}}}},
	{Name: "Empty"},
}}

func TestUserEnumMatch(t *testing.T) {
	describe := &ast.FnDecl{
		Name: "describe",
		Params: []*ast.Param{
			{Name: "self"},
			{Name: "s", Type: &ast.TypeRef{Name: "Shape"}},
		},
		Body: &ast.Block{Statements: []ast.Statement{
			&ast.MatchStmt{Value: id("s"), Arms: []*ast.MatchArm{
				{Pattern: &ast.VariantPattern{Path: []string{"Shape", "Leaf"}, Args: []ast.Pattern{&ast.BindingPattern{Name: "v"}}}, Body: &ast.Block{}},
				{Pattern: &ast.WildcardPattern{}, Body: &ast.Block{}},
			}},
		}},
	}
	out := emit(t, plugin(shape, describe))

	assertContains(t, out,
		"#[derive(Clone, Debug, PartialEq)]\npub enum Shape {\n    Leaf(String),\n    Empty,\n}",
		"fn describe(&mut self, s: ",
		"Shape::Leaf(v) => {}",
		"_ => {}",
	)
	if strings.Contains(out, "HashMap") {
		t.Errorf("side table emitted for a program without custom properties:\n%s", out)
	}
}

func TestVisitorShape(t *testing.T) {
	out := emit(t, plugin(visitor("Identifier")))

	assertContains(t, out,
		"use swc_ecma_visit::{VisitMut, VisitMutWith};",
		"pub struct P {\n}",
		"impl P {\n    pub fn new() -> Self {",
		"impl VisitMut for P {\n    fn visit_mut_ident(&mut self, node: &mut Ident) {\n        node.visit_mut_children_with(self);\n    }\n}",
	)
}

func TestNestedPatternBecomesNestedMatches(t *testing.T) {
	m := &ast.MatchStmt{Value: mem(id("node"), "callee"), Arms: []*ast.MatchArm{
		{
			Pattern: &ast.VariantPattern{Path: []string{"StringLiteral"}, Args: []ast.Pattern{&ast.BindingPattern{Name: "s"}}},
			Body:    &ast.Block{Statements: []ast.Statement{let("v", mem(id("s"), "value"))}},
		},
		{Pattern: &ast.WildcardPattern{}, Body: &ast.Block{}},
	}}
	out := emit(t, plugin(visitor("CallExpression", m)))

	assertContains(t, out,
		"match &node.callee {",
		"Callee::Expr(__callee_0) => {",
		"match &**__callee_0 {",
		"Expr::Lit(__lit_1) => {",
		"match __lit_1 {",
		"Lit::Str(s) => {",
		"s.value.to_string()",
	)
	if got := strings.Count(out, "_ => {}"); got != 3 {
		t.Errorf("fallback arms = %d, want one per level\n%s", got, out)
	}
}

func TestSideTable(t *testing.T) {
	v := visitor("Identifier",
		&ast.PropAssignStmt{Node: id("node"), Property: "__mark", Value: &ast.BoolLit{Value: true}},
		let("seen", &ast.PropAccessExpr{Node: id("node"), Property: "__mark"}),
		&ast.PropAssignStmt{Node: id("node"), Property: "__mark", Value: &ast.NullLit{}},
	)
	out := emit(t, plugin(v))

	assertContains(t, out,
		"use std::collections::HashMap;",
		"pub enum CustomPropValue {\n    Bool(bool),\n}",
		"custom_props: HashMap<usize, HashMap<&'static str, CustomPropValue>>,",
		"custom_props: HashMap::new(),",
		"fn set_custom_prop<T>(&mut self, node: &T, name: &'static str, value: CustomPropValue) {",
		`self.set_custom_prop(&*node, "__mark", CustomPropValue::Bool(true));`,
		`self.get_custom_prop(&*node, "__mark").and_then(|v| match v { CustomPropValue::Bool(x) => Some(x.clone()), _ => None })`,
		`self.delete_custom_prop(&*node, "__mark");`,
	)
}

func TestNestedTypesAreHoisted(t *testing.T) {
	local := &ast.DeclStmt{Decl: &ast.StructDecl{Name: "Seen", Fields: []*ast.FieldDecl{
		{Name: "count", Type: &ast.TypeRef{Name: "i32"}},
	}}}
	out := emit(t, plugin(visitor("Identifier", local)))

	decl := strings.Index(out, "pub struct Seen {")
	if decl < 0 {
		t.Fatalf("nested struct not emitted:\n%s", out)
	}
	if strings.Count(out, "pub struct Seen {") != 1 {
		t.Errorf("nested struct emitted more than once:\n%s", out)
	}
	if p := strings.Index(out, "pub struct P {"); decl > p {
		t.Errorf("nested struct printed after the plugin struct:\n%s", out)
	}
	assertContains(t, out, "pub count: i32,")
}

func TestWriterCodeBuilder(t *testing.T) {
	prog := &ast.Program{Decls: []ast.Declaration{
		&ast.PluginDecl{Name: "W", IsWriter: true, Line: 1, Column: 1},
	}}
	out := emit(t, prog)

	assertContains(t, out,
		"use swc_ecma_visit::{Visit, VisitWith};",
		"output: String,\n    indent_level: usize,",
		"fn append(&mut self, s: &str) {",
		"pub fn to_string(&self) -> String {",
		"impl Visit for W {}",
	)
}

func TestDeterministic(t *testing.T) {
	build := func() string {
		m := &ast.MatchStmt{Value: mem(id("node"), "callee"), Arms: []*ast.MatchArm{
			{Pattern: &ast.VariantPattern{Path: []string{"StringLiteral"}, Args: []ast.Pattern{&ast.BindingPattern{Name: "s"}}}, Body: &ast.Block{}},
			{Pattern: &ast.WildcardPattern{}, Body: &ast.Block{}},
		}}
		return emit(t, plugin(shape, visitor("CallExpression", m)))
	}
	first := build()
	for i := 0; i < 5; i++ {
		if got := build(); got != first {
			t.Fatalf("run %d differs:\n%s\n---\n%s", i, first, got)
		}
	}
}

func TestUndecoratedNodePanics(t *testing.T) {
	prog := &ir.Program{Decls: []ir.Decl{
		&ir.Func{Name: "f", Body: &ir.Block{Tail: &ir.Ident{Name: "x"}}},
	}}
	defer func() {
		r := recover()
		err, ok := r.(error)
		var inv *ir.InvariantError
		if !ok || !errors.As(err, &inv) {
			t.Fatalf("recovered %v, want *ir.InvariantError", r)
		}
		if inv.Stage != "rustbe" {
			t.Errorf("stage = %q", inv.Stage)
		}
	}()
	Generate(prog)
}
