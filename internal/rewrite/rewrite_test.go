package rewrite

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/lhaig/relux/internal/ast"
	"github.com/lhaig/relux/internal/decorate"
	"github.com/lhaig/relux/internal/diagnostic"
	"github.com/lhaig/relux/internal/ir"
	"github.com/lhaig/relux/internal/mapping"
)

// Outer.a holds Wrapper::Inner(Box<Inner>); Inner.c holds Holder::Leaf(Leaf).
const chainTables = `
backend: test
model: tagged
nodes:
  Outer: { target: Outer, visitor: visit_mut_outer }
  Inner: { target: Inner }
  Leaf:  { target: Leaf }
fields:
  Outer.a:   { target: a, type: Wrapper, value: Inner, accessor: enum, enum: Wrapper, variant: Inner, boxed: true }
  Outer.d:   { target: d, type: Inner, value: Inner }
  Inner.b:   { target: b, type: Leaf, value: Leaf }
  Inner.c:   { target: c, type: Holder, value: Leaf, accessor: enum, enum: Holder, variant: Leaf }
  Leaf.name: { target: name, type: String, value: Str }
  Self.builder: { accessor: replace, with: self, value: Builder }
patterns:
  Leaf: { path: "Inner::Leaf", binding: leaf, inner: "Leaf::Named" }
  Some: { path: Some }
types:
  Str: String
`

var shape = &ast.EnumDecl{Name: "Shape", Variants: []*ast.VariantDecl{
	{Name: "Leaf", Fields: []*ast.FieldDecl{{Type: &ast.TypeRef{Name: "Str"}}}},
	{Name: "Empty"},
}}

func id(name string) *ast.Ident                      { return &ast.Ident{Name: name} }
func let(name string, v ast.Expression) *ast.LetStmt { return &ast.LetStmt{Name: name, Value: v} }
func bind(name string) *ast.BindingPattern           { return &ast.BindingPattern{Name: name} }

func mem(obj ast.Expression, field string) *ast.MemberExpr {
	return &ast.MemberExpr{Object: obj, Field: field}
}

func leafPattern(arg ast.Pattern) *ast.VariantPattern {
	return &ast.VariantPattern{Path: []string{"Leaf"}, Args: []ast.Pattern{arg}}
}

func visitor(body ...ast.Statement) *ast.Program {
	fn := &ast.FnDecl{
		Name: "visit_outer",
		Params: []*ast.Param{
			{Name: "self"},
			{Name: "node", Type: &ast.TypeRef{Name: "Outer"}, Mutable: true},
			{Name: "s", Type: &ast.TypeRef{Name: "Shape"}},
		},
		Body: &ast.Block{Statements: body},
	}
	return &ast.Program{Decls: []ast.Declaration{
		shape,
		&ast.PluginDecl{Name: "P", Items: []ast.Declaration{fn}},
	}}
}

func decorated(t *testing.T, prog *ast.Program) *ir.Program {
	t.Helper()
	tables, err := mapping.Load([]byte(chainTables))
	if err != nil {
		t.Fatalf("loading tables: %v", err)
	}
	diags := diagnostic.New()
	out := decorate.Decorate(prog, tables, diags)
	if diags.HasErrors() {
		t.Fatalf("decoration failed:\n%s", diags.Format("t"))
	}
	return out
}

func body(t *testing.T, p *ir.Program) []ir.Stmt {
	t.Helper()
	for _, d := range p.Decls {
		if pl, ok := d.(*ir.Plugin); ok {
			return pl.Items[0].(*ir.Func).Body.Stmts
		}
	}
	t.Fatal("no plugin")
	return nil
}

func count(node interface{}, pred func(interface{}) bool) int {
	n := 0
	ir.Inspect(node, func(x interface{}) bool {
		if pred(x) {
			n++
		}
		return true
	})
	return n
}

func conditional(x interface{}) bool {
	m, ok := x.(*ir.MatchExpr)
	return ok && m.Form == ir.MatchConditional
}

var equal = cmpopts.EquateEmpty()

func TestDirectPatternUntouched(t *testing.T) {
	prog := visitor(
		&ast.MatchStmt{Value: id("s"), Arms: []*ast.MatchArm{
			{Pattern: &ast.VariantPattern{Path: []string{"Shape", "Leaf"}, Args: []ast.Pattern{bind("v")}}, Body: &ast.Block{}},
			{Pattern: &ast.WildcardPattern{}, Body: &ast.Block{}},
		}},
		let("b", mem(mem(id("node"), "d"), "b")),
	)
	in := decorated(t, prog)
	out := Rewrite(in)
	if diff := cmp.Diff(in, out, equal); diff != "" {
		t.Errorf("rewriter changed a directly mapped program (-in +out):\n%s", diff)
	}
}

func TestChainCrossingOneEnumField(t *testing.T) {
	out := Rewrite(decorated(t, visitor(let("v", mem(mem(id("node"), "a"), "b")))))
	m, ok := body(t, out)[0].(*ir.LetStmt).Value.(*ir.MatchExpr)
	if !ok {
		t.Fatalf("chain was not unwrapped: %s", ir.Print(body(t, out)[0]))
	}
	if m.Form != ir.MatchConditional || len(m.Arms) != 2 {
		t.Fatalf("match = %s", ir.Print(m))
	}
	x := m.X.(*ir.MemberExpr)
	if x.Field != "a" || x.Meta.Unwrap != ir.UnwrapRef {
		t.Errorf("scrutinee = .%s unwrap %s", x.Field, x.Meta.Unwrap)
	}
	p := m.Arms[0].Pattern.(*ir.VariantPattern)
	if p.Meta.Path != "Wrapper::Inner" || p.Args[0].(*ir.BindingPattern).Name != "__a_0" {
		t.Errorf("arm pattern = %s", ir.Print(p))
	}
	leaf := m.Arms[0].Body.Tail.(*ir.MemberExpr)
	if leaf.Field != "b" || leaf.Object.(*ir.Ident).Name != "__a_0" {
		t.Errorf("innermost read = %s", ir.Print(leaf))
	}
	def, ok := m.Arms[1].Body.Tail.(*ir.DefaultExpr)
	if !ok || !def.Meta.Type.Equal(ir.Named("Leaf")) || !m.Meta.Type.Equal(ir.Named("Leaf")) {
		t.Errorf("fallback = %s, match type = %s", ir.Print(m.Arms[1]), m.Meta.Type)
	}
	if n := count(m, conditional); n != 1 {
		t.Errorf("%d match levels for one boundary", n)
	}
}

func TestLevelsMatchBoundariesCrossed(t *testing.T) {
	tests := []struct {
		name string
		expr ast.Expression
		want int
	}{
		{"no boundary", mem(mem(id("node"), "d"), "b"), 0},
		{"leaf is the enum field", mem(id("node"), "a"), 0},
		{"one boundary", mem(mem(id("node"), "a"), "b"), 1},
		{"two boundaries", mem(mem(mem(id("node"), "a"), "c"), "name"), 2},
		{"method on enum field", &ast.CallExpr{Callee: mem(mem(mem(id("node"), "a"), "b"), "len")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Rewrite(decorated(t, visitor(let("v", tt.expr))))
			if n := count(body(t, out)[0], conditional); n != tt.want {
				t.Errorf("%d match levels, want %d:\n%s", n, tt.want, ir.Print(body(t, out)[0]))
			}
		})
	}
}

func TestAssignThroughEnumField(t *testing.T) {
	assign := &ast.AssignStmt{Target: mem(mem(id("node"), "a"), "b"), Value: mem(mem(id("node"), "d"), "b")}
	out := Rewrite(decorated(t, visitor(assign)))
	il, ok := body(t, out)[0].(*ir.IfLetStmt)
	if !ok {
		t.Fatalf("got %s", ir.Print(body(t, out)[0]))
	}
	if u := il.Value.Metadata().Unwrap; u != ir.UnwrapRefMut {
		t.Errorf("scrutinee unwrap = %s, want ref_mut", u)
	}
	inner := il.Then.Stmts[0].(*ir.AssignStmt)
	if inner.Target.(*ir.MemberExpr).Object.(*ir.Ident).Name != "__a_0" {
		t.Errorf("inner target = %s", ir.Print(inner.Target))
	}
}

func TestIfLetDesugarPreservesBinding(t *testing.T) {
	ifLet := &ast.IfStmt{
		Condition: mem(id("node"), "a"),
		Pattern:   leafPattern(bind("l")),
		Then:      &ast.Block{Statements: []ast.Statement{let("n", mem(id("l"), "name"))}},
		Else:      &ast.Block{Statements: []ast.Statement{let("missing", &ast.BoolLit{Value: true})}},
	}
	out := Rewrite(decorated(t, visitor(ifLet)))

	var paths []string
	var innermost *ir.IfLetStmt
	ir.Inspect(body(t, out)[0], func(n interface{}) bool {
		if il, ok := n.(*ir.IfLetStmt); ok {
			paths = append(paths, il.Pattern.Metadata().Path)
			innermost = il
		}
		return true
	})
	if diff := cmp.Diff([]string{"Wrapper::Inner", "Inner::Leaf", "Leaf::Named"}, paths); diff != "" {
		t.Fatalf("levels (-want +got):\n%s", diff)
	}
	if got := ir.BoundNames(innermost.Pattern); !cmp.Equal(got, []string{"l"}) {
		t.Errorf("innermost level binds %v, want [l]", got)
	}
	if innermost.Value.Metadata().Name != "__leaf_1" {
		t.Errorf("innermost value = %s", ir.Print(innermost.Value))
	}
	second := body(t, out)[0].(*ir.IfLetStmt).Then.Stmts[0].(*ir.IfLetStmt)
	if u := second.Value.Metadata().Unwrap; u != ir.UnwrapBox {
		t.Errorf("boxed payload unwrap = %s, want box", u)
	}
	if n := count(body(t, out)[0], func(x interface{}) bool {
		l, ok := x.(*ir.LetStmt)
		return ok && l.Name == "missing"
	}); n != 3 {
		t.Errorf("else branch appears %d times, want once per level", n)
	}
}

func TestMatchArmDesugar(t *testing.T) {
	guard := &ast.BinaryExpr{Left: mem(id("l"), "name"), Op: ast.OpEq, Right: &ast.StringLit{Value: "x"}}
	match := &ast.MatchStmt{Value: mem(id("node"), "a"), Arms: []*ast.MatchArm{
		{Pattern: leafPattern(bind("l")), Guard: guard, Body: &ast.Block{}},
		{Pattern: leafPattern(bind("k")), Body: &ast.Block{}},
		{Pattern: &ast.WildcardPattern{}, Body: &ast.Block{}},
	}}
	out := Rewrite(decorated(t, visitor(match)))
	m := body(t, out)[0].(*ir.ExprStmt).X.(*ir.MatchExpr)
	if len(m.Arms) != 3 {
		t.Fatalf("arms = %d", len(m.Arms))
	}

	g, ok := m.Arms[0].Guard.(*ir.MatchExpr)
	if !ok || g.Form != ir.MatchShapeTest || !g.Meta.Type.Equal(ir.Bool) {
		t.Fatalf("guarded arm guard = %s", ir.Print(m.Arms[0].Guard))
	}
	if n := count(m.Arms[0].Body, func(x interface{}) bool { _, ok := x.(*ir.UnreachableExpr); return ok }); n == 0 {
		t.Errorf("guarded arm body has no unreachable fallback:\n%s", ir.Print(m.Arms[0].Body))
	}
	if m.Arms[1].Guard != nil {
		t.Errorf("arm followed only by the catch-all should nest, not guard")
	}

	bound := map[string]bool{}
	ir.Inspect(m, func(n interface{}) bool {
		if b, ok := n.(*ir.BindingPattern); ok && !b.Meta.Synthesized {
			bound[b.Name] = true
		}
		return true
	})
	if !bound["l"] || !bound["k"] {
		t.Errorf("user bindings lost: %v", bound)
	}
}

func TestDesugaredLevelsKeepTypes(t *testing.T) {
	ifLet := &ast.IfStmt{Condition: mem(id("node"), "a"), Pattern: leafPattern(bind("l")), Then: &ast.Block{}}
	match := &ast.MatchStmt{Value: mem(id("node"), "a"), Arms: []*ast.MatchArm{
		{Pattern: leafPattern(bind("l")), Guard: &ast.BoolLit{Value: true}, Body: &ast.Block{}},
		{Pattern: &ast.WildcardPattern{}, Body: &ast.Block{}},
	}}
	out := Rewrite(decorated(t, visitor(ifLet, match)))

	inner := ir.Named("Inner")
	temps := 0
	ir.Inspect(out, func(n interface{}) bool {
		switch n := n.(type) {
		case ir.Pattern:
			m := n.Metadata()
			if m.Type.IsUnknown() {
				t.Errorf("pattern %s at %s has no type", ir.Print(n), m.Span)
			}
			if b, ok := n.(*ir.BindingPattern); ok && m.Synthesized {
				temps++
				if !m.Type.Equal(inner) {
					t.Errorf("temporary %s typed %s, want Inner", b.Name, m.Type)
				}
			}
		case *ir.Ident:
			if strings.HasPrefix(n.Name, ir.SynthesizedPrefix) && !n.Meta.Type.Equal(inner) {
				t.Errorf("read of %s typed %s, want Inner", n.Name, n.Meta.Type)
			}
		}
		return true
	})
	if temps == 0 {
		t.Fatal("no temporaries were introduced")
	}
}

func TestUserBindingsWithReservedPrefix(t *testing.T) {
	match := &ast.MatchStmt{Value: id("s"), Arms: []*ast.MatchArm{
		{Pattern: &ast.VariantPattern{Path: []string{"Shape", "Leaf"}, Args: []ast.Pattern{bind("__v")}}, Body: &ast.Block{}},
		{Pattern: bind("__v"), Body: &ast.Block{}},
	}}
	out := Rewrite(decorated(t, visitor(match)))
	if n := count(out, func(x interface{}) bool {
		b, ok := x.(*ir.BindingPattern)
		return ok && b.Name == "__v"
	}); n != 2 {
		t.Errorf("__v bound %d times, want 2", n)
	}
}

func TestNegatedShapeTestSwapsLiterals(t *testing.T) {
	test := &ast.MatchesExpr{Value: id("s"), Pattern: &ast.VariantPattern{Path: []string{"Shape", "Leaf"}, Args: []ast.Pattern{&ast.WildcardPattern{}}}}
	out := Rewrite(decorated(t, visitor(
		let("yes", test),
		let("no", &ast.UnaryExpr{Op: ast.OpNot, Operand: test}),
	)))
	stmts := body(t, out)
	results := func(s ir.Stmt) []string {
		m := s.(*ir.LetStmt).Value.(*ir.MatchExpr)
		if m.Form != ir.MatchShapeTest || !m.Meta.Type.Equal(ir.Bool) {
			t.Fatalf("not a shape test: %s", ir.Print(m))
		}
		var got []string
		for _, a := range m.Arms {
			got = append(got, a.Body.Tail.(*ir.Lit).Value)
		}
		return got
	}
	if diff := cmp.Diff([]string{"true", "false"}, results(stmts[0])); diff != "" {
		t.Errorf("shape test (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"false", "true"}, results(stmts[1])); diff != "" {
		t.Errorf("negated shape test (-want +got):\n%s", diff)
	}
}

func TestReplaceField(t *testing.T) {
	out := Rewrite(decorated(t, visitor(let("b", mem(&ast.SelfExpr{}, "builder")))))
	id, ok := body(t, out)[0].(*ir.LetStmt).Value.(*ir.Ident)
	if !ok || id.Name != "self" || id.Meta.Name != "self" {
		t.Errorf("replaced access = %s", ir.Print(body(t, out)[0]))
	}
}

func TestFreshNamesAvoidUserNames(t *testing.T) {
	out := Rewrite(decorated(t, visitor(
		let("__a_0", &ast.IntLit{Value: 1}),
		let("v", mem(mem(id("node"), "a"), "b")),
	)))
	m := body(t, out)[1].(*ir.LetStmt).Value.(*ir.MatchExpr)
	if got := m.Arms[0].Pattern.(*ir.VariantPattern).Args[0].(*ir.BindingPattern).Name; got != "__a_1" {
		t.Errorf("fresh name = %s, want __a_1", got)
	}
}

func everything() *ast.Program {
	return visitor(
		let("v", mem(mem(mem(id("node"), "a"), "c"), "name")),
		&ast.IfStmt{Condition: mem(id("node"), "a"), Pattern: leafPattern(bind("l")), Then: &ast.Block{}},
		&ast.MatchStmt{Value: mem(id("node"), "a"), Arms: []*ast.MatchArm{
			{Pattern: leafPattern(bind("l")), Guard: &ast.BoolLit{Value: true}, Body: &ast.Block{}},
			{Pattern: &ast.WildcardPattern{}, Body: &ast.Block{}},
		}},
		let("t", &ast.UnaryExpr{Op: ast.OpNot, Operand: &ast.MatchesExpr{Value: mem(id("node"), "a"), Pattern: leafPattern(&ast.WildcardPattern{})}}),
		&ast.AssignStmt{Target: mem(mem(id("node"), "a"), "b"), Value: mem(mem(id("node"), "d"), "b")},
	)
}

func TestIdempotent(t *testing.T) {
	once := Rewrite(decorated(t, everything()))
	twice := Rewrite(once)
	if diff := cmp.Diff(once, twice, equal); diff != "" {
		t.Errorf("second rewrite changed the tree (-once +twice):\n%s", diff)
	}
}

func TestDeterministic(t *testing.T) {
	a := ir.Print(Rewrite(decorated(t, everything())))
	b := ir.Print(Rewrite(decorated(t, everything())))
	if a != b {
		t.Errorf("two rewrites of the same program differ:\n%s", cmp.Diff(a, b))
	}
}

func TestInputNotMutated(t *testing.T) {
	in := decorated(t, everything())
	before := ir.CloneProgram(in)
	Rewrite(in)
	if diff := cmp.Diff(before, in, equal); diff != "" {
		t.Errorf("rewrite mutated its input (-before +after):\n%s", diff)
	}
}

func TestUndecoratedNodeIsInvariantViolation(t *testing.T) {
	prog := &ir.Program{Decls: []ir.Decl{&ir.Func{
		Name: "f",
		Meta: &ir.FuncMeta{},
		Body: &ir.Block{Stmts: []ir.Stmt{&ir.ExprStmt{X: &ir.Ident{Name: "x"}}}},
	}}}
	defer func() {
		r := recover()
		if _, ok := r.(*ir.InvariantError); !ok {
			t.Fatalf("recovered %v, want *ir.InvariantError", r)
		}
	}()
	Rewrite(prog)
}
