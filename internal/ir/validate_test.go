package ir

import (
	"strings"
	"testing"
)

func meta(t *Type) *ExprMeta { return &ExprMeta{Type: t, Span: Span{Line: 1, Column: 1}} }

func ident(name string, t *Type) *Ident {
	m := meta(t)
	m.Name = name
	return &Ident{Name: name, Meta: m}
}

func fnWith(body ...Stmt) *Program {
	return &Program{Decls: []Decl{&Plugin{
		Name: "P",
		Meta: &PluginMeta{},
		Items: []Decl{&Func{
			Name: "visit_identifier",
			Body: &Block{Stmts: body},
			Meta: &FuncMeta{Kind: FuncVisitor},
		}},
	}}}
}

func contains(errs []string, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidateDecoratedProgram(t *testing.T) {
	p := fnWith(&LetStmt{Name: "x", Type: Str, Value: &Lit{Kind: LitStr, Value: "a", Meta: meta(Str)}})
	if errs := Validate(p); len(errs) > 0 {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestValidateUndecorated(t *testing.T) {
	p := fnWith(
		&ExprStmt{X: &Ident{Name: "x"}},
		&ExprStmt{X: &MemberExpr{Object: ident("n", Unknown), Field: "name", Meta: meta(Str)}},
		&ExprStmt{X: &BinaryExpr{Op: "==", Left: ident("a", I32), Right: ident("b", I32), Meta: meta(Bool)}},
	)
	errs := Validate(p)
	for _, want := range []string{"undecorated Ident", "no field metadata", "no operand metadata"} {
		if !contains(errs, want) {
			t.Errorf("expected error containing %q, got: %v", want, errs)
		}
	}
}

func TestValidateRewrittenPostConditions(t *testing.T) {
	enumField := &MemberExpr{
		Object: ident("node", Named("MemberExpression")),
		Field:  "property",
		Meta:   meta(Named("Identifier")),
		FMeta:  &FieldMeta{Name: "prop", Accessor: FieldAccessor{Kind: EnumField, Enum: "MemberProp", Variant: "Ident"}},
	}
	chain := &MemberExpr{
		Object: enumField,
		Field:  "name",
		Meta:   meta(Str),
		FMeta:  &FieldMeta{Name: "sym"},
	}
	pat := &VariantPattern{Path: []string{"Identifier"}, Meta: &PatternMeta{
		Path: "Expr::Ident", Desugar: &DesugarStrategy{OuterPath: "Callee::Expr", InnerPath: "Expr::Ident"},
	}}
	dup := func() *IfLetStmt {
		return &IfLetStmt{
			Pattern: &VariantPattern{Path: []string{"Some"}, Args: []Pattern{&BindingPattern{Name: "__x_0", Meta: &PatternMeta{}}}, Meta: &PatternMeta{Path: "Some"}},
			Value:   ident("y", OptionOf(I32)),
			Then:    &Block{},
		}
	}
	p := fnWith(
		&ExprStmt{X: chain},
		&IfLetStmt{Pattern: pat, Value: ident("c", Unknown), Then: &Block{}},
		&ExprStmt{X: &MatchesExpr{X: ident("c", Unknown), Pattern: &WildcardPattern{Meta: &PatternMeta{}}, Meta: meta(Bool)}},
		dup(), dup(),
	)
	errs := ValidateRewritten(p)
	for _, want := range []string{"crosses enum field .property", "still needs desugaring", "unexpanded shape test", "__x_0 bound twice"} {
		if !contains(errs, want) {
			t.Errorf("expected error containing %q, got: %v", want, errs)
		}
	}
}

func TestFailfRaisesInvariantError(t *testing.T) {
	defer func() {
		r := recover()
		ie, ok := r.(*InvariantError)
		if !ok {
			t.Fatalf("expected *InvariantError, got %#v", r)
		}
		if ie.Stage != "rewrite" || !strings.Contains(ie.Error(), "bad node") {
			t.Errorf("unexpected error: %v", ie)
		}
	}()
	Failf("rewrite", "bad %s", "node")
}

func TestCloneIsDeep(t *testing.T) {
	orig := &Block{Stmts: []Stmt{&ExprStmt{X: ident("a", I32)}}}
	c := CloneBlock(orig)
	c.Stmts[0].(*ExprStmt).X.(*Ident).Meta.Name = "changed"
	if orig.Stmts[0].(*ExprStmt).X.(*Ident).Meta.Name != "a" {
		t.Error("clone shares metadata with original")
	}
}

func TestTypeHelpers(t *testing.T) {
	ty := ParseType("Option<Vec<String>>")
	if !ty.IsOption() || !ty.Elem().IsVec() || ty.Elem().Elem().Name != "Str" {
		t.Errorf("ParseType = %s", ty)
	}
	if !ty.Equal(OptionOf(VecOf(Str))) {
		t.Errorf("%s != Option<Vec<Str>>", ty)
	}
	if !ParseType("").IsUnknown() || !ParseType("Vec<").IsUnknown() {
		t.Error("malformed types should be unknown")
	}
	if d := (&DesugarStrategy{Then: &DesugarStrategy{}}).Levels(); d != 3 {
		t.Errorf("Levels = %d, want 3", d)
	}
}

func TestPrintShowsMetadata(t *testing.T) {
	p := fnWith(&ExprStmt{X: &MemberExpr{
		Object: ident("node", Named("Identifier")),
		Field:  "name",
		Meta:   &ExprMeta{Type: Str, Target: "Atom", ToOwned: true},
		FMeta:  &FieldMeta{Name: "sym", Interned: true},
	}})
	out := Print(p)
	for _, want := range []string{"Plugin P", "Func visit_identifier [visitor]", "Member .name -> .sym direct : Str (Atom) [to_owned]"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}
