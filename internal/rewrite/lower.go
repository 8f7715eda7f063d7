package rewrite

import (
	"github.com/lhaig/relux/internal/ir"
)

// memberChain lists the member accesses of e from the outermost inwards.
// A call on a member counts its callee as the outermost access.
func memberChain(e ir.Expr) []*ir.MemberExpr {
	var m *ir.MemberExpr
	switch e := e.(type) {
	case *ir.MemberExpr:
		m = e
	case *ir.CallExpr:
		m, _ = e.Callee.(*ir.MemberExpr)
	}
	var chain []*ir.MemberExpr
	for m != nil {
		chain = append(chain, m)
		m, _ = m.Object.(*ir.MemberExpr)
	}
	return chain
}

// crossing returns the index of the innermost enum-valued field that the
// chain reads through, or -1.
func crossing(chain []*ir.MemberExpr) int {
	for k := len(chain) - 1; k >= 1; k-- {
		if fm := chain[k].FMeta; fm != nil && fm.Accessor.Kind == ir.EnumField {
			return k
		}
	}
	return -1
}

// rebuild copies the part of e above chain[k], reading from repl instead.
func rebuild(e ir.Expr, chain []*ir.MemberExpr, k int, repl ir.Expr) ir.Expr {
	obj := repl
	for j := k - 1; j >= 0; j-- {
		c := chain[j]
		obj = &ir.MemberExpr{Object: obj, Field: c.Field, Meta: c.Meta.Copy(), FMeta: c.FMeta.Copy()}
	}
	if call, ok := e.(*ir.CallExpr); ok {
		return &ir.CallExpr{Callee: obj, Args: call.Args, Meta: call.Meta.Copy()}
	}
	return obj
}

func (r *rewriter) ident(name string, t *ir.Type, u ir.Unwrap, at ir.Span) *ir.Ident {
	if t == nil {
		t = ir.Unknown
	}
	return &ir.Ident{Name: name, Meta: &ir.ExprMeta{Type: t, Name: name, Unwrap: u, Span: at}}
}

// scrutinee rewrites an enum-valued field read for matching on.
func (r *rewriter) scrutinee(split *ir.MemberExpr, u ir.Unwrap) ir.Expr {
	x := r.expr(split)
	m := x.Metadata()
	m.Unwrap, m.ToOwned, m.Into, m.BoxNew = u, false, false, false
	return x
}

// variantOf matches the variant an enum-valued field is declared to hold,
// binding its payload to name.
func variantOf(split *ir.MemberExpr, name string) ir.Pattern {
	acc := split.FMeta.Accessor
	at := split.Meta.Span
	return &ir.VariantPattern{
		Path: []string{acc.Enum, acc.Variant},
		Args: []ir.Pattern{&ir.BindingPattern{Name: name, Meta: &ir.PatternMeta{Type: split.Meta.Type, Span: at, Synthesized: true}}},
		Meta: &ir.PatternMeta{Path: acc.Enum + "::" + acc.Variant, Test: ir.TestVariant, Type: split.Meta.Type, Span: at},
	}
}

func wildcard(t *ir.Type, at ir.Span) ir.Pattern {
	return &ir.WildcardPattern{Meta: &ir.PatternMeta{Type: t, Span: at}}
}

func boolLit(v string, at ir.Span) ir.Expr {
	return &ir.Lit{Kind: ir.LitBool, Value: v, Meta: &ir.ExprMeta{Type: ir.Bool, Target: "bool", Span: at}}
}

// unwrapChain turns a read through an enum-valued field into a conditional
// match on the declared variant that yields the default value otherwise.
func (r *rewriter) unwrapChain(e ir.Expr) (ir.Expr, bool) {
	chain := memberChain(e)
	k := crossing(chain)
	if k < 0 {
		return nil, false
	}
	split := chain[k]
	at := split.Meta.Span
	name := r.fresh(split.FMeta.Name)
	em := e.Metadata()
	leaf := &ir.ExprMeta{Type: em.Type, Target: em.Target, Span: em.Span}

	body := rebuild(e, chain, k, r.ident(name, split.Meta.Type, ir.UnwrapNone, at))
	return &ir.MatchExpr{
		X: r.scrutinee(split, ir.UnwrapRef),
		Arms: []*ir.Arm{
			{Pattern: variantOf(split, name), Body: &ir.Block{Tail: r.expr(body)}},
			{Pattern: wildcard(split.Meta.Type, at), Body: &ir.Block{Tail: &ir.DefaultExpr{Meta: leaf.Copy()}}},
		},
		Form: ir.MatchConditional,
		Meta: leaf,
	}, true
}

// assign writes through an enum-valued field by binding the variant
// payload mutably first.
func (r *rewriter) assign(s *ir.AssignStmt) ir.Stmt {
	chain := memberChain(s.Target)
	k := crossing(chain)
	if k < 0 {
		return &ir.AssignStmt{Target: r.expr(s.Target), Value: r.expr(s.Value), Span: s.Span}
	}
	split := chain[k]
	name := r.fresh(split.FMeta.Name)
	inner := &ir.AssignStmt{
		Target: rebuild(s.Target, chain, k, r.ident(name, split.Meta.Type, ir.UnwrapNone, split.Meta.Span)),
		Value:  s.Value,
		Span:   s.Span,
	}
	return &ir.IfLetStmt{
		Pattern: variantOf(split, name),
		Value:   r.scrutinee(split, ir.UnwrapRefMut),
		Then:    &ir.Block{Stmts: []ir.Stmt{r.assign(inner)}},
		Span:    s.Span,
	}
}

// levelType is the type of the temporary a desugared level binds.
func levelType(d *ir.DesugarStrategy) *ir.Type {
	if d.Type == nil {
		return ir.Unknown
	}
	return d.Type
}

// outerLevel matches the outer level of a multi-level pattern, binding
// what the inner level re-matches to name.
func outerLevel(p ir.Pattern, d *ir.DesugarStrategy, name string) ir.Pattern {
	m := p.Metadata()
	out := &ir.VariantPattern{
		Args: []ir.Pattern{&ir.BindingPattern{Name: name, Meta: &ir.PatternMeta{Type: levelType(d), Span: m.Span, Synthesized: true}}},
		Meta: &ir.PatternMeta{Path: d.OuterPath, Test: ir.TestVariant, Type: m.Type, Span: m.Span},
	}
	if v, ok := p.(*ir.VariantPattern); ok {
		out.Path = append([]string(nil), v.Path...)
	}
	return out
}

// innerLevel is p with its first level peeled off.
func innerLevel(p ir.Pattern, d *ir.DesugarStrategy) ir.Pattern {
	c := ir.ClonePattern(p)
	m := c.Metadata()
	m.Desugar = d.Then
	m.Type = levelType(d)
	return c
}

func (r *rewriter) ifLet(s *ir.IfLetStmt) ir.Stmt {
	d := s.Pattern.Metadata().Desugar
	if d == nil {
		return &ir.IfLetStmt{
			Pattern: ir.ClonePattern(s.Pattern),
			Value:   r.expr(s.Value),
			Then:    r.block(s.Then),
			Else:    r.block(s.Else),
			Span:    s.Span,
		}
	}
	at := s.Pattern.Metadata().Span
	name := r.fresh(d.OuterBinding)
	inner := &ir.IfLetStmt{
		Pattern: innerLevel(s.Pattern, d),
		Value:   r.ident(name, levelType(d), d.Unwrap, at),
		Then:    s.Then,
		Else:    s.Else,
		Span:    s.Span,
	}
	// The else branch runs when either level fails, so it appears twice.
	return &ir.IfLetStmt{
		Pattern: outerLevel(s.Pattern, d, name),
		Value:   r.expr(s.Value),
		Then:    &ir.Block{Stmts: []ir.Stmt{r.ifLet(inner)}},
		Else:    r.block(s.Else),
		Span:    s.Span,
	}
}

func isCatchAll(a *ir.Arm) bool {
	_, ok := a.Pattern.(*ir.WildcardPattern)
	return ok && a.Guard == nil
}

// wrap places a nested match where body had its statements or its tail.
func wrap(x ir.Expr, body *ir.Block) *ir.Block {
	if body != nil && body.Tail != nil {
		return &ir.Block{Tail: x}
	}
	return &ir.Block{Stmts: []ir.Stmt{&ir.ExprStmt{X: x, Span: x.Metadata().Span}}}
}

// nestedForm is the form of a match produced while peeling a level off
// one of m's arms.
func nestedForm(m *ir.MatchExpr) ir.MatchForm {
	if m.Form == ir.MatchShapeTest {
		return ir.MatchShapeTest
	}
	return ir.MatchPlain
}

func (r *rewriter) match(m *ir.MatchExpr) ir.Expr {
	out := &ir.MatchExpr{X: r.expr(m.X), Form: m.Form, Meta: m.Meta.Copy()}
	for i, a := range m.Arms {
		d := a.Pattern.Metadata().Desugar
		if d == nil {
			out.Arms = append(out.Arms, &ir.Arm{
				Pattern: ir.ClonePattern(a.Pattern),
				Guard:   r.expr(a.Guard),
				Body:    r.block(a.Body),
			})
			continue
		}
		at := a.Pattern.Metadata().Span
		name := r.fresh(d.OuterBinding)
		outer := outerLevel(a.Pattern, d, name)

		if a.Guard == nil && i == len(m.Arms)-2 && isCatchAll(m.Arms[i+1]) {
			// Only the catch-all follows: nest, and fall back to it at
			// both levels.
			fallback := m.Arms[i+1]
			nested := &ir.MatchExpr{
				X: r.ident(name, levelType(d), d.Unwrap, at),
				Arms: []*ir.Arm{
					{Pattern: innerLevel(a.Pattern, d), Body: a.Body},
					{Pattern: fallback.Pattern, Body: fallback.Body},
				},
				Form: nestedForm(m),
				Meta: m.Meta.Copy(),
			}
			out.Arms = append(out.Arms, &ir.Arm{Pattern: outer, Body: wrap(r.match(nested), a.Body)})
			continue
		}

		// Later arms must still be tried when the inner level fails, so
		// the inner level moves into the guard and the body re-matches.
		test := &ir.MatchExpr{
			X: r.ident(name, levelType(d), d.Unwrap, at),
			Arms: []*ir.Arm{
				{Pattern: innerLevel(a.Pattern, d), Guard: a.Guard, Body: &ir.Block{Tail: boolLit("true", at)}},
				{Pattern: wildcard(levelType(d), at), Body: &ir.Block{Tail: boolLit("false", at)}},
			},
			Form: ir.MatchShapeTest,
			Meta: &ir.ExprMeta{Type: ir.Bool, Target: "bool", Span: at},
		}
		body := &ir.MatchExpr{
			X: r.ident(name, levelType(d), d.Unwrap, at),
			Arms: []*ir.Arm{
				{Pattern: innerLevel(a.Pattern, d), Body: a.Body},
				{Pattern: wildcard(levelType(d), at), Body: &ir.Block{Tail: &ir.UnreachableExpr{Meta: m.Meta.Copy()}}},
			},
			Form: nestedForm(m),
			Meta: m.Meta.Copy(),
		}
		out.Arms = append(out.Arms, &ir.Arm{Pattern: outer, Guard: r.match(test), Body: wrap(r.match(body), a.Body)})
	}
	return out
}

// shapeTest expands matches(x, P) into a match yielding a boolean. A
// negated test swaps the two results.
func (r *rewriter) shapeTest(e *ir.MatchesExpr, negate bool) ir.Expr {
	yes, no := "true", "false"
	if negate {
		yes, no = no, yes
	}
	at := e.Meta.Span
	return r.match(&ir.MatchExpr{
		X: e.X,
		Arms: []*ir.Arm{
			{Pattern: e.Pattern, Body: &ir.Block{Tail: boolLit(yes, at)}},
			{Pattern: wildcard(e.Pattern.Metadata().Type, at), Body: &ir.Block{Tail: boolLit(no, at)}},
		},
		Form: ir.MatchShapeTest,
		Meta: &ir.ExprMeta{Type: ir.Bool, Target: e.Meta.Target, Span: at},
	})
}
