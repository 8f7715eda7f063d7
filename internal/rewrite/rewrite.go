// Package rewrite lowers a decorated program into the form the emitters
// print directly. Member chains that cross an enum-valued field become
// conditional matches, multi-level patterns become nested matches,
// replacement fields become their replacement and shape tests become
// boolean matches. Rewriting never mutates its input and reaches a fixed
// point in one pass: rewriting its output again changes nothing.
package rewrite

import (
	"fmt"
	"strings"

	"github.com/lhaig/relux/internal/ir"
)

// Rewrite returns the rewritten copy of p. A result that still needs
// rewriting is an internal error raised as *ir.InvariantError.
func Rewrite(p *ir.Program) *ir.Program {
	out := &ir.Program{Backend: p.Backend}
	if len(p.Uses) > 0 {
		out.Uses = append([]string(nil), p.Uses...)
	}
	for _, d := range p.Decls {
		out.Decls = append(out.Decls, decl(d))
	}
	if errs := ir.ValidateRewritten(out); len(errs) > 0 {
		panic(&ir.InvariantError{Stage: "rewrite", Msgs: errs})
	}
	return out
}

func decl(d ir.Decl) ir.Decl {
	switch d := d.(type) {
	case *ir.Plugin:
		c := ir.CloneDecl(&ir.Plugin{Name: d.Name, IsWriter: d.IsWriter, Meta: d.Meta, Span: d.Span}).(*ir.Plugin)
		for _, it := range d.Items {
			c.Items = append(c.Items, decl(it))
		}
		return c
	case *ir.Func:
		return newRewriter(d).function()
	case *ir.Impl:
		c := &ir.Impl{Target: d.Target, Span: d.Span}
		for _, m := range d.Methods {
			c.Methods = append(c.Methods, newRewriter(m).function())
		}
		return c
	}
	return ir.CloneDecl(d)
}

// rewriter rewrites one function body. Names it introduces are unique
// within the function and never collide with a name the function uses.
type rewriter struct {
	fn    *ir.Func
	taken map[string]bool
	n     int
}

func newRewriter(fn *ir.Func) *rewriter {
	r := &rewriter{fn: fn, taken: make(map[string]bool)}
	for _, p := range fn.Params {
		r.taken[p.Name] = true
	}
	ir.Inspect(fn.Body, func(n interface{}) bool {
		switch n := n.(type) {
		case *ir.DeclStmt:
			return false
		case *ir.LetStmt:
			r.taken[n.Name] = true
		case *ir.ForStmt:
			r.taken[n.Var] = true
		case *ir.BindingPattern:
			r.taken[n.Name] = true
		case *ir.Ident:
			r.taken[n.Name] = true
		}
		return true
	})
	return r
}

func (r *rewriter) function() *ir.Func {
	c := *r.fn
	c.Params = nil
	for _, p := range r.fn.Params {
		pc := *p
		c.Params = append(c.Params, &pc)
	}
	if r.fn.Meta != nil {
		m := *r.fn.Meta
		c.Meta = &m
	}
	c.Body = r.block(r.fn.Body)
	return &c
}

// fresh returns an unused name derived from hint.
func (r *rewriter) fresh(hint string) string {
	hint = strings.Map(func(c rune) rune {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			return c
		}
		return '_'
	}, hint)
	if hint == "" {
		hint = "tmp"
	}
	for {
		name := fmt.Sprintf("%s%s_%d", ir.SynthesizedPrefix, hint, r.n)
		r.n++
		if !r.taken[name] {
			r.taken[name] = true
			return name
		}
	}
}

func (r *rewriter) block(b *ir.Block) *ir.Block {
	if b == nil {
		return nil
	}
	out := &ir.Block{}
	for _, s := range b.Stmts {
		out.Stmts = append(out.Stmts, r.stmt(s))
	}
	out.Tail = r.expr(b.Tail)
	return out
}

func (r *rewriter) stmt(s ir.Stmt) ir.Stmt {
	switch s := s.(type) {
	case *ir.LetStmt:
		c := *s
		c.Value = r.expr(s.Value)
		return &c
	case *ir.AssignStmt:
		return r.assign(s)
	case *ir.ExprStmt:
		return &ir.ExprStmt{X: r.expr(s.X), Span: s.Span}
	case *ir.ReturnStmt:
		return &ir.ReturnStmt{Value: r.expr(s.Value), Span: s.Span}
	case *ir.IfStmt:
		return &ir.IfStmt{Cond: r.expr(s.Cond), Then: r.block(s.Then), Else: r.block(s.Else), Span: s.Span}
	case *ir.IfLetStmt:
		return r.ifLet(s)
	case *ir.WhileStmt:
		return &ir.WhileStmt{Cond: r.expr(s.Cond), Body: r.block(s.Body), Span: s.Span}
	case *ir.ForStmt:
		return &ir.ForStmt{Var: s.Var, Iter: r.expr(s.Iter), Body: r.block(s.Body), Span: s.Span}
	case *ir.PropSetStmt:
		c := ir.CloneStmt(&ir.PropSetStmt{Prop: s.Prop, Delete: s.Delete, Span: s.Span}).(*ir.PropSetStmt)
		c.Node, c.Value = r.expr(s.Node), r.expr(s.Value)
		return c
	case *ir.DeclStmt:
		return &ir.DeclStmt{Decl: decl(s.Decl), Span: s.Span}
	}
	return ir.CloneStmt(s)
}

func (r *rewriter) expr(e ir.Expr) ir.Expr {
	switch e := e.(type) {
	case nil:
		return nil
	case *ir.MemberExpr:
		if e.FMeta != nil && e.FMeta.Accessor.Kind == ir.Replace {
			m := e.Meta.Copy()
			m.Name = e.FMeta.Accessor.With
			return &ir.Ident{Name: e.FMeta.Accessor.With, Meta: m}
		}
		if out, ok := r.unwrapChain(e); ok {
			return out
		}
		return &ir.MemberExpr{Object: r.expr(e.Object), Field: e.Field, Meta: e.Meta.Copy(), FMeta: e.FMeta.Copy()}
	case *ir.CallExpr:
		if out, ok := r.unwrapChain(e); ok {
			return out
		}
		c := &ir.CallExpr{Callee: r.expr(e.Callee), Meta: e.Meta.Copy()}
		for _, a := range e.Args {
			c.Args = append(c.Args, r.expr(a))
		}
		return c
	case *ir.UnaryExpr:
		if m, ok := e.X.(*ir.MatchesExpr); ok && e.Op == "!" {
			return r.shapeTest(m, true)
		}
		return &ir.UnaryExpr{Op: e.Op, X: r.expr(e.X), Meta: e.Meta.Copy()}
	case *ir.BinaryExpr:
		c := ir.CloneExpr(&ir.BinaryExpr{Op: e.Op, Meta: e.Meta, Bin: e.Bin}).(*ir.BinaryExpr)
		c.Left, c.Right = r.expr(e.Left), r.expr(e.Right)
		return c
	case *ir.StructLit:
		c := &ir.StructLit{Name: e.Name, Meta: e.Meta.Copy()}
		for _, f := range e.Fields {
			c.Fields = append(c.Fields, &ir.FieldValue{Name: f.Name, Value: r.expr(f.Value)})
		}
		return c
	case *ir.ArrayLit:
		c := &ir.ArrayLit{Meta: e.Meta.Copy()}
		for _, el := range e.Elems {
			c.Elems = append(c.Elems, r.expr(el))
		}
		return c
	case *ir.MatchesExpr:
		return r.shapeTest(e, false)
	case *ir.MatchExpr:
		return r.match(e)
	case *ir.PropGetExpr:
		c := ir.CloneExpr(&ir.PropGetExpr{Prop: e.Prop, Meta: e.Meta}).(*ir.PropGetExpr)
		c.Node = r.expr(e.Node)
		return c
	}
	return ir.CloneExpr(e)
}
