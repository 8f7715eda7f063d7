package decorate

import (
	"github.com/lhaig/relux/internal/ast"
	"github.com/lhaig/relux/internal/ir"
	"github.com/lhaig/relux/internal/props"
)

func (d *Decorator) block(b *ast.Block) *ir.Block {
	if b == nil {
		return nil
	}
	saved := d.env
	d.env = NewTypeEnv(saved)
	defer func() { d.env = saved }()

	out := &ir.Block{}
	for _, s := range b.Statements {
		out.Stmts = append(out.Stmts, d.stmt(s))
	}
	return out
}

func (d *Decorator) stmt(s ast.Statement) ir.Stmt {
	switch s := s.(type) {
	case *ast.LetStmt:
		return d.letStmt(s)
	case *ast.AssignStmt:
		if m, ok := s.Target.(*ast.MemberExpr); ok && props.IsProperty(m.Field) {
			return d.propAssign(&ast.PropAssignStmt{Node: m.Object, Property: m.Field, Value: s.Value, Line: s.Line, Column: s.Column})
		}
		return d.assignStmt(s)
	case *ast.PropAssignStmt:
		return d.propAssign(s)
	case *ast.ExprStmt:
		return &ir.ExprStmt{X: d.expr(s.Expr, slotPlain), Span: span(s)}
	case *ast.ReturnStmt:
		out := &ir.ReturnStmt{Span: span(s)}
		if s.Value != nil {
			out.Value = d.expr(s.Value, slotValue)
		}
		return out
	case *ast.IfStmt:
		if s.Pattern != nil {
			return d.ifLet(s)
		}
		return &ir.IfStmt{
			Cond: d.expr(s.Condition, slotPlain),
			Then: d.block(s.Then),
			Else: d.block(s.Else),
			Span: span(s),
		}
	case *ast.MatchStmt:
		return d.matchStmt(s)
	case *ast.WhileStmt:
		return &ir.WhileStmt{Cond: d.expr(s.Condition, slotPlain), Body: d.block(s.Body), Span: span(s)}
	case *ast.ForStmt:
		return d.forStmt(s)
	case *ast.BreakStmt:
		return &ir.BreakStmt{Span: span(s)}
	case *ast.ContinueStmt:
		return &ir.ContinueStmt{Span: span(s)}
	case *ast.DeclStmt:
		return &ir.DeclStmt{Decl: d.nestedDecl(s.Decl), Span: span(s)}
	}
	ir.Failf("decorate", "unexpected statement %T", s)
	return nil
}

func (d *Decorator) letStmt(s *ast.LetStmt) ir.Stmt {
	value := d.expr(s.Value, slotValue)
	vm := value.Metadata()
	t := vm.Type
	out := &ir.LetStmt{Name: s.Name, Mutable: s.Mutable, Value: value, Span: span(s)}
	if s.Type != nil {
		t = ir.FromRef(s.Type)
		out.Target = d.tables.TargetType(t)
	}
	out.Type = t
	d.define(&Binding{
		Name:    s.Name,
		Type:    t,
		Target:  d.tables.TargetType(t),
		Mutable: s.Mutable,
		Ref:     d.tagged && d.borrows(value),
		Kind:    BindLocal,
	}, span(s))
	return out
}

// borrows reports whether a value expression yields a borrow on the tagged
// backend.
func (d *Decorator) borrows(e ir.Expr) bool {
	m := e.Metadata()
	if m.ToOwned || m.Into {
		return false
	}
	switch m.Unwrap {
	case ir.UnwrapRef, ir.UnwrapRefMut, ir.UnwrapDeref, ir.UnwrapBox, ir.UnwrapAsRef:
		return true
	}
	if id, ok := e.(*ir.Ident); ok {
		if b := d.env.Resolve(id.Name); b != nil {
			return b.Ref
		}
	}
	return false
}

func (d *Decorator) assignStmt(s *ast.AssignStmt) ir.Stmt {
	target := d.expr(s.Target, slotPlace)
	value := d.expr(s.Value, slotValue)
	if m, ok := target.(*ir.MemberExpr); ok && d.tagged {
		vm := value.Metadata()
		if m.FMeta.Interned {
			vm.Into, vm.ToOwned = true, false
		}
		switch m.FMeta.Accessor.Kind {
		case ir.BoxedAsRef, ir.BoxedRefDeref:
			vm.BoxNew = true
		}
	}
	return &ir.AssignStmt{Target: target, Value: value, Span: span(s)}
}

func (d *Decorator) propAssign(s *ast.PropAssignStmt) ir.Stmt {
	node := d.propNode(s.Node)
	nt := node.Metadata().Type
	isNode := d.tables.IsNode(nt.Name)
	at := span(s)
	if d.plugin != nil {
		d.plugin.usesProps = true
	}
	if _, absent := s.Value.(*ast.NullLit); absent {
		return &ir.PropSetStmt{
			Node:   node,
			Prop:   d.props.Delete(s.Property, nt, isNode, at),
			Delete: true,
			Span:   at,
		}
	}
	value := d.expr(s.Value, slotValue)
	vt := value.Metadata().Type
	if s.Type != nil {
		vt = ir.FromRef(s.Type)
	}
	return &ir.PropSetStmt{
		Node:  node,
		Prop:  d.props.Assign(s.Property, nt, isNode, vt, at),
		Value: value,
		Span:  at,
	}
}

func (d *Decorator) ifLet(s *ast.IfStmt) ir.Stmt {
	scrut := d.expr(s.Condition, slotScrutinee)

	saved := d.env
	d.env = NewTypeEnv(saved)
	pat := d.pattern(s.Pattern, scrut)
	then := d.block(s.Then)
	d.env = saved

	return &ir.IfLetStmt{
		Pattern: pat,
		Value:   scrut,
		Then:    then,
		Else:    d.block(s.Else),
		Span:    span(s),
	}
}

func (d *Decorator) matchStmt(s *ast.MatchStmt) ir.Stmt {
	scrut := d.expr(s.Value, slotScrutinee)
	m := &ir.MatchExpr{X: scrut, Form: ir.MatchPlain, Meta: d.meta(s, ir.Unit)}
	for _, a := range s.Arms {
		saved := d.env
		d.env = NewTypeEnv(saved)
		arm := &ir.Arm{Pattern: d.pattern(a.Pattern, scrut)}
		if a.Guard != nil {
			arm.Guard = d.expr(a.Guard, slotPlain)
		}
		arm.Body = d.block(a.Body)
		d.env = saved
		m.Arms = append(m.Arms, arm)
	}
	return &ir.ExprStmt{X: m, Span: span(s)}
}

func (d *Decorator) forStmt(s *ast.ForStmt) ir.Stmt {
	iter := d.expr(s.Iterable, slotIter)
	elem := iter.Metadata().Type.Elem()

	saved := d.env
	d.env = NewTypeEnv(saved)
	d.define(&Binding{
		Name:   s.Variable,
		Type:   elem,
		Target: d.tables.TargetType(elem),
		Ref:    d.tagged && !elem.IsPrimitive(),
		Kind:   BindLoop,
	}, span(s))
	body := d.block(s.Body)
	d.env = saved

	return &ir.ForStmt{Var: s.Variable, Iter: iter, Body: body, Span: span(s)}
}

// nestedDecl decorates a declaration statement. Nested functions get their
// own environment; nested types were collected up front.
func (d *Decorator) nestedDecl(decl ast.Declaration) ir.Decl {
	if fn, ok := decl.(*ast.FnDecl); ok {
		return d.function(fn, nil)
	}
	return d.decl(decl)
}
