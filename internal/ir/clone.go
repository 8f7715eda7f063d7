package ir

import "fmt"

// CloneBlock deep-copies a block, including metadata records.
func CloneBlock(b *Block) *Block {
	if b == nil {
		return nil
	}
	out := &Block{Stmts: make([]Stmt, 0, len(b.Stmts)), Tail: CloneExpr(b.Tail)}
	for _, s := range b.Stmts {
		out.Stmts = append(out.Stmts, CloneStmt(s))
	}
	return out
}

// CloneStmt deep-copies a statement.
func CloneStmt(s Stmt) Stmt {
	switch s := s.(type) {
	case nil:
		return nil
	case *LetStmt:
		c := *s
		c.Value = CloneExpr(s.Value)
		return &c
	case *AssignStmt:
		return &AssignStmt{Target: CloneExpr(s.Target), Value: CloneExpr(s.Value), Span: s.Span}
	case *ExprStmt:
		return &ExprStmt{X: CloneExpr(s.X), Span: s.Span}
	case *ReturnStmt:
		return &ReturnStmt{Value: CloneExpr(s.Value), Span: s.Span}
	case *IfStmt:
		return &IfStmt{Cond: CloneExpr(s.Cond), Then: CloneBlock(s.Then), Else: CloneBlock(s.Else), Span: s.Span}
	case *IfLetStmt:
		return &IfLetStmt{
			Pattern: ClonePattern(s.Pattern), Value: CloneExpr(s.Value),
			Then: CloneBlock(s.Then), Else: CloneBlock(s.Else), Span: s.Span,
		}
	case *WhileStmt:
		return &WhileStmt{Cond: CloneExpr(s.Cond), Body: CloneBlock(s.Body), Span: s.Span}
	case *ForStmt:
		return &ForStmt{Var: s.Var, Iter: CloneExpr(s.Iter), Body: CloneBlock(s.Body), Span: s.Span}
	case *BreakStmt:
		c := *s
		return &c
	case *ContinueStmt:
		c := *s
		return &c
	case *PropSetStmt:
		return &PropSetStmt{Node: CloneExpr(s.Node), Prop: cloneProp(s.Prop), Value: CloneExpr(s.Value), Delete: s.Delete, Span: s.Span}
	case *DeclStmt:
		return &DeclStmt{Decl: CloneDecl(s.Decl), Span: s.Span}
	}
	panic(fmt.Sprintf("ir: CloneStmt: unexpected %T", s))
}

// CloneExpr deep-copies an expression.
func CloneExpr(e Expr) Expr {
	switch e := e.(type) {
	case nil:
		return nil
	case *Ident:
		return &Ident{Name: e.Name, Meta: e.Meta.Copy()}
	case *SelfExpr:
		return &SelfExpr{Meta: e.Meta.Copy()}
	case *Lit:
		return cloneLit(e)
	case *UnaryExpr:
		return &UnaryExpr{Op: e.Op, X: CloneExpr(e.X), Meta: e.Meta.Copy()}
	case *BinaryExpr:
		c := &BinaryExpr{Op: e.Op, Left: CloneExpr(e.Left), Right: CloneExpr(e.Right), Meta: e.Meta.Copy()}
		if e.Bin != nil {
			bin := *e.Bin
			c.Bin = &bin
		}
		return c
	case *MemberExpr:
		return &MemberExpr{Object: CloneExpr(e.Object), Field: e.Field, Meta: e.Meta.Copy(), FMeta: e.FMeta.Copy()}
	case *PathExpr:
		return &PathExpr{Segments: append([]string(nil), e.Segments...), Meta: e.Meta.Copy()}
	case *CallExpr:
		c := &CallExpr{Callee: CloneExpr(e.Callee), Meta: e.Meta.Copy()}
		for _, a := range e.Args {
			c.Args = append(c.Args, CloneExpr(a))
		}
		return c
	case *StructLit:
		c := &StructLit{Name: e.Name, Meta: e.Meta.Copy()}
		for _, f := range e.Fields {
			c.Fields = append(c.Fields, &FieldValue{Name: f.Name, Value: CloneExpr(f.Value)})
		}
		return c
	case *ArrayLit:
		c := &ArrayLit{Meta: e.Meta.Copy()}
		for _, el := range e.Elems {
			c.Elems = append(c.Elems, CloneExpr(el))
		}
		return c
	case *MatchesExpr:
		return &MatchesExpr{X: CloneExpr(e.X), Pattern: ClonePattern(e.Pattern), Meta: e.Meta.Copy()}
	case *MatchExpr:
		c := &MatchExpr{X: CloneExpr(e.X), Form: e.Form, Meta: e.Meta.Copy()}
		for _, a := range e.Arms {
			c.Arms = append(c.Arms, CloneArm(a))
		}
		return c
	case *PropGetExpr:
		return &PropGetExpr{Node: CloneExpr(e.Node), Prop: cloneProp(e.Prop), Meta: e.Meta.Copy()}
	case *DefaultExpr:
		return &DefaultExpr{Meta: e.Meta.Copy()}
	case *UnreachableExpr:
		return &UnreachableExpr{Meta: e.Meta.Copy()}
	}
	panic(fmt.Sprintf("ir: CloneExpr: unexpected %T", e))
}

// CloneArm deep-copies a match arm.
func CloneArm(a *Arm) *Arm {
	if a == nil {
		return nil
	}
	return &Arm{Pattern: ClonePattern(a.Pattern), Guard: CloneExpr(a.Guard), Body: CloneBlock(a.Body)}
}

// ClonePattern deep-copies a pattern.
func ClonePattern(p Pattern) Pattern {
	switch p := p.(type) {
	case nil:
		return nil
	case *WildcardPattern:
		return &WildcardPattern{Meta: p.Meta.Copy()}
	case *BindingPattern:
		return &BindingPattern{Name: p.Name, Meta: p.Meta.Copy()}
	case *LitPattern:
		return &LitPattern{Value: cloneLit(p.Value), Meta: p.Meta.Copy()}
	case *VariantPattern:
		c := &VariantPattern{Path: append([]string(nil), p.Path...), Meta: p.Meta.Copy()}
		for _, a := range p.Args {
			c.Args = append(c.Args, ClonePattern(a))
		}
		return c
	}
	panic(fmt.Sprintf("ir: ClonePattern: unexpected %T", p))
}

// CloneDecl deep-copies a declaration.
func CloneDecl(d Decl) Decl {
	switch d := d.(type) {
	case nil:
		return nil
	case *Plugin:
		c := &Plugin{Name: d.Name, IsWriter: d.IsWriter, Span: d.Span}
		if d.Meta != nil {
			m := *d.Meta
			m.Props = append([]PropVariant(nil), d.Meta.Props...)
			m.Helpers = append([]string(nil), d.Meta.Helpers...)
			c.Meta = &m
		}
		for _, it := range d.Items {
			c.Items = append(c.Items, CloneDecl(it))
		}
		return c
	case *Struct:
		c := *d
		c.Fields = cloneFields(d.Fields)
		return &c
	case *Enum:
		c := &Enum{Name: d.Name, Span: d.Span}
		for _, v := range d.Variants {
			c.Variants = append(c.Variants, &Variant{Name: v.Name, Fields: cloneFields(v.Fields)})
		}
		return c
	case *Func:
		return CloneFunc(d)
	case *Impl:
		c := &Impl{Target: d.Target, Span: d.Span}
		for _, m := range d.Methods {
			c.Methods = append(c.Methods, CloneFunc(m))
		}
		return c
	}
	panic(fmt.Sprintf("ir: CloneDecl: unexpected %T", d))
}

// CloneFunc deep-copies a function.
func CloneFunc(f *Func) *Func {
	c := *f
	c.Params = nil
	for _, p := range f.Params {
		pc := *p
		c.Params = append(c.Params, &pc)
	}
	if f.Meta != nil {
		m := *f.Meta
		c.Meta = &m
	}
	c.Body = CloneBlock(f.Body)
	return &c
}

// CloneProgram deep-copies a program.
func CloneProgram(p *Program) *Program {
	c := &Program{Uses: append([]string(nil), p.Uses...), Backend: p.Backend}
	for _, d := range p.Decls {
		c.Decls = append(c.Decls, CloneDecl(d))
	}
	return c
}

func cloneLit(l *Lit) *Lit {
	if l == nil {
		return nil
	}
	return &Lit{Kind: l.Kind, Value: l.Value, Meta: l.Meta.Copy()}
}

func cloneProp(p *PropRef) *PropRef {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func cloneFields(fs []*Field) []*Field {
	var out []*Field
	for _, f := range fs {
		fc := *f
		out = append(out, &fc)
	}
	return out
}
