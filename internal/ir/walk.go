package ir

// Inspect traverses the tree rooted at node in depth-first order, calling
// f for every declaration, block, statement, arm, expression and pattern.
// If f returns false the children of that node are skipped.
func Inspect(node interface{}, f func(interface{}) bool) {
	if node == nil || !f(node) {
		return
	}
	switch n := node.(type) {
	case *Program:
		for _, d := range n.Decls {
			Inspect(d, f)
		}
	case *Plugin:
		for _, d := range n.Items {
			Inspect(d, f)
		}
	case *Func:
		inspectBlock(n.Body, f)
	case *Impl:
		for _, m := range n.Methods {
			Inspect(m, f)
		}
	case *Struct, *Enum:

	case *Block:
		for _, s := range n.Stmts {
			Inspect(s, f)
		}
		inspectExpr(n.Tail, f)
	case *LetStmt:
		inspectExpr(n.Value, f)
	case *AssignStmt:
		inspectExpr(n.Target, f)
		inspectExpr(n.Value, f)
	case *ExprStmt:
		inspectExpr(n.X, f)
	case *ReturnStmt:
		inspectExpr(n.Value, f)
	case *IfStmt:
		inspectExpr(n.Cond, f)
		inspectBlock(n.Then, f)
		inspectBlock(n.Else, f)
	case *IfLetStmt:
		inspectPattern(n.Pattern, f)
		inspectExpr(n.Value, f)
		inspectBlock(n.Then, f)
		inspectBlock(n.Else, f)
	case *WhileStmt:
		inspectExpr(n.Cond, f)
		inspectBlock(n.Body, f)
	case *ForStmt:
		inspectExpr(n.Iter, f)
		inspectBlock(n.Body, f)
	case *PropSetStmt:
		inspectExpr(n.Node, f)
		inspectExpr(n.Value, f)
	case *DeclStmt:
		Inspect(n.Decl, f)
	case *BreakStmt, *ContinueStmt:

	case *Arm:
		inspectPattern(n.Pattern, f)
		inspectExpr(n.Guard, f)
		inspectBlock(n.Body, f)

	case *UnaryExpr:
		inspectExpr(n.X, f)
	case *BinaryExpr:
		inspectExpr(n.Left, f)
		inspectExpr(n.Right, f)
	case *MemberExpr:
		inspectExpr(n.Object, f)
	case *CallExpr:
		inspectExpr(n.Callee, f)
		for _, a := range n.Args {
			inspectExpr(a, f)
		}
	case *StructLit:
		for _, fv := range n.Fields {
			inspectExpr(fv.Value, f)
		}
	case *ArrayLit:
		for _, e := range n.Elems {
			inspectExpr(e, f)
		}
	case *MatchesExpr:
		inspectExpr(n.X, f)
		inspectPattern(n.Pattern, f)
	case *MatchExpr:
		inspectExpr(n.X, f)
		for _, a := range n.Arms {
			Inspect(a, f)
		}
	case *PropGetExpr:
		inspectExpr(n.Node, f)

	case *VariantPattern:
		for _, a := range n.Args {
			inspectPattern(a, f)
		}
	case *LitPattern:
		if n.Value != nil {
			Inspect(n.Value, f)
		}
	}
}

// The helpers below keep typed nils out of Inspect.

func inspectBlock(b *Block, f func(interface{}) bool) {
	if b != nil {
		Inspect(b, f)
	}
}

func inspectExpr(e Expr, f func(interface{}) bool) {
	if e != nil {
		Inspect(e, f)
	}
}

func inspectPattern(p Pattern, f func(interface{}) bool) {
	if p != nil {
		Inspect(p, f)
	}
}

// BoundNames returns every name bound by p.
func BoundNames(p Pattern) []string {
	var names []string
	Inspect(p, func(n interface{}) bool {
		if b, ok := n.(*BindingPattern); ok {
			names = append(names, b.Name)
		}
		return true
	})
	return names
}
