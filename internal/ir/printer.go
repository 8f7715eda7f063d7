package ir

import (
	"fmt"
	"strings"
)

// Print returns a tree-like string representation of a decorated program,
// including the metadata each node carries, for debugging.
func Print(node interface{}) string {
	var sb strings.Builder
	printNode(&sb, node, 0)
	return sb.String()
}

var funcKindNames = [...]string{"helper", "method", "visitor", "pre", "exit"}

func printNode(sb *strings.Builder, node interface{}, indent int) {
	prefix := strings.Repeat("  ", indent)

	switch n := node.(type) {
	case nil:
		return

	case *Program:
		sb.WriteString(fmt.Sprintf("%sProgram [%s]\n", prefix, n.Backend))
		for _, d := range n.Decls {
			printNode(sb, d, indent+1)
		}

	case *Plugin:
		kind := "Plugin"
		if n.IsWriter {
			kind = "Writer"
		}
		sb.WriteString(fmt.Sprintf("%s%s %s", prefix, kind, n.Name))
		if n.Meta != nil && len(n.Meta.Props) > 0 {
			names := make([]string, len(n.Meta.Props))
			for i, p := range n.Meta.Props {
				names[i] = p.Name + "(" + p.Target + ")"
			}
			sb.WriteString(" props=[" + strings.Join(names, ", ") + "]")
		}
		sb.WriteString("\n")
		for _, it := range n.Items {
			printNode(sb, it, indent+1)
		}

	case *Struct:
		sb.WriteString(fmt.Sprintf("%sStruct %s\n", prefix, n.Name))
		for _, f := range n.Fields {
			sb.WriteString(fmt.Sprintf("%s  %s: %s (%s)\n", prefix, f.Name, f.Type, f.Target))
		}

	case *Enum:
		sb.WriteString(fmt.Sprintf("%sEnum %s\n", prefix, n.Name))
		for _, v := range n.Variants {
			types := make([]string, len(v.Fields))
			for i, f := range v.Fields {
				types[i] = f.Type.String()
			}
			sb.WriteString(fmt.Sprintf("%s  %s(%s)\n", prefix, v.Name, strings.Join(types, ", ")))
		}

	case *Func:
		sb.WriteString(fmt.Sprintf("%sFunc %s", prefix, n.Name))
		if n.Meta != nil {
			sb.WriteString(fmt.Sprintf(" [%s", funcKindNames[n.Meta.Kind]))
			if n.Meta.Target != "" {
				sb.WriteString(" -> " + n.Meta.Target)
			}
			sb.WriteString("]")
		}
		if n.Return != nil && n.Return != Unit {
			sb.WriteString(fmt.Sprintf(" -> %s", n.Return))
		}
		sb.WriteString("\n")
		for _, p := range n.Params {
			sb.WriteString(fmt.Sprintf("%s  Param %s: %s (%s)\n", prefix, p.Name, p.Type, p.Target))
		}
		printNode(sb, n.Body, indent+1)

	case *Impl:
		sb.WriteString(fmt.Sprintf("%sImpl %s\n", prefix, n.Target))
		for _, m := range n.Methods {
			printNode(sb, m, indent+1)
		}

	case *Block:
		if n == nil {
			return
		}
		sb.WriteString(prefix + "Block\n")
		for _, s := range n.Stmts {
			printNode(sb, s, indent+1)
		}
		if n.Tail != nil {
			sb.WriteString(prefix + "  Tail\n")
			printNode(sb, n.Tail, indent+2)
		}

	case *LetStmt:
		sb.WriteString(fmt.Sprintf("%sLet %s: %s\n", prefix, n.Name, n.Type))
		printNode(sb, n.Value, indent+1)

	case *AssignStmt:
		sb.WriteString(prefix + "Assign\n")
		printNode(sb, n.Target, indent+1)
		printNode(sb, n.Value, indent+1)

	case *ExprStmt:
		sb.WriteString(prefix + "ExprStmt\n")
		printNode(sb, n.X, indent+1)

	case *ReturnStmt:
		sb.WriteString(prefix + "Return\n")
		if n.Value != nil {
			printNode(sb, n.Value, indent+1)
		}

	case *IfStmt:
		sb.WriteString(prefix + "If\n")
		printNode(sb, n.Cond, indent+1)
		printNode(sb, n.Then, indent+1)
		if n.Else != nil {
			sb.WriteString(prefix + "Else\n")
			printNode(sb, n.Else, indent+1)
		}

	case *IfLetStmt:
		sb.WriteString(prefix + "IfLet\n")
		printNode(sb, n.Pattern, indent+1)
		printNode(sb, n.Value, indent+1)
		printNode(sb, n.Then, indent+1)
		if n.Else != nil {
			sb.WriteString(prefix + "Else\n")
			printNode(sb, n.Else, indent+1)
		}

	case *WhileStmt:
		sb.WriteString(prefix + "While\n")
		printNode(sb, n.Cond, indent+1)
		printNode(sb, n.Body, indent+1)

	case *ForStmt:
		sb.WriteString(fmt.Sprintf("%sFor %s\n", prefix, n.Var))
		printNode(sb, n.Iter, indent+1)
		printNode(sb, n.Body, indent+1)

	case *BreakStmt:
		sb.WriteString(prefix + "Break\n")

	case *ContinueStmt:
		sb.WriteString(prefix + "Continue\n")

	case *PropSetStmt:
		verb := "PropSet"
		if n.Delete {
			verb = "PropDelete"
		}
		sb.WriteString(fmt.Sprintf("%s%s %s\n", prefix, verb, propString(n.Prop)))
		printNode(sb, n.Node, indent+1)
		if n.Value != nil {
			printNode(sb, n.Value, indent+1)
		}

	case *DeclStmt:
		printNode(sb, n.Decl, indent)

	case *Arm:
		sb.WriteString(prefix + "Arm\n")
		printNode(sb, n.Pattern, indent+1)
		if n.Guard != nil {
			sb.WriteString(prefix + "  Guard\n")
			printNode(sb, n.Guard, indent+2)
		}
		printNode(sb, n.Body, indent+1)

	case Expr:
		printExpr(sb, n, prefix, indent)

	case Pattern:
		printPattern(sb, n, prefix, indent)

	default:
		sb.WriteString(fmt.Sprintf("%s<unknown node: %T>\n", prefix, node))
	}
}

func printExpr(sb *strings.Builder, e Expr, prefix string, indent int) {
	var head string
	switch n := e.(type) {
	case *Ident:
		head = "Ident " + n.Name
	case *SelfExpr:
		head = "Self"
	case *Lit:
		head = "Lit " + n.Value
		if n.Kind == LitStr {
			head = fmt.Sprintf("Lit %q", n.Value)
		}
	case *UnaryExpr:
		head = "Unary " + n.Op
	case *BinaryExpr:
		head = "Binary " + n.Op
		if n.Bin != nil && (n.Bin.LeftDeref || n.Bin.RightDeref) {
			head += fmt.Sprintf(" deref=%t/%t", n.Bin.LeftDeref, n.Bin.RightDeref)
		}
	case *MemberExpr:
		head = "Member ." + n.Field
		if n.FMeta != nil {
			head += fmt.Sprintf(" -> .%s %s", n.FMeta.Name, n.FMeta.Accessor)
		}
	case *PathExpr:
		head = "Path " + strings.Join(n.Segments, "::")
	case *CallExpr:
		head = "Call"
	case *StructLit:
		head = "StructLit " + n.Name
	case *ArrayLit:
		head = "Array"
	case *MatchesExpr:
		head = "Matches"
	case *MatchExpr:
		head = "Match"
		switch n.Form {
		case MatchConditional:
			head += " conditional"
		case MatchShapeTest:
			head += " shape-test"
		}
	case *PropGetExpr:
		head = "PropGet " + propString(n.Prop)
	case *DefaultExpr:
		head = "Default"
	case *UnreachableExpr:
		head = "Unreachable"
	}
	sb.WriteString(prefix + head + metaSuffix(e.Metadata()) + "\n")

	switch n := e.(type) {
	case *UnaryExpr:
		printNode(sb, n.X, indent+1)
	case *BinaryExpr:
		printNode(sb, n.Left, indent+1)
		printNode(sb, n.Right, indent+1)
	case *MemberExpr:
		printNode(sb, n.Object, indent+1)
	case *CallExpr:
		printNode(sb, n.Callee, indent+1)
		for _, a := range n.Args {
			printNode(sb, a, indent+1)
		}
	case *StructLit:
		for _, f := range n.Fields {
			sb.WriteString(fmt.Sprintf("%s  %s:\n", prefix, f.Name))
			printNode(sb, f.Value, indent+2)
		}
	case *ArrayLit:
		for _, el := range n.Elems {
			printNode(sb, el, indent+1)
		}
	case *MatchesExpr:
		printNode(sb, n.X, indent+1)
		printNode(sb, n.Pattern, indent+1)
	case *MatchExpr:
		printNode(sb, n.X, indent+1)
		for _, a := range n.Arms {
			printNode(sb, a, indent+1)
		}
	case *PropGetExpr:
		printNode(sb, n.Node, indent+1)
	}
}

func printPattern(sb *strings.Builder, p Pattern, prefix string, indent int) {
	m := p.Metadata()
	switch n := p.(type) {
	case *WildcardPattern:
		sb.WriteString(prefix + "Pattern _\n")
	case *BindingPattern:
		sb.WriteString(prefix + "Pattern bind " + n.Name + "\n")
	case *LitPattern:
		sb.WriteString(prefix + "Pattern literal\n")
		printNode(sb, n.Value, indent+1)
	case *VariantPattern:
		head := prefix + "Pattern " + strings.Join(n.Path, "::")
		if m != nil {
			head += " -> " + m.Path + " [" + m.Test.String() + "]"
			if m.Desugar != nil {
				head += fmt.Sprintf(" desugar(%s / %s, %s)", m.Desugar.OuterPath, m.Desugar.InnerPath, m.Desugar.Unwrap)
			}
		}
		sb.WriteString(head + "\n")
		for _, a := range n.Args {
			printNode(sb, a, indent+1)
		}
	}
}

func metaSuffix(m *ExprMeta) string {
	if m == nil {
		return " <undecorated>"
	}
	s := " : " + m.Type.String()
	if m.Target != "" {
		s += " (" + m.Target + ")"
	}
	if m.Unwrap != UnwrapNone {
		s += " unwrap=" + m.Unwrap.String()
	}
	var flags []string
	for _, f := range []struct {
		on   bool
		name string
	}{
		{m.Into, "into"}, {m.ToOwned, "to_owned"}, {m.BoxNew, "box"},
		{m.Macro, "macro"}, {m.Property, "property"}, {m.Inline, "inline"}, {m.SelfCall, "self"},
	} {
		if f.on {
			flags = append(flags, f.name)
		}
	}
	if len(flags) > 0 {
		s += " [" + strings.Join(flags, ",") + "]"
	}
	return s
}

func propString(p *PropRef) string {
	if p == nil {
		return "<untyped>"
	}
	return fmt.Sprintf("%s: %s", p.Name, p.Type)
}
