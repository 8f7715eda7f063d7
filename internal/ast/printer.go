package ast

import (
	"fmt"
	"strings"
)

// Print returns a tree-like string representation of the AST for debugging
func Print(node Node) string {
	var sb strings.Builder
	printNode(&sb, node, 0)
	return sb.String()
}

func printNode(sb *strings.Builder, node Node, indent int) {
	if node == nil {
		return
	}

	prefix := strings.Repeat("  ", indent)

	switch n := node.(type) {
	case *Program:
		sb.WriteString(prefix + "Program\n")
		for _, u := range n.Uses {
			printNode(sb, u, indent+1)
		}
		for _, d := range n.Decls {
			printNode(sb, d, indent+1)
		}

	case *UseDecl:
		sb.WriteString(fmt.Sprintf("%sUse: %s\n", prefix, n.Path))

	case *PluginDecl:
		kind := "Plugin"
		if n.IsWriter {
			kind = "Writer"
		}
		sb.WriteString(fmt.Sprintf("%s%s: %s\n", prefix, kind, n.Name))
		for _, it := range n.Items {
			printNode(sb, it, indent+1)
		}

	case *StructDecl:
		sb.WriteString(fmt.Sprintf("%sStruct: %s\n", prefix, n.Name))
		for _, f := range n.Fields {
			printNode(sb, f, indent+1)
		}

	case *FieldDecl:
		sb.WriteString(fmt.Sprintf("%sField: %s %s\n", prefix, n.Name, n.Type))

	case *EnumDecl:
		sb.WriteString(fmt.Sprintf("%sEnum: %s\n", prefix, n.Name))
		for _, v := range n.Variants {
			printNode(sb, v, indent+1)
		}

	case *VariantDecl:
		sb.WriteString(fmt.Sprintf("%sVariant: %s\n", prefix, n.Name))
		for _, f := range n.Fields {
			printNode(sb, f, indent+1)
		}

	case *FnDecl:
		sb.WriteString(fmt.Sprintf("%sFn: %s\n", prefix, n.Name))
		for _, p := range n.Params {
			printNode(sb, p, indent+1)
		}
		if n.ReturnType != nil {
			sb.WriteString(fmt.Sprintf("%s  Returns: %s\n", prefix, n.ReturnType))
		}
		printNode(sb, n.Body, indent+1)

	case *Param:
		mut := ""
		if n.Mutable {
			mut = "mut "
		}
		sb.WriteString(fmt.Sprintf("%sParam: %s%s %s\n", prefix, mut, n.Name, n.Type))

	case *ImplDecl:
		sb.WriteString(fmt.Sprintf("%sImpl: %s\n", prefix, n.Target))
		for _, m := range n.Methods {
			printNode(sb, m, indent+1)
		}

	case *Block:
		sb.WriteString(prefix + "Block\n")
		for _, s := range n.Statements {
			printNode(sb, s, indent+1)
		}

	case *LetStmt:
		sb.WriteString(fmt.Sprintf("%sLet: %s\n", prefix, n.Name))
		printNode(sb, n.Value, indent+1)

	case *AssignStmt:
		sb.WriteString(prefix + "Assign\n")
		printNode(sb, n.Target, indent+1)
		printNode(sb, n.Value, indent+1)

	case *ExprStmt:
		sb.WriteString(prefix + "ExprStmt\n")
		printNode(sb, n.Expr, indent+1)

	case *ReturnStmt:
		sb.WriteString(prefix + "Return\n")
		printNode(sb, n.Value, indent+1)

	case *IfStmt:
		if n.Pattern != nil {
			sb.WriteString(prefix + "IfLet\n")
			printNode(sb, n.Pattern, indent+1)
		} else {
			sb.WriteString(prefix + "If\n")
		}
		printNode(sb, n.Condition, indent+1)
		printNode(sb, n.Then, indent+1)
		if n.Else != nil {
			sb.WriteString(prefix + "Else\n")
			printNode(sb, n.Else, indent+1)
		}

	case *MatchStmt:
		sb.WriteString(prefix + "Match\n")
		printNode(sb, n.Value, indent+1)
		for _, a := range n.Arms {
			sb.WriteString(prefix + "  Arm\n")
			printNode(sb, a.Pattern, indent+2)
			if a.Guard != nil {
				printNode(sb, a.Guard, indent+2)
			}
			printNode(sb, a.Body, indent+2)
		}

	case *WhileStmt:
		sb.WriteString(prefix + "While\n")
		printNode(sb, n.Condition, indent+1)
		printNode(sb, n.Body, indent+1)

	case *ForStmt:
		sb.WriteString(fmt.Sprintf("%sFor: %s\n", prefix, n.Variable))
		printNode(sb, n.Iterable, indent+1)
		printNode(sb, n.Body, indent+1)

	case *BreakStmt:
		sb.WriteString(prefix + "Break\n")

	case *ContinueStmt:
		sb.WriteString(prefix + "Continue\n")

	case *PropAssignStmt:
		sb.WriteString(fmt.Sprintf("%sPropAssign: %s\n", prefix, n.Property))
		printNode(sb, n.Node, indent+1)
		printNode(sb, n.Value, indent+1)

	case *DeclStmt:
		printNode(sb, n.Decl, indent)

	case *Ident:
		sb.WriteString(fmt.Sprintf("%sIdent: %s\n", prefix, n.Name))

	case *SelfExpr:
		sb.WriteString(prefix + "Self\n")

	case *StringLit:
		sb.WriteString(fmt.Sprintf("%sString: %q\n", prefix, n.Value))

	case *IntLit:
		sb.WriteString(fmt.Sprintf("%sInt: %d\n", prefix, n.Value))

	case *FloatLit:
		sb.WriteString(fmt.Sprintf("%sFloat: %s\n", prefix, n.Value))

	case *BoolLit:
		sb.WriteString(fmt.Sprintf("%sBool: %t\n", prefix, n.Value))

	case *NullLit:
		sb.WriteString(prefix + "Null\n")

	case *UnaryExpr:
		sb.WriteString(fmt.Sprintf("%sUnary: %s\n", prefix, n.Op))
		printNode(sb, n.Operand, indent+1)

	case *BinaryExpr:
		sb.WriteString(fmt.Sprintf("%sBinary: %s\n", prefix, n.Op))
		printNode(sb, n.Left, indent+1)
		printNode(sb, n.Right, indent+1)

	case *MemberExpr:
		sb.WriteString(fmt.Sprintf("%sMember: .%s\n", prefix, n.Field))
		printNode(sb, n.Object, indent+1)

	case *PathExpr:
		sb.WriteString(fmt.Sprintf("%sPath: %s\n", prefix, n.String()))

	case *CallExpr:
		sb.WriteString(prefix + "Call\n")
		printNode(sb, n.Callee, indent+1)
		for _, a := range n.Args {
			printNode(sb, a, indent+1)
		}

	case *StructLit:
		sb.WriteString(fmt.Sprintf("%sStructLit: %s\n", prefix, n.Name))
		for _, f := range n.Fields {
			sb.WriteString(fmt.Sprintf("%s  %s:\n", prefix, f.Name))
			printNode(sb, f.Value, indent+2)
		}

	case *ArrayLit:
		sb.WriteString(prefix + "Array\n")
		for _, e := range n.Elements {
			printNode(sb, e, indent+1)
		}

	case *MatchesExpr:
		sb.WriteString(prefix + "Matches\n")
		printNode(sb, n.Value, indent+1)
		printNode(sb, n.Pattern, indent+1)

	case *PropAccessExpr:
		sb.WriteString(fmt.Sprintf("%sPropAccess: %s\n", prefix, n.Property))
		printNode(sb, n.Node, indent+1)

	case *WildcardPattern:
		sb.WriteString(prefix + "Pattern: _\n")

	case *BindingPattern:
		sb.WriteString(fmt.Sprintf("%sPattern: %s\n", prefix, n.Name))

	case *LiteralPattern:
		sb.WriteString(prefix + "Pattern: literal\n")
		printNode(sb, n.Value, indent+1)

	case *VariantPattern:
		sb.WriteString(fmt.Sprintf("%sPattern: %s\n", prefix, n.Name()))
		for _, a := range n.Args {
			printNode(sb, a, indent+1)
		}

	default:
		sb.WriteString(fmt.Sprintf("%s<unknown node: %T>\n", prefix, node))
	}
}
