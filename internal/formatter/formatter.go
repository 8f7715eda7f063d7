package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lhaig/relux/internal/ast"
)

// Format takes a raw Program and returns canonical plugin source.
func Format(prog *ast.Program) string {
	f := &formatter{}
	f.formatProgram(prog)
	return f.sb.String()
}

type formatter struct {
	sb     strings.Builder
	indent int
}

// --- helpers ---

func (f *formatter) emit(s string) {
	f.sb.WriteString(s)
}

func (f *formatter) emitf(format string, args ...any) {
	f.sb.WriteString(fmt.Sprintf(format, args...))
}

func (f *formatter) emitLine(s string) {
	if s == "" {
		f.sb.WriteString("\n")
	} else {
		f.sb.WriteString(f.indentStr())
		f.sb.WriteString(s)
		f.sb.WriteString("\n")
	}
}

func (f *formatter) emitLinef(format string, args ...any) {
	f.sb.WriteString(f.indentStr())
	f.sb.WriteString(fmt.Sprintf(format, args...))
	f.sb.WriteString("\n")
}

func (f *formatter) incIndent() { f.indent++ }
func (f *formatter) decIndent() { f.indent-- }

func (f *formatter) indentStr() string {
	return strings.Repeat("    ", f.indent)
}

func (f *formatter) blankLine() {
	f.sb.WriteString("\n")
}

// --- program-level ---

func (f *formatter) formatProgram(prog *ast.Program) {
	for _, u := range prog.Uses {
		f.emitLinef("use %s;", u.Path)
	}
	for i, d := range prog.Decls {
		if i > 0 || len(prog.Uses) > 0 {
			f.blankLine()
		}
		f.formatDecl(d)
	}
}

// --- declarations ---

func (f *formatter) formatDecl(d ast.Declaration) {
	switch d := d.(type) {
	case *ast.PluginDecl:
		f.formatPluginDecl(d)
	case *ast.StructDecl:
		f.formatStructDecl(d)
	case *ast.EnumDecl:
		f.formatEnumDecl(d)
	case *ast.ImplDecl:
		f.emitLinef("impl %s {", d.Target)
		f.incIndent()
		for i, m := range d.Methods {
			if i > 0 {
				f.blankLine()
			}
			f.formatFnDecl(m)
		}
		f.decIndent()
		f.emitLine("}")
	case *ast.FnDecl:
		f.formatFnDecl(d)
	}
}

func (f *formatter) formatPluginDecl(p *ast.PluginDecl) {
	kind := "plugin"
	if p.IsWriter {
		kind = "writer"
	}
	f.emitLinef("%s %s {", kind, p.Name)
	f.incIndent()
	for i, item := range p.Items {
		if i > 0 {
			f.blankLine()
		}
		f.formatDecl(item)
	}
	f.decIndent()
	f.emitLine("}")
}

func (f *formatter) formatStructDecl(s *ast.StructDecl) {
	f.emitLinef("struct %s {", s.Name)
	f.incIndent()
	for _, field := range s.Fields {
		f.emitLinef("%s: %s,", field.Name, field.Type)
	}
	f.decIndent()
	f.emitLine("}")
}

func (f *formatter) formatEnumDecl(e *ast.EnumDecl) {
	f.emitLinef("enum %s {", e.Name)
	f.incIndent()
	for _, v := range e.Variants {
		if len(v.Fields) == 0 {
			f.emitLinef("%s,", v.Name)
			continue
		}
		fields := make([]string, len(v.Fields))
		for i, field := range v.Fields {
			if field.Name == "" {
				fields[i] = field.Type.String()
			} else {
				fields[i] = field.Name + ": " + field.Type.String()
			}
		}
		f.emitLinef("%s(%s),", v.Name, strings.Join(fields, ", "))
	}
	f.decIndent()
	f.emitLine("}")
}

func (f *formatter) formatFnDecl(fn *ast.FnDecl) {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = formatParam(p)
	}
	f.emit(f.indentStr())
	if fn.IsPublic {
		f.emit("pub ")
	}
	f.emitf("fn %s(%s)", fn.Name, strings.Join(params, ", "))
	if fn.ReturnType != nil {
		f.emitf(" -> %s", fn.ReturnType)
	}
	f.emit(" {\n")
	f.incIndent()
	f.formatBlock(fn.Body)
	f.decIndent()
	f.emitLine("}")
}

func formatParam(p *ast.Param) string {
	switch {
	case p.Name == "self":
		return "&self"
	case p.Type == nil:
		return p.Name
	case p.Mutable:
		return p.Name + ": &mut " + p.Type.String()
	}
	return p.Name + ": " + p.Type.String()
}

// --- statements ---

func (f *formatter) formatBlock(b *ast.Block) {
	if b == nil {
		return
	}
	for _, s := range b.Statements {
		f.formatStmt(s)
	}
}

func (f *formatter) formatStmt(s ast.Statement) {
	switch stmt := s.(type) {
	case *ast.LetStmt:
		f.emit(f.indentStr() + "let ")
		if stmt.Mutable {
			f.emit("mut ")
		}
		f.emit(stmt.Name)
		if stmt.Type != nil {
			f.emitf(": %s", stmt.Type)
		}
		f.emitf(" = %s;\n", f.formatExpr(stmt.Value))
	case *ast.AssignStmt:
		f.emitLinef("%s = %s;", f.formatExpr(stmt.Target), f.formatExpr(stmt.Value))
	case *ast.ExprStmt:
		f.emitLinef("%s;", f.formatExpr(stmt.Expr))
	case *ast.ReturnStmt:
		if stmt.Value == nil {
			f.emitLine("return;")
		} else {
			f.emitLinef("return %s;", f.formatExpr(stmt.Value))
		}
	case *ast.IfStmt:
		f.formatIfStmt(stmt)
	case *ast.MatchStmt:
		f.emitLinef("match %s {", f.formatExpr(stmt.Value))
		f.incIndent()
		for _, arm := range stmt.Arms {
			head := formatPattern(arm.Pattern)
			if arm.Guard != nil {
				head += " if " + f.formatExpr(arm.Guard)
			}
			f.emitLinef("%s => {", head)
			f.incIndent()
			f.formatBlock(arm.Body)
			f.decIndent()
			f.emitLine("}")
		}
		f.decIndent()
		f.emitLine("}")
	case *ast.WhileStmt:
		f.emitLinef("while %s {", f.formatExpr(stmt.Condition))
		f.nested(stmt.Body)
	case *ast.ForStmt:
		f.emitLinef("for %s in %s {", stmt.Variable, f.formatExpr(stmt.Iterable))
		f.nested(stmt.Body)
	case *ast.BreakStmt:
		f.emitLine("break;")
	case *ast.ContinueStmt:
		f.emitLine("continue;")
	case *ast.PropAssignStmt:
		value := f.formatExpr(stmt.Value)
		if stmt.Type != nil {
			value += " as " + stmt.Type.String()
		}
		f.emitLinef("%s.%s = %s;", f.formatExprPrec(stmt.Node, 10), stmt.Property, value)
	case *ast.DeclStmt:
		f.formatDecl(stmt.Decl)
	}
}

// nested prints b one level deeper and closes it.
func (f *formatter) nested(b *ast.Block) {
	f.incIndent()
	f.formatBlock(b)
	f.decIndent()
	f.emitLine("}")
}

func (f *formatter) formatIfStmt(stmt *ast.IfStmt) {
	if stmt.Pattern != nil {
		f.emitLinef("if let %s = %s {", formatPattern(stmt.Pattern), f.formatExpr(stmt.Condition))
	} else {
		f.emitLinef("if %s {", f.formatExpr(stmt.Condition))
	}
	f.incIndent()
	f.formatBlock(stmt.Then)
	f.decIndent()
	if stmt.Else == nil {
		f.emitLine("}")
		return
	}
	f.emitLine("} else {")
	f.nested(stmt.Else)
}

// --- expressions ---

func (f *formatter) formatExpr(e ast.Expression) string {
	return f.formatExprPrec(e, 0)
}

func (f *formatter) formatExprPrec(e ast.Expression, parentPrec int) string {
	switch expr := e.(type) {
	case *ast.BinaryExpr:
		prec := precedence(expr.Op)
		left := f.formatExprPrec(expr.Left, prec)
		right := f.formatExprPrec(expr.Right, prec+1) // +1 for left-associativity
		result := fmt.Sprintf("%s %s %s", left, expr.Op, right)
		if prec < parentPrec {
			return "(" + result + ")"
		}
		return result

	case *ast.UnaryExpr:
		return string(expr.Op) + f.formatExprPrec(expr.Operand, 10)

	case *ast.CallExpr:
		args := make([]string, len(expr.Args))
		for i, arg := range expr.Args {
			args[i] = f.formatExpr(arg)
		}
		return fmt.Sprintf("%s(%s)", f.formatExprPrec(expr.Callee, 10), strings.Join(args, ", "))

	case *ast.MemberExpr:
		return fmt.Sprintf("%s.%s", f.formatExprPrec(expr.Object, 10), expr.Field)

	case *ast.PropAccessExpr:
		return fmt.Sprintf("%s.%s", f.formatExprPrec(expr.Node, 10), expr.Property)

	case *ast.PathExpr:
		return strings.Join(expr.Segments, "::")

	case *ast.MatchesExpr:
		return fmt.Sprintf("matches!(%s, %s)", f.formatExpr(expr.Value), formatPattern(expr.Pattern))

	case *ast.StructLit:
		fields := make([]string, len(expr.Fields))
		for i, fi := range expr.Fields {
			fields[i] = fi.Name + ": " + f.formatExpr(fi.Value)
		}
		if len(fields) == 0 {
			return expr.Name + " {}"
		}
		return fmt.Sprintf("%s { %s }", expr.Name, strings.Join(fields, ", "))

	case *ast.ArrayLit:
		elems := make([]string, len(expr.Elements))
		for i, elem := range expr.Elements {
			elems[i] = f.formatExpr(elem)
		}
		return fmt.Sprintf("vec![%s]", strings.Join(elems, ", "))

	case *ast.Ident:
		return expr.Name

	case *ast.SelfExpr:
		return "self"

	case *ast.IntLit:
		return strconv.FormatInt(expr.Value, 10)

	case *ast.FloatLit:
		return expr.Value

	case *ast.StringLit:
		return strconv.Quote(expr.Value)

	case *ast.BoolLit:
		return strconv.FormatBool(expr.Value)

	case *ast.NullLit:
		return "None"
	}
	return "<?>"
}

func formatPattern(p ast.Pattern) string {
	switch p := p.(type) {
	case *ast.WildcardPattern:
		return "_"
	case *ast.BindingPattern:
		return p.Name
	case *ast.LiteralPattern:
		return (&formatter{}).formatExpr(p.Value)
	case *ast.VariantPattern:
		path := strings.Join(p.Path, "::")
		if len(p.Args) == 0 {
			return path
		}
		args := make([]string, len(p.Args))
		for i, a := range p.Args {
			args[i] = formatPattern(a)
		}
		return path + "(" + strings.Join(args, ", ") + ")"
	}
	return "<?>"
}

func precedence(op ast.Op) int {
	switch op {
	case ast.OpOr:
		return 2
	case ast.OpAnd:
		return 3
	case ast.OpEq, ast.OpNeq:
		return 5
	case ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		return 6
	case ast.OpAdd, ast.OpSub:
		return 7
	case ast.OpMul, ast.OpDiv, ast.OpMod:
		return 8
	default:
		return 0
	}
}
