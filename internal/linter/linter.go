package linter

import (
	"strings"
	"unicode"

	"github.com/lhaig/relux/internal/ast"
	"github.com/lhaig/relux/internal/diagnostic"
)

// Linter performs style and best-practice checks on a raw program.
// It reports warnings (never errors) using the diagnostic system.
type Linter struct {
	prog *ast.Program
	diag *diagnostic.Diagnostics
}

// Lint runs all lint rules on the given program and returns diagnostics.
func Lint(prog *ast.Program) *diagnostic.Diagnostics {
	l := &Linter{
		prog: prog,
		diag: diagnostic.New(),
	}
	for _, d := range prog.Decls {
		l.lintDecl(d)
	}
	return l.diag
}

func (l *Linter) lintDecl(d ast.Declaration) {
	switch d := d.(type) {
	case *ast.PluginDecl:
		kind := "plugin"
		if d.IsWriter {
			kind = "writer"
		}
		l.checkTypeNaming(kind, d.Name, d.Line, d.Column)
		for _, item := range d.Items {
			l.lintDecl(item)
		}
	case *ast.StructDecl:
		l.checkTypeNaming("struct", d.Name, d.Line, d.Column)
	case *ast.EnumDecl:
		l.checkTypeNaming("enum", d.Name, d.Line, d.Column)
		for _, v := range d.Variants {
			if !isPascalCase(v.Name) {
				l.diag.Warningf(v.Line, v.Column,
					"variant '%s' in enum '%s' should use PascalCase naming", v.Name, d.Name)
			}
		}
	case *ast.ImplDecl:
		for _, m := range d.Methods {
			l.lintFunction(d.Target+"."+m.Name, m)
		}
	case *ast.FnDecl:
		l.lintFunction(d.Name, d)
	}
}

func (l *Linter) lintFunction(scopeName string, fn *ast.FnDecl) {
	if !isSnakeCase(fn.Name) {
		l.diag.Warningf(fn.Line, fn.Column,
			"function '%s' should use snake_case naming", fn.Name)
	}
	if fn.Body == nil {
		return
	}
	if strings.HasPrefix(fn.Name, "visit_") && len(fn.Body.Statements) == 0 {
		l.diag.Warningf(fn.Line, fn.Column, "visitor '%s' has an empty body", fn.Name)
	}

	used := make(map[string]bool)
	assigned := make(map[string]bool)
	l.walkStmts(fn.Body.Statements, used, assigned)

	for _, p := range fn.Params {
		if p.Name == "self" || strings.HasPrefix(p.Name, "_") {
			continue
		}
		if !used[p.Name] {
			l.diag.Warningf(p.Line, p.Column,
				"parameter '%s' in '%s' is never used", p.Name, scopeName)
		}
	}
	l.checkLets(fn.Body.Statements, used, assigned)
}

// checkLets warns about let-bound variables that are never read and about
// mutable ones that are never reassigned.
func (l *Linter) checkLets(stmts []ast.Statement, used, assigned map[string]bool) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.LetStmt:
			if strings.HasPrefix(s.Name, "_") {
				continue
			}
			if !used[s.Name] {
				l.diag.Warningf(s.Line, s.Column,
					"variable '%s' is declared but never used", s.Name)
			}
			if s.Mutable && !assigned[s.Name] {
				l.diag.Warningf(s.Line, s.Column,
					"variable '%s' is declared mutable but never reassigned", s.Name)
			}
		case *ast.IfStmt:
			l.checkBlock(s.Then, used, assigned)
			l.checkBlock(s.Else, used, assigned)
		case *ast.WhileStmt:
			l.checkBlock(s.Body, used, assigned)
		case *ast.ForStmt:
			l.checkBlock(s.Body, used, assigned)
		case *ast.MatchStmt:
			for _, arm := range s.Arms {
				l.checkBlock(arm.Body, used, assigned)
			}
		}
	}
}

func (l *Linter) checkBlock(b *ast.Block, used, assigned map[string]bool) {
	if b != nil {
		l.checkLets(b.Statements, used, assigned)
	}
}

// --- Name collection ---

// walkStmts collects the names that are read into used and the names that
// are reassigned into assigned. It also checks custom property names on
// the way.
func (l *Linter) walkStmts(stmts []ast.Statement, used, assigned map[string]bool) {
	for _, stmt := range stmts {
		l.walkStmt(stmt, used, assigned)
	}
}

func (l *Linter) walkBlock(b *ast.Block, used, assigned map[string]bool) {
	if b != nil {
		l.walkStmts(b.Statements, used, assigned)
	}
}

func (l *Linter) walkStmt(stmt ast.Statement, used, assigned map[string]bool) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		// The declared name is not a read.
		l.walkExpr(s.Value, used)
	case *ast.AssignStmt:
		if id, ok := s.Target.(*ast.Ident); ok {
			assigned[id.Name] = true
		} else {
			l.walkExpr(s.Target, used)
		}
		l.walkExpr(s.Value, used)
	case *ast.ExprStmt:
		l.walkExpr(s.Expr, used)
	case *ast.ReturnStmt:
		l.walkExpr(s.Value, used)
	case *ast.IfStmt:
		l.walkExpr(s.Condition, used)
		l.walkBlock(s.Then, used, assigned)
		l.walkBlock(s.Else, used, assigned)
	case *ast.MatchStmt:
		l.walkExpr(s.Value, used)
		for _, arm := range s.Arms {
			l.walkExpr(arm.Guard, used)
			l.walkBlock(arm.Body, used, assigned)
		}
	case *ast.WhileStmt:
		l.walkExpr(s.Condition, used)
		l.walkBlock(s.Body, used, assigned)
	case *ast.ForStmt:
		l.walkExpr(s.Iterable, used)
		l.walkBlock(s.Body, used, assigned)
	case *ast.PropAssignStmt:
		l.checkPropName(s.Property, s.Line, s.Column)
		l.walkExpr(s.Node, used)
		l.walkExpr(s.Value, used)
	case *ast.DeclStmt:
		l.lintDecl(s.Decl)
	}
}

func (l *Linter) walkExpr(expr ast.Expression, used map[string]bool) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *ast.Ident:
		used[e.Name] = true
	case *ast.UnaryExpr:
		l.walkExpr(e.Operand, used)
	case *ast.BinaryExpr:
		l.walkExpr(e.Left, used)
		l.walkExpr(e.Right, used)
	case *ast.MemberExpr:
		l.walkExpr(e.Object, used)
	case *ast.CallExpr:
		l.walkExpr(e.Callee, used)
		for _, arg := range e.Args {
			l.walkExpr(arg, used)
		}
	case *ast.StructLit:
		for _, f := range e.Fields {
			l.walkExpr(f.Value, used)
		}
	case *ast.ArrayLit:
		for _, elem := range e.Elements {
			l.walkExpr(elem, used)
		}
	case *ast.MatchesExpr:
		// Pattern bindings are definitions, not reads.
		l.walkExpr(e.Value, used)
	case *ast.PropAccessExpr:
		l.checkPropName(e.Property, e.Line, e.Column)
		l.walkExpr(e.Node, used)
	}
}

// checkPropName warns when a custom property could be mistaken for a
// regular node field.
func (l *Linter) checkPropName(name string, line, col int) {
	if !strings.HasPrefix(name, "__") {
		l.diag.Warningf(line, col,
			"custom property '%s' should start with '__'", name)
	}
}

// --- Naming convention helpers ---

func (l *Linter) checkTypeNaming(kind, name string, line, col int) {
	if !isPascalCase(name) {
		l.diag.Warningf(line, col,
			"%s '%s' should use PascalCase naming", kind, name)
	}
}

// isSnakeCase returns true if the name follows snake_case conventions:
// lowercase letters, digits, and underscores only, not starting with a digit.
func isSnakeCase(name string) bool {
	if len(name) == 0 || unicode.IsDigit([]rune(name)[0]) {
		return false
	}
	for _, r := range name {
		if !unicode.IsLower(r) && r != '_' && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isPascalCase returns true if the name starts with an uppercase letter
// and contains no underscores.
func isPascalCase(name string) bool {
	if len(name) == 0 {
		return false
	}
	runes := []rune(name)
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	return !strings.ContainsRune(name, '_')
}
