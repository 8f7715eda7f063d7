// Package rustbe prints a rewritten program as an SWC plugin in Rust.
// Every expression it meets must carry metadata; it reads the decisions
// the decorator and rewriter made and never consults the mapping tables.
package rustbe

import (
	"fmt"
	"strings"

	"github.com/lhaig/relux/internal/ir"
)

// Generate produces Rust source for a rewritten program. An undecorated
// node panics with *ir.InvariantError.
func Generate(p *ir.Program) string {
	g := &generator{structs: make(map[string]*ir.Struct)}
	types := hoist(p)
	for _, d := range types {
		if s, ok := d.(*ir.Struct); ok {
			g.structs[s.Name] = s
		}
	}

	g.emitLine("// Generated Rust code from ReluxScript")
	g.emitLine("#![allow(unused_parens, unused_variables, dead_code, unreachable_patterns)]")
	g.emitLine("")
	g.imports(p)

	for _, d := range types {
		g.typeDecl(d)
		g.emitLine("")
	}
	if v := propVariants(p); len(v) > 0 {
		g.propValueEnum(v)
		g.emitLine("")
	}
	for _, d := range p.Decls {
		g.decl(d)
	}
	return strings.TrimRight(g.sb.String(), "\n") + "\n"
}

type generator struct {
	sb      strings.Builder
	indent  int
	structs map[string]*ir.Struct
	// plugin is the plugin whose items are being printed.
	plugin *ir.Plugin
}

func (g *generator) emit(s string) {
	g.sb.WriteString(s)
}

func (g *generator) emitf(format string, args ...any) {
	g.sb.WriteString(fmt.Sprintf(format, args...))
}

func (g *generator) emitLinef(format string, args ...any) {
	g.sb.WriteString(g.indentStr())
	g.sb.WriteString(fmt.Sprintf(format, args...))
}

func (g *generator) emitLine(s string) {
	if s == "" {
		g.sb.WriteString("\n")
	} else {
		g.sb.WriteString(g.indentStr())
		g.sb.WriteString(s)
		g.sb.WriteString("\n")
	}
}

func (g *generator) incIndent() { g.indent++ }
func (g *generator) decIndent() { g.indent-- }

func (g *generator) indentStr() string {
	return strings.Repeat("    ", g.indent)
}

// capture prints into a child generator at the current indent and
// returns the text, for expressions that span lines.
func (g *generator) capture(f func(c *generator)) string {
	c := &generator{indent: g.indent, structs: g.structs, plugin: g.plugin}
	f(c)
	return c.sb.String()
}

func plugins(p *ir.Program) []*ir.Plugin {
	var out []*ir.Plugin
	for _, d := range p.Decls {
		if pl, ok := d.(*ir.Plugin); ok {
			out = append(out, pl)
		}
	}
	return out
}

func (g *generator) imports(p *ir.Program) {
	var mut, ref, table bool
	var helpers []string
	seen := make(map[string]bool)
	for _, pl := range plugins(p) {
		if pl.IsWriter {
			ref = true
		} else {
			mut = true
		}
		if pl.Meta == nil {
			continue
		}
		table = table || pl.Meta.NeedsTable
		for _, h := range pl.Meta.Helpers {
			if !seen[h] {
				seen[h] = true
				helpers = append(helpers, h)
			}
		}
	}

	if table {
		g.emitLine("use std::collections::HashMap;")
	}
	g.emitLine("use swc_ecma_ast::*;")
	switch {
	case mut && ref:
		g.emitLine("use swc_ecma_visit::{Visit, VisitMut, VisitMutWith, VisitWith};")
	case ref:
		g.emitLine("use swc_ecma_visit::{Visit, VisitWith};")
	default:
		g.emitLine("use swc_ecma_visit::{VisitMut, VisitMutWith};")
	}
	g.emitLine("")

	for _, h := range helpers {
		for _, line := range strings.Split(strings.TrimRight(h, "\n"), "\n") {
			g.emitLine(line)
		}
		g.emitLine("")
	}
}

// --- Declarations ---

func (g *generator) typeDecl(d ir.Decl) {
	switch d := d.(type) {
	case *ir.Struct:
		g.emitLine("#[derive(Clone, Debug, Default)]")
		g.emitLinef("pub struct %s {\n", d.Name)
		g.incIndent()
		for _, f := range d.Fields {
			g.emitLinef("pub %s: %s,\n", f.Name, fieldTarget(f))
		}
		g.decIndent()
		g.emitLine("}")
	case *ir.Enum:
		g.emitLine("#[derive(Clone, Debug, PartialEq)]")
		g.emitLinef("pub enum %s {\n", d.Name)
		g.incIndent()
		for _, v := range d.Variants {
			if len(v.Fields) == 0 {
				g.emitLinef("%s,\n", v.Name)
				continue
			}
			var ts []string
			for _, f := range v.Fields {
				ts = append(ts, fieldTarget(f))
			}
			g.emitLinef("%s(%s),\n", v.Name, strings.Join(ts, ", "))
		}
		g.decIndent()
		g.emitLine("}")
	}
}

func fieldTarget(f *ir.Field) string {
	if f.Target != "" {
		return f.Target
	}
	return f.Type.String()
}

func (g *generator) decl(d ir.Decl) {
	switch d := d.(type) {
	case *ir.Struct, *ir.Enum:
		// printed with the hoisted types
	case *ir.Plugin:
		g.pluginDecl(d)
	case *ir.Func:
		g.function(d, "")
		g.emitLine("")
	case *ir.Impl:
		g.emitLinef("impl %s {\n", d.Target)
		g.incIndent()
		for i, m := range d.Methods {
			if i > 0 {
				g.emitLine("")
			}
			recv := ""
			if m.Meta != nil && m.Meta.Kind == ir.FuncMethod {
				recv = "&self"
			}
			g.function(m, recv)
		}
		g.decIndent()
		g.emitLine("}")
		g.emitLine("")
	}
}

func (g *generator) pluginDecl(p *ir.Plugin) {
	g.plugin = p
	defer func() { g.plugin = nil }()
	meta := p.Meta
	if meta == nil {
		ir.Failf("rustbe", "plugin %s has no metadata", p.Name)
	}

	g.emitLinef("pub struct %s {\n", p.Name)
	g.incIndent()
	if meta.State != "" {
		g.emitLinef("pub state: %s,\n", meta.State)
	}
	if p.IsWriter {
		g.emitLine("output: String,")
		g.emitLine("indent_level: usize,")
	}
	if meta.NeedsTable {
		g.emitLine("custom_props: HashMap<usize, HashMap<&'static str, CustomPropValue>>,")
	}
	g.decIndent()
	g.emitLine("}")
	g.emitLine("")

	var visitors []*ir.Func
	g.emitLinef("impl %s {\n", p.Name)
	g.incIndent()
	g.constructor(p)
	if p.IsWriter {
		g.emitLine("")
		g.codeBuilder()
	}
	if meta.NeedsTable {
		g.emitLine("")
		g.tableMethods()
	}
	for _, it := range p.Items {
		f, ok := it.(*ir.Func)
		if !ok {
			continue
		}
		if f.Meta != nil && f.Meta.Kind == ir.FuncVisitor {
			visitors = append(visitors, f)
			continue
		}
		g.emitLine("")
		recv := ""
		if f.Meta != nil && f.Meta.Kind != ir.FuncHelper {
			recv = "&mut self"
		}
		g.function(f, recv)
	}
	g.decIndent()
	g.emitLine("}")
	g.emitLine("")

	trait := "VisitMut"
	if p.IsWriter {
		trait = "Visit"
	}
	if len(visitors) == 0 {
		g.emitLinef("impl %s for %s {}\n", trait, p.Name)
		g.emitLine("")
		return
	}
	g.emitLinef("impl %s for %s {\n", trait, p.Name)
	g.incIndent()
	for i, f := range visitors {
		if i > 0 {
			g.emitLine("")
		}
		g.function(f, "&mut self")
	}
	g.decIndent()
	g.emitLine("}")
	g.emitLine("")
}

func (g *generator) constructor(p *ir.Plugin) {
	g.emitLine("pub fn new() -> Self {")
	g.incIndent()
	g.emitLine("Self {")
	g.incIndent()
	if p.Meta.State != "" {
		g.emitLinef("state: %s,\n", g.stateInit(p.Meta.State))
	}
	if p.IsWriter {
		g.emitLine("output: String::new(),")
		g.emitLine("indent_level: 0,")
	}
	if p.Meta.NeedsTable {
		g.emitLine("custom_props: HashMap::new(),")
	}
	g.decIndent()
	g.emitLine("}")
	g.decIndent()
	g.emitLine("}")
}

func (g *generator) stateInit(name string) string {
	s, ok := g.structs[name]
	if !ok || len(s.Fields) == 0 {
		return name + "::default()"
	}
	var fs []string
	for _, f := range s.Fields {
		fs = append(fs, fmt.Sprintf("%s: %s", f.Name, defaultValue(f.Type)))
	}
	return fmt.Sprintf("%s { %s }", name, strings.Join(fs, ", "))
}

func (g *generator) codeBuilder() {
	g.emitLine("fn append(&mut self, s: &str) {")
	g.emitLine("    self.output.push_str(s);")
	g.emitLine("}")
	g.emitLine("")
	g.emitLine("fn newline(&mut self) {")
	g.emitLine("    self.output.push('\\n');")
	g.emitLine("    for _ in 0..self.indent_level {")
	g.emitLine("        self.output.push_str(\"  \");")
	g.emitLine("    }")
	g.emitLine("}")
	g.emitLine("")
	g.emitLine("pub fn to_string(&self) -> String {")
	g.emitLine("    self.output.clone()")
	g.emitLine("}")
}

func (g *generator) function(f *ir.Func, recv string) {
	name := f.Name
	visitor := f.Meta != nil && f.Meta.Kind == ir.FuncVisitor
	if visitor && f.Meta.Target != "" {
		name = f.Meta.Target
	}
	var params []string
	if recv != "" {
		params = append(params, recv)
	}
	for _, p := range f.Params {
		params = append(params, paramDecl(p))
	}
	vis := ""
	if f.Public {
		vis = "pub "
	}
	ret := ""
	if f.ReturnTarget != "" {
		ret = " -> " + f.ReturnTarget
	}
	g.emitLinef("%sfn %s(%s)%s {\n", vis, name, strings.Join(params, ", "), ret)
	g.incIndent()
	if visitor && len(f.Params) > 0 {
		children := "visit_mut_children_with"
		if g.plugin != nil && g.plugin.IsWriter {
			children = "visit_children_with"
		}
		g.emitLinef("%s.%s(self);\n", f.Params[0].Name, children)
	}
	g.body(f.Body)
	g.decIndent()
	g.emitLine("}")
}

func paramDecl(p *ir.Param) string {
	t := p.Target
	if t == "" {
		t = p.Type.String()
	}
	if p.Mutable && !strings.HasPrefix(t, "&") {
		return fmt.Sprintf("mut %s: %s", p.Name, t)
	}
	return fmt.Sprintf("%s: %s", p.Name, t)
}

// --- Statements ---

func (g *generator) body(b *ir.Block) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		g.stmt(s)
	}
	if b.Tail != nil {
		g.emitLine(g.expr(b.Tail))
	}
}

func (g *generator) stmt(s ir.Stmt) {
	switch s := s.(type) {
	case *ir.LetStmt:
		kw := "let"
		if s.Mutable {
			kw = "let mut"
		}
		typ := ""
		if s.Target != "" {
			typ = ": " + s.Target
		}
		g.emitLinef("%s %s%s = %s;\n", kw, s.Name, typ, g.expr(s.Value))
	case *ir.AssignStmt:
		g.emitLinef("%s = %s;\n", g.expr(s.Target), g.expr(s.Value))
	case *ir.ExprStmt:
		if m, ok := s.X.(*ir.MatchExpr); ok {
			g.emitLinef("%s\n", g.match(m, true))
			return
		}
		g.emitLinef("%s;\n", g.expr(s.X))
	case *ir.ReturnStmt:
		if s.Value == nil {
			g.emitLine("return;")
			return
		}
		g.emitLinef("return %s;\n", g.expr(s.Value))
	case *ir.IfStmt:
		g.emitLinef("if %s {\n", g.expr(s.Cond))
		g.branches(s.Then, s.Else)
	case *ir.IfLetStmt:
		g.emitLinef("if let %s = %s {\n", g.pattern(s.Pattern), g.expr(s.Value))
		g.branches(s.Then, s.Else)
	case *ir.WhileStmt:
		g.emitLinef("while %s {\n", g.expr(s.Cond))
		g.incIndent()
		g.body(s.Body)
		g.decIndent()
		g.emitLine("}")
	case *ir.ForStmt:
		g.emitLinef("for %s in %s {\n", s.Var, g.expr(s.Iter))
		g.incIndent()
		g.body(s.Body)
		g.decIndent()
		g.emitLine("}")
	case *ir.BreakStmt:
		g.emitLine("break;")
	case *ir.ContinueStmt:
		g.emitLine("continue;")
	case *ir.PropSetStmt:
		g.propSet(s)
	case *ir.DeclStmt:
		if f, ok := s.Decl.(*ir.Func); ok {
			g.function(f, "")
		}
	default:
		ir.Failf("rustbe", "unexpected statement %T", s)
	}
}

// branches prints the body of an if after its opening line.
func (g *generator) branches(then, els *ir.Block) {
	g.incIndent()
	g.body(then)
	g.decIndent()
	if els == nil {
		g.emitLine("}")
		return
	}
	g.emitLine("} else {")
	g.incIndent()
	g.body(els)
	g.decIndent()
	g.emitLine("}")
}

// --- Expressions ---

func (g *generator) expr(e ir.Expr) string {
	if e == nil {
		return "()"
	}
	m := e.Metadata()
	if m == nil {
		ir.Failf("rustbe", "undecorated %T reached the emitter", e)
	}
	return applyMeta(g.bare(e, m), m)
}

// applyMeta adds the indirection and conversion steps recorded on m.
func applyMeta(s string, m *ir.ExprMeta) string {
	switch m.Unwrap {
	case ir.UnwrapRef:
		s = "&" + s
	case ir.UnwrapRefMut:
		s = "&mut " + s
	case ir.UnwrapAsRef:
		s += ".as_ref()"
	case ir.UnwrapDeref:
		s = "&*" + s
	case ir.UnwrapBox:
		s = "&**" + s
	case ir.UnwrapAsDeref:
		s += ".as_deref()"
	case ir.UnwrapForce:
		s += ".as_ref().unwrap()"
	case ir.UnwrapForceDeref:
		s += ".as_deref().unwrap()"
	}
	if m.ToOwned {
		s += ".to_string()"
	}
	if m.Into {
		s += ".into()"
	}
	if m.BoxNew {
		s = "Box::new(" + s + ")"
	}
	return s
}

func (g *generator) bare(e ir.Expr, m *ir.ExprMeta) string {
	switch e := e.(type) {
	case *ir.Ident:
		if m.Name != "" {
			return m.Name
		}
		return e.Name
	case *ir.SelfExpr:
		return "self"
	case *ir.Lit:
		return literal(e)
	case *ir.UnaryExpr:
		return e.Op + g.expr(e.X)
	case *ir.BinaryExpr:
		l, r := g.expr(e.Left), g.expr(e.Right)
		if e.Bin != nil && e.Bin.LeftDeref {
			l = "&*" + l
		}
		if e.Bin != nil && e.Bin.RightDeref {
			r = "&*" + r
		}
		return fmt.Sprintf("(%s %s %s)", l, e.Op, r)
	case *ir.MemberExpr:
		if e.FMeta == nil {
			ir.Failf("rustbe", "field %s has no field metadata", e.Field)
		}
		return g.expr(e.Object) + "." + e.FMeta.Name
	case *ir.PathExpr:
		if len(m.Path) == 0 {
			return strings.Join(e.Segments, "::")
		}
		if m.Qualified {
			return strings.Join(m.Path, "::")
		}
		return strings.Join(m.Path, ".")
	case *ir.CallExpr:
		return g.call(e, m)
	case *ir.StructLit:
		var fs []string
		for _, f := range e.Fields {
			fs = append(fs, fmt.Sprintf("%s: %s", f.Name, g.expr(f.Value)))
		}
		if len(fs) == 0 {
			return e.Name + " {}"
		}
		return fmt.Sprintf("%s { %s }", e.Name, strings.Join(fs, ", "))
	case *ir.ArrayLit:
		if len(e.Elems) == 0 {
			return "Vec::new()"
		}
		return "vec![" + g.args(e.Elems) + "]"
	case *ir.MatchExpr:
		return g.match(e, false)
	case *ir.PropGetExpr:
		return g.propGet(e)
	case *ir.DefaultExpr:
		return defaultValue(m.Type)
	case *ir.UnreachableExpr:
		return "unreachable!()"
	}
	ir.Failf("rustbe", "unexpected expression %T", e)
	return ""
}

func literal(l *ir.Lit) string {
	switch l.Kind {
	case ir.LitStr:
		return "\"" + escapeRustString(l.Value) + "\""
	case ir.LitNull:
		if l.Meta != nil && l.Meta.Name != "" {
			return l.Meta.Name
		}
		return "None"
	}
	return l.Value
}

func (g *generator) args(es []ir.Expr) string {
	var out []string
	for _, a := range es {
		out = append(out, g.expr(a))
	}
	return strings.Join(out, ", ")
}

func (g *generator) call(c *ir.CallExpr, m *ir.ExprMeta) string {
	args := g.args(c.Args)
	if callee, ok := c.Callee.(*ir.MemberExpr); ok {
		recv := g.expr(callee.Object)
		name := callee.Field
		if callee.Meta != nil && callee.Meta.Name != "" {
			name = callee.Meta.Name
		}
		switch {
		case m.Inline:
			return recv
		case m.Property:
			return recv + "." + name
		}
		return fmt.Sprintf("%s.%s(%s)", recv, name, args)
	}
	if m.Inline && len(c.Args) == 1 {
		return args
	}
	name := g.expr(c.Callee)
	if m.Macro {
		return fmt.Sprintf("%s!(%s)", name, args)
	}
	return fmt.Sprintf("%s(%s)", name, args)
}

func defaultValue(t *ir.Type) string {
	switch {
	case t == nil || t.IsUnknown():
		return "Default::default()"
	case t.Name == ir.Bool.Name:
		return "false"
	case t.Name == ir.F64.Name:
		return "0.0"
	case t.IsNumeric():
		return "0"
	case t.Name == ir.Str.Name:
		return "String::new()"
	case t.IsOption():
		return "None"
	case t.IsVec():
		return "Vec::new()"
	}
	return "Default::default()"
}

// --- Matches ---

func (g *generator) match(m *ir.MatchExpr, stmt bool) string {
	return g.capture(func(c *generator) {
		c.emitf("match %s {\n", c.expr(m.X))
		c.incIndent()
		for _, a := range m.Arms {
			c.arm(a)
		}
		if stmt && !exhaustive(m) {
			c.emitLine("_ => {}")
		}
		c.decIndent()
		c.emit(c.indentStr() + "}")
	})
}

// exhaustive reports whether some arm matches every value.
func exhaustive(m *ir.MatchExpr) bool {
	for _, a := range m.Arms {
		if a.Guard != nil {
			continue
		}
		switch a.Pattern.(type) {
		case *ir.WildcardPattern, *ir.BindingPattern:
			return true
		}
	}
	return false
}

func (g *generator) arm(a *ir.Arm) {
	head := g.pattern(a.Pattern)
	if a.Guard != nil {
		head += " if " + g.expr(a.Guard)
	}
	b := a.Body
	switch {
	case b == nil || len(b.Stmts) == 0 && b.Tail == nil:
		g.emitLinef("%s => {}\n", head)
	case len(b.Stmts) == 0:
		g.emitLinef("%s => %s,\n", head, g.expr(b.Tail))
	default:
		g.emitLinef("%s => {\n", head)
		g.incIndent()
		g.body(b)
		g.decIndent()
		g.emitLine("}")
	}
}

func (g *generator) pattern(p ir.Pattern) string {
	m := p.Metadata()
	if m == nil {
		ir.Failf("rustbe", "undecorated pattern %T reached the emitter", p)
	}
	switch p := p.(type) {
	case *ir.WildcardPattern:
		return "_"
	case *ir.BindingPattern:
		return p.Name
	case *ir.LitPattern:
		return literal(p.Value)
	case *ir.VariantPattern:
		path := m.Path
		if path == "" {
			path = strings.Join(p.Path, "::")
		}
		if len(p.Args) == 0 {
			return path
		}
		var args []string
		for _, a := range p.Args {
			args = append(args, g.pattern(a))
		}
		return fmt.Sprintf("%s(%s)", path, strings.Join(args, ", "))
	}
	ir.Failf("rustbe", "unexpected pattern %T", p)
	return ""
}

func escapeRustString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}
