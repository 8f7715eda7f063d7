// Package jsbe prints a rewritten program as a Babel plugin. The dynamic
// model needs no indirection steps: field reads are plain property reads,
// custom properties live on the node itself and patterns become runtime
// tests.
package jsbe

import (
	"fmt"
	"strings"

	"github.com/lhaig/relux/internal/ir"
)

// Generate produces JavaScript source for a rewritten program. An
// undecorated node panics with *ir.InvariantError.
func Generate(p *ir.Program) string {
	g := &generator{
		structs: make(map[string]*ir.Struct),
		impls:   make(map[string][]*ir.Func),
	}
	var enums []*ir.Enum
	var order []string
	ir.Inspect(p, func(n interface{}) bool {
		switch n := n.(type) {
		case *ir.Struct:
			g.structs[n.Name] = n
		case *ir.Enum:
			enums = append(enums, n)
		case *ir.Impl:
			if _, ok := g.impls[n.Target]; !ok {
				order = append(order, n.Target)
			}
			g.impls[n.Target] = append(g.impls[n.Target], n.Methods...)
			return false
		}
		return true
	})

	g.emitLine("// Generated JavaScript code from ReluxScript")
	g.emitLine("\"use strict\";")
	g.emitLine("")
	g.helpers(p)

	done := make(map[string]bool)
	for _, e := range enums {
		g.enumDecl(e)
		g.emitLine("")
		done[e.Name] = true
	}
	for _, name := range order {
		if done[name] {
			continue
		}
		g.emitLinef("const %s = {\n", name)
		g.incIndent()
		g.methods(g.impls[name])
		g.decIndent()
		g.emitLine("};")
		g.emitLine("")
	}
	for _, d := range p.Decls {
		if f, ok := d.(*ir.Func); ok {
			g.function(f)
			g.emitLine("")
		}
	}

	pls := plugins(p)
	for _, pl := range pls {
		g.pluginDecl(pl, len(pls) > 1)
		g.emitLine("")
	}
	return strings.TrimRight(g.sb.String(), "\n") + "\n"
}

type generator struct {
	sb      strings.Builder
	indent  int
	structs map[string]*ir.Struct
	// impls holds the methods declared for each user type.
	impls  map[string][]*ir.Func
	plugin *ir.Plugin
	tmp    int
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

// capture prints into a child generator at the current indent. The
// child shares the temporary counter so names stay unique.
func (g *generator) capture(f func(c *generator)) string {
	c := &generator{indent: g.indent, structs: g.structs, impls: g.impls, plugin: g.plugin, tmp: g.tmp}
	f(c)
	g.tmp = c.tmp
	return c.sb.String()
}

// temp returns a scrutinee name. `$` never starts a source identifier.
func (g *generator) temp() string {
	name := fmt.Sprintf("$m%d", g.tmp)
	g.tmp++
	return name
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

func (g *generator) helpers(p *ir.Program) {
	seen := make(map[string]bool)
	for _, pl := range plugins(p) {
		if pl.Meta == nil {
			continue
		}
		for _, h := range pl.Meta.Helpers {
			if seen[h] {
				continue
			}
			seen[h] = true
			for _, line := range strings.Split(strings.TrimRight(h, "\n"), "\n") {
				g.emitLine(line)
			}
			g.emitLine("")
		}
	}
}

// --- Declarations ---

// enumDecl prints an enum as a frozen object of variant constructors.
// Methods declared for the enum live on the same object.
func (g *generator) enumDecl(e *ir.Enum) {
	g.emitLinef("const %s = Object.freeze({\n", e.Name)
	g.incIndent()
	for _, v := range e.Variants {
		if len(v.Fields) == 0 {
			g.emitLinef("%s: Object.freeze({ _tag: %q }),\n", v.Name, v.Name)
			continue
		}
		var names []string
		for i, f := range v.Fields {
			if f.Name != "" {
				names = append(names, f.Name)
			} else {
				names = append(names, fmt.Sprintf("_%d", i))
			}
		}
		params := strings.Join(names, ", ")
		g.emitLinef("%s: (%s) => ({ _tag: %q, %s }),\n", v.Name, params, v.Name, params)
	}
	g.methods(g.impls[e.Name])
	g.decIndent()
	g.emitLine("});")
}

// methods prints impl methods as object members. Inside one, `this` is
// the receiver.
func (g *generator) methods(fs []*ir.Func) {
	for _, f := range fs {
		g.emitLinef("%s(%s) {\n", f.Name, params(f))
		g.incIndent()
		g.body(f.Body, false)
		g.decIndent()
		g.emitLine("},")
	}
}

func params(f *ir.Func) string {
	var ps []string
	for _, p := range f.Params {
		ps = append(ps, p.Name)
	}
	return strings.Join(ps, ", ")
}

func (g *generator) function(f *ir.Func) {
	g.emitLinef("function %s(%s) {\n", f.Name, params(f))
	g.incIndent()
	g.body(f.Body, f.ReturnTarget != "" || f.Return != nil && !f.Return.Equal(ir.Unit) && !f.Return.IsUnknown())
	g.decIndent()
	g.emitLine("}")
}

func (g *generator) pluginDecl(p *ir.Plugin, named bool) {
	g.plugin = p
	defer func() { g.plugin = nil }()
	if p.Meta == nil {
		ir.Failf("jsbe", "plugin %s has no metadata", p.Name)
	}

	if named {
		g.emitLinef("module.exports.%s = function ({ types: t }) {\n", p.Name)
	} else {
		g.emitLine("module.exports = function ({ types: t }) {")
	}
	g.incIndent()

	var visitors []*ir.Func
	var pre, exit *ir.Func
	for _, it := range p.Items {
		f, ok := it.(*ir.Func)
		if !ok || f.Meta == nil {
			continue
		}
		switch f.Meta.Kind {
		case ir.FuncVisitor:
			visitors = append(visitors, f)
		case ir.FuncPreHook:
			pre = f
		case ir.FuncExitHook:
			exit = f
		default:
			g.function(f)
			g.emitLine("")
		}
	}

	g.emitLine("return {")
	g.incIndent()
	g.emitLinef("name: %q,\n", p.Name)
	if pre != nil || p.Meta.State != "" || p.IsWriter {
		g.hook("pre", pre, func() {
			if p.Meta.State != "" {
				g.emitLinef("this.state = %s;\n", g.stateInit(p.Meta.State))
			}
			if p.IsWriter {
				g.codeBuilder()
			}
		}, nil)
	}
	g.emitLine("visitor: {")
	g.incIndent()
	for _, f := range visitors {
		g.visitor(f)
	}
	g.decIndent()
	g.emitLine("},")
	if exit != nil || p.IsWriter {
		name := "post"
		if exit != nil && exit.Meta.Target != "" {
			name = exit.Meta.Target
		}
		var publish func()
		if p.IsWriter {
			publish = func() { g.emitLine("file.metadata.output = this.output;") }
		}
		g.hook(name, exit, nil, publish)
	}
	g.decIndent()
	g.emitLine("};")
	g.decIndent()
	g.emitLine("};")
}

// hook prints a pre or post hook. Its first parameter, if any, is bound
// to the program node.
func (g *generator) hook(name string, f *ir.Func, before, after func()) {
	g.emitLinef("%s(file) {\n", name)
	g.incIndent()
	if before != nil {
		before()
	}
	if f != nil {
		if len(f.Params) > 0 {
			g.emitLinef("const %s = file.path.node;\n", f.Params[0].Name)
		}
		g.body(f.Body, false)
	}
	if after != nil {
		after()
	}
	g.decIndent()
	g.emitLine("},")
}

func (g *generator) visitor(f *ir.Func) {
	name := f.Meta.Target
	if name == "" {
		name = f.Meta.NodeType
	}
	g.emitLinef("%s(path) {\n", name)
	g.incIndent()
	if len(f.Params) > 0 && f.Params[0].Name != "path" {
		g.emitLinef("const %s = path.node;\n", f.Params[0].Name)
	}
	g.body(f.Body, false)
	g.decIndent()
	g.emitLine("},")
}

func (g *generator) stateInit(name string) string {
	s, ok := g.structs[name]
	if !ok || len(s.Fields) == 0 {
		return "{}"
	}
	var fs []string
	for _, f := range s.Fields {
		fs = append(fs, fmt.Sprintf("%s: %s", f.Name, defaultValue(f.Type)))
	}
	return "{ " + strings.Join(fs, ", ") + " }"
}

// codeBuilder installs the writer's output buffer on the plugin pass.
func (g *generator) codeBuilder() {
	g.emitLine("this.output = \"\";")
	g.emitLine("this.indentLevel = 0;")
	g.emitLine("this.append = (s) => {")
	g.emitLine("    this.output += s;")
	g.emitLine("};")
	g.emitLine("this.newline = () => {")
	g.emitLine("    this.output += \"\\n\" + \"  \".repeat(this.indentLevel);")
	g.emitLine("};")
}

// --- Statements ---

// body prints a block. ret selects whether a tail value is returned.
func (g *generator) body(b *ir.Block, ret bool) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		g.stmt(s)
	}
	if b.Tail == nil {
		return
	}
	if ret {
		g.emitLinef("return %s;\n", g.expr(b.Tail))
		return
	}
	if m, ok := b.Tail.(*ir.MatchExpr); ok {
		g.matchStmt(m)
		return
	}
	g.emitLinef("%s;\n", g.expr(b.Tail))
}

func (g *generator) stmt(s ir.Stmt) {
	switch s := s.(type) {
	case *ir.LetStmt:
		kw := "const"
		if s.Mutable {
			kw = "let"
		}
		g.emitLinef("%s %s = %s;\n", kw, s.Name, g.expr(s.Value))
	case *ir.AssignStmt:
		g.emitLinef("%s = %s;\n", g.expr(s.Target), g.expr(s.Value))
	case *ir.ExprStmt:
		if m, ok := s.X.(*ir.MatchExpr); ok {
			g.matchStmt(m)
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
		g.emitLinef("if (%s) {\n", g.expr(s.Cond))
		g.branches(s.Then, s.Else)
	case *ir.IfLetStmt:
		g.ifLet(s)
	case *ir.WhileStmt:
		g.emitLinef("while (%s) {\n", g.expr(s.Cond))
		g.incIndent()
		g.body(s.Body, false)
		g.decIndent()
		g.emitLine("}")
	case *ir.ForStmt:
		g.emitLinef("for (const %s of %s) {\n", s.Var, g.expr(s.Iter))
		g.incIndent()
		g.body(s.Body, false)
		g.decIndent()
		g.emitLine("}")
	case *ir.BreakStmt:
		g.emitLine("break;")
	case *ir.ContinueStmt:
		g.emitLine("continue;")
	case *ir.PropSetStmt:
		if s.Delete {
			g.emitLinef("delete %s.%s;\n", g.expr(s.Node), s.Prop.Name)
			return
		}
		g.emitLinef("%s.%s = %s;\n", g.expr(s.Node), s.Prop.Name, g.expr(s.Value))
	case *ir.DeclStmt:
		switch d := s.Decl.(type) {
		case *ir.Func:
			g.function(d)
		case *ir.Enum:
			// printed at top level
		}
	default:
		ir.Failf("jsbe", "unexpected statement %T", s)
	}
}

func (g *generator) branches(then, els *ir.Block) {
	g.incIndent()
	g.body(then, false)
	g.decIndent()
	if els == nil {
		g.emitLine("}")
		return
	}
	g.emitLine("} else {")
	g.incIndent()
	g.body(els, false)
	g.decIndent()
	g.emitLine("}")
}

// subject names the value a pattern is tested against. Simple reads are
// tested in place; anything else is evaluated once into a temporary.
func (g *generator) subject(x ir.Expr) (name, init string) {
	text := g.expr(x)
	if simple(x) {
		return text, ""
	}
	name = g.temp()
	return name, fmt.Sprintf("const %s = %s;", name, text)
}

func simple(e ir.Expr) bool {
	switch e := e.(type) {
	case *ir.Ident, *ir.SelfExpr:
		return true
	case *ir.MemberExpr:
		return simple(e.Object)
	case *ir.PropGetExpr:
		return simple(e.Node)
	case *ir.PathExpr:
		return true
	}
	return false
}

func (g *generator) ifLet(s *ir.IfLetStmt) {
	v, init := g.subject(s.Value)
	if init != "" {
		g.emitLine("{")
		g.incIndent()
		g.emitLine(init)
	}
	conds, binds := g.test(s.Pattern, v)
	g.emitLinef("if (%s) {\n", cond(conds))
	g.incIndent()
	g.bindings(binds)
	g.decIndent()
	g.branches(s.Then, s.Else)
	if init != "" {
		g.decIndent()
		g.emitLine("}")
	}
}

// --- Patterns ---

type binding struct {
	name, value string
}

func cond(conds []string) string {
	if len(conds) == 0 {
		return "true"
	}
	return strings.Join(conds, " && ")
}

func (g *generator) bindings(bs []binding) {
	for _, b := range bs {
		g.emitLinef("const %s = %s;\n", b.name, b.value)
	}
}

// test lowers p matched against the value spelled v into the conditions
// under which it matches and the bindings it introduces.
func (g *generator) test(p ir.Pattern, v string) (conds []string, binds []binding) {
	m := p.Metadata()
	if m == nil {
		ir.Failf("jsbe", "undecorated pattern %T reached the emitter", p)
	}
	switch p := p.(type) {
	case *ir.WildcardPattern:
	case *ir.BindingPattern:
		binds = append(binds, binding{p.Name, v})
	case *ir.LitPattern:
		conds = append(conds, fmt.Sprintf("%s === %s", v, literal(p.Value)))
	case *ir.VariantPattern:
		switch m.Test {
		case ir.TestPredicate:
			conds = append(conds, fmt.Sprintf("%s(%s)", m.Path, v))
		case ir.TestTag, ir.TestVariant:
			conds = append(conds, fmt.Sprintf("%s._tag === %q", v, m.Path))
		case ir.TestPresent:
			conds = append(conds, v+" != null")
		case ir.TestAbsent:
			conds = append(conds, v+" == null")
		}
		for i, a := range p.Args {
			sub := v
			if i < len(m.Fields) && m.Fields[i] != "" {
				sub = v + "." + m.Fields[i]
			} else if i >= len(m.Fields) && (m.Test == ir.TestTag || m.Test == ir.TestVariant) {
				sub = fmt.Sprintf("%s._%d", v, i)
			}
			c, b := g.test(a, sub)
			conds = append(conds, c...)
			binds = append(binds, b...)
		}
	default:
		ir.Failf("jsbe", "unexpected pattern %T", p)
	}
	return conds, binds
}

// --- Matches ---

func guarded(m *ir.MatchExpr) bool {
	for _, a := range m.Arms {
		if a.Guard != nil {
			return true
		}
	}
	return false
}

// matchStmt prints a match used as a statement as an if chain. A guard
// that fails falls through to the next arm, so guarded matches run in a
// labeled block left by break once an arm has run.
func (g *generator) matchStmt(m *ir.MatchExpr) {
	v, init := g.subject(m.X)
	if guarded(m) {
		label := g.temp()
		g.emitLinef("%s: {\n", label)
		g.incIndent()
		if init != "" {
			g.emitLine(init)
		}
		for _, a := range m.Arms {
			conds, binds := g.test(a.Pattern, v)
			g.emitLinef("if (%s) {\n", cond(conds))
			g.incIndent()
			g.bindings(binds)
			if a.Guard != nil {
				g.emitLinef("if (%s) {\n", g.expr(a.Guard))
				g.incIndent()
			}
			g.body(a.Body, false)
			g.emitLinef("break %s;\n", label)
			if a.Guard != nil {
				g.decIndent()
				g.emitLine("}")
			}
			g.decIndent()
			g.emitLine("}")
		}
		g.decIndent()
		g.emitLine("}")
		return
	}

	if init != "" {
		g.emitLine("{")
		g.incIndent()
		g.emitLine(init)
	}
	opened := false
	for _, a := range m.Arms {
		conds, binds := g.test(a.Pattern, v)
		if len(conds) == 0 {
			if opened {
				g.emitLine("} else {")
			} else {
				g.emitLine("{")
			}
			g.incIndent()
			g.bindings(binds)
			g.body(a.Body, false)
			g.decIndent()
			g.emitLine("}")
			opened = false
			break
		}
		if opened {
			g.emitLinef("} else if (%s) {\n", cond(conds))
		} else {
			g.emitLinef("if (%s) {\n", cond(conds))
			opened = true
		}
		g.incIndent()
		g.bindings(binds)
		g.body(a.Body, false)
		g.decIndent()
	}
	if opened {
		g.emitLine("}")
	}
	if init != "" {
		g.decIndent()
		g.emitLine("}")
	}
}

// ternary reports whether a match can be printed as a conditional
// expression: a simple scrutinee, and arms that bind nothing, have no
// guard and only yield a value.
func (g *generator) ternary(m *ir.MatchExpr) bool {
	if !simple(m.X) {
		return false
	}
	for _, a := range m.Arms {
		if a.Guard != nil || a.Body == nil || a.Body.Tail == nil || len(a.Body.Stmts) > 0 {
			return false
		}
		if len(ir.BoundNames(a.Pattern)) > 0 {
			return false
		}
	}
	return true
}

func (g *generator) matchExpr(m *ir.MatchExpr) string {
	if g.ternary(m) {
		v := g.expr(m.X)
		var sb strings.Builder
		sb.WriteString("(")
		closed := false
		for _, a := range m.Arms {
			conds, _ := g.test(a.Pattern, v)
			if len(conds) == 0 {
				sb.WriteString(g.expr(a.Body.Tail))
				closed = true
				break
			}
			sb.WriteString(fmt.Sprintf("%s ? %s : ", cond(conds), g.expr(a.Body.Tail)))
		}
		if !closed {
			sb.WriteString("undefined")
		}
		sb.WriteString(")")
		return sb.String()
	}

	return g.capture(func(c *generator) {
		c.emit("(() => {\n")
		c.incIndent()
		v := c.temp()
		c.emitLinef("const %s = %s;\n", v, c.expr(m.X))
		for _, a := range m.Arms {
			conds, binds := c.test(a.Pattern, v)
			catchAll := len(conds) == 0 && a.Guard == nil
			if !catchAll {
				c.emitLinef("if (%s) {\n", cond(conds))
				c.incIndent()
			}
			c.bindings(binds)
			if a.Guard != nil {
				c.emitLinef("if (%s) {\n", c.expr(a.Guard))
				c.incIndent()
			}
			c.body(a.Body, true)
			if a.Guard != nil {
				c.decIndent()
				c.emitLine("}")
			}
			if catchAll {
				break
			}
			c.decIndent()
			c.emitLine("}")
		}
		c.decIndent()
		c.emit(c.indentStr() + "})()")
	})
}

// --- Expressions ---

func (g *generator) expr(e ir.Expr) string {
	if e == nil {
		return "undefined"
	}
	m := e.Metadata()
	if m == nil {
		ir.Failf("jsbe", "undecorated %T reached the emitter", e)
	}
	switch e := e.(type) {
	case *ir.Ident:
		if m.Name != "" {
			return m.Name
		}
		return e.Name
	case *ir.SelfExpr:
		return "this"
	case *ir.Lit:
		return literal(e)
	case *ir.UnaryExpr:
		return e.Op + g.expr(e.X)
	case *ir.BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", g.expr(e.Left), operator(e.Op), g.expr(e.Right))
	case *ir.MemberExpr:
		if e.FMeta == nil {
			ir.Failf("jsbe", "field %s has no field metadata", e.Field)
		}
		return g.expr(e.Object) + "." + e.FMeta.Name
	case *ir.PathExpr:
		if len(m.Path) == 0 {
			return strings.Join(e.Segments, ".")
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
			return "{}"
		}
		return "{ " + strings.Join(fs, ", ") + " }"
	case *ir.ArrayLit:
		return "[" + g.args(e.Elems) + "]"
	case *ir.MatchExpr:
		return g.matchExpr(e)
	case *ir.PropGetExpr:
		return g.expr(e.Node) + "." + e.Prop.Name
	case *ir.DefaultExpr:
		return defaultValue(m.Type)
	case *ir.UnreachableExpr:
		return "(() => { throw new Error(\"unreachable\"); })()"
	}
	ir.Failf("jsbe", "unexpected expression %T", e)
	return ""
}

func operator(op string) string {
	switch op {
	case "==":
		return "==="
	case "!=":
		return "!=="
	}
	return op
}

func literal(l *ir.Lit) string {
	switch l.Kind {
	case ir.LitStr:
		return "\"" + escapeJSString(l.Value) + "\""
	case ir.LitNull:
		return "null"
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
	withThis := func(fn, recv string) string {
		if args == "" {
			return fmt.Sprintf("%s.call(%s)", fn, recv)
		}
		return fmt.Sprintf("%s.call(%s, %s)", fn, recv, args)
	}

	if callee, ok := c.Callee.(*ir.MemberExpr); ok {
		recv := g.expr(callee.Object)
		name := callee.Field
		if callee.Meta != nil && callee.Meta.Name != "" {
			name = callee.Meta.Name
		}
		switch {
		case m.SelfCall:
			return withThis(name, "this")
		case m.Inline:
			return recv
		case m.Property:
			return property(recv, name)
		}
		if owner := callee.FMeta; owner != nil {
			if _, ok := g.impls[owner.Owner]; ok {
				return withThis(owner.Owner+"."+name, recv)
			}
		}
		return fmt.Sprintf("%s.%s(%s)", recv, name, args)
	}

	if m.Inline && len(c.Args) == 1 {
		return args
	}
	name := g.expr(c.Callee)
	if m.SelfCall {
		return withThis(name, "this")
	}
	return fmt.Sprintf("%s(%s)", name, args)
}

// property prints a method mapped to a property read. A target with an
// operator, such as `length === 0`, compares the receiver.
func property(recv, target string) string {
	switch {
	case !strings.Contains(target, " "):
		return recv + "." + target
	case strings.ContainsAny(target[:1], "!=<>"):
		return fmt.Sprintf("(%s %s)", recv, target)
	}
	return fmt.Sprintf("(%s.%s)", recv, target)
}

func defaultValue(t *ir.Type) string {
	switch {
	case t == nil || t.IsUnknown():
		return "null"
	case t.Name == ir.Bool.Name:
		return "false"
	case t.IsNumeric():
		return "0"
	case t.Name == ir.Str.Name:
		return "\"\""
	case t.IsVec():
		return "[]"
	}
	return "null"
}

func escapeJSString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}
