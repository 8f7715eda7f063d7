// Package decorate attaches translation metadata to a raw program for one
// backend. The decorated tree has exactly the shape of its input; only
// metadata records are added.
package decorate

import (
	"strings"

	"github.com/lhaig/relux/internal/ast"
	"github.com/lhaig/relux/internal/diagnostic"
	"github.com/lhaig/relux/internal/ir"
	"github.com/lhaig/relux/internal/mapping"
	"github.com/lhaig/relux/internal/props"
)

// signature is the declared shape of a callable.
type signature struct {
	Name    string
	Params  []*ir.Param
	Return  *ir.Type
	HasSelf bool
}

// pluginScope is the plugin or writer whose items are being decorated.
type pluginScope struct {
	decl      *ast.PluginDecl
	funcs     map[string]*signature
	state     *ir.Struct
	usesProps bool
	helpers   []string
	nodeKind  string // node kind of the visitor being decorated
}

// Decorator decorates one program. It is not safe for concurrent use; each
// compilation creates its own.
type Decorator struct {
	tables *mapping.Tables
	tagged bool
	diags  *diagnostic.Diagnostics
	props  *props.Registry

	structs   map[string]*ir.Struct
	enums     map[string]*ir.Enum
	variantOf map[string]*ir.Enum // bare variant name, when unambiguous
	funcs     map[string]*signature
	impls     map[string]map[string]*signature

	plugin *pluginScope
	env    *TypeEnv
	ret    *ir.Type
}

// New creates a decorator for the backend described by tables.
func New(tables *mapping.Tables, diags *diagnostic.Diagnostics) *Decorator {
	return &Decorator{
		tables:    tables,
		tagged:    tables.Tagged(),
		diags:     diags,
		props:     props.NewRegistry(diags, tables.TargetType),
		structs:   make(map[string]*ir.Struct),
		enums:     make(map[string]*ir.Enum),
		variantOf: make(map[string]*ir.Enum),
		funcs:     make(map[string]*signature),
		impls:     make(map[string]map[string]*signature),
	}
}

// Decorate is a convenience wrapper creating a Decorator for one program.
func Decorate(prog *ast.Program, tables *mapping.Tables, diags *diagnostic.Diagnostics) *ir.Program {
	return New(tables, diags).Program(prog)
}

// Props returns the custom-property registry filled while decorating.
func (d *Decorator) Props() *props.Registry {
	return d.props
}

// Program decorates prog. Diagnostics go to the decorator's collection;
// the returned tree is complete even when some were raised.
func (d *Decorator) Program(prog *ast.Program) *ir.Program {
	out := &ir.Program{Backend: d.tables.Backend}
	for _, u := range prog.Uses {
		out.Uses = append(out.Uses, u.Path)
	}

	// Signatures first, so bodies can refer to anything declared.
	for _, decl := range prog.Decls {
		d.collectTypes(decl)
	}
	for _, decl := range prog.Decls {
		d.collectFuncs(decl)
	}

	var plugins []*ir.Plugin
	for _, decl := range prog.Decls {
		dd := d.decl(decl)
		if p, ok := dd.(*ir.Plugin); ok {
			plugins = append(plugins, p)
		}
		out.Decls = append(out.Decls, dd)
	}

	d.props.Finish()
	for _, p := range plugins {
		if p.Meta.NeedsTable {
			p.Meta.Props = d.props.Variants()
			p.Meta.NeedsTable = len(p.Meta.Props) > 0
		}
	}
	return out
}

func (d *Decorator) collectTypes(decl ast.Declaration) {
	switch n := decl.(type) {
	case *ast.PluginDecl:
		for _, it := range n.Items {
			d.collectTypes(it)
		}
	case *ast.StructDecl:
		s := &ir.Struct{Name: n.Name, Span: span(n)}
		for _, f := range n.Fields {
			s.Fields = append(s.Fields, d.field(f))
		}
		d.structs[n.Name] = s
		d.props.DeclareType(n.Name)
	case *ast.EnumDecl:
		e := &ir.Enum{Name: n.Name, Span: span(n)}
		for _, v := range n.Variants {
			iv := &ir.Variant{Name: v.Name}
			for _, f := range v.Fields {
				iv.Fields = append(iv.Fields, d.field(f))
			}
			e.Variants = append(e.Variants, iv)
			if _, taken := d.variantOf[v.Name]; taken {
				d.variantOf[v.Name] = nil
			} else {
				d.variantOf[v.Name] = e
			}
		}
		d.enums[n.Name] = e
		d.props.DeclareType(n.Name)
	case *ast.FnDecl:
		d.collectNested(n.Body)
	case *ast.ImplDecl:
		for _, m := range n.Methods {
			d.collectNested(m.Body)
		}
	}
}

// collectNested registers types declared inside function bodies.
func (d *Decorator) collectNested(b *ast.Block) {
	if b == nil {
		return
	}
	for _, s := range b.Statements {
		switch s := s.(type) {
		case *ast.DeclStmt:
			d.collectTypes(s.Decl)
		case *ast.IfStmt:
			d.collectNested(s.Then)
			d.collectNested(s.Else)
		case *ast.WhileStmt:
			d.collectNested(s.Body)
		case *ast.ForStmt:
			d.collectNested(s.Body)
		case *ast.MatchStmt:
			for _, a := range s.Arms {
				d.collectNested(a.Body)
			}
		}
	}
}

func (d *Decorator) field(f *ast.FieldDecl) *ir.Field {
	t := ir.FromRef(f.Type)
	return &ir.Field{Name: f.Name, Type: t, Target: d.tables.TargetType(t)}
}

func (d *Decorator) collectFuncs(decl ast.Declaration) {
	switch n := decl.(type) {
	case *ast.PluginDecl:
		// plugin functions are collected per plugin in decl
	case *ast.FnDecl:
		d.funcs[n.Name] = d.signature(n, false)
	case *ast.ImplDecl:
		methods := d.impls[n.Target]
		if methods == nil {
			methods = make(map[string]*signature)
			d.impls[n.Target] = methods
		}
		for _, m := range n.Methods {
			methods[m.Name] = d.signature(m, false)
		}
	}
}

func (d *Decorator) signature(fn *ast.FnDecl, visitor bool) *signature {
	sig := &signature{Name: fn.Name, Return: ir.Unit}
	if fn.ReturnType != nil {
		sig.Return = ir.FromRef(fn.ReturnType)
	}
	for i, p := range fn.Params {
		if p.Name == "self" {
			sig.HasSelf = true
			continue
		}
		t := ir.FromRef(p.Type)
		sig.Params = append(sig.Params, &ir.Param{
			Name:    p.Name,
			Type:    t,
			Target:  d.paramTarget(t, visitor && i == firstParam(fn)),
			Mutable: p.Mutable,
		})
	}
	return sig
}

func firstParam(fn *ast.FnDecl) int {
	for i, p := range fn.Params {
		if p.Name != "self" {
			return i
		}
	}
	return -1
}

// paramTarget spells a parameter type. On the tagged backend non-primitive
// parameters are borrowed; the visited node is borrowed mutably unless the
// plugin is a writer.
func (d *Decorator) paramTarget(t *ir.Type, visited bool) string {
	if !d.tagged {
		return ""
	}
	if t.IsPrimitive() || t.IsUnknown() {
		return d.tables.TargetType(t)
	}
	if t.Equal(ir.Str) {
		return "&str"
	}
	if visited && (d.plugin == nil || !d.plugin.decl.IsWriter) {
		return "&mut " + d.tables.TargetType(t)
	}
	return "&" + d.tables.TargetType(t)
}

func (d *Decorator) decl(decl ast.Declaration) ir.Decl {
	switch n := decl.(type) {
	case *ast.PluginDecl:
		return d.pluginDecl(n)
	case *ast.StructDecl:
		return d.structs[n.Name]
	case *ast.EnumDecl:
		return d.enums[n.Name]
	case *ast.FnDecl:
		return d.function(n, nil)
	case *ast.ImplDecl:
		impl := &ir.Impl{Target: n.Target, Span: span(n)}
		for _, m := range n.Methods {
			impl.Methods = append(impl.Methods, d.function(m, d.impls[n.Target][m.Name]))
		}
		return impl
	}
	ir.Failf("decorate", "unexpected declaration %T", decl)
	return nil
}

func (d *Decorator) pluginDecl(n *ast.PluginDecl) *ir.Plugin {
	saved := d.plugin
	d.plugin = &pluginScope{decl: n, funcs: make(map[string]*signature)}
	defer func() { d.plugin = saved }()

	meta := &ir.PluginMeta{}
	for _, it := range n.Items {
		switch it := it.(type) {
		case *ast.FnDecl:
			d.plugin.funcs[it.Name] = d.signature(it, isVisitor(it.Name))
		case *ast.StructDecl:
			if it.Name == "State" {
				d.plugin.state = d.structs[it.Name]
				meta.State = it.Name
			}
		}
	}

	out := &ir.Plugin{Name: n.Name, IsWriter: n.IsWriter, Meta: meta, Span: span(n)}
	for _, it := range n.Items {
		dd := d.decl(it)
		if f, ok := dd.(*ir.Func); ok && f.Meta.Kind == ir.FuncVisitor {
			meta.Visitors++
		}
		out.Items = append(out.Items, dd)
	}
	meta.Helpers = d.plugin.helpers
	// Props are filled in once every plugin has been decorated.
	meta.NeedsTable = d.tagged && d.plugin.usesProps
	return out
}

func isVisitor(name string) bool {
	return strings.HasPrefix(name, "visit_")
}

// function decorates a function body in a fresh type environment. sig is
// the pre-collected signature, nil to derive it here.
func (d *Decorator) function(fn *ast.FnDecl, sig *signature) *ir.Func {
	meta := d.funcMeta(fn)
	if d.plugin != nil {
		if s, ok := d.plugin.funcs[fn.Name]; ok {
			sig = s
		}
	}
	if sig == nil {
		sig = d.signature(fn, meta.Kind == ir.FuncVisitor)
	}

	savedEnv, savedRet := d.env, d.ret
	d.env, d.ret = NewTypeEnv(nil), sig.Return
	defer func() { d.env, d.ret = savedEnv, savedRet }()
	if d.plugin != nil {
		savedKind := d.plugin.nodeKind
		d.plugin.nodeKind = meta.NodeType
		defer func() { d.plugin.nodeKind = savedKind }()
	}

	out := &ir.Func{
		Name:   fn.Name,
		Public: fn.IsPublic,
		Return: sig.Return,
		Meta:   meta,
		Span:   span(fn),
	}
	if !sig.Return.Equal(ir.Unit) {
		out.ReturnTarget = d.tables.TargetType(sig.Return)
	}
	for _, p := range sig.Params {
		pc := *p
		out.Params = append(out.Params, &pc)
		d.define(&Binding{
			Name:    p.Name,
			Type:    p.Type,
			Target:  p.Target,
			Mutable: p.Mutable,
			Ref:     d.tagged && !p.Type.IsPrimitive(),
			Kind:    BindParam,
		}, out.Span)
	}
	out.Body = d.block(fn.Body)
	return out
}

func (d *Decorator) funcMeta(fn *ast.FnDecl) *ir.FuncMeta {
	hasSelf := false
	for _, p := range fn.Params {
		if p.Name == "self" {
			hasSelf = true
		}
	}
	meta := &ir.FuncMeta{Kind: ir.FuncHelper, Target: fn.Name}
	if hasSelf {
		meta.Kind = ir.FuncMethod
	}
	if d.plugin == nil {
		return meta
	}
	switch {
	case fn.Name == "pre":
		meta.Kind = ir.FuncPreHook
		if !d.tagged {
			meta.Target = "pre"
		}
	case fn.Name == "exit":
		meta.Kind = ir.FuncExitHook
		if !d.tagged {
			meta.Target = "post"
		}
	case isVisitor(fn.Name):
		meta.Kind = ir.FuncVisitor
		i := firstParam(fn)
		if i < 0 || fn.Params[i].Type == nil {
			d.diags.Reportf(diagnostic.MappingGap, fn.Line, fn.Column,
				"visitor %s has no node parameter", fn.Name)
			return meta
		}
		kind := fn.Params[i].Type.Name
		meta.NodeType = kind
		node, ok := d.tables.Node(kind)
		if !ok || node.Visitor == "" {
			d.diags.Reportf(diagnostic.MappingGap, fn.Line, fn.Column,
				"no visitor for node kind %s on backend %s", kind, d.tables.Backend)
			return meta
		}
		meta.Target = node.Visitor
		if d.tagged && d.plugin.decl.IsWriter {
			meta.Target = strings.Replace(meta.Target, "visit_mut_", "visit_", 1)
		}
	}
	return meta
}

func (d *Decorator) whenEnv(pattern bool, field string) mapping.Env {
	env := mapping.Env{Pattern: pattern, Backend: d.tables.Backend, Field: field}
	if d.plugin != nil {
		env.Writer = d.plugin.decl.IsWriter
		env.Node = d.plugin.nodeKind
	}
	return env
}

func (d *Decorator) useHelper(name string) {
	if d.plugin == nil || name == "" {
		return
	}
	src, ok := d.tables.Helper(name)
	if !ok {
		return
	}
	for _, h := range d.plugin.helpers {
		if h == src {
			return
		}
	}
	d.plugin.helpers = append(d.plugin.helpers, src)
}

// define binds b in the current scope, reporting a redefinition at at.
func (d *Decorator) define(b *Binding, at ir.Span) {
	if err := d.env.Define(b); err != nil {
		d.diags.Errorf(at.Line, at.Column, "%v", err)
	}
}

func span(n ast.Node) ir.Span {
	line, col := n.Pos()
	return ir.Span{Line: line, Column: col}
}
