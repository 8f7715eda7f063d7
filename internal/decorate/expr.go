package decorate

import (
	"strconv"
	"strings"

	"github.com/lhaig/relux/internal/ast"
	"github.com/lhaig/relux/internal/diagnostic"
	"github.com/lhaig/relux/internal/ir"
	"github.com/lhaig/relux/internal/props"
)

// slot is the position an expression is used in. It decides which
// indirection step a tagged-union read needs.
type slot int

const (
	slotPlain     slot = iota
	slotValue          // bound by let, returned, stored
	slotArg            // passed to a by-reference parameter
	slotScrutinee      // matched against a pattern
	slotObject         // receiver of a further field access
	slotPlace          // written to
	slotCompare        // operand of a comparison
	slotIter           // iterated by for
)

func (d *Decorator) meta(n ast.Node, t *ir.Type) *ir.ExprMeta {
	return &ir.ExprMeta{Type: t, Target: d.typeTarget(t), Span: span(n)}
}

// typeTarget spells t, or nothing when any part of it is unknown.
func (d *Decorator) typeTarget(t *ir.Type) string {
	if hasUnknown(t) {
		return ""
	}
	return d.tables.TargetType(t)
}

func hasUnknown(t *ir.Type) bool {
	if t.IsUnknown() {
		return true
	}
	for _, a := range t.Args {
		if hasUnknown(a) {
			return true
		}
	}
	return false
}

func (d *Decorator) expr(e ast.Expression, s slot) ir.Expr {
	switch e := e.(type) {
	case *ast.Ident:
		return d.ident(e, s)
	case *ast.SelfExpr:
		m := d.meta(e, ir.Named("Self"))
		m.Name = "this"
		if d.tagged {
			m.Name = "self"
		}
		return &ir.SelfExpr{Meta: m}
	case *ast.StringLit:
		m := d.meta(e, ir.Str)
		m.ToOwned = d.tagged && s == slotValue
		return &ir.Lit{Kind: ir.LitStr, Value: e.Value, Meta: m}
	case *ast.IntLit:
		return &ir.Lit{Kind: ir.LitInt, Value: strconv.FormatInt(e.Value, 10), Meta: d.meta(e, ir.I32)}
	case *ast.FloatLit:
		return &ir.Lit{Kind: ir.LitFloat, Value: e.Value, Meta: d.meta(e, ir.F64)}
	case *ast.BoolLit:
		return &ir.Lit{Kind: ir.LitBool, Value: strconv.FormatBool(e.Value), Meta: d.meta(e, ir.Bool)}
	case *ast.NullLit:
		m := d.meta(e, ir.OptionOf(ir.Unknown))
		m.Name = "None"
		if v, ok := d.tables.Value("None"); ok {
			m.Name = v
		}
		return &ir.Lit{Kind: ir.LitNull, Meta: m}
	case *ast.UnaryExpr:
		x := d.expr(e.Operand, slotPlain)
		t := x.Metadata().Type
		if e.Op == ast.OpNot {
			t = ir.Bool
		}
		return &ir.UnaryExpr{Op: string(e.Op), X: x, Meta: d.meta(e, t)}
	case *ast.BinaryExpr:
		return d.binary(e)
	case *ast.MemberExpr:
		if props.IsProperty(e.Field) {
			return d.propRead(&ast.PropAccessExpr{Node: e.Object, Property: e.Field, Line: e.Line, Column: e.Column})
		}
		return d.member(e, s)
	case *ast.PathExpr:
		return d.path(e)
	case *ast.CallExpr:
		return d.call(e)
	case *ast.StructLit:
		out := &ir.StructLit{Name: e.Name, Meta: d.meta(e, ir.Named(e.Name))}
		for _, f := range e.Fields {
			out.Fields = append(out.Fields, &ir.FieldValue{Name: f.Name, Value: d.expr(f.Value, slotValue)})
		}
		return out
	case *ast.ArrayLit:
		out := &ir.ArrayLit{}
		elem := ir.Unknown
		for _, el := range e.Elements {
			x := d.expr(el, slotValue)
			if elem.IsUnknown() {
				elem = x.Metadata().Type
			}
			out.Elems = append(out.Elems, x)
		}
		out.Meta = d.meta(e, ir.VecOf(elem))
		return out
	case *ast.MatchesExpr:
		x := d.expr(e.Value, slotScrutinee)
		saved := d.env
		d.env = NewTypeEnv(saved)
		p := d.pattern(e.Pattern, x)
		d.env = saved
		return &ir.MatchesExpr{X: x, Pattern: p, Meta: d.meta(e, ir.Bool)}
	case *ast.PropAccessExpr:
		return d.propRead(e)
	}
	ir.Failf("decorate", "unexpected expression %T", e)
	return nil
}

func (d *Decorator) ident(e *ast.Ident, s slot) ir.Expr {
	m := d.meta(e, ir.Unknown)
	m.Name = e.Name
	b := d.env.Resolve(e.Name)
	if b == nil {
		return &ir.Ident{Name: e.Name, Meta: m}
	}
	m.Type, m.Target = b.Type, b.Target
	if !d.tagged || b.Type.IsPrimitive() || b.Type.IsUnknown() {
		return &ir.Ident{Name: e.Name, Meta: m}
	}
	switch {
	case !b.Ref && (s == slotScrutinee || s == slotIter || s == slotArg):
		m.Unwrap = ir.UnwrapRef
	case b.Ref && s == slotValue && b.Type.Equal(ir.Str):
		m.ToOwned = true
	}
	return &ir.Ident{Name: e.Name, Meta: m}
}

func (d *Decorator) binary(e *ast.BinaryExpr) ir.Expr {
	operand := slotPlain
	if e.Op.IsComparison() {
		operand = slotCompare
	}
	l := d.expr(e.Left, operand)
	r := d.expr(e.Right, operand)

	t := l.Metadata().Type
	if e.Op.IsComparison() || e.Op.IsLogical() {
		t = ir.Bool
	} else if t.IsUnknown() {
		t = r.Metadata().Type
	}
	bin := &ir.BinaryMeta{}
	if d.tagged && e.Op.IsComparison() {
		bin.LeftDeref = internedAgainstStr(l, r)
		bin.RightDeref = internedAgainstStr(r, l)
	}
	return &ir.BinaryExpr{Op: string(e.Op), Left: l, Right: r, Meta: d.meta(e, t), Bin: bin}
}

// internedAgainstStr reports whether x reads an interned field and is
// compared with text.
func internedAgainstStr(x, other ir.Expr) bool {
	m, ok := x.(*ir.MemberExpr)
	return ok && m.FMeta.Interned && other.Metadata().Type.Equal(ir.Str)
}

func (d *Decorator) member(e *ast.MemberExpr, s slot) ir.Expr {
	obj := d.expr(e.Object, slotObject)
	owner := obj.Metadata().Type
	if owner.IsOption() {
		// Reading through an optional field assumes it is present.
		owner = owner.Elem()
	}
	fm := d.resolveField(e, owner)
	m := d.meta(e, fm.Value)
	if fm.Accessor.Kind == ir.Replace {
		m.Name = fm.Accessor.With
	}
	if d.tagged {
		m.Unwrap, m.ToOwned = memberUnwrap(fm, s)
	}
	return &ir.MemberExpr{Object: obj, Field: e.Field, Meta: m, FMeta: fm}
}

// memberUnwrap picks the indirection step for a field read in slot s, and
// whether interned text is copied out as an owned string.
func memberUnwrap(fm *ir.FieldMeta, s slot) (ir.Unwrap, bool) {
	acc := fm.Accessor
	switch s {
	case slotObject:
		if acc.Kind != ir.Optional {
			return ir.UnwrapNone, false
		}
		if acc.IsBoxed() {
			return ir.UnwrapForceDeref, false
		}
		return ir.UnwrapForce, false
	case slotScrutinee, slotArg, slotValue, slotIter:
	default:
		return ir.UnwrapNone, false
	}
	if fm.Interned {
		if s == slotValue || s == slotIter {
			return ir.UnwrapNone, true
		}
		return ir.UnwrapDeref, false
	}
	switch acc.Kind {
	case ir.BoxedAsRef:
		return ir.UnwrapAsRef, false
	case ir.BoxedRefDeref:
		return ir.UnwrapDeref, false
	case ir.Optional:
		if acc.IsBoxed() {
			return ir.UnwrapAsDeref, false
		}
		return ir.UnwrapAsRef, false
	case ir.Replace:
		return ir.UnwrapNone, false
	}
	if fm.Value.IsPrimitive() {
		return ir.UnwrapNone, false
	}
	return ir.UnwrapRef, false
}

// resolveField finds the mapping for owner.field. User structs map
// directly; node kinds and the plugin itself go through the tables.
func (d *Decorator) resolveField(e *ast.MemberExpr, owner *ir.Type) *ir.FieldMeta {
	name := owner.Name
	if s, ok := d.structs[name]; ok {
		for _, f := range s.Fields {
			if f.Name == e.Field {
				return &ir.FieldMeta{Owner: name, Name: f.Name, Declared: f.Target, Value: f.Type}
			}
		}
	}
	env := d.whenEnv(false, e.Field)
	switch {
	case name == "Self":
		if f, ok := d.tables.Field(name, e.Field, env); ok {
			return d.tableField(name, f.Target, f.Type, f.Value, f.Interned, f.AccessorStrategy())
		}
		if e.Field == "state" && d.plugin != nil && d.plugin.state != nil {
			st := d.plugin.state.Name
			return &ir.FieldMeta{Owner: name, Name: "state", Declared: st, Value: ir.Named(st)}
		}
	case d.tables.IsNode(name):
		if f, ok := d.tables.Field(name, e.Field, env); ok {
			return d.tableField(name, f.Target, f.Type, f.Value, f.Interned, f.AccessorStrategy())
		}
		d.diags.Reportf(diagnostic.MappingGap, e.Line, e.Column,
			"no mapping for field %s.%s on backend %s", name, e.Field, d.tables.Backend)
	}
	return &ir.FieldMeta{Owner: name, Name: e.Field, Value: ir.Unknown}
}

func (d *Decorator) tableField(owner, target, declared, value string, interned bool, acc ir.FieldAccessor) *ir.FieldMeta {
	t := ir.ParseType(value)
	if target == "" {
		target = acc.With
	}
	if declared == "" {
		declared = d.typeTarget(t)
	}
	return &ir.FieldMeta{
		Owner:    owner,
		Name:     target,
		Accessor: acc,
		Declared: declared,
		Value:    t,
		Interned: interned,
	}
}

func (d *Decorator) path(e *ast.PathExpr) ir.Expr {
	m := d.meta(e, ir.Unknown)
	key := e.String()
	if v, ok := d.tables.Value(key); ok {
		if key == "None" {
			m.Type = ir.OptionOf(ir.Unknown)
		}
		m.Path = []string{v}
		return &ir.PathExpr{Segments: e.Segments, Meta: m}
	}
	if en, v := d.enumVariant(e.Segments); en != nil {
		m.Type = ir.Named(en.Name)
		m.Target = d.typeTarget(m.Type)
		m.Path = []string{en.Name, v.Name}
		m.Qualified = d.tagged
		return &ir.PathExpr{Segments: e.Segments, Meta: m}
	}
	m.Path = append([]string(nil), e.Segments...)
	m.Qualified = d.tagged
	return &ir.PathExpr{Segments: e.Segments, Meta: m}
}

// enumVariant resolves `Enum::Variant` or an unambiguous bare variant.
func (d *Decorator) enumVariant(segs []string) (*ir.Enum, *ir.Variant) {
	var en *ir.Enum
	var name string
	switch len(segs) {
	case 1:
		en, name = d.variantOf[segs[0]], segs[0]
	case 2:
		en, name = d.enums[segs[0]], segs[1]
	}
	if en == nil {
		return nil, nil
	}
	for _, v := range en.Variants {
		if v.Name == name {
			return en, v
		}
	}
	return nil, nil
}

func (d *Decorator) call(e *ast.CallExpr) ir.Expr {
	switch c := e.Callee.(type) {
	case *ast.Ident:
		if d.env.Resolve(c.Name) == nil {
			return d.namedCall(e, c)
		}
	case *ast.MemberExpr:
		return d.methodCall(e, c)
	case *ast.PathExpr:
		return d.pathCall(e, c)
	}
	return &ir.CallExpr{
		Callee: d.expr(e.Callee, slotPlain),
		Args:   d.args(e.Args, nil),
		Meta:   d.meta(e, ir.Unknown),
	}
}

func (d *Decorator) namedCall(e *ast.CallExpr, c *ast.Ident) ir.Expr {
	cm := d.meta(c, ir.Unknown)
	cm.Name = c.Name
	out := &ir.CallExpr{Callee: &ir.Ident{Name: c.Name, Meta: cm}}

	if d.plugin != nil {
		if sig, ok := d.plugin.funcs[c.Name]; ok {
			m := d.meta(e, sig.Return)
			if sig.HasSelf {
				m.SelfCall = true
				if d.tagged {
					cm.Name = "self." + c.Name
				}
			} else if d.tagged {
				cm.Name = "Self::" + c.Name
			}
			out.Args, out.Meta = d.args(e.Args, sig.Params), m
			return out
		}
	}
	if sig, ok := d.funcs[c.Name]; ok {
		out.Args, out.Meta = d.args(e.Args, sig.Params), d.meta(e, sig.Return)
		return out
	}
	if call, ok := d.tables.Call(c.Name, d.whenEnv(false, "")); ok {
		out.Args = d.args(e.Args, nil)
		t := returns(call.Returns, ir.Unknown)
		if c.Name == "Some" && len(out.Args) == 1 {
			t = ir.OptionOf(out.Args[0].Metadata().Type)
		}
		m := d.meta(e, t)
		m.Macro, m.Inline = call.Macro, call.Inline
		if call.Target != "" {
			cm.Name = call.Target
		}
		d.useHelper(call.Helper)
		out.Meta = m
		return out
	}
	if c.Name == "Some" && len(e.Args) == 1 {
		arg := d.expr(e.Args[0], slotValue)
		out.Args = []ir.Expr{arg}
		out.Meta = d.meta(e, ir.OptionOf(arg.Metadata().Type))
		return out
	}
	out.Args, out.Meta = d.args(e.Args, nil), d.meta(e, ir.Unknown)
	return out
}

func (d *Decorator) methodCall(e *ast.CallExpr, c *ast.MemberExpr) ir.Expr {
	recv := d.expr(c.Object, slotPlain)
	rt := recv.Metadata().Type
	cm := d.meta(c, ir.Unknown)
	cm.Name = c.Field
	callee := &ir.MemberExpr{
		Object: recv,
		Field:  c.Field,
		Meta:   cm,
		FMeta:  &ir.FieldMeta{Owner: rt.Name, Name: c.Field, Value: ir.Unknown},
	}
	out := &ir.CallExpr{Callee: callee}
	m := d.meta(e, ir.Unknown)

	var sig *signature
	if rt.Name == "Self" && d.plugin != nil {
		sig = d.plugin.funcs[c.Field]
	} else {
		sig = d.impls[rt.Name][c.Field]
	}
	switch {
	case sig != nil:
		m.SelfCall = rt.Name == "Self"
		m.Type = sig.Return
		out.Args = d.args(e.Args, sig.Params)
	default:
		if call, ok := d.tables.Method(c.Field, d.whenEnv(false, "")); ok {
			if call.Target != "" {
				cm.Name = call.Target
			}
			m.Property, m.Inline, m.Macro = call.Property, call.Inline, call.Macro
			m.Type = returns(call.Returns, rt)
			d.useHelper(call.Helper)
		}
		out.Args = d.args(e.Args, nil)
	}
	m.Target = d.typeTarget(m.Type)
	cm.Type, cm.Target = m.Type, m.Target
	callee.FMeta.Name = cm.Name
	callee.FMeta.Value = m.Type
	out.Meta = m
	return out
}

func (d *Decorator) pathCall(e *ast.CallExpr, c *ast.PathExpr) ir.Expr {
	callee := d.path(c).(*ir.PathExpr)
	out := &ir.CallExpr{Callee: callee}
	if en, _ := d.enumVariant(c.Segments); en != nil {
		for _, a := range e.Args {
			out.Args = append(out.Args, d.expr(a, slotValue))
		}
		out.Meta = d.meta(e, ir.Named(en.Name))
		return out
	}
	if len(c.Segments) == 2 {
		if sig := d.impls[c.Segments[0]][c.Segments[1]]; sig != nil {
			out.Args, out.Meta = d.args(e.Args, sig.Params), d.meta(e, sig.Return)
			return out
		}
	}
	out.Args, out.Meta = d.args(e.Args, nil), d.meta(e, ir.Unknown)
	return out
}

// args decorates call arguments. Arguments bound to by-reference
// parameters are borrowed.
func (d *Decorator) args(in []ast.Expression, params []*ir.Param) []ir.Expr {
	var out []ir.Expr
	for i, a := range in {
		s := slotPlain
		if i < len(params) && strings.HasPrefix(params[i].Target, "&") {
			s = slotArg
		}
		out = append(out, d.expr(a, s))
	}
	return out
}

// returns reads the declared result of a builtin. $self is the receiver
// type and $elem its element type.
func returns(decl string, recv *ir.Type) *ir.Type {
	switch decl {
	case "":
		return ir.Unknown
	case "()":
		return ir.Unit
	case "$self":
		return recv
	case "$elem":
		return recv.Elem()
	}
	return ir.ParseType(decl)
}

func (d *Decorator) propRead(e *ast.PropAccessExpr) ir.Expr {
	node := d.propNode(e.Node)
	nt := node.Metadata().Type
	m := &ir.ExprMeta{Type: ir.OptionOf(ir.Unknown), Span: span(e)}
	if d.plugin != nil {
		d.plugin.usesProps = true
	}
	ref := d.props.Read(e.Property, nt, d.tables.IsNode(nt.Name), m, span(e))
	return &ir.PropGetExpr{Node: node, Prop: ref, Meta: m}
}

// propNode decorates the node a custom property hangs off. Side-table
// keys are node addresses, so on the tagged backend the node is borrowed
// directly and a borrowed binding is reborrowed through.
func (d *Decorator) propNode(e ast.Expression) ir.Expr {
	node := d.expr(e, slotPlain)
	m := node.Metadata()
	if !d.tagged || m.Unwrap != ir.UnwrapNone {
		return node
	}
	m.Unwrap = ir.UnwrapRef
	if id, ok := e.(*ast.Ident); ok {
		if b := d.env.Resolve(id.Name); b != nil && (b.Ref || strings.HasPrefix(b.Target, "&")) {
			m.Unwrap = ir.UnwrapDeref
		}
	}
	return node
}
