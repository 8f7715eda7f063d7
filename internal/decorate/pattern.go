package decorate

import (
	"fmt"
	"strings"

	"github.com/lhaig/relux/internal/ast"
	"github.com/lhaig/relux/internal/diagnostic"
	"github.com/lhaig/relux/internal/ir"
	"github.com/lhaig/relux/internal/mapping"
)

// pattern decorates a pattern matched against scrut and defines its
// bindings in the current scope.
func (d *Decorator) pattern(p ast.Pattern, scrut ir.Expr) ir.Pattern {
	var outer *ir.FieldMeta
	if m, ok := scrut.(*ir.MemberExpr); ok {
		outer = m.FMeta
	}
	return d.patternOf(p, scrut.Metadata().Type, outer, false)
}

// patternOf decorates p against a value of type t. outer is the field the
// value was read from, when the scrutinee is a member access; nested is
// set for payload patterns.
func (d *Decorator) patternOf(p ast.Pattern, t *ir.Type, outer *ir.FieldMeta, nested bool) ir.Pattern {
	meta := &ir.PatternMeta{Type: t, Span: span(p)}
	switch p := p.(type) {
	case *ast.WildcardPattern:
		return &ir.WildcardPattern{Meta: meta}
	case *ast.BindingPattern:
		if d.isUnitVariant(p.Name, t) {
			return d.variantPattern(&ast.VariantPattern{Path: []string{p.Name}, Line: p.Line, Column: p.Column}, t, outer, nested)
		}
		d.define(&Binding{
			Name:   p.Name,
			Type:   t,
			Target: d.typeTarget(t),
			Ref:    d.tagged && !t.IsPrimitive(),
			Kind:   BindPattern,
		}, meta.Span)
		return &ir.BindingPattern{Name: p.Name, Meta: meta}
	case *ast.LiteralPattern:
		lit, ok := d.expr(p.Value, slotPlain).(*ir.Lit)
		if !ok {
			ir.Failf("decorate", "literal pattern at %d:%d holds %T", p.Line, p.Column, p.Value)
		}
		meta.Test = ir.TestLiteral
		return &ir.LitPattern{Value: lit, Meta: meta}
	case *ast.VariantPattern:
		return d.variantPattern(p, t, outer, nested)
	}
	ir.Failf("decorate", "unexpected pattern %T", p)
	return nil
}

// isUnitVariant reports whether a bare name in pattern position names a
// payload-less variant rather than introducing a binding.
func (d *Decorator) isUnitVariant(name string, t *ir.Type) bool {
	if en, v := d.userVariant([]string{name}, t); en != nil {
		return len(v.Fields) == 0
	}
	if e, ok := d.tables.Pattern(name, d.whenEnv(true, "")); ok {
		return e.TestKind() == ir.TestAbsent || name == "None"
	}
	return false
}

func (d *Decorator) variantPattern(p *ast.VariantPattern, t *ir.Type, outer *ir.FieldMeta, nested bool) ir.Pattern {
	meta := &ir.PatternMeta{Type: t, Span: span(p)}
	out := &ir.VariantPattern{Path: append([]string(nil), p.Path...), Meta: meta}

	if en, v := d.userVariant(p.Path, t); en != nil {
		if want := d.enumOf(t); want != nil && want != en {
			diag := d.diags.Reportf(diagnostic.TypeMismatch, p.Line, p.Column,
				"pattern %s matches %s, but the value is %s", p.Name(), en.Name, want.Name)
			diag.Related = append(diag.Related, diagnostic.Location{
				Line: want.Span.Line, Column: want.Span.Column,
				Message: fmt.Sprintf("%s declared here", want.Name),
			})
		}
		if d.tagged {
			meta.Path = en.Name + "::" + v.Name
			meta.Test = ir.TestVariant
		} else {
			meta.Path = v.Name
			meta.Test = ir.TestTag
		}
		for i, a := range p.Args {
			ft := ir.Unknown
			field := fmt.Sprintf("_%d", i)
			if i < len(v.Fields) {
				ft = v.Fields[i].Type
				if v.Fields[i].Name != "" {
					field = v.Fields[i].Name
				}
			}
			if !d.tagged {
				meta.Fields = append(meta.Fields, field)
			}
			out.Args = append(out.Args, d.patternOf(a, ft, nil, true))
		}
		return out
	}

	name, entry := d.lookupPattern(p.Path)
	if entry == nil {
		d.diags.Reportf(diagnostic.MappingGap, p.Line, p.Column,
			"no pattern mapping for %s on backend %s", p.Name(), d.tables.Backend)
		if d.tagged {
			meta.Path, meta.Test = p.Name(), ir.TestVariant
		} else {
			meta.Path, meta.Test = p.Path[len(p.Path)-1], ir.TestTag
		}
		for i, a := range p.Args {
			if !d.tagged {
				meta.Fields = append(meta.Fields, fmt.Sprintf("_%d", i))
			}
			out.Args = append(out.Args, d.patternOf(a, ir.Unknown, nil, true))
		}
		return out
	}

	argType := ir.Named(name)
	if !d.tables.IsNode(name) {
		argType = t.Elem()
	}
	meta.Test = entry.TestKind()
	meta.Path = entry.Path
	switch {
	case d.tagged && nested && entry.Inner != "":
		d.diags.Reportf(diagnostic.MappingGap, p.Line, p.Column,
			"%s spans two levels on backend %s; as a payload pattern only %s is matched",
			p.Name(), d.tables.Backend, entry.Path)
	case d.tagged:
		meta.Desugar = desugarLevels(entry, outer, t)
		if entry.Inner != "" {
			meta.Path = entry.Inner
		}
	}
	for _, a := range p.Args {
		if !d.tagged {
			meta.Fields = append(meta.Fields, "")
		}
		out.Args = append(out.Args, d.patternOf(a, argType, nil, true))
	}
	return out
}

// userVariant resolves a pattern path to a user enum variant. A bare name
// resolves against the enum of the matched value first; on a value of a
// known type that is not a user enum it does not resolve at all.
func (d *Decorator) userVariant(path []string, t *ir.Type) (*ir.Enum, *ir.Variant) {
	if len(path) != 1 || t.IsUnknown() {
		return d.enumVariant(path)
	}
	te := d.enumOf(t)
	if te == nil {
		return nil, nil
	}
	for _, v := range te.Variants {
		if v.Name == path[0] {
			return te, v
		}
	}
	return d.enumVariant(path)
}

// enumOf returns the user enum t names, or nil.
func (d *Decorator) enumOf(t *ir.Type) *ir.Enum {
	if t.IsUnknown() {
		return nil
	}
	return d.enums[t.Name]
}

// lookupPattern finds the table entry for a pattern path, trying the
// full spelling before its last segment.
func (d *Decorator) lookupPattern(path []string) (string, *mapping.Pattern) {
	env := d.whenEnv(true, "")
	if e, ok := d.tables.Pattern(strings.Join(path, "::"), env); ok {
		return path[len(path)-1], e
	}
	last := path[len(path)-1]
	if e, ok := d.tables.Pattern(last, env); ok {
		return last, e
	}
	return last, nil
}

// desugarLevels describes the target levels a tagged pattern spans: an
// enum-valued field adds an outer level, and a table entry with an inner
// path adds another. t is the type of the matched value.
func desugarLevels(entry *mapping.Pattern, outer *ir.FieldMeta, t *ir.Type) *ir.DesugarStrategy {
	var inner *ir.DesugarStrategy
	if entry.Inner != "" {
		inner = &ir.DesugarStrategy{
			OuterPath:    entry.Path,
			OuterBinding: entry.Binding,
			Unwrap:       entry.UnwrapStep(),
			InnerPath:    entry.Inner,
			Type:         t,
		}
	}
	if outer == nil || outer.Accessor.Kind != ir.EnumField {
		return inner
	}
	acc := outer.Accessor
	top := &ir.DesugarStrategy{
		OuterPath:    acc.Enum + "::" + acc.Variant,
		OuterBinding: outer.Name,
		InnerPath:    entry.Path,
		Type:         t,
		Then:         inner,
	}
	if outer.Value != nil && !outer.Value.IsUnknown() {
		top.Type = outer.Value
	}
	if acc.Boxed {
		top.Unwrap = ir.UnwrapBox
	}
	return top
}
