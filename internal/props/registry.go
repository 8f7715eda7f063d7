// Package props tracks the custom node properties a program attaches
// (`node.__name = value`) and fixes one payload type per property name.
// For backends without extensible nodes it also lays out the tagged
// payload variants of the per-plugin side table.
package props

import (
	"fmt"
	"sort"

	"github.com/lhaig/relux/internal/diagnostic"
	"github.com/lhaig/relux/internal/ir"
)

// Prefix marks a custom property name.
const Prefix = "__"

// IsProperty reports whether a member name denotes a custom property.
func IsProperty(name string) bool {
	return len(name) > len(Prefix) && name[:len(Prefix)] == Prefix
}

// Entry is the registry record of one property name.
type Entry struct {
	Name    string
	Type    *ir.Type // fixed by the first assignment
	Variant string // empty when the payload type cannot be stored
	First   ir.Span
	Kinds   []string // node kinds the property was attached to, in first-use order

	conflicted bool
}

type pendingRead struct {
	ref  *ir.PropRef
	meta *ir.ExprMeta
	at   ir.Span
}

// Registry is the CustomPropertyRegistry of one compilation.
type Registry struct {
	diags      *diagnostic.Diagnostics
	targetType func(*ir.Type) string
	userTypes  map[string]bool

	entries  map[string]*Entry
	variants []ir.PropVariant
	pending  []pendingRead
	deletes  []pendingRead
}

// NewRegistry returns an empty registry reporting into diags. targetType
// spells payload types on the target side.
func NewRegistry(diags *diagnostic.Diagnostics, targetType func(*ir.Type) string) *Registry {
	return &Registry{
		diags:      diags,
		targetType: targetType,
		userTypes:  make(map[string]bool),
		entries:    make(map[string]*Entry),
	}
}

// DeclareType registers a user struct or enum as a storable payload.
func (r *Registry) DeclareType(name string) {
	r.userTypes[name] = true
}

// Assign records `node.name = value`. node is the type of the receiver and
// isNode whether that type is node-shaped. The returned reference is typed
// with the property's fixed payload type.
func (r *Registry) Assign(name string, node *ir.Type, isNode bool, value *ir.Type, at ir.Span) *ir.PropRef {
	if !r.checkTarget(name, node, isNode, at) {
		return &ir.PropRef{Name: name, Type: value}
	}
	e, ok := r.entries[name]
	if !ok {
		// The first assignment fixes the type, storable or not.
		e = &Entry{Name: name, Type: value, First: at}
		r.entries[name] = e
		if variant, target, supported := r.variantFor(value); supported {
			e.Variant = variant
			r.addVariant(ir.PropVariant{Name: variant, Type: value, Target: target})
		} else {
			r.diags.Reportf(diagnostic.UnsupportedPayload, at.Line, at.Column,
				"custom property %s: payload type %s cannot be stored", name, value)
		}
	} else if !e.Type.Equal(value) {
		if !e.conflicted {
			e.conflicted = true
			d := r.diags.Reportf(diagnostic.TypeMismatch, at.Line, at.Column,
				"custom property %s assigned %s, but it holds %s", name, value, e.Type)
			d.Related = append(d.Related, diagnostic.Location{
				Line: e.First.Line, Column: e.First.Column,
				Message: fmt.Sprintf("%s first assigned %s here", name, e.Type),
			})
		}
	}
	e.addKind(node)
	return &ir.PropRef{Name: name, Type: e.Type, Variant: e.Variant}
}

// Delete records `node.name = None`. The reference is typed by Finish.
func (r *Registry) Delete(name string, node *ir.Type, isNode bool, at ir.Span) *ir.PropRef {
	ref := &ir.PropRef{Name: name}
	if r.checkTarget(name, node, isNode, at) {
		r.deletes = append(r.deletes, pendingRead{ref: ref, at: at})
	} else {
		ref.Type = ir.Unknown
	}
	return ref
}

// Read records a read of node.name. The reference and meta are typed by
// Finish, once every assignment in the program has been seen.
func (r *Registry) Read(name string, node *ir.Type, isNode bool, meta *ir.ExprMeta, at ir.Span) *ir.PropRef {
	ref := &ir.PropRef{Name: name}
	if !r.checkTarget(name, node, isNode, at) {
		ref.Type = ir.Unknown
		meta.Type = ir.OptionOf(ir.Unknown)
		return ref
	}
	r.pending = append(r.pending, pendingRead{ref: ref, meta: meta, at: at})
	return ref
}

// Finish types the pending reads and deletions. A property read but never
// assigned is reported as a mapping gap.
func (r *Registry) Finish() {
	for _, p := range r.pending {
		e, ok := r.entries[p.ref.Name]
		if !ok {
			r.diags.Reportf(diagnostic.MappingGap, p.at.Line, p.at.Column,
				"custom property %s is read but never assigned", p.ref.Name)
			p.ref.Type = ir.Unknown
			p.meta.Type = ir.OptionOf(ir.Unknown)
			continue
		}
		p.ref.Type, p.ref.Variant = e.Type, e.Variant
		p.meta.Type = ir.OptionOf(e.Type)
		p.meta.Target = "Option<" + r.targetType(e.Type) + ">"
	}
	for _, d := range r.deletes {
		if e, ok := r.entries[d.ref.Name]; ok {
			d.ref.Type, d.ref.Variant = e.Type, e.Variant
		} else {
			d.ref.Type = ir.Unknown
		}
	}
	r.pending, r.deletes = nil, nil
}

// Entries returns all entries sorted by name.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Variants returns the side-table payload variants in first-use order.
func (r *Registry) Variants() []ir.PropVariant {
	return append([]ir.PropVariant(nil), r.variants...)
}

func (r *Registry) checkTarget(name string, node *ir.Type, isNode bool, at ir.Span) bool {
	if isNode {
		return true
	}
	r.diags.Reportf(diagnostic.InvalidTarget, at.Line, at.Column,
		"custom property %s attached to %s, which is not a node", name, node)
	return false
}

func (r *Registry) addVariant(v ir.PropVariant) {
	for _, have := range r.variants {
		if have.Name == v.Name {
			return
		}
	}
	r.variants = append(r.variants, v)
}

func (e *Entry) addKind(node *ir.Type) {
	for _, k := range e.Kinds {
		if k == node.Name {
			return
		}
	}
	e.Kinds = append(e.Kinds, node.Name)
}

var primitiveVariants = map[string]string{
	"bool":  "Bool",
	"Str":   "Str",
	"i32":   "I32",
	"i64":   "I64",
	"u32":   "U32",
	"u64":   "U64",
	"usize": "Usize",
	"f64":   "F64",
}

// variantFor picks the payload variant storing values of type t: one per
// primitive and one per declared struct or enum.
func (r *Registry) variantFor(t *ir.Type) (name, target string, ok bool) {
	if t.IsUnknown() || len(t.Args) > 0 {
		return "", "", false
	}
	if v, ok := primitiveVariants[t.Name]; ok {
		return v, r.targetType(t), true
	}
	if r.userTypes[t.Name] {
		return t.Name, r.targetType(t), true
	}
	return "", "", false
}
