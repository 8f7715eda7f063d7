// Package mapping holds the static translation tables: for one backend,
// how each node kind, field, pattern and builtin call of the source model
// is spelled on the target side.
package mapping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/expr-lang/expr/vm"

	"github.com/lhaig/relux/internal/ir"
)

// Tables is the mapping data for one backend. It is read-only once loaded
// and may be shared by concurrent compilations.
type Tables struct {
	Backend  string              `yaml:"backend" json:"backend"`
	Model    string              `yaml:"model" json:"model"`
	Nodes    map[string]*Node    `yaml:"nodes,omitempty" json:"nodes,omitempty"`
	Fields   map[string]*Field   `yaml:"fields,omitempty" json:"fields,omitempty"`
	Patterns map[string]*Pattern `yaml:"patterns,omitempty" json:"patterns,omitempty"`
	Calls    map[string]*Call    `yaml:"calls,omitempty" json:"calls,omitempty"`
	Methods  map[string]*Call    `yaml:"methods,omitempty" json:"methods,omitempty"`
	Values   map[string]string   `yaml:"values,omitempty" json:"values,omitempty"`
	Types    map[string]string   `yaml:"types,omitempty" json:"types,omitempty"`
	Helpers  map[string]string   `yaml:"helpers,omitempty" json:"helpers,omitempty"`

	raw   []byte                 // JSON form, the base for overlays
	conds map[string]*vm.Program // compiled `when` conditions
}

// Tagged reports whether the target is the closed tagged-union model
// rather than the dynamic object model.
func (t *Tables) Tagged() bool { return t.Model == ModelTagged }

// Target node models.
const (
	ModelTagged  = "tagged"
	ModelDynamic = "dynamic"
)

// Node maps a source node kind.
type Node struct {
	Target  string `yaml:"target" json:"target"`
	Visitor string `yaml:"visitor,omitempty" json:"visitor,omitempty"`
}

// Field maps one (node kind, field) pair.
type Field struct {
	Target   string `yaml:"target,omitempty" json:"target,omitempty"`
	Type     string `yaml:"type,omitempty" json:"type,omitempty"`
	Value    string `yaml:"value,omitempty" json:"value,omitempty"`
	Accessor string `yaml:"accessor,omitempty" json:"accessor,omitempty"`
	Inner    string `yaml:"inner,omitempty" json:"inner,omitempty"`
	Enum     string `yaml:"enum,omitempty" json:"enum,omitempty"`
	Variant  string `yaml:"variant,omitempty" json:"variant,omitempty"`
	Boxed    bool   `yaml:"boxed,omitempty" json:"boxed,omitempty"`
	With     string `yaml:"with,omitempty" json:"with,omitempty"`
	Interned bool   `yaml:"interned,omitempty" json:"interned,omitempty"`
	When     string `yaml:"when,omitempty" json:"when,omitempty"`

	accessor ir.FieldAccessor
}

// Pattern maps a simplified pattern name to its target form. Inner, when
// set, is a second target level below Path.
type Pattern struct {
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
	Test    string `yaml:"test,omitempty" json:"test,omitempty"`
	Binding string `yaml:"binding,omitempty" json:"binding,omitempty"`
	Inner   string `yaml:"inner,omitempty" json:"inner,omitempty"`
	Unwrap  string `yaml:"unwrap,omitempty" json:"unwrap,omitempty"`
	When    string `yaml:"when,omitempty" json:"when,omitempty"`

	test   ir.TestKind
	unwrap ir.Unwrap
}

// Call maps a builtin function or method.
type Call struct {
	Target   string `yaml:"target,omitempty" json:"target,omitempty"`
	Macro    bool   `yaml:"macro,omitempty" json:"macro,omitempty"`
	Property bool   `yaml:"property,omitempty" json:"property,omitempty"`
	Inline   bool   `yaml:"inline,omitempty" json:"inline,omitempty"`
	Returns  string `yaml:"returns,omitempty" json:"returns,omitempty"`
	Helper   string `yaml:"helper,omitempty" json:"helper,omitempty"`
	When     string `yaml:"when,omitempty" json:"when,omitempty"`
}

// AccessorStrategy returns the parsed accessor strategy.
func (f *Field) AccessorStrategy() ir.FieldAccessor { return f.accessor }

// TestKind returns the parsed test kind.
func (p *Pattern) TestKind() ir.TestKind { return p.test }

// UnwrapStep returns the parsed unwrap between Path and Inner.
func (p *Pattern) UnwrapStep() ir.Unwrap { return p.unwrap }

// Node looks up a node kind.
func (t *Tables) Node(kind string) (*Node, bool) {
	n, ok := t.Nodes[kind]
	return n, ok
}

// IsNode reports whether values of type name are node-shaped.
func (t *Tables) IsNode(name string) bool {
	_, ok := t.Nodes[name]
	return ok
}

// Field looks up owner.field. An entry whose condition is false under env
// counts as absent.
func (t *Tables) Field(owner, field string, env Env) (*Field, bool) {
	f, ok := t.Fields[owner+"."+field]
	if !ok || !t.holds(f.When, env) {
		return nil, false
	}
	return f, true
}

// Pattern looks up a simplified pattern name.
func (t *Tables) Pattern(name string, env Env) (*Pattern, bool) {
	p, ok := t.Patterns[name]
	if !ok || !t.holds(p.When, env) {
		return nil, false
	}
	return p, true
}

// Call looks up a builtin function.
func (t *Tables) Call(name string, env Env) (*Call, bool) {
	c, ok := t.Calls[name]
	if !ok || !t.holds(c.When, env) {
		return nil, false
	}
	return c, true
}

// Method looks up a builtin method.
func (t *Tables) Method(name string, env Env) (*Call, bool) {
	c, ok := t.Methods[name]
	if !ok || !t.holds(c.When, env) {
		return nil, false
	}
	return c, true
}

// Value looks up the target spelling of a builtin value path such as None.
func (t *Tables) Value(path string) (string, bool) {
	v, ok := t.Values[path]
	return v, ok
}

// Helper returns the source text of a runtime helper.
func (t *Tables) Helper(name string) (string, bool) {
	h, ok := t.Helpers[name]
	return h, ok
}

// TargetType spells a semantic type on the target side. Node kinds use
// their mapped target name; other names go through the types section and
// fall back to themselves.
func (t *Tables) TargetType(ty *ir.Type) string {
	if ty == nil || ty.IsUnknown() {
		return ""
	}
	name := ty.Name
	if n, ok := t.Nodes[name]; ok {
		name = n.Target
	} else if mapped, ok := t.Types[name]; ok {
		name = mapped
	}
	if len(ty.Args) == 0 {
		return name
	}
	args := make([]string, len(ty.Args))
	for i, a := range ty.Args {
		args[i] = t.TargetType(a)
	}
	return name + "<" + strings.Join(args, ", ") + ">"
}

// FieldKeys returns the field keys in sorted order.
func (t *Tables) FieldKeys() []string {
	keys := make([]string, 0, len(t.Fields))
	for k := range t.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// prepare parses accessor and test spellings and compiles conditions.
func (t *Tables) prepare() error {
	if t.Backend == "" {
		return fmt.Errorf("mapping: tables declare no backend")
	}
	if t.Model != ModelTagged && t.Model != ModelDynamic {
		return fmt.Errorf("mapping: %s: unknown model %q", t.Backend, t.Model)
	}
	t.conds = make(map[string]*vm.Program)
	for _, key := range t.FieldKeys() {
		f := t.Fields[key]
		if f == nil {
			delete(t.Fields, key)
			continue
		}
		if !strings.Contains(key, ".") {
			return fmt.Errorf("mapping: field key %q is not Owner.field", key)
		}
		acc, err := buildAccessor(f)
		if err != nil {
			return fmt.Errorf("mapping: field %s: %w", key, err)
		}
		f.accessor = acc
		if err := t.compile(f.When); err != nil {
			return fmt.Errorf("mapping: field %s: %w", key, err)
		}
	}
	for name, p := range t.Patterns {
		if p == nil {
			delete(t.Patterns, name)
			continue
		}
		p.test = ir.TestVariant
		if p.Test != "" {
			k, ok := ir.ParseTestKind(p.Test)
			if !ok {
				return fmt.Errorf("mapping: pattern %s: unknown test %q", name, p.Test)
			}
			p.test = k
		}
		u, ok := parseUnwrap(p.Unwrap)
		if !ok {
			return fmt.Errorf("mapping: pattern %s: unknown unwrap %q", name, p.Unwrap)
		}
		p.unwrap = u
		if err := t.compile(p.When); err != nil {
			return fmt.Errorf("mapping: pattern %s: %w", name, err)
		}
	}
	for _, section := range []map[string]*Call{t.Calls, t.Methods} {
		for name, c := range section {
			if c == nil {
				delete(section, name)
				continue
			}
			if err := t.compile(c.When); err != nil {
				return fmt.Errorf("mapping: call %s: %w", name, err)
			}
		}
	}
	for name, n := range t.Nodes {
		if n == nil {
			delete(t.Nodes, name)
		}
	}
	return nil
}

func buildAccessor(f *Field) (ir.FieldAccessor, error) {
	kind, ok := ir.ParseAccessorKind(f.Accessor)
	if !ok {
		return ir.FieldAccessor{}, fmt.Errorf("unknown accessor %q", f.Accessor)
	}
	acc := ir.FieldAccessor{Kind: kind}
	switch kind {
	case ir.EnumField:
		if f.Enum == "" || f.Variant == "" {
			return acc, fmt.Errorf("enum accessor needs enum and variant")
		}
		acc.Enum, acc.Variant, acc.Boxed = f.Enum, f.Variant, f.Boxed
	case ir.Optional:
		innerKind, ok := ir.ParseAccessorKind(f.Inner)
		if !ok || innerKind == ir.Optional || innerKind == ir.Replace || innerKind == ir.EnumField {
			return acc, fmt.Errorf("unsupported optional inner accessor %q", f.Inner)
		}
		acc.Inner = &ir.FieldAccessor{Kind: innerKind}
	case ir.Replace:
		if f.With == "" {
			return acc, fmt.Errorf("replace accessor needs with")
		}
		acc.With = f.With
	}
	return acc, nil
}

var unwrapSpellings = map[string]ir.Unwrap{
	"":         ir.UnwrapNone,
	"none":     ir.UnwrapNone,
	"ref":      ir.UnwrapRef,
	"as_ref":   ir.UnwrapAsRef,
	"deref":    ir.UnwrapDeref,
	"box":      ir.UnwrapBox,
	"as_deref": ir.UnwrapAsDeref,
}

func parseUnwrap(s string) (ir.Unwrap, bool) {
	u, ok := unwrapSpellings[s]
	return u, ok
}
