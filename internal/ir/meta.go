package ir

import "fmt"

// Span is a source position.
type Span struct {
	Line   int
	Column int
}

func (s Span) String() string { return fmt.Sprintf("%d:%d", s.Line, s.Column) }

// Unwrap is the indirection step applied to an expression before it is
// used. The tagged-union backend renders each one as a fixed prefix or
// suffix; the dynamic backend ignores them.
type Unwrap int

const (
	UnwrapNone       Unwrap = iota
	UnwrapRef               // &x
	UnwrapRefMut            // &mut x
	UnwrapAsRef             // x.as_ref()
	UnwrapDeref             // &*x
	UnwrapBox               // &**x
	UnwrapAsDeref           // x.as_deref()
	UnwrapForce             // x.as_ref().unwrap()
	UnwrapForceDeref        // x.as_deref().unwrap()
)

var unwrapNames = [...]string{"none", "ref", "ref_mut", "as_ref", "deref", "box", "as_deref", "force", "force_deref"}

func (u Unwrap) String() string {
	if int(u) < len(unwrapNames) {
		return unwrapNames[u]
	}
	return "unwrap(?)"
}

// ExprMeta is attached to every expression.
type ExprMeta struct {
	Type   *Type  // semantic type
	Target string // target-side type tag
	Span   Span

	// Name is the target spelling of an identifier.
	Name string
	// Path is the target spelling of a qualified path; Qualified selects
	// `::` over `.` as the separator.
	Path      []string
	Qualified bool

	Unwrap  Unwrap
	Into    bool // value converted into an interned field: .into()
	ToOwned bool // borrowed text read as an owned string: .to_string()
	BoxNew  bool // value stored into an owned-indirection field: Box::new(x)

	// Call styles.
	Macro    bool // name!(args)
	Property bool // recv.name, no argument list
	Inline   bool // the call is its single argument or receiver
	SelfCall bool // method on the plugin itself
}

// Copy returns a shallow copy of m with its slices duplicated.
func (m *ExprMeta) Copy() *ExprMeta {
	if m == nil {
		return nil
	}
	c := *m
	if m.Path != nil {
		c.Path = append([]string(nil), m.Path...)
	}
	return &c
}

// AccessorKind enumerates the FieldAccessor strategies.
type AccessorKind int

const (
	Direct AccessorKind = iota
	BoxedAsRef
	BoxedRefDeref
	EnumField
	Optional
	Replace
)

var accessorNames = [...]string{"direct", "boxed_as_ref", "boxed_ref_deref", "enum", "optional", "replace"}

func (k AccessorKind) String() string {
	if int(k) < len(accessorNames) {
		return accessorNames[k]
	}
	return "accessor(?)"
}

// ParseAccessorKind maps a table spelling to its kind.
func ParseAccessorKind(s string) (AccessorKind, bool) {
	if s == "" {
		return Direct, true
	}
	for i, n := range accessorNames {
		if n == s {
			return AccessorKind(i), true
		}
	}
	return Direct, false
}

// FieldAccessor describes how one field access is translated.
type FieldAccessor struct {
	Kind AccessorKind

	// EnumField: the field holds Enum::Variant(payload).
	Enum    string
	Variant string
	Boxed   bool // payload is owned indirection

	Inner *FieldAccessor // Optional
	With  string         // Replace
}

func (a FieldAccessor) String() string {
	switch a.Kind {
	case EnumField:
		s := fmt.Sprintf("enum(%s::%s", a.Enum, a.Variant)
		if a.Boxed {
			s += ", boxed"
		}
		return s + ")"
	case Optional:
		inner := "direct"
		if a.Inner != nil {
			inner = a.Inner.String()
		}
		return "optional(" + inner + ")"
	case Replace:
		return "replace(" + a.With + ")"
	}
	return a.Kind.String()
}

// IsBoxed reports whether the field (or its optional payload) is owned
// indirection.
func (a FieldAccessor) IsBoxed() bool {
	switch a.Kind {
	case BoxedAsRef, BoxedRefDeref:
		return true
	case Optional:
		return a.Inner != nil && a.Inner.IsBoxed()
	}
	return false
}

// FieldMeta is attached to every member access.
type FieldMeta struct {
	Owner    string // source node kind or struct owning the field
	Name     string // target field name
	Accessor FieldAccessor
	Declared string // declared target-side type
	Value    *Type  // semantic type of the field
	Interned bool
}

// Copy returns a copy of m.
func (m *FieldMeta) Copy() *FieldMeta {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

// TestKind selects how the dynamic backend tests a pattern.
type TestKind int

const (
	TestAlways    TestKind = iota // wildcard or binding
	TestVariant                   // structural match (tagged backend)
	TestPredicate                 // Path(value)
	TestTag                       // value._tag === Path
	TestPresent                   // value != null
	TestAbsent                    // value == null
	TestLiteral                   // value === literal
)

var testNames = [...]string{"always", "variant", "predicate", "tag", "present", "absent", "literal"}

func (k TestKind) String() string {
	if int(k) < len(testNames) {
		return testNames[k]
	}
	return "test(?)"
}

// ParseTestKind maps a table spelling to its kind.
func ParseTestKind(s string) (TestKind, bool) {
	for i, n := range testNames {
		if n == s {
			return TestKind(i), true
		}
	}
	return TestAlways, false
}

// DesugarStrategy describes a pattern that spans more than one target
// level: the outer level binds a temporary, Unwrap is applied to it, and
// the inner level re-matches. Then continues the chain when the inner
// level itself spans more than one level.
type DesugarStrategy struct {
	OuterPath    string
	OuterBinding string // name hint for the temporary
	Unwrap       Unwrap
	InnerPath    string
	Type         *Type // semantic type of the temporary
	Then         *DesugarStrategy
}

// Levels counts the match levels the strategy expands into.
func (d *DesugarStrategy) Levels() int {
	n := 1
	for s := d; s != nil; s = s.Then {
		n++
	}
	return n
}

// PatternMeta is attached to every pattern.
type PatternMeta struct {
	Path    string   // fully qualified target path
	Test    TestKind // dynamic backend test
	Fields  []string // dynamic backend payload field per positional argument; "" binds the value itself
	Type    *Type    // type of the value being matched
	Desugar *DesugarStrategy
	Span    Span
	// Synthesized marks a binding introduced by the rewriter.
	Synthesized bool
}

// Copy returns a copy of m; the desugar chain is shared.
func (m *PatternMeta) Copy() *PatternMeta {
	if m == nil {
		return nil
	}
	c := *m
	if m.Fields != nil {
		c.Fields = append([]string(nil), m.Fields...)
	}
	return &c
}

// BinaryMeta is attached to every binary expression.
type BinaryMeta struct {
	LeftDeref  bool
	RightDeref bool
}

// PropRef names a custom property at a use site.
type PropRef struct {
	Name    string
	Type    *Type  // payload type fixed for the whole program
	Variant string // side-table variant carrying the payload
}

// PropVariant is one payload variant of the tagged-union side table.
type PropVariant struct {
	Name   string // variant name, e.g. Bool
	Type   *Type
	Target string // target payload type, e.g. bool
}

// PluginMeta is attached to a plugin or writer.
type PluginMeta struct {
	// Props lists side-table payload variants in first-use order. Empty
	// when the program attaches no custom properties or the backend
	// supports them natively.
	Props      []PropVariant
	State      string // name of the State struct, if declared
	Visitors   int
	NeedsTable bool
	// Helpers holds runtime helper sources the plugin's calls rely on, in
	// first-use order.
	Helpers []string
}

// FuncKind classifies plugin functions.
type FuncKind int

const (
	FuncHelper FuncKind = iota
	FuncMethod          // takes self
	FuncVisitor
	FuncPreHook
	FuncExitHook
)

// FuncMeta is attached to every function.
type FuncMeta struct {
	Kind     FuncKind
	Target   string // target name: visitor method or visitor key
	NodeType string // visited node kind
}
