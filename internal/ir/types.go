package ir

import (
	"strings"

	"github.com/lhaig/relux/internal/ast"
)

// Type is the semantic category of a value as the source program sees it:
// a primitive, a node kind, a user struct or enum, or a generic such as
// Option<T> or Vec<T>.
type Type struct {
	Name string
	Args []*Type
}

var (
	Unknown = &Type{Name: "?"}
	Unit    = &Type{Name: "()"}
	Bool    = &Type{Name: "bool"}
	Str     = &Type{Name: "Str"}
	I32     = &Type{Name: "i32"}
	I64     = &Type{Name: "i64"}
	F64     = &Type{Name: "f64"}
	Usize   = &Type{Name: "usize"}
)

var aliases = map[string]string{
	"String": "Str",
	"str":    "Str",
	"&str":   "Str",
	"int":    "i32",
	"float":  "f64",
	"number": "f64",
	"Number": "f64",
	"Bool":   "bool",
}

// Named builds a type, normalising the spelling of primitives.
func Named(name string, args ...*Type) *Type {
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	return &Type{Name: name, Args: args}
}

// OptionOf wraps t in Option<>.
func OptionOf(t *Type) *Type { return &Type{Name: "Option", Args: []*Type{t}} }

// VecOf wraps t in Vec<>.
func VecOf(t *Type) *Type { return &Type{Name: "Vec", Args: []*Type{t}} }

// FromRef converts a source type reference. A nil reference is Unknown.
func FromRef(ref *ast.TypeRef) *Type {
	if ref == nil {
		return Unknown
	}
	t := Named(ref.Name)
	for _, a := range ref.TypeArgs {
		t.Args = append(t.Args, FromRef(a))
	}
	return t
}

// ParseType parses a type spelled as in source, e.g. "Option<Str>".
// Malformed text yields Unknown.
func ParseType(s string) *Type {
	if s == "" {
		return Unknown
	}
	ref, err := ast.ParseType(s)
	if err != nil {
		return Unknown
	}
	return FromRef(ref)
}

func (t *Type) String() string {
	if t == nil {
		return Unknown.Name
	}
	if len(t.Args) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return t.Name + "<" + strings.Join(args, ", ") + ">"
}

// Equal reports structural equality.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Name != o.Name || len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

func (t *Type) IsUnknown() bool { return t == nil || t.Name == Unknown.Name }
func (t *Type) IsOption() bool  { return t != nil && t.Name == "Option" && len(t.Args) == 1 }
func (t *Type) IsVec() bool     { return t != nil && t.Name == "Vec" && len(t.Args) == 1 }

// Elem returns the first type argument, or Unknown.
func (t *Type) Elem() *Type {
	if t == nil || len(t.Args) == 0 {
		return Unknown
	}
	return t.Args[0]
}

// IsPrimitive reports whether values of t are plain copies in the tagged
// backend.
func (t *Type) IsPrimitive() bool {
	if t == nil {
		return false
	}
	switch t.Name {
	case "bool", "i32", "i64", "u32", "u64", "usize", "f64", "f32", "()":
		return true
	}
	return false
}

// IsNumeric reports whether t is an integer or float type.
func (t *Type) IsNumeric() bool {
	return t.IsPrimitive() && t.Name != "bool" && t.Name != "()"
}
