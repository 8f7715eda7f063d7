package decorate

import (
	"fmt"

	"github.com/lhaig/relux/internal/ir"
)

// BindingKind represents the kind of binding
type BindingKind int

const (
	BindLocal BindingKind = iota
	BindParam
	BindPattern
	BindLoop
)

// String returns the string representation of the binding kind
func (k BindingKind) String() string {
	switch k {
	case BindLocal:
		return "local"
	case BindParam:
		return "parameter"
	case BindPattern:
		return "pattern binding"
	case BindLoop:
		return "loop variable"
	default:
		return "unknown"
	}
}

// Binding is one name in the type environment.
type Binding struct {
	Name    string
	Type    *ir.Type
	Target  string
	Mutable bool
	// Ref is set when the name holds a borrow rather than an owned value
	// on the tagged backend.
	Ref  bool
	Kind BindingKind
}

// TypeEnv maps binding names to their semantic types. One chain of
// scopes is created per function-body-bearing declaration and discarded
// once that declaration is decorated.
type TypeEnv struct {
	parent   *TypeEnv
	bindings map[string]*Binding
}

// NewTypeEnv creates a new scope with an optional parent
func NewTypeEnv(parent *TypeEnv) *TypeEnv {
	return &TypeEnv{
		parent:   parent,
		bindings: make(map[string]*Binding),
	}
}

// Define adds a binding to the current scope. A let may shadow a name of
// the same scope; any other redefinition replaces the binding and reports
// an error.
func (e *TypeEnv) Define(b *Binding) error {
	prev, exists := e.bindings[b.Name]
	e.bindings[b.Name] = b
	if exists && b.Kind != BindLocal {
		return fmt.Errorf("%s '%s' redefines the %s of the same name", b.Kind, b.Name, prev.Kind)
	}
	return nil
}

// Resolve looks up a binding in the current scope and parent scopes
// Returns nil if the name is not bound
func (e *TypeEnv) Resolve(name string) *Binding {
	if b, ok := e.bindings[name]; ok {
		return b
	}
	if e.parent != nil {
		return e.parent.Resolve(name)
	}
	return nil
}
