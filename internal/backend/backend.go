package backend

import (
	"fmt"
	"sort"

	"github.com/lhaig/relux/internal/ir"
)

// Backend is the interface that all code generation backends implement.
type Backend interface {
	// Name returns the backend name, which is also the name of its
	// built-in mapping tables ("babel", "swc").
	Name() string
	// Ext returns the extension of generated files, with the dot.
	Ext() string
	// Generate prints a rewritten program. Undecorated nodes panic with
	// *ir.InvariantError.
	Generate(prog *ir.Program) string
}

var backends = map[string]Backend{
	"babel": &BabelBackend{},
	"swc":   &SWCBackend{},
}

// Lookup returns the backend with the given name.
func Lookup(name string) (Backend, error) {
	if b, ok := backends[name]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("unknown backend: %s (want one of %v)", name, Names())
}

// Names lists the available backends in sorted order.
func Names() []string {
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
