package backend

import (
	"github.com/lhaig/relux/internal/ir"
	"github.com/lhaig/relux/internal/jsbe"
)

// BabelBackend wraps jsbe as a Backend implementation.
type BabelBackend struct{}

// Name returns the backend name.
func (b *BabelBackend) Name() string {
	return "babel"
}

// Ext returns the extension of generated Babel plugins.
func (b *BabelBackend) Ext() string {
	return ".js"
}

// Generate produces a Babel plugin from a rewritten program.
func (b *BabelBackend) Generate(prog *ir.Program) string {
	return jsbe.Generate(prog)
}
