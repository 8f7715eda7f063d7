package backend

import (
	"github.com/lhaig/relux/internal/ir"
	"github.com/lhaig/relux/internal/rustbe"
)

// SWCBackend wraps rustbe as a Backend implementation.
type SWCBackend struct{}

// Name returns the backend name.
func (b *SWCBackend) Name() string {
	return "swc"
}

// Ext returns the extension of generated SWC plugins.
func (b *SWCBackend) Ext() string {
	return ".rs"
}

// Generate produces an SWC plugin from a rewritten program.
func (b *SWCBackend) Generate(prog *ir.Program) string {
	return rustbe.Generate(prog)
}
