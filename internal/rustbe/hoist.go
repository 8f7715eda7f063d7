package rustbe

import "github.com/lhaig/relux/internal/ir"

// hoist collects every struct and enum declaration in source order,
// wherever it is declared: at top level, among plugin items or inside a
// function body. Rust allows nested items, but a type declared in one
// visitor must be nameable from the plugin struct and its other methods.
func hoist(p *ir.Program) []ir.Decl {
	var types []ir.Decl
	ir.Inspect(p, func(n interface{}) bool {
		switch n := n.(type) {
		case *ir.Struct:
			types = append(types, n)
		case *ir.Enum:
			types = append(types, n)
		}
		return true
	})
	return types
}
