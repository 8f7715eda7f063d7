package rustbe

import (
	"fmt"

	"github.com/lhaig/relux/internal/ir"
)

// The side table maps a node's address to its custom properties. Payloads
// are wrapped in CustomPropValue, one variant per payload type the
// program uses.

// propVariants returns the payload variants of the side table, nil when
// no plugin needs one. The variant list is shared by the whole program.
func propVariants(p *ir.Program) []ir.PropVariant {
	for _, pl := range plugins(p) {
		if pl.Meta != nil && pl.Meta.NeedsTable && len(pl.Meta.Props) > 0 {
			return pl.Meta.Props
		}
	}
	return nil
}

func (g *generator) propValueEnum(vs []ir.PropVariant) {
	g.emitLine("#[derive(Clone, Debug)]")
	g.emitLine("pub enum CustomPropValue {")
	g.incIndent()
	for _, v := range vs {
		g.emitLinef("%s(%s),\n", v.Name, v.Target)
	}
	g.decIndent()
	g.emitLine("}")
}

func (g *generator) tableMethods() {
	g.emitLine("fn prop_key<T>(node: &T) -> usize {")
	g.emitLine("    node as *const T as usize")
	g.emitLine("}")
	g.emitLine("")
	g.emitLine("fn set_custom_prop<T>(&mut self, node: &T, name: &'static str, value: CustomPropValue) {")
	g.emitLine("    self.custom_props.entry(Self::prop_key(node)).or_default().insert(name, value);")
	g.emitLine("}")
	g.emitLine("")
	g.emitLine("fn get_custom_prop<T>(&self, node: &T, name: &str) -> Option<&CustomPropValue> {")
	g.emitLine("    self.custom_props.get(&Self::prop_key(node)).and_then(|props| props.get(name))")
	g.emitLine("}")
	g.emitLine("")
	g.emitLine("fn delete_custom_prop<T>(&mut self, node: &T, name: &str) {")
	g.emitLine("    if let Some(props) = self.custom_props.get_mut(&Self::prop_key(node)) {")
	g.emitLine("        props.remove(name);")
	g.emitLine("    }")
	g.emitLine("}")
}

func (g *generator) propSet(s *ir.PropSetStmt) {
	node := g.expr(s.Node)
	if s.Delete {
		g.emitLinef("self.delete_custom_prop(%s, %q);\n", node, s.Prop.Name)
		return
	}
	if s.Prop.Variant == "" {
		ir.Failf("rustbe", "property %s has no side-table variant", s.Prop.Name)
	}
	g.emitLinef("self.set_custom_prop(%s, %q, CustomPropValue::%s(%s));\n",
		node, s.Prop.Name, s.Prop.Variant, g.expr(s.Value))
}

func (g *generator) propGet(e *ir.PropGetExpr) string {
	if e.Prop.Variant == "" {
		ir.Failf("rustbe", "property %s has no side-table variant", e.Prop.Name)
	}
	return fmt.Sprintf("self.get_custom_prop(%s, %q).and_then(|v| match v { CustomPropValue::%s(x) => Some(x.clone()), _ => None })",
		g.expr(e.Node), e.Prop.Name, e.Prop.Variant)
}
