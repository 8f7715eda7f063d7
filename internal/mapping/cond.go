package mapping

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Env is the context a `when` condition is evaluated in.
type Env struct {
	Writer  bool   // inside a writer
	Pattern bool   // the lookup is for a pattern position
	Backend string // backend name
	Node    string // node kind being visited
	Field   string // field being accessed
}

func (e Env) vars() map[string]interface{} {
	return map[string]interface{}{
		"writer":  e.Writer,
		"pattern": e.Pattern,
		"backend": e.Backend,
		"node":    e.Node,
		"field":   e.Field,
	}
}

func (t *Tables) compile(src string) error {
	if src == "" {
		return nil
	}
	if _, ok := t.conds[src]; ok {
		return nil
	}
	program, err := expr.Compile(src, expr.Env(Env{}.vars()), expr.AsBool())
	if err != nil {
		return fmt.Errorf("when %q: %w", src, err)
	}
	t.conds[src] = program
	return nil
}

// holds evaluates a compiled condition. An empty condition always holds;
// one that fails to run does not.
func (t *Tables) holds(src string, env Env) bool {
	if src == "" {
		return true
	}
	program, ok := t.conds[src]
	if !ok {
		return false
	}
	out, err := vm.Run(program, env.vars())
	if err != nil {
		return false
	}
	b, _ := out.(bool)
	return b
}
