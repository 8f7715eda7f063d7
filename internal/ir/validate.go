package ir

import (
	"fmt"
	"strings"
)

// InvariantError is a violated internal invariant. Rewriting and emission
// raise it with panic; the compiler recovers it at the pipeline boundary.
type InvariantError struct {
	Stage string
	Msgs  []string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: internal invariant violated: %s", e.Stage, strings.Join(e.Msgs, "; "))
}

// Failf raises an InvariantError for stage.
func Failf(stage, format string, args ...interface{}) {
	panic(&InvariantError{Stage: stage, Msgs: []string{fmt.Sprintf(format, args...)}})
}

// Validate checks that every node of a decorated program carries its
// metadata record and returns a list of error messages. An empty slice
// indicates the program is fully decorated.
func Validate(p *Program) []string {
	var errors []string
	Inspect(p, func(n interface{}) bool {
		switch n := n.(type) {
		case *Plugin:
			if n.Meta == nil {
				errors = append(errors, fmt.Sprintf("plugin %s has no metadata", n.Name))
			}
		case *Func:
			if n.Meta == nil {
				errors = append(errors, fmt.Sprintf("function %s has no metadata", n.Name))
			}
			if n.Body == nil {
				errors = append(errors, fmt.Sprintf("function %s has nil Body", n.Name))
			}
		case Expr:
			m := n.Metadata()
			if m == nil {
				errors = append(errors, fmt.Sprintf("undecorated %s", describe(n)))
				return true
			}
			if m.Type == nil {
				errors = append(errors, fmt.Sprintf("%s at %s has nil Type", describe(n), m.Span))
			}
			switch e := n.(type) {
			case *MemberExpr:
				if e.FMeta == nil {
					errors = append(errors, fmt.Sprintf("member .%s at %s has no field metadata", e.Field, m.Span))
				}
			case *BinaryExpr:
				if e.Bin == nil {
					errors = append(errors, fmt.Sprintf("binary %s at %s has no operand metadata", e.Op, m.Span))
				}
			case *Ident:
				if m.Name == "" {
					errors = append(errors, fmt.Sprintf("identifier %s at %s has no target name", e.Name, m.Span))
				}
			case *PathExpr:
				if len(m.Path) == 0 {
					errors = append(errors, fmt.Sprintf("path %s at %s has no target path", strings.Join(e.Segments, "::"), m.Span))
				}
			case *PropGetExpr:
				if e.Prop == nil || e.Prop.Type == nil {
					errors = append(errors, fmt.Sprintf("property read at %s is untyped", m.Span))
				}
			}
		case Pattern:
			if n.Metadata() == nil {
				errors = append(errors, fmt.Sprintf("undecorated %s", describe(n)))
			}
		case *PropSetStmt:
			if n.Prop == nil || n.Prop.Type == nil {
				errors = append(errors, fmt.Sprintf("property write at %s is untyped", n.Span))
			}
		}
		return true
	})
	return errors
}

// ValidateRewritten checks the rewriter's post-conditions: no pattern
// still carries a DesugarStrategy, no Replace accessor survives, no shape
// test is left unexpanded, no member chain crosses an EnumField boundary,
// and synthesized names are unique within each function.
func ValidateRewritten(p *Program) []string {
	errors := Validate(p)
	Inspect(p, func(n interface{}) bool {
		switch n := n.(type) {
		case *Func:
			errors = append(errors, validateSynthesized(n)...)
		case Pattern:
			if m := n.Metadata(); m != nil && m.Desugar != nil {
				errors = append(errors, fmt.Sprintf("pattern %s at %s still needs desugaring", m.Path, m.Span))
			}
		case *MatchesExpr:
			errors = append(errors, fmt.Sprintf("unexpanded shape test at %s", spanOf(n)))
		case *MemberExpr:
			if n.FMeta == nil {
				return true
			}
			if n.FMeta.Accessor.Kind == Replace {
				errors = append(errors, fmt.Sprintf("member .%s at %s still uses a replace accessor", n.Field, spanOf(n)))
			}
			if obj, ok := n.Object.(*MemberExpr); ok && obj.FMeta != nil && obj.FMeta.Accessor.Kind == EnumField {
				errors = append(errors, fmt.Sprintf("member .%s at %s crosses enum field .%s", n.Field, spanOf(n), obj.Field))
			}
		}
		return true
	})
	return errors
}

// SynthesizedPrefix marks names introduced by the rewriter.
const SynthesizedPrefix = "__"

func validateSynthesized(fn *Func) []string {
	var errors []string
	seen := make(map[string]bool)
	Inspect(fn.Body, func(n interface{}) bool {
		if _, ok := n.(*DeclStmt); ok {
			return false
		}
		b, ok := n.(*BindingPattern)
		if !ok || b.Meta == nil || !b.Meta.Synthesized {
			return true
		}
		if seen[b.Name] {
			errors = append(errors, fmt.Sprintf("function %s: synthesized name %s bound twice", fn.Name, b.Name))
		}
		seen[b.Name] = true
		return true
	})
	return errors
}

func spanOf(e Expr) Span {
	if m := e.Metadata(); m != nil {
		return m.Span
	}
	return Span{}
}

func describe(n interface{}) string {
	name := fmt.Sprintf("%T", n)
	return strings.TrimPrefix(name, "*ir.")
}
