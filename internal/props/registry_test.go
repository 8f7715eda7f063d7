package props

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lhaig/relux/internal/diagnostic"
	"github.com/lhaig/relux/internal/ir"
)

func spell(t *ir.Type) string {
	switch t.Name {
	case "Str":
		return "String"
	}
	return t.Name
}

func newRegistry() (*Registry, *diagnostic.Diagnostics) {
	diags := diagnostic.New()
	return NewRegistry(diags, spell), diags
}

var node = ir.Named("Identifier")

func TestIsProperty(t *testing.T) {
	for name, want := range map[string]bool{"__mark": true, "__": false, "_x": false, "name": false} {
		if got := IsProperty(name); got != want {
			t.Errorf("IsProperty(%q) = %t, want %t", name, got, want)
		}
	}
}

func TestAssignFixesType(t *testing.T) {
	r, diags := newRegistry()
	ref := r.Assign("__mark", node, true, ir.Bool, ir.Span{Line: 3, Column: 5})
	if ref.Variant != "Bool" || !ref.Type.Equal(ir.Bool) {
		t.Errorf("ref = %+v", ref)
	}
	again := r.Assign("__mark", ir.Named("CallExpression"), true, ir.Bool, ir.Span{Line: 9, Column: 5})
	if again.Variant != "Bool" {
		t.Errorf("second ref = %+v", again)
	}
	if diags.Count() != 0 {
		t.Errorf("unexpected diagnostics: %s", diags.Format("t"))
	}
	entries := r.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %+v", entries)
	}
	if diff := cmp.Diff([]string{"Identifier", "CallExpression"}, entries[0].Kinds); diff != "" {
		t.Errorf("kinds (-want +got):\n%s", diff)
	}
}

func TestTypeMismatchReportedOnceEitherOrder(t *testing.T) {
	orders := [][]*ir.Type{
		{ir.Bool, ir.Str, ir.Str, ir.I32},
		{ir.Str, ir.Bool, ir.Bool},
	}
	for _, types := range orders {
		r, diags := newRegistry()
		for i, ty := range types {
			r.Assign("__mark", node, true, ty, ir.Span{Line: i + 1, Column: 1})
		}
		got := diags.WithCode(diagnostic.TypeMismatch)
		if len(got) != 1 {
			t.Fatalf("%v: %d TypeMismatch diagnostics, want 1", types, len(got))
		}
		d := got[0]
		if d.Line != 2 || len(d.Related) != 1 || d.Related[0].Line != 1 {
			t.Errorf("%v: diagnostic does not name both locations: %+v", types, d)
		}
	}
}

func TestUnsupportedFirstAssignmentStillFixesType(t *testing.T) {
	orders := [][]*ir.Type{
		{ir.Bool, ir.VecOf(ir.Str)},
		{ir.VecOf(ir.Str), ir.Bool},
	}
	for _, types := range orders {
		r, diags := newRegistry()
		for i, ty := range types {
			r.Assign("__mark", node, true, ty, ir.Span{Line: i + 1, Column: 1})
		}
		if n := len(diags.WithCode(diagnostic.TypeMismatch)); n != 1 {
			t.Errorf("%v: %d TypeMismatch diagnostics, want 1", types, n)
		}
		if n := len(diags.WithCode(diagnostic.UnsupportedPayload)); n != 1 {
			t.Errorf("%v: %d UnsupportedPayload diagnostics, want 1", types, n)
		}
		if e := r.Entries()[0]; !e.Type.Equal(types[0]) {
			t.Errorf("%v: entry type = %s, want %s", types, e.Type, types[0])
		}
	}
}

func TestInvalidTargetAndPayload(t *testing.T) {
	r, diags := newRegistry()
	r.Assign("__a", ir.Str, false, ir.Bool, ir.Span{Line: 1})
	r.Assign("__b", node, true, ir.VecOf(ir.Str), ir.Span{Line: 2})
	r.Assign("__c", node, true, ir.Named("Identifier"), ir.Span{Line: 3})
	if n := len(diags.WithCode(diagnostic.InvalidTarget)); n != 1 {
		t.Errorf("InvalidTarget count = %d", n)
	}
	if n := len(diags.WithCode(diagnostic.UnsupportedPayload)); n != 2 {
		t.Errorf("UnsupportedPayload count = %d", n)
	}
	if len(r.Variants()) != 0 {
		t.Errorf("variants = %+v", r.Variants())
	}
}

func TestReadsTypedAfterFinish(t *testing.T) {
	r, diags := newRegistry()
	r.DeclareType("Info")
	meta := &ir.ExprMeta{}
	ref := r.Read("__info", node, true, meta, ir.Span{Line: 1})
	gap := r.Read("__never", node, true, &ir.ExprMeta{}, ir.Span{Line: 2})
	del := r.Delete("__info", node, true, ir.Span{Line: 3})
	r.Assign("__info", node, true, ir.Named("Info"), ir.Span{Line: 4})
	r.Assign("__seen", node, true, ir.Bool, ir.Span{Line: 5})
	r.Finish()

	if ref.Variant != "Info" || !meta.Type.Equal(ir.OptionOf(ir.Named("Info"))) || meta.Target != "Option<Info>" {
		t.Errorf("read ref = %+v, meta = %+v", ref, meta)
	}
	if del.Variant != "Info" {
		t.Errorf("delete ref = %+v", del)
	}
	if !gap.Type.IsUnknown() || len(diags.WithCode(diagnostic.MappingGap)) != 1 {
		t.Errorf("never-assigned read: %+v, %s", gap, diags.Format("t"))
	}
	want := []ir.PropVariant{
		{Name: "Info", Type: ir.Named("Info"), Target: "Info"},
		{Name: "Bool", Type: ir.Bool, Target: "bool"},
	}
	if diff := cmp.Diff(want, r.Variants()); diff != "" {
		t.Errorf("variants (-want +got):\n%s", diff)
	}
}
