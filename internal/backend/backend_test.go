package backend

import (
	"strings"
	"testing"

	"github.com/lhaig/relux/internal/mapping"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		ext  string
	}{
		{"babel", ".js"},
		{"swc", ".rs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Lookup(tt.name)
			if err != nil {
				t.Fatalf("Lookup(%q): %v", tt.name, err)
			}
			if b.Name() != tt.name || b.Ext() != tt.ext {
				t.Errorf("got %s %s", b.Name(), b.Ext())
			}
			if _, err := mapping.Builtin(b.Name()); err != nil {
				t.Errorf("no built-in tables for %s: %v", b.Name(), err)
			}
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("wasm")
	if err == nil || !strings.Contains(err.Error(), "babel") {
		t.Errorf("err = %v, want list of known backends", err)
	}
}
