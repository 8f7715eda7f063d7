package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDumps(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestDiscoverDirectory(t *testing.T) {
	dir := writeDumps(t, map[string]string{
		"b.yaml":        markerDump,
		"a.yml":         markerDump,
		"nested/c.yaml": markerDump,
		"README.md":     "not a dump",
	})

	r := NewUnitRegistry()
	if err := r.Discover(dir); err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	var names []string
	for _, u := range r.Units() {
		rel, _ := filepath.Rel(dir, u.Path)
		names = append(names, filepath.ToSlash(rel))
	}
	if got := strings.Join(names, ","); got != "a.yml,b.yaml,nested/c.yaml" {
		t.Errorf("units = %s", got)
	}
}

func TestDiscoverSkipsDuplicates(t *testing.T) {
	dir := writeDumps(t, map[string]string{"a.yaml": markerDump})
	r := NewUnitRegistry()
	if err := r.Discover(dir, filepath.Join(dir, "a.yaml")); err != nil {
		t.Fatal(err)
	}
	if len(r.Units()) != 1 {
		t.Errorf("Expected 1 unit, got %d", len(r.Units()))
	}
}

func TestDiscoverErrors(t *testing.T) {
	r := NewUnitRegistry()
	if err := r.Discover(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing input")
	}

	dir := writeDumps(t, map[string]string{"bad.yaml": "decls:\n  - kind: bogus\n"})
	err := NewUnitRegistry().Discover(dir)
	if err == nil || !strings.Contains(err.Error(), "bad.yaml") {
		t.Errorf("Expected a decode error naming the file, got %v", err)
	}
}

func TestCompileAll(t *testing.T) {
	files := map[string]string{"conflict.yaml": conflictDump}
	for _, n := range []string{"m1", "m2", "m3", "m4", "m5", "m6"} {
		files[n+".yaml"] = markerDump
	}
	dir := writeDumps(t, files)

	r := NewUnitRegistry()
	if err := r.Discover(dir); err != nil {
		t.Fatal(err)
	}
	be, tables := setup(t, "swc")
	results := r.CompileAll(be, tables, Options{})
	if len(results) != len(files) {
		t.Fatalf("Expected %d results, got %d", len(files), len(results))
	}

	var first string
	for i, ur := range results {
		if ur.Unit != r.Units()[i] {
			t.Errorf("result %d out of order", i)
		}
		if ur.Err != nil {
			t.Fatalf("%s: %v", ur.Unit.Path, ur.Err)
		}
		if strings.HasSuffix(ur.Unit.Path, "conflict.yaml") {
			if !ur.Result.Diagnostics.HasErrors() {
				t.Error("Expected errors for conflict.yaml")
			}
			continue
		}
		if first == "" {
			first = ur.Result.Output
		} else if ur.Result.Output != first {
			t.Errorf("%s: output differs from the other units", ur.Unit.Path)
		}
	}
}

func TestCompileAllKeepsFailedUnits(t *testing.T) {
	dir := writeDumps(t, map[string]string{"a.yaml": markerDump, "b.yaml": markerDump, "c.yaml": markerDump})
	r := NewUnitRegistry()
	if err := r.Discover(dir); err != nil {
		t.Fatal(err)
	}
	be, _ := setup(t, "swc")
	_, tables := setup(t, "babel")
	results := r.CompileAll(be, tables, Options{})
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for _, ur := range results {
		if ur.Err == nil {
			t.Errorf("%s: expected an error for mismatched tables", ur.Unit.Path)
		}
	}
}
