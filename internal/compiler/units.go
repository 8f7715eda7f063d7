package compiler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/lhaig/relux/internal/ast"
	"github.com/lhaig/relux/internal/backend"
	"github.com/lhaig/relux/internal/mapping"
)

// Unit is one decoded AST dump.
type Unit struct {
	Path    string
	Program *ast.Program
}

// UnitResult pairs a unit with the outcome of compiling it.
type UnitResult struct {
	Unit   *Unit
	Result *Result
	Err    error
}

// UnitRegistry holds the AST dumps found under a set of input paths.
// Files are kept in sorted path order so batch output is stable.
type UnitRegistry struct {
	units []*Unit
	seen  map[string]bool
}

// NewUnitRegistry creates an empty registry.
func NewUnitRegistry() *UnitRegistry {
	return &UnitRegistry{seen: make(map[string]bool)}
}

// Discover adds every AST dump named by paths. A directory contributes
// all *.yaml and *.yml files below it. Each file is decoded once; a file
// that fails to decode stops discovery.
func (r *UnitRegistry) Discover(paths ...string) error {
	var found []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("input not found: %s", p)
		}
		if !info.IsDir() {
			found = append(found, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isDump(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("walking %s: %w", p, err)
		}
	}

	for _, path := range found {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve path: %w", err)
		}
		if r.seen[abs] {
			continue
		}
		r.seen[abs] = true

		prog, err := ast.DecodeFile(path)
		if err != nil {
			return err
		}
		r.units = append(r.units, &Unit{Path: path, Program: prog})
	}
	sort.Slice(r.units, func(i, j int) bool { return r.units[i].Path < r.units[j].Path })
	return nil
}

// Units returns the discovered units in path order.
func (r *UnitRegistry) Units() []*Unit {
	return r.units
}

// CompileAll compiles every unit concurrently against the shared tables,
// at most GOMAXPROCS at a time. A failing unit does not stop the others.
// Results come back in unit order.
func (r *UnitRegistry) CompileAll(be backend.Backend, tables *mapping.Tables, opts Options) []UnitResult {
	results := make([]UnitResult, len(r.units))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, u := range r.units {
		g.Go(func() error {
			o := opts
			o.Logger = opts.logger().With("unit", u.Path)
			res, err := Compile(u.Program, be, tables, o)
			results[i] = UnitResult{Unit: u, Result: res, Err: err}
			return nil
		})
	}
	// Unit errors land in results; the goroutines never fail the group.
	_ = g.Wait()
	return results
}

func isDump(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
