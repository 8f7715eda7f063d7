package compiler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/lhaig/relux/internal/ast"
	"github.com/lhaig/relux/internal/backend"
	"github.com/lhaig/relux/internal/decorate"
	"github.com/lhaig/relux/internal/diagnostic"
	"github.com/lhaig/relux/internal/ir"
	"github.com/lhaig/relux/internal/mapping"
	"github.com/lhaig/relux/internal/props"
	"github.com/lhaig/relux/internal/rewrite"
)

// Options tunes a compilation. The zero value is ready to use.
type Options struct {
	// Logger receives stage boundaries at debug level. Nil discards.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Result holds the output of a compilation
type Result struct {
	Diagnostics *diagnostic.Diagnostics
	Output      string

	// Decorated and Rewritten are the intermediate trees, kept for dumps.
	// Rewritten is nil when decoration reported errors.
	Decorated *ir.Program
	Rewritten *ir.Program

	// Props lists the custom properties the program attaches, by name.
	Props []*props.Entry
}

// Compile runs the full pipeline: decorate -> rewrite -> emit.
// Source-level problems are reported through Result.Diagnostics and leave
// Output empty. The returned error is reserved for misuse and for internal
// invariant violations.
func Compile(prog *ast.Program, be backend.Backend, tables *mapping.Tables, opts Options) (res *Result, err error) {
	if be == nil || tables == nil {
		return nil, errors.New("compiler: backend and tables are required")
	}
	if tables.Backend != be.Name() {
		return nil, fmt.Errorf("compiler: tables are for %q, backend is %q", tables.Backend, be.Name())
	}
	log := opts.logger().With("backend", be.Name())

	defer func() {
		if r := recover(); r != nil {
			inv, ok := r.(*ir.InvariantError)
			if !ok {
				panic(r)
			}
			log.Debug("invariant violated", "stage", inv.Stage)
			res, err = nil, fmt.Errorf("compiler: %w", inv)
		}
	}()

	res = &Result{Diagnostics: diagnostic.New()}

	log.Debug("decorate", "decls", len(prog.Decls))
	dec := decorate.New(tables, res.Diagnostics)
	res.Decorated = dec.Program(prog)
	res.Props = dec.Props().Entries()
	if errs := ir.Validate(res.Decorated); len(errs) > 0 {
		return nil, fmt.Errorf("compiler: %w", &ir.InvariantError{Stage: "decorate", Msgs: errs})
	}
	if res.Diagnostics.HasErrors() {
		log.Debug("stopping after decorate", "errors", res.Diagnostics.ErrorCount())
		return res, nil
	}

	log.Debug("rewrite")
	res.Rewritten = rewrite.Rewrite(res.Decorated)

	log.Debug("emit")
	res.Output = be.Generate(res.Rewritten)
	log.Debug("done", "bytes", len(res.Output), "warnings", res.Diagnostics.WarningCount())
	return res, nil
}

// Check runs decoration only and returns its diagnostics.
func Check(prog *ast.Program, tables *mapping.Tables) *diagnostic.Diagnostics {
	diags := diagnostic.New()
	decorate.Decorate(prog, tables, diags)
	return diags
}

// CompileFile decodes the AST dump at path and compiles it.
func CompileFile(path string, be backend.Backend, tables *mapping.Tables, opts Options) (*Result, error) {
	prog, err := ast.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	opts.logger().Debug("decoded", "path", path)
	return Compile(prog, be, tables, opts)
}

// LoadTables returns the built-in tables for backend with each overlay file
// applied in order.
func LoadTables(backendName string, overlays []string) (*mapping.Tables, error) {
	tables, err := mapping.Builtin(backendName)
	if err != nil {
		return nil, err
	}
	for _, path := range overlays {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if tables, err = tables.OverlayFile(path); err != nil {
			return nil, fmt.Errorf("overlay %s: %w", path, err)
		}
	}
	return tables, nil
}
