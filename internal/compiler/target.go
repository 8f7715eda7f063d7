package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lhaig/relux/internal/backend"
)

// OutputPath returns the file a unit at inPath is written to for target.
// An empty outBase places the output next to the input.
func OutputPath(inPath, outBase string, be backend.Backend) string {
	if outBase == "" {
		outBase = strings.TrimSuffix(inPath, filepath.Ext(inPath))
	}
	if filepath.Ext(outBase) == be.Ext() {
		return outBase
	}
	return outBase + be.Ext()
}

// EmitToTarget compiles the AST dump at inPath for target and writes the
// output file. It returns the path written and the compilation result;
// source errors are returned as an error carrying the formatted
// diagnostics.
func EmitToTarget(inPath, target, outBase string, overlays []string, opts Options) (string, *Result, error) {
	be, err := backend.Lookup(target)
	if err != nil {
		return "", nil, err
	}
	tables, err := LoadTables(target, overlays)
	if err != nil {
		return "", nil, err
	}

	res, err := CompileFile(inPath, be, tables, opts)
	if err != nil {
		return "", nil, err
	}
	if res.Diagnostics.HasErrors() {
		return "", res, fmt.Errorf("compilation errors:\n%s", res.Diagnostics.Format(inPath))
	}

	out := OutputPath(inPath, outBase, be)
	if err := os.WriteFile(out, []byte(res.Output), 0644); err != nil {
		return "", res, fmt.Errorf("failed to write output: %w", err)
	}
	opts.logger().Debug("wrote", "path", out)
	return out, res, nil
}
