package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/scott-cotton/cli"

	"github.com/lhaig/relux/internal/backend"
	"github.com/lhaig/relux/internal/compiler"
	"github.com/lhaig/relux/internal/linter"
)

func build(cfg *BuildConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Build.Parse(cc, args)
	if err != nil {
		cfg.Build.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: build requires at least one input", cli.ErrUsage)
	}
	be, err := backend.Lookup(backendName(cfg.Backend))
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	tables, err := compiler.LoadTables(be.Name(), cfg.Overlays)
	if err != nil {
		return err
	}

	reg := compiler.NewUnitRegistry()
	if err := reg.Discover(args...); err != nil {
		return err
	}
	if cfg.Out != "" && len(reg.Units()) != 1 {
		return fmt.Errorf("%w: -o needs exactly one input, have %d", cli.ErrUsage, len(reg.Units()))
	}

	failed, drifted := 0, 0
	for _, ur := range reg.CompileAll(be, tables, cfg.options()) {
		if ur.Err != nil {
			return fmt.Errorf("%s: %w", ur.Unit.Path, ur.Err)
		}
		cfg.report(ur.Unit.Path, ur.Result.Diagnostics)
		if ur.Result.Diagnostics.HasErrors() {
			failed++
			continue
		}

		if cfg.Out == "-" {
			io.WriteString(cc.Out, ur.Result.Output)
			continue
		}
		out := compiler.OutputPath(ur.Unit.Path, cfg.Out, be)
		if cfg.Check {
			same, err := compareOutput(cc.Out, out, ur.Result.Output, cfg.colored(cc.Out))
			if err != nil {
				return err
			}
			if !same {
				drifted++
			}
			continue
		}
		if err := os.WriteFile(out, []byte(ur.Result.Output), 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		fmt.Fprintf(cc.Out, "Wrote %s\n", out)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed to compile", failed, len(reg.Units()))
	}
	if drifted > 0 {
		return fmt.Errorf("%d outputs are out of date", drifted)
	}
	return nil
}

// compareOutput diffs generated text against the file at path and prints
// the differences. A missing file counts as out of date.
func compareOutput(w io.Writer, path, generated string, color bool) (bool, error) {
	existing, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(w, "%s: missing\n", path)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if string(existing) == generated {
		return true, nil
	}
	fmt.Fprintf(w, "--- %s\n+++ %s (generated)\n", path, path)
	io.WriteString(w, lineDiff(string(existing), generated, color))
	return false, nil
}

func check(cfg *CheckConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Check.Parse(cc, args)
	if err != nil {
		cfg.Check.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: check requires at least one input", cli.ErrUsage)
	}
	tables, err := compiler.LoadTables(backendName(cfg.Backend), cfg.Overlays)
	if err != nil {
		return err
	}
	reg := compiler.NewUnitRegistry()
	if err := reg.Discover(args...); err != nil {
		return err
	}

	failed := 0
	for _, u := range reg.Units() {
		diags := compiler.Check(u.Program, tables)
		cfg.report(u.Path, diags)
		if diags.HasErrors() {
			failed++
		}
	}
	if failed > 0 {
		return cli.ExitCodeErr(1)
	}
	fmt.Fprintln(cc.Out, "No errors found.")
	return nil
}

func lint(cfg *LintConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Lint.Parse(cc, args)
	if err != nil {
		cfg.Lint.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: lint requires at least one input", cli.ErrUsage)
	}
	reg := compiler.NewUnitRegistry()
	if err := reg.Discover(args...); err != nil {
		return err
	}
	warnings := 0
	for _, u := range reg.Units() {
		diags := linter.Lint(u.Program)
		cfg.report(u.Path, diags)
		warnings += diags.Count()
	}
	if warnings == 0 {
		fmt.Fprintln(cc.Out, "No lint warnings.")
	}
	return nil
}
