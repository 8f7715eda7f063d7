package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/scott-cotton/cli"

	"github.com/lhaig/relux/internal/ast"
	"github.com/lhaig/relux/internal/backend"
	"github.com/lhaig/relux/internal/compiler"
	"github.com/lhaig/relux/internal/formatter"
	"github.com/lhaig/relux/internal/ir"
)

func dump(cfg *DumpConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Dump.Parse(cc, args)
	if err != nil {
		cfg.Dump.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: dump requires one input", cli.ErrUsage)
	}
	if cfg.Raw {
		prog, err := ast.DecodeFile(args[0])
		if err != nil {
			return err
		}
		io.WriteString(cc.Out, ast.Print(prog))
		return nil
	}
	be, err := backend.Lookup(backendName(cfg.Backend))
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	tables, err := compiler.LoadTables(be.Name(), cfg.Overlays)
	if err != nil {
		return err
	}
	res, err := compiler.CompileFile(args[0], be, tables, cfg.options())
	if err != nil {
		return err
	}
	cfg.report(args[0], res.Diagnostics)

	var tree *ir.Program
	if cfg.Rewritten {
		if res.Rewritten == nil {
			return cli.ExitCodeErr(1)
		}
		tree = res.Rewritten
	} else {
		tree = res.Decorated
	}
	io.WriteString(cc.Out, ir.Print(tree))
	for _, e := range res.Props {
		fmt.Fprintf(cc.Out, "// prop %s: %s on %s\n", e.Name, e.Type, strings.Join(e.Kinds, ", "))
	}
	return nil
}

func tables(cfg *TablesConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Tables.Parse(cc, args)
	if err != nil {
		cfg.Tables.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: tables takes no arguments", cli.ErrUsage)
	}
	t, err := compiler.LoadTables(backendName(cfg.Backend), cfg.Overlays)
	if err != nil {
		return err
	}
	data, err := t.YAML()
	if err != nil {
		return err
	}
	_, err = cc.Out.Write(data)
	return err
}

func format(cfg *FmtConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Fmt.Parse(cc, args)
	if err != nil {
		cfg.Fmt.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: fmt requires at least one input", cli.ErrUsage)
	}
	reg := compiler.NewUnitRegistry()
	if err := reg.Discover(args...); err != nil {
		return err
	}
	for i, u := range reg.Units() {
		if len(reg.Units()) > 1 {
			if i > 0 {
				io.WriteString(cc.Out, "\n")
			}
			fmt.Fprintf(cc.Out, "// %s\n", u.Path)
		}
		io.WriteString(cc.Out, formatter.Format(u.Program))
	}
	return nil
}
