package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "reluxc").
		WithSynopsis("reluxc [opts] command [opts] inputs").
		WithDescription("reluxc compiles decoded plugin ASTs to SWC (Rust) or Babel (JavaScript) plugins.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return reluxMain(cfg, cc, args)
		}).
		WithSubs(
			BuildCommand(cfg),
			CheckCommand(cfg),
			LintCommand(cfg),
			FmtCommand(cfg),
			DumpCommand(cfg),
			TablesCommand(cfg))
}

func reluxMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Color && cfg.NoColor {
		return fmt.Errorf("%w: -color and -nocolor are exclusive", cli.ErrUsage)
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

func BuildCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &BuildConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts = append(opts, overlayOpt(&cfg.Overlays))
	return cli.NewCommandAt(&cfg.Build, "build").
		WithAliases("b").
		WithSynopsis("build [-backend swc|babel] [-tables overlay] [-o out] [-check] inputs").
		WithDescription("compile AST dumps (files or directories) and write one output per input").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return build(cfg, cc, args)
		})
}

func CheckCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &CheckConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts = append(opts, overlayOpt(&cfg.Overlays))
	return cli.NewCommandAt(&cfg.Check, "check").
		WithAliases("c").
		WithSynopsis("check [-backend swc|babel] [-tables overlay] inputs").
		WithDescription("decorate AST dumps and report diagnostics without emitting").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return check(cfg, cc, args)
		})
}

func DumpCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DumpConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts = append(opts, overlayOpt(&cfg.Overlays))
	return cli.NewCommandAt(&cfg.Dump, "dump").
		WithAliases("d").
		WithSynopsis("dump [-backend swc|babel] [-raw | -r] input").
		WithDescription("print the raw, decorated or rewritten tree of an AST dump").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return dump(cfg, cc, args)
		})
}

func TablesCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &TablesConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts = append(opts, overlayOpt(&cfg.Overlays))
	return cli.NewCommandAt(&cfg.Tables, "tables").
		WithAliases("t").
		WithSynopsis("tables [-backend swc|babel] [-tables overlay]").
		WithDescription("print the effective mapping tables as YAML").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return tables(cfg, cc, args)
		})
}

func LintCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &LintConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Lint, "lint").
		WithAliases("l").
		WithSynopsis("lint inputs").
		WithDescription("report style and best-practice warnings for AST dumps").
		WithRun(func(cc *cli.Context, args []string) error {
			return lint(cfg, cc, args)
		})
}

func FmtCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &FmtConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Fmt, "fmt").
		WithAliases("f").
		WithSynopsis("fmt inputs").
		WithDescription("render AST dumps as plugin source").
		WithRun(func(cc *cli.Context, args []string) error {
			return format(cfg, cc, args)
		})
}
