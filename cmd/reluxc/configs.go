package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"

	"github.com/lhaig/relux/internal/compiler"
	"github.com/lhaig/relux/internal/diagnostic"
)

type MainConfig struct {
	Verbose bool `cli:"name=v desc='log pipeline stages to stderr'"`
	Color   bool `cli:"name=color desc='colour diagnostics even when stderr is not a terminal'"`
	NoColor bool `cli:"name=nocolor desc='never colour diagnostics'"`

	Main *cli.Command
}

func (cfg *MainConfig) options() compiler.Options {
	return compiler.Options{Logger: newLogger(os.Stderr, cfg.Verbose)}
}

// colored reports whether output written to w should carry ANSI colour.
func (cfg *MainConfig) colored(w io.Writer) bool {
	if cfg.NoColor {
		return false
	}
	if cfg.Color {
		return true
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

// report prints diags for the unit at path to stderr.
func (cfg *MainConfig) report(path string, diags *diagnostic.Diagnostics) {
	if diags == nil || diags.Count() == 0 {
		return
	}
	text := diags.Format(path)
	if cfg.colored(os.Stderr) {
		text = diags.FormatColor(path)
	}
	io.WriteString(os.Stderr, text+"\n")
}

func backendName(name string) string {
	if name == "" {
		return "swc"
	}
	return name
}

// overlayOpt is the repeatable -tables option collecting into dst.
func overlayOpt(dst *[]string) *cli.Opt {
	return &cli.Opt{
		Name:        "tables",
		Description: "mapping table overlay applied after the built-in tables (repeatable)",
		Type: cli.NamedFuncOpt(cli.FuncOpt(func(_ *cli.Context, a string) (any, error) {
			*dst = append(*dst, a)
			return a, nil
		}), "(filepath)"),
	}
}

type BuildConfig struct {
	*MainConfig
	Backend  string `cli:"name=backend desc='target backend: swc or babel'"`
	Overlays []string

	Out   string `cli:"name=o desc='output file, - for stdout (single input only)'"`
	Check bool   `cli:"name=check desc='compare with the existing output instead of writing it'"`

	Build *cli.Command
}

type CheckConfig struct {
	*MainConfig
	Backend  string `cli:"name=backend desc='target backend: swc or babel'"`
	Overlays []string

	Check *cli.Command
}

type DumpConfig struct {
	*MainConfig
	Backend  string `cli:"name=backend desc='target backend: swc or babel'"`
	Overlays []string

	Rewritten bool `cli:"name=r desc='dump the rewritten tree instead of the decorated one'"`
	Raw       bool `cli:"name=raw desc='dump the undecorated input tree'"`

	Dump *cli.Command
}

type TablesConfig struct {
	*MainConfig
	Backend  string `cli:"name=backend desc='target backend: swc or babel'"`
	Overlays []string

	Tables *cli.Command
}

type LintConfig struct {
	*MainConfig

	Lint *cli.Command
}

type FmtConfig struct {
	*MainConfig

	Fmt *cli.Command
}
