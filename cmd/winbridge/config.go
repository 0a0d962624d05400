package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/winbridge/internal/config"
)

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  winbridge config validate [--path PATH]")
	fmt.Fprintln(w, "  winbridge config print [--path PATH] [--defaults|--sources]")
	fmt.Fprintln(w, "  winbridge config explain [--path PATH] <yaml.path>")
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printConfigUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:])
	case "print":
		return runConfigPrint(args[1:])
	case "explain":
		return runConfigExplain(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n\n", args[0])
		printConfigUsage(os.Stderr)
		return 2
	}
}

func configFlags(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/winbridge/config.yaml)")
	return fs, path
}

func runConfigValidate(args []string) int {
	fs, path := configFlags("validate")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cfg := res.Config
	fmt.Printf("config: ok (%d file(s), %d surface(s))\n", len(res.Files), len(cfg.Surfaces))
	fmt.Printf("window: %dx%d pointer=%s\n", cfg.Window.Width, cfg.Window.Height, yesNo(false, cfg.Window.Pointer))
	for i, s := range cfg.Surfaces {
		fmt.Printf("  surfaces[%d] %s %s %dx%d @ %d,%d\n", i, s.Name, s.Kind, s.Width, s.Height, s.X, s.Y)
	}
	return 0
}

func runConfigPrint(args []string) int {
	fs, path := configFlags("print")
	defaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
	sources := fs.Bool("sources", false, "List every value set by a file and where it was set")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *defaults && *sources {
		fmt.Fprintln(os.Stderr, "--defaults and --sources are mutually exclusive")
		return 2
	}

	if *defaults {
		return printYAML(os.Stdout, config.DefaultConfig())
	}
	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *sources {
		writeSources(os.Stdout, res)
		return 0
	}
	for _, f := range res.Files {
		fmt.Printf("# file: %s\n", f)
	}
	return printYAML(os.Stdout, res.Config)
}

// writeSources prints "path  source" for every key a file set, sorted by
// path.
func writeSources(w io.Writer, res *config.LoadResult) {
	paths := make([]string, 0, len(res.Sources))
	for p := range res.Sources {
		if p == "include" || strings.HasPrefix(p, "include[") {
			continue
		}
		paths = append(paths, p)
	}
	slices.Sort(paths)

	rows := make([][]string, 0, len(paths))
	for _, p := range paths {
		rows = append(rows, []string{p, res.Sources[p].String()})
	}
	printTable(w, false, []string{"PATH", "SOURCE"}, rows)
}

func runConfigExplain(args []string) int {
	fs, path := configFlags("explain")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
		return 2
	}
	query := fs.Arg(0)

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	value, src, err := config.Explain(res, query)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Printf("path: %s\n", query)
	fmt.Printf("source: %s\n", src)
	fmt.Println("value:")
	return printYAML(os.Stdout, value)
}

func printYAML(w io.Writer, v any) int {
	data, err := yaml.Marshal(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	w.Write(data)
	return 0
}
