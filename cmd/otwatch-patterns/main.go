// Package main provides a CLI tool for validating otwatch YAML attack
// pattern catalogs.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"otwatch/internal/attackchain"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		runValidateCmd(os.Args[2:])
	case "list":
		runListCmd(os.Args[2:])
	case "-version", "--version", "-v":
		fmt.Printf("otwatch-patterns %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: otwatch-patterns <command> [flags] [args]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  validate  Validate YAML pattern catalog files\n")
	fmt.Fprintf(os.Stderr, "  list      List patterns found in catalog files (or the builtin catalog)\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	fmt.Fprintf(os.Stderr, "  -version  Show version and exit\n")
}

func runValidateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	fs.Parse(args)

	paths := fs.Args()
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "Error: at least one catalog file is required\n")
		os.Exit(1)
	}

	failed := 0
	for _, path := range paths {
		catalog, err := attackchain.LoadCatalog(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", filepath.Clean(path), err)
			failed++
			continue
		}
		fmt.Printf("OK   %s: %d patterns\n", filepath.Clean(path), catalog.Len())
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func runListCmd(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Show steps and techniques per pattern")
	fs.Parse(args)

	catalogs := map[string]*attackchain.Catalog{}
	if paths := fs.Args(); len(paths) > 0 {
		for _, path := range paths {
			catalog, err := attackchain.LoadCatalog(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
				os.Exit(1)
			}
			catalogs[path] = catalog
		}
	} else {
		catalogs["builtin"] = attackchain.BuiltinCatalog()
	}

	for source, catalog := range catalogs {
		fmt.Printf("%s:\n", source)
		for _, p := range catalog.Patterns() {
			fmt.Printf("  %-28s severity=%-3d stage=%-10s %s\n", p.Name, p.Severity, p.Stage, p.Description)
			if *verbose {
				for i, step := range p.Steps {
					fmt.Printf("    step %d: %s (min_count=%d, max_gap=%s)\n", i+1, step.Name, step.MinCount, step.MaxGap)
				}
				fmt.Printf("    techniques: %v\n", p.Techniques)
			}
		}
	}
}
