package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

func main() {
	operation := flag.String("operation", "", "treat every path as an OpenAPI document and lint this operation")
	flag.Usage = func() {
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-operation id] paths...\n", filepath.Base(os.Args[0])); err != nil {
			panic(err)
		}
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "\nLint form definitions for attachment rules and fields the controllers would ignore.\n"); err != nil {
			panic(err)
		}
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	violations := lintPaths(context.Background(), paths, *operation)
	if report(os.Stderr, violations) > 0 {
		os.Exit(1)
	}
}

func lintPaths(ctx context.Context, paths []string, operation string) []violation {
	var violations []violation
	for _, path := range paths {
		violations = append(violations, lintFile(ctx, path, operation)...)
	}
	return violations
}

func report(w io.Writer, violations []violation) int {
	sort.Slice(violations, func(i, j int) bool {
		if violations[i].file == violations[j].file {
			if violations[i].location == violations[j].location {
				return violations[i].message < violations[j].message
			}
			return violations[i].location < violations[j].location
		}
		return violations[i].file < violations[j].file
	})
	for _, v := range violations {
		fmt.Fprintf(w, "%s: %s -> %s\n", v.file, v.location, v.message)
	}
	return len(violations)
}
