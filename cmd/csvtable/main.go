// Package main provides csvtable, a tool for inspecting and rewriting
// delimited text files with a header line.
package main

import (
	"os"
	"strings"

	"github.com/oleg578/csvtable/internal/cli"
)

func main() {
	environ := os.Environ()
	env := make(map[string]string, len(environ))

	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	os.Exit(cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, env))
}
