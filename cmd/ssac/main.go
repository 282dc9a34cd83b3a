// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"

	"github.com/tandf/ssac/internal/diag"
	"github.com/tandf/ssac/internal/dot"
	"github.com/tandf/ssac/internal/parser"
	"github.com/tandf/ssac/internal/ssa"
)

func main() {
	var (
		input   = flag.String("i", "", "source file to compile (required)")
		dotPath = flag.String("d", "", "write a Graphviz DOT dump of the compiled IR here")
		verbose = flag.Bool("v", false, "echo the emitted IR per function to stderr")
	)
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: ssac -i <source> [-d <dot-path>] [-v]")
		os.Exit(1)
	}

	if *verbose {
		commonlog.Configure(1, nil)
	}

	source, err := os.ReadFile(*input)
	if err != nil {
		color.Red("failed to read %s: %s", *input, err)
		os.Exit(1)
	}

	prog, diags := parser.ParseProgram(*input, string(source))

	reporter := diag.NewReporter(*input, string(source))
	fatal := false
	for _, d := range diags {
		fmt.Fprint(os.Stderr, reporter.Format(d))
		if d.Level == diag.Error {
			fatal = true
		}
	}
	if fatal || prog == nil {
		color.Red("compilation failed")
		os.Exit(1)
	}

	if *verbose {
		fmt.Fprintln(os.Stderr, ssa.Dump(prog))
	}

	if *dotPath != "" {
		if err := os.WriteFile(*dotPath, []byte(dot.Render(prog)), 0644); err != nil {
			color.Red("failed to write dot dump to %s: %s", *dotPath, err)
			os.Exit(1)
		}
	}

	color.Green("compiled %s", *input)
}
