// Coderef - code intelligence queries over a pre-scanned element index.
//
// Coderef consumes the .coderef/index.json document written by an external
// scanner and answers impact-analysis, complexity, pattern, and coverage
// queries from the command line or over MCP (stdio).
package main

import (
	"fmt"
	"os"

	"github.com/coderef-labs/coderef-go/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
