// Command reportrag indexes company PDF reports and answers questions from them.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/reportrag/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
