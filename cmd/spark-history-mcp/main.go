package main

import (
	"fmt"
	"os"

	"github.com/drutigliano19/spark-history-mcp/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "v0.0.1"

func main() {
	if err := cli.NewCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
