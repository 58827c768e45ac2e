// Command tabledoc generates Markdown documentation for warehouse datasets.
package main

import (
	"os"

	"github.com/leapstack-labs/tabledoc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
