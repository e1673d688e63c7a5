// Package main provides the LightSQL command-line tool.
package main

import (
	"os"

	"github.com/leapstack-labs/lightsql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
