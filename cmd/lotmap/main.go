// Package main provides the entry point for the lotmap CLI tool.
package main

import (
	"os"

	"github.com/homestead/lotmap/cmd/lotmap/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
