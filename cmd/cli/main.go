// Package main is the entry point for the contract-pricing CLI.
package main

import (
	"os"

	"contract-pricing/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
