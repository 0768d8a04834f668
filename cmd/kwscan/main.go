// Package main provides the entry point for the kwscan CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/kwscan/cmd/kwscan/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
