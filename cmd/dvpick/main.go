// Package main is the entry point for the dvpick CLI.
package main

import (
	"os"

	"github.com/runger/dvpick/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
