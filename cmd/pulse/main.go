package main

import (
	"os"

	"github.com/ysoda/indexpulse/cmd/pulse/commands"
)

// main is the entry point for the IndexPulse CLI.
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
