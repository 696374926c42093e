// Package main is the entry point for the repost CLI.
package main

import (
	"os"

	"github.com/jmylchreest/repost/cmd/repost/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
