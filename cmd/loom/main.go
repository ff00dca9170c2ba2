// Package main is the entry point for the loom CLI.
package main

import (
	"fmt"
	"os"

	"github.com/loom-sh/loom/internal/app"
	"github.com/loom-sh/loom/internal/cli"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// LOOM_HOME overrides the default ~/.loom data directory.
	container, err := app.New(os.Getenv("LOOM_HOME"))
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer container.Close()

	rootCmd := cli.NewRootCommand(container, version)
	return rootCmd.Execute()
}
