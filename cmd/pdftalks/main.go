package main

import (
	"fmt"
	"os"
)

// Set at build time with -ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", Version, Commit)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
