// Package main is the entry point for the studenthost CLI.
//
// studenthost provisions one virtual host per student from a class
// roster: it clones a container per entry, waits for the guest network,
// publishes router, DNS, and reverse-proxy bindings, and issues TLS
// certificates. A destroy command tears a deployed id range down again.
//
// For detailed usage information, run:
//
//	studenthost --help
package main

import (
	"fmt"
	"os"

	"studenthost/cmd/studenthost/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
