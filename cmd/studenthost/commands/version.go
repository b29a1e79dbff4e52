package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var buildInfo = struct {
	version string
	commit  string
	date    string
}{"dev", "none", "unknown"}

// SetVersionInfo records the build metadata stamped into main.
func SetVersionInfo(version, commit, date string) {
	buildInfo.version = version
	buildInfo.commit = commit
	buildInfo.date = date
}

// Version returns the version command. The single-line format is meant
// for inclusion in support requests alongside the deploy log.
func Version() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "studenthost %s (commit %s, built %s, %s)\n",
				buildInfo.version, buildInfo.commit, buildInfo.date, runtime.Version())
		},
	}
}
