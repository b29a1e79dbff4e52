package commands

import (
	"github.com/spf13/cobra"

	"studenthost/cmd/studenthost/handlers"
)

// Deploy returns the command that provisions one host per roster entry.
//
// Required flags:
//
//	--pool: hypervisor resource pool the containers are created in
//	--start-id: first container id; entries get sequential ids from here
//
// Optional flags:
//
//	--dry-run: compute and log every action without touching any system
//	--roster: path to the roster CSV (default: roster.csv)
//	--env-file: path to the credentials/tunables file (default: .env)
func Deploy() *cobra.Command {
	var opts handlers.DeployOptions

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Provision a host for every roster entry",
		Long: `Provision one container per roster entry and publish it.

Each entry is cloned from the template, waits for a guest IPv4 address,
and is then published on the router (static lease + SSH port forward),
the DNS registrar, and the reverse proxy. After all entries are
processed, a second pass waits for DNS propagation and issues TLS
certificates.

Examples:
  # Deploy the CS101 roster starting at container id 200
  studenthost deploy --pool cs101 --start-id 200 --roster cs101.csv

  # Validate a roster and show every action without provisioning
  studenthost deploy --pool cs101 --start-id 200 --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Deploy(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Pool, "pool", "", "Hypervisor resource pool for the new containers")
	cmd.Flags().IntVar(&opts.StartID, "start-id", 0, "First container id; later entries count up from here")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Log every intended action without mutating any system")
	cmd.Flags().StringVar(&opts.RosterPath, "roster", "roster.csv", "Path to the roster CSV file")
	cmd.Flags().StringVar(&opts.EnvFile, "env-file", ".env", "Path to the environment file with credentials")

	_ = cmd.MarkFlagRequired("pool")
	_ = cmd.MarkFlagRequired("start-id")

	return cmd
}
