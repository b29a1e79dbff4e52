package commands

import (
	"github.com/spf13/cobra"

	"studenthost/cmd/studenthost/handlers"
)

// Destroy returns the bulk-teardown command.
func Destroy() *cobra.Command {
	var opts handlers.DestroyOptions

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Destroy a contiguous range of student containers",
		Long: `Stop and destroy the containers of a previous deploy.

The command asks for confirmation before destroying anything. Router,
DNS, and proxy entries are not removed; they are inert once the
container is gone and are cleaned up manually when the domain or
address range is reused.

Example:
  # Tear down the 24 containers deployed with --start-id 200
  studenthost destroy --start-id 200 --count 24`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.StartID, "start-id", 0, "First container id to destroy")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "Number of sequential container ids to destroy")
	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")
	cmd.Flags().StringVar(&opts.EnvFile, "env-file", ".env", "Path to the environment file with credentials")

	_ = cmd.MarkFlagRequired("start-id")
	_ = cmd.MarkFlagRequired("count")

	return cmd
}
