package commands

import (
	"github.com/mwantia/coordtree"
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Delete a subtree, children first",
	Long: `Delete path and everything beneath it through the host-only address.
Without a path the namespace root of the layout is cleaned. Cleaning a path
that does not exist succeeds without changes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}

	path := env.config.Layout.Build().Root
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		path = "/"
	}

	ctx := cmd.Context()
	return env.withServer(ctx, func() error {
		deleted, err := coordtree.TryCleanPath(ctx, env.dialer, env.server.HostOnlyAddress(), path, env.config.TimeoutDuration())
		if err != nil {
			return err
		}

		cmd.Printf("Deleted %d nodes below %s\n", deleted, path)
		return nil
	})
}
