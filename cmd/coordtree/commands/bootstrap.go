package commands

import (
	"github.com/mwantia/coordtree"
	"github.com/spf13/cobra"
)

var printAfterBootstrap bool

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Build the namespace root, collections and configuration set",
	Long: `Build the tree described by the layout block of the fixture file.

Bootstrapping is idempotent: existing nodes keep their payload, configuration
files are uploaded again and missing configuration files are skipped.

Examples:
  # Bootstrap a Consul agent described in fixture.hcl
  coordtree bootstrap --config fixture.hcl

  # Bootstrap and print the resulting tree
  coordtree bootstrap --config fixture.hcl --print`,
	RunE: runBootstrap,
}

func init() {
	bootstrapCmd.Flags().BoolVar(&printAfterBootstrap, "print", false, "print the tree after bootstrapping")
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	opts, err := env.config.Options(ctx, env.log)
	if err != nil {
		return err
	}

	b, err := coordtree.NewBootstrapper(env.dialer, opts...)
	if err != nil {
		return err
	}

	return env.withServer(ctx, func() error {
		if err := b.Bootstrap(ctx, env.server.HostOnlyAddress(), env.server.ClientAddress()); err != nil {
			return err
		}

		cmd.Printf("Bootstrapped %s\n", env.server.ClientAddress())
		if !printAfterBootstrap {
			return nil
		}

		return printTree(ctx, env, cmd.OutOrStdout())
	})
}
