package commands

import (
	"context"
	"io"

	"github.com/mwantia/coordtree"
	"github.com/mwantia/coordtree/store"
	"github.com/spf13/cobra"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Print the whole tree",
	RunE:  runLayout,
}

func runLayout(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	return env.withServer(ctx, func() error {
		return printTree(ctx, env, cmd.OutOrStdout())
	})
}

func printTree(ctx context.Context, env *environment, w io.Writer) error {
	s, err := env.dialer.Dial(ctx, env.server.HostOnlyAddress())
	if err != nil {
		return err
	}
	defer s.Close()

	return coordtree.PrintLayout(ctx, store.WithTimeout(s, env.config.TimeoutDuration()), w)
}
