package commands

import (
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/mwantia/coordtree"
	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/store"
	"github.com/spf13/cobra"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List the collections of the tree with their config set",
	RunE:  runCollections,
}

func runCollections(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	return env.withServer(ctx, func() error {
		return listCollections(ctx, env, cmd.OutOrStdout())
	})
}

func listCollections(ctx context.Context, env *environment, w io.Writer) error {
	s, err := env.dialer.Dial(ctx, env.server.ClientAddress())
	if err != nil {
		return err
	}
	defer s.Close()

	reader := coordtree.NewReader(store.WithTimeout(s, env.config.TimeoutDuration()))

	names, err := reader.Collections(ctx)
	if err != nil && !errors.Is(err, data.ErrNoNode) {
		return err
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		configName, err := reader.CollectionConfigName(ctx, name)
		if err != nil {
			return err
		}

		// A config set that was never uploaded has no files
		files, err := reader.ConfigFiles(ctx, configName)
		if err != nil && !errors.Is(err, data.ErrNoNode) {
			return err
		}

		rows = append(rows, []string{name, configName, strconv.Itoa(len(files))})
	}

	printTable(w, []string{"Collection", "Config", "Files"}, rows)
	return nil
}
