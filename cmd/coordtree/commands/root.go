// Package commands implements the coordtree command line tool.
package commands

import (
	"context"
	"fmt"

	"github.com/mwantia/coordtree/config"
	"github.com/mwantia/coordtree/log"
	"github.com/mwantia/coordtree/server"
	"github.com/mwantia/coordtree/store"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:   "coordtree",
	Short: "Bootstrap and tear down coordination trees for search cluster fixtures",
	Long: `coordtree builds the namespace a search cluster control plane expects in a
coordination store: the namespace root, collection nodes with their descriptor
and shard placeholder, and the uploaded configuration set.

Use "coordtree [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "HCL fixture file (default: embedded server, local source in the working directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level overriding the fixture file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file overriding the fixture file")

	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(collectionsCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(serveCmd)
}

// environment is everything a command needs, built from the fixture file
// and the global flags.
type environment struct {
	config *config.Config
	log    *log.Logger
	server server.Server
	dialer store.Dialer
}

func loadEnvironment() (*environment, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if logLevel != "" {
		if _, err := log.ParseLevel(logLevel); err != nil {
			return nil, err
		}
		cfg.Log.Level = logLevel
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}

	logger, err := cfg.Log.Logger("coordtree")
	if err != nil {
		return nil, err
	}

	srv, dialer, err := cfg.Server.Build(logger)
	if err != nil {
		return nil, err
	}

	return &environment{
		config: cfg,
		log:    logger,
		server: srv,
		dialer: dialer,
	}, nil
}

// withServer starts the configured server for the duration of fn.
func (env *environment) withServer(ctx context.Context, fn func() error) (err error) {
	if err := env.server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server '%s': %w", env.server.Name(), err)
	}

	defer func() {
		if serr := env.server.Stop(context.WithoutCancel(ctx)); serr != nil && err == nil {
			err = fmt.Errorf("failed to stop server '%s': %w", env.server.Name(), serr)
		}
	}()

	return fn()
}
