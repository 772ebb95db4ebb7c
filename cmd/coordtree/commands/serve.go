package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/mwantia/coordtree"
	"github.com/mwantia/coordtree/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var (
	metricsAddr string
	keepTree    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a bootstrapped fixture until interrupted",
	Long: `Start the configured server, bootstrap the layout and publish the fixture
properties. On SIGINT or SIGTERM the properties are cleared, the tree is
cleaned, the server is stopped and open sessions get the grace period to
drain. --keep-tree leaves the namespace root in the store.

With --metrics-addr the fixture serves /metrics, /health and /health/ready.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&keepTree, "keep-tree", false, "keep the bootstrapped tree after shutdown")
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "listen address for metrics and health endpoints (disabled when empty)")
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := env.config.Options(ctx, env.log)
	if err != nil {
		return err
	}

	if keepTree {
		opts = append(opts, coordtree.WithKeepTree())
	}

	var registry *prometheus.Registry
	if metricsAddr != "" {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, coordtree.WithMetrics(metrics.NewMetrics(registry)))
	}

	fixture, err := coordtree.NewFixture(env.server, env.dialer, opts...)
	if err != nil {
		return err
	}

	if registry != nil {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           metrics.NewRouter(registry, fixture.Ready),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				env.log.Error("metrics endpoint on '%s' failed: %v", metricsAddr, err)
			}
		}()

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		env.log.Info("serving metrics on '%s'", metricsAddr)
	}

	setupErr := fixture.Setup(ctx)
	if setupErr == nil {
		snapshot := fixture.Properties().Snapshot()
		keys := make([]string, 0, len(snapshot))
		for key := range snapshot {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			cmd.Printf("%s=%s\n", key, snapshot[key])
		}

		env.log.Info("fixture is running, press Ctrl+C to stop")
		<-ctx.Done()
	}

	// The signal context is already cancelled here
	if err := fixture.Teardown(context.WithoutCancel(ctx)); err != nil && setupErr == nil {
		return err
	}

	return setupErr
}
