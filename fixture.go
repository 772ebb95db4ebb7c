package coordtree

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/log"
	"github.com/mwantia/coordtree/metrics"
	"github.com/mwantia/coordtree/server"
	"github.com/mwantia/coordtree/store"
)

// Fixture owns a coordination server for the lifetime of a test cluster.
// Setup starts the server, publishes its properties and bootstraps the tree;
// Teardown clears the properties, removes the namespace root, stops the
// server and waits for open sessions to drain. Setup and Teardown of one fixture never interleave.
type Fixture struct {
	mu  sync.Mutex
	log *log.Logger

	server       server.Server
	dialer       store.Dialer
	bootstrapper *Bootstrapper
	properties   *Properties
	metrics      *metrics.Metrics

	timeout time.Duration
	grace   time.Duration
	debug   io.Writer
	keep    bool

	started bool
	ready   atomic.Bool
}

// NewFixture creates a fixture around srv. A nil dialer is allowed when srv
// itself implements store.Dialer.
func NewFixture(srv server.Server, dialer store.Dialer, opts ...Option) (*Fixture, error) {
	options := newDefaultOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	if srv == nil {
		return nil, fmt.Errorf("fixture requires a server")
	}

	if dialer == nil {
		d, ok := srv.(store.Dialer)
		if !ok {
			return nil, fmt.Errorf("server '%s' cannot dial, a dialer is required", srv.Name())
		}
		dialer = d
	}

	bootstrapper, err := newBootstrapper(dialer, options)
	if err != nil {
		return nil, err
	}

	properties := options.Properties
	if properties == nil {
		properties = NewProperties()
	}

	return &Fixture{
		log:          options.Logger.Named("fixture"),
		server:       srv,
		dialer:       dialer,
		bootstrapper: bootstrapper,
		properties:   properties,
		metrics:      options.Metrics,
		timeout:      options.Timeout,
		grace:        options.GracePeriod,
		debug:        options.DebugOutput,
		keep:         options.KeepTree,
	}, nil
}

func (f *Fixture) Server() server.Server {
	return f.server
}

func (f *Fixture) Properties() *Properties {
	return f.properties
}

func (f *Fixture) Bootstrapper() *Bootstrapper {
	return f.bootstrapper
}

// Ready reports whether Setup bootstrapped the tree and Teardown has not
// run since.
func (f *Fixture) Ready() bool {
	return f.ready.Load()
}

// Setup starts the server, publishes its properties and bootstraps the tree.
// A failed bootstrap leaves the server running; Teardown must still be called.
func (f *Fixture) Setup(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.started {
		return data.ErrServerRunning
	}

	if err := f.server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server '%s': %w", f.server.Name(), err)
	}
	f.started = true
	f.metrics.SetServerRunning(true)

	f.properties.Set(PropertySkipAutoRecovery, "true")
	f.properties.Set(PropertyAddress, f.server.ClientAddress())
	f.properties.Set(PropertyHostPort, "0000")

	if err := f.bootstrapper.Bootstrap(ctx, f.server.HostOnlyAddress(), f.server.ClientAddress()); err != nil {
		f.log.Error("bootstrap of '%s' failed: %v", f.server.ClientAddress(), err)
		return err
	}

	f.ready.Store(true)
	f.log.Info("fixture ready at '%s'", f.server.ClientAddress())
	return nil
}

// Teardown clears the published properties, removes the namespace root unless
// WithKeepTree was given, stops the server and waits until every session is
// released or the grace period elapsed.
func (f *Fixture) Teardown(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.started {
		return data.ErrServerNotRunning
	}

	errs := &data.Errors{}

	if f.debug != nil {
		if err := f.printLayout(ctx, f.debug); err != nil {
			errs.Add(fmt.Errorf("failed to print layout: %w", err))
		}
	}

	f.ready.Store(false)
	f.properties.Clear()

	if !f.keep {
		if _, err := f.CleanRootNode(ctx); err != nil {
			errs.Add(fmt.Errorf("failed to clean namespace root: %w", err))
		}
	}

	if err := f.server.Stop(ctx); err != nil {
		errs.Add(fmt.Errorf("failed to stop server '%s': %w", f.server.Name(), err))
	}
	f.started = false
	f.metrics.SetServerRunning(false)

	if err := f.drain(ctx); err != nil {
		errs.Add(err)
	}

	return errs.Errors()
}

func (f *Fixture) drain(ctx context.Context) error {
	var drained <-chan struct{}
	if d, ok := f.server.(server.Drainer); ok {
		drained = d.Drained()
	}

	timer := time.NewTimer(f.grace)
	defer timer.Stop()

	select {
	case <-drained:
		f.log.Debug("all sessions of '%s' drained", f.server.HostOnlyAddress())
	case <-timer.C:
		if drained != nil {
			f.log.Warn("grace period of %s elapsed with sessions still open", f.grace)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

// WithSession runs fn with a session on address that is closed on every exit
// path. Each call of the session is bounded by the fixture timeout.
func (f *Fixture) WithSession(ctx context.Context, address string, fn func(s store.Store) error) error {
	return withSession(ctx, f.dialer, address, f.timeout, fn)
}

// MakeRootNode creates the namespace root of the layout.
func (f *Fixture) MakeRootNode(ctx context.Context) error {
	return f.bootstrapper.MakeRootNode(ctx, f.server.HostOnlyAddress())
}

// CleanRootNode removes the namespace root of the layout and everything
// beneath it.
func (f *Fixture) CleanRootNode(ctx context.Context) (int, error) {
	root := f.bootstrapper.Layout().Root
	if root == "" {
		root = data.RootPath
	}

	deleted, err := TryCleanPath(ctx, f.dialer, f.server.HostOnlyAddress(), root, f.timeout)
	f.metrics.RecordDeleted(deleted)
	return deleted, err
}

// PrintLayout dumps the whole tree as seen through the host-only address.
func (f *Fixture) PrintLayout(ctx context.Context, w io.Writer) error {
	return f.printLayout(ctx, w)
}

func (f *Fixture) printLayout(ctx context.Context, w io.Writer) error {
	return f.WithSession(ctx, f.server.HostOnlyAddress(), func(s store.Store) error {
		return PrintLayout(ctx, s, w)
	})
}
