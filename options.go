package coordtree

import (
	"fmt"
	"io"
	"time"

	"github.com/mwantia/coordtree/log"
	"github.com/mwantia/coordtree/metrics"
	"github.com/mwantia/coordtree/source"
	"github.com/mwantia/coordtree/store"
)

const (
	// DefaultTimeout bounds every blocking store call, including the dial.
	DefaultTimeout = 10 * time.Second
	// DefaultGracePeriod bounds the drain wait after the server stopped.
	DefaultGracePeriod = 2 * time.Second
)

type PathOptions struct {
	Intermediates bool
	FailOnExists  bool
	Overwrite     bool
	Mode          store.CreateMode
}

type PathOption func(*PathOptions) error

func newDefaultPathOptions() *PathOptions {
	return &PathOptions{
		Intermediates: true,
		Mode:          store.Persistent,
	}
}

// WithoutIntermediates requires the parent of the path to exist already.
func WithoutIntermediates() PathOption {
	return func(opts *PathOptions) error {
		opts.Intermediates = false
		return nil
	}
}

// WithFailOnExists surfaces data.ErrNodeExists instead of treating an
// existing node as success.
func WithFailOnExists() PathOption {
	return func(opts *PathOptions) error {
		opts.FailOnExists = true
		return nil
	}
}

// WithOverwrite replaces the payload of an already existing node.
func WithOverwrite() PathOption {
	return func(opts *PathOptions) error {
		opts.Overwrite = true
		return nil
	}
}

func WithCreateMode(mode store.CreateMode) PathOption {
	return func(opts *PathOptions) error {
		opts.Mode = mode
		return nil
	}
}

type Options struct {
	Layout      Layout
	Resolver    source.Resolver
	Logger      *log.Logger
	Metrics     *metrics.Metrics
	Properties  *Properties
	Timeout     time.Duration
	GracePeriod time.Duration
	DebugOutput io.Writer
	KeepTree    bool
}

type Option func(*Options) error

func newDefaultOptions() *Options {
	return &Options{
		Layout:      DefaultLayout(),
		Logger:      log.NewDiscard(),
		Timeout:     DefaultTimeout,
		GracePeriod: DefaultGracePeriod,
	}
}

func WithLayout(layout Layout) Option {
	return func(opts *Options) error {
		if err := layout.Validate(); err != nil {
			return err
		}

		opts.Layout = layout
		return nil
	}
}

func WithResolver(resolver source.Resolver) Option {
	return func(opts *Options) error {
		opts.Resolver = resolver
		return nil
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(opts *Options) error {
		if logger != nil {
			opts.Logger = logger
		}
		return nil
	}
}

// WithMetrics records bootstrap and teardown activity on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(opts *Options) error {
		opts.Metrics = m
		return nil
	}
}

// WithProperties shares the given properties instead of a fixture-owned set.
func WithProperties(properties *Properties) Option {
	return func(opts *Options) error {
		opts.Properties = properties
		return nil
	}
}

// WithTimeout bounds each blocking store call. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) error {
		if timeout < 0 {
			return fmt.Errorf("timeout must not be negative: %s", timeout)
		}

		opts.Timeout = timeout
		return nil
	}
}

// WithGracePeriod sets the upper bound of the drain wait during teardown.
func WithGracePeriod(grace time.Duration) Option {
	return func(opts *Options) error {
		if grace < 0 {
			return fmt.Errorf("grace period must not be negative: %s", grace)
		}

		opts.GracePeriod = grace
		return nil
	}
}

// WithDebugLayout dumps the tree to w at the start of every teardown.
func WithDebugLayout(w io.Writer) Option {
	return func(opts *Options) error {
		opts.DebugOutput = w
		return nil
	}
}

// WithKeepTree leaves the namespace root in place during teardown, so a
// restarted server over the same data dir finds the bootstrapped tree.
func WithKeepTree() Option {
	return func(opts *Options) error {
		opts.KeepTree = true
		return nil
	}
}
