package embedded

import "github.com/mwantia/coordtree/log"

type EmbeddedServerOptions struct {
	Chroot  string
	DataDir string
	Logger  *log.Logger
}

type EmbeddedServerOption func(*EmbeddedServerOptions) error

func newDefaultEmbeddedServerOptions() *EmbeddedServerOptions {
	return &EmbeddedServerOptions{
		Chroot: "/solr",
		Logger: log.NewDiscard(),
	}
}

// WithChroot sets the suffix appended to the client address. An empty
// chroot makes client and host-only addresses identical.
func WithChroot(chroot string) EmbeddedServerOption {
	return func(opts *EmbeddedServerOptions) error {
		opts.Chroot = chroot
		return nil
	}
}

// WithDataDir persists the tree in a SQLite database inside dir.
func WithDataDir(dir string) EmbeddedServerOption {
	return func(opts *EmbeddedServerOptions) error {
		opts.DataDir = dir
		return nil
	}
}

func WithLogger(logger *log.Logger) EmbeddedServerOption {
	return func(opts *EmbeddedServerOptions) error {
		if logger != nil {
			opts.Logger = logger
		}
		return nil
	}
}
