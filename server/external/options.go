package external

import "github.com/mwantia/coordtree/log"

type ExternalServerOptions struct {
	Chroot string
	Logger *log.Logger
}

type ExternalServerOption func(*ExternalServerOptions) error

func newDefaultExternalServerOptions() *ExternalServerOptions {
	return &ExternalServerOptions{
		Chroot: "/solr",
		Logger: log.NewDiscard(),
	}
}

func WithChroot(chroot string) ExternalServerOption {
	return func(opts *ExternalServerOptions) error {
		opts.Chroot = chroot
		return nil
	}
}

func WithLogger(logger *log.Logger) ExternalServerOption {
	return func(opts *ExternalServerOptions) error {
		if logger != nil {
			opts.Logger = logger
		}
		return nil
	}
}
