// Package source resolves configuration artifacts by config-set and file
// name. Resolvers report missing artifacts with data.ErrSourceNotExist so
// callers can skip them.
package source

import (
	"context"
	"errors"
	"io/fs"

	"github.com/mwantia/coordtree/data"
)

// Resolver locates and reads the bytes of configuration artifacts.
type Resolver interface {
	// Name returns the identifier name defined for this resolver.
	Name() string
	// Locate returns a human readable location of the artifact, used in logs.
	Locate(name string) string
	// Read returns the full artifact. A missing artifact fails with data.ErrSourceNotExist.
	Read(ctx context.Context, name string) ([]byte, error)
}

// IsNotExist reports whether err means that the artifact is absent.
func IsNotExist(err error) bool {
	return errors.Is(err, data.ErrSourceNotExist) || errors.Is(err, fs.ErrNotExist)
}
