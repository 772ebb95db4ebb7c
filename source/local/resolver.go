package local

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mwantia/coordtree/data"
	dataerrors "github.com/mwantia/coordtree/data/errors"
)

// LocalResolver reads artifacts from "<home>/<collection>/conf/<name>".
type LocalResolver struct {
	home       string
	collection string
}

func NewLocalResolver(home, collection string) *LocalResolver {
	if collection == "" {
		collection = "collection1"
	}

	return &LocalResolver{
		home:       home,
		collection: collection,
	}
}

// Name returns the identifier name defined for this resolver.
func (*LocalResolver) Name() string {
	return "local"
}

func (r *LocalResolver) Locate(name string) string {
	return filepath.Join(r.home, r.collection, "conf", name)
}

func (r *LocalResolver) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := data.ValidateName(name); err != nil {
		return nil, err
	}

	location := r.Locate(name)
	content, err := os.ReadFile(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, dataerrors.SourceNotExist(data.ErrSourceNotExist, location)
		}
		return nil, err
	}

	return content, nil
}
