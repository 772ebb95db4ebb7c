package bundle

import (
	"context"
	"errors"
	"io/fs"
	"path"

	"github.com/mwantia/coordtree/data"
	dataerrors "github.com/mwantia/coordtree/data/errors"
)

// BundleResolver reads artifacts below dir of a file system, typically an
// embed.FS shipped with the binary.
type BundleResolver struct {
	fsys fs.FS
	dir  string
}

func NewBundleResolver(fsys fs.FS, dir string) *BundleResolver {
	if dir == "" {
		dir = "."
	}

	return &BundleResolver{
		fsys: fsys,
		dir:  dir,
	}
}

// Name returns the identifier name defined for this resolver.
func (*BundleResolver) Name() string {
	return "bundle"
}

func (r *BundleResolver) Locate(name string) string {
	return path.Join(r.dir, name)
}

func (r *BundleResolver) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := data.ValidateName(name); err != nil {
		return nil, err
	}

	location := r.Locate(name)
	content, err := fs.ReadFile(r.fsys, location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, dataerrors.SourceNotExist(data.ErrSourceNotExist, location)
		}
		return nil, err
	}

	return content, nil
}
