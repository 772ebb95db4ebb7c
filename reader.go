package coordtree

import (
	"context"
	"fmt"

	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/store"
)

// Reader answers the questions the tree exists for: which configuration
// set a collection uses and which files that set holds.
type Reader struct {
	store store.Store
}

func NewReader(s store.Store) *Reader {
	return &Reader{
		store: s,
	}
}

// Collections returns the names of all collections.
func (r *Reader) Collections(ctx context.Context) ([]string, error) {
	return r.store.Children(ctx, CollectionsRoot)
}

// CollectionConfigName returns the configuration set named by the
// descriptor of collection.
func (r *Reader) CollectionConfigName(ctx context.Context, collection string) (string, error) {
	if err := data.ValidateName(collection); err != nil {
		return "", err
	}

	payload, err := r.store.Get(ctx, data.JoinPath(CollectionsRoot, collection))
	if err != nil {
		return "", err
	}

	descriptor, err := data.ParseCollectionDescriptor(payload)
	if err != nil {
		return "", err
	}

	name := descriptor.ConfigName()
	if name == "" {
		return "", fmt.Errorf("%w: collection '%s' has no %s", data.ErrSerialization, collection, data.DescriptorConfigName)
	}

	return name, nil
}

// ConfigFiles returns the file names uploaded for configSet.
func (r *Reader) ConfigFiles(ctx context.Context, configSet string) ([]string, error) {
	if err := data.ValidateName(configSet); err != nil {
		return nil, err
	}

	return r.store.Children(ctx, data.JoinPath(ConfigsRoot, configSet))
}

// ConfigFile returns the content of a single uploaded file.
func (r *Reader) ConfigFile(ctx context.Context, configSet, fileName string) ([]byte, error) {
	if err := data.ValidateName(configSet); err != nil {
		return nil, err
	}
	if err := data.ValidateName(fileName); err != nil {
		return nil, err
	}

	return r.store.Get(ctx, ConfigPath(configSet, fileName))
}
