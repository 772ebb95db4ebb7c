package embedded

import (
	"context"

	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/data/errors"
	"github.com/mwantia/coordtree/store"
)

// gatedStore fails every call with data.ErrConnectionLoss while the server is stopped.
type gatedStore struct {
	store.Store
	server *EmbeddedServer
}

func (g *gatedStore) check() error {
	if !g.server.isRunning() {
		return errors.ConnectionLoss(data.ErrConnectionLoss, data.ErrServerNotRunning, g.server.HostOnlyAddress())
	}

	return nil
}

func (g *gatedStore) Create(ctx context.Context, path string, payload []byte, mode store.CreateMode) error {
	if err := g.check(); err != nil {
		return err
	}

	return g.Store.Create(ctx, path, payload, mode)
}

func (g *gatedStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := g.check(); err != nil {
		return nil, err
	}

	return g.Store.Get(ctx, path)
}

func (g *gatedStore) Set(ctx context.Context, path string, payload []byte) error {
	if err := g.check(); err != nil {
		return err
	}

	return g.Store.Set(ctx, path, payload)
}

func (g *gatedStore) Exists(ctx context.Context, path string) (bool, error) {
	if err := g.check(); err != nil {
		return false, err
	}

	return g.Store.Exists(ctx, path)
}

func (g *gatedStore) Children(ctx context.Context, path string) ([]string, error) {
	if err := g.check(); err != nil {
		return nil, err
	}

	return g.Store.Children(ctx, path)
}

func (g *gatedStore) Delete(ctx context.Context, path string) error {
	if err := g.check(); err != nil {
		return err
	}

	return g.Store.Delete(ctx, path)
}
