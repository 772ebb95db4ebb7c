package memory

import (
	"context"

	"github.com/mwantia/coordtree/store"
)

// treeClient binds tree operations to the session that issues them.
type treeClient struct {
	tree    *Tree
	session string
}

func (*treeClient) Name() string {
	return "memory"
}

func (c *treeClient) Create(ctx context.Context, path string, payload []byte, mode store.CreateMode) error {
	return c.tree.create(ctx, c.session, path, payload, mode)
}

func (c *treeClient) Get(ctx context.Context, path string) ([]byte, error) {
	return c.tree.get(ctx, path)
}

func (c *treeClient) Set(ctx context.Context, path string, payload []byte) error {
	return c.tree.set(ctx, path, payload)
}

func (c *treeClient) Exists(ctx context.Context, path string) (bool, error) {
	return c.tree.exists(ctx, path)
}

func (c *treeClient) Children(ctx context.Context, path string) ([]string, error) {
	return c.tree.children(ctx, path)
}

func (c *treeClient) Delete(ctx context.Context, path string) error {
	return c.tree.delete(ctx, path)
}

func (c *treeClient) Close() error {
	return nil
}
