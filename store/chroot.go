package store

import (
	"context"
	"strings"

	"github.com/mwantia/coordtree/data"
)

type chrootStore struct {
	Store
	root string
}

// Chroot resolves every path of s beneath root. An empty root or "/"
// returns s unchanged.
func Chroot(s Store, root string) Store {
	if root == "" || root == data.RootPath {
		return s
	}

	return &chrootStore{
		Store: s,
		root:  strings.TrimSuffix(root, "/"),
	}
}

func (c *chrootStore) resolve(path string) (string, error) {
	if err := data.ValidatePath(path); err != nil {
		return "", err
	}

	if path == data.RootPath {
		return c.root, nil
	}

	return c.root + path, nil
}

func (c *chrootStore) Create(ctx context.Context, path string, payload []byte, mode CreateMode) error {
	full, err := c.resolve(path)
	if err != nil {
		return err
	}

	return c.Store.Create(ctx, full, payload, mode)
}

func (c *chrootStore) Get(ctx context.Context, path string) ([]byte, error) {
	full, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	return c.Store.Get(ctx, full)
}

func (c *chrootStore) Set(ctx context.Context, path string, payload []byte) error {
	full, err := c.resolve(path)
	if err != nil {
		return err
	}

	return c.Store.Set(ctx, full, payload)
}

func (c *chrootStore) Exists(ctx context.Context, path string) (bool, error) {
	full, err := c.resolve(path)
	if err != nil {
		return false, err
	}

	return c.Store.Exists(ctx, full)
}

func (c *chrootStore) Children(ctx context.Context, path string) ([]string, error) {
	full, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	return c.Store.Children(ctx, full)
}

func (c *chrootStore) Delete(ctx context.Context, path string) error {
	full, err := c.resolve(path)
	if err != nil {
		return err
	}

	return c.Store.Delete(ctx, full)
}
