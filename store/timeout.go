package store

import (
	"context"
	"errors"
	"time"

	"github.com/mwantia/coordtree/data"
)

type timeoutStore struct {
	Store
	timeout time.Duration
}

// WithTimeout bounds every blocking call of s by timeout. A call that runs
// into the deadline fails with data.ErrConnectionLoss.
func WithTimeout(s Store, timeout time.Duration) Store {
	if timeout <= 0 {
		return s
	}

	return &timeoutStore{
		Store:   s,
		timeout: timeout,
	}
}

func (t *timeoutStore) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	err := fn(ctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, data.ErrConnectionLoss) {
		return errors.Join(data.ErrConnectionLoss, err)
	}

	return err
}

func (t *timeoutStore) Create(ctx context.Context, path string, payload []byte, mode CreateMode) error {
	return t.call(ctx, func(ctx context.Context) error {
		return t.Store.Create(ctx, path, payload, mode)
	})
}

func (t *timeoutStore) Get(ctx context.Context, path string) ([]byte, error) {
	var payload []byte
	err := t.call(ctx, func(ctx context.Context) (err error) {
		payload, err = t.Store.Get(ctx, path)
		return err
	})

	return payload, err
}

func (t *timeoutStore) Set(ctx context.Context, path string, payload []byte) error {
	return t.call(ctx, func(ctx context.Context) error {
		return t.Store.Set(ctx, path, payload)
	})
}

func (t *timeoutStore) Exists(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := t.call(ctx, func(ctx context.Context) (err error) {
		exists, err = t.Store.Exists(ctx, path)
		return err
	})

	return exists, err
}

func (t *timeoutStore) Children(ctx context.Context, path string) ([]string, error) {
	var children []string
	err := t.call(ctx, func(ctx context.Context) (err error) {
		children, err = t.Store.Children(ctx, path)
		return err
	})

	return children, err
}

func (t *timeoutStore) Delete(ctx context.Context, path string) error {
	return t.call(ctx, func(ctx context.Context) error {
		return t.Store.Delete(ctx, path)
	})
}
