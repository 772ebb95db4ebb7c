package coordtree

import (
	"context"
	"errors"
	"time"

	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/store"
)

// CleanSubtree deletes root and everything beneath it, children first, and
// returns the number of deleted nodes. A missing root is a no-op. Cleaning
// "/" removes all children but keeps the root itself.
//
// On error the subtree may be partially deleted and must be considered
// dirty.
func CleanSubtree(ctx context.Context, s store.Store, root string) (int, error) {
	if err := data.ValidatePath(root); err != nil {
		return 0, err
	}

	exists, err := s.Exists(ctx, root)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	return cleanNode(ctx, s, root)
}

func cleanNode(ctx context.Context, s store.Store, path string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	children, err := s.Children(ctx, path)
	if err != nil {
		if errors.Is(err, data.ErrNoNode) {
			return 0, nil
		}
		return 0, err
	}

	deleted := 0
	for _, child := range children {
		n, err := cleanNode(ctx, s, data.JoinPath(path, child))
		deleted += n
		if err != nil {
			return deleted, err
		}
	}

	if path == data.RootPath {
		return deleted, nil
	}

	if err := s.Delete(ctx, path); err != nil {
		if errors.Is(err, data.ErrNoNode) {
			return deleted, nil
		}
		return deleted, err
	}

	return deleted + 1, nil
}

// TryCleanPath opens a session on address, cleans path if it exists and
// closes the session again.
func TryCleanPath(ctx context.Context, dialer store.Dialer, address, path string, timeout time.Duration) (int, error) {
	var deleted int
	err := withSession(ctx, dialer, address, timeout, func(s store.Store) (err error) {
		deleted, err = CleanSubtree(ctx, s, path)
		return err
	})

	return deleted, err
}
