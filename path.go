package coordtree

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/store"
)

// PathResult tells which branch EnsurePath took.
type PathResult int

const (
	PathFailed PathResult = iota
	PathCreated
	PathExisted
	PathUpdated
)

func (r PathResult) String() string {
	switch r {
	case PathCreated:
		return "created"
	case PathExisted:
		return "existed"
	case PathUpdated:
		return "updated"
	default:
		return "failed"
	}
}

// EnsurePath makes sure a node exists at path. Missing ancestors are created
// shallowest first with an empty payload. The payload is only written to the
// final node: on creation, or on an existing node when WithOverwrite is given.
// An existing node keeps its payload otherwise.
func EnsurePath(ctx context.Context, s store.Store, path string, payload []byte, opts ...PathOption) (PathResult, error) {
	options := newDefaultPathOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return PathFailed, err
		}
	}

	if err := data.ValidatePath(path); err != nil {
		return PathFailed, err
	}

	if options.Intermediates {
		for _, ancestor := range data.Ancestors(path) {
			// Someone else may have created it in the meantime
			err := s.Create(ctx, ancestor, nil, store.Persistent)
			if err != nil && !errors.Is(err, data.ErrNodeExists) {
				return PathFailed, fmt.Errorf("failed to create ancestor '%s': %w", ancestor, err)
			}
		}
	}

	err := s.Create(ctx, path, payload, options.Mode)
	if err == nil {
		return PathCreated, nil
	}

	if !errors.Is(err, data.ErrNodeExists) || options.FailOnExists {
		return PathFailed, err
	}

	if !options.Overwrite {
		return PathExisted, nil
	}

	if err := s.Set(ctx, path, payload); err != nil {
		return PathFailed, fmt.Errorf("failed to overwrite '%s': %w", path, err)
	}

	return PathUpdated, nil
}
