package store

import (
	"context"
)

// CreateMode controls the lifetime of a created node.
type CreateMode int

const (
	// Persistent nodes live until they are explicitly deleted.
	Persistent CreateMode = iota
	// Ephemeral nodes are removed when the creating session closes.
	Ephemeral
)

func (m CreateMode) String() string {
	switch m {
	case Persistent:
		return "persistent"
	case Ephemeral:
		return "ephemeral"
	default:
		return "unknown"
	}
}

// Store is a session against a coordination store exposing a tree of named nodes.
// Every call is synchronous and may fail with data.ErrConnectionLoss.
type Store interface {
	// Name returns the identifier name defined for this store.
	Name() string
	// Create adds a node at path. It fails with data.ErrNodeExists when the node is
	// present and with data.ErrNoNode when the parent is missing.
	Create(ctx context.Context, path string, payload []byte, mode CreateMode) error
	// Get returns the payload of the node at path.
	Get(ctx context.Context, path string) ([]byte, error)
	// Set replaces the payload of an existing node.
	Set(ctx context.Context, path string, payload []byte) error
	// Exists reports whether a node is present at path.
	Exists(ctx context.Context, path string) (bool, error)
	// Children returns the names of the direct children of path, sorted.
	Children(ctx context.Context, path string) ([]string, error)
	// Delete removes a childless node. It fails with data.ErrNotEmpty when children remain.
	Delete(ctx context.Context, path string) error
	// Close releases the session. Ephemeral nodes owned by it are removed.
	Close() error
}

// Dialer opens sessions against a store identified by an address.
type Dialer interface {
	Dial(ctx context.Context, address string) (Store, error)
}

// DialerFunc adapts a function into a Dialer.
type DialerFunc func(ctx context.Context, address string) (Store, error)

func (f DialerFunc) Dial(ctx context.Context, address string) (Store, error) {
	return f(ctx, address)
}
