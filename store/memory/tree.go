package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/data/errors"
	"github.com/mwantia/coordtree/store"
	"github.com/tidwall/btree"
)

type node struct {
	payload []byte
	owner   string

	version    int64
	createTime time.Time
	modifyTime time.Time
}

// Tree is an in-process coordination tree shared by any number of sessions.
//
// Nodes are kept in a B-tree ordered by path, so the children of a node are
// the contiguous range of keys prefixed with "<path>/". The root node always
// exists and cannot be deleted.
type Tree struct {
	mu    sync.RWMutex
	nodes *btree.Map[string, *node]
}

func NewTree() *Tree {
	t := &Tree{
		nodes: btree.NewMap[string, *node](0),
	}

	now := time.Now()
	t.nodes.Set(data.RootPath, &node{
		createTime: now,
		modifyTime: now,
	})

	return t
}

// Open starts a new session against the tree.
func (t *Tree) Open() *store.Session {
	id := uuid.Must(uuid.NewV7()).String()
	client := &treeClient{tree: t, session: id}

	return store.NewSession(id, client, func() error {
		t.removeEphemeral(id)
		return nil
	})
}

// Dialer returns a dialer opening sessions on this tree, honouring the
// chroot part of the address.
func (t *Tree) Dialer() store.Dialer {
	return store.DialerFunc(func(ctx context.Context, address string) (store.Store, error) {
		addr, err := store.ParseAddress(address)
		if err != nil {
			return nil, err
		}

		return store.Chroot(t.Open(), addr.Chroot), nil
	})
}

// Len returns the number of nodes including the root.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.nodes.Len()
}

func (t *Tree) check(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return data.ValidatePath(path)
}

func childPrefix(path string) string {
	if path == data.RootPath {
		return path
	}

	return path + "/"
}

// scanChildren calls fn for every direct child of path in order.
// Must be called with lock held.
func (t *Tree) scanChildren(path string, fn func(name string) bool) {
	prefix := childPrefix(path)

	t.nodes.Ascend(prefix, func(key string, _ *node) bool {
		if !strings.HasPrefix(key, prefix) {
			return false
		}

		rest := key[len(prefix):]
		if rest == "" || strings.Contains(rest, "/") {
			return true
		}

		return fn(rest)
	})
}

func (t *Tree) removeEphemeral(session string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var owned []string
	t.nodes.Scan(func(key string, n *node) bool {
		if n.owner == session {
			owned = append(owned, key)
		}
		return true
	})

	// Ephemeral nodes cannot have children, so order does not matter.
	for _, key := range owned {
		t.nodes.Delete(key)
	}
}

func (t *Tree) create(ctx context.Context, session, path string, payload []byte, mode store.CreateMode) error {
	if err := t.check(ctx, path); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.nodes.Get(path); exists {
		return errors.NodeExists(data.ErrNodeExists, path)
	}

	parentPath := data.ParentPath(path)
	parent, exists := t.nodes.Get(parentPath)
	if !exists {
		return errors.NoNode(data.ErrNoNode, parentPath)
	}

	if parent.owner != "" {
		return errors.Unsupported(data.ErrUnsupported, "memory", "children of ephemeral nodes")
	}

	now := time.Now()
	n := &node{
		payload:    clone(payload),
		createTime: now,
		modifyTime: now,
	}
	if mode == store.Ephemeral {
		n.owner = session
	}

	t.nodes.Set(path, n)
	return nil
}

func (t *Tree) get(ctx context.Context, path string) ([]byte, error) {
	if err := t.check(ctx, path); err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	n, exists := t.nodes.Get(path)
	if !exists {
		return nil, errors.NoNode(data.ErrNoNode, path)
	}

	return clone(n.payload), nil
}

func (t *Tree) set(ctx context.Context, path string, payload []byte) error {
	if err := t.check(ctx, path); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	n, exists := t.nodes.Get(path)
	if !exists {
		return errors.NoNode(data.ErrNoNode, path)
	}

	n.payload = clone(payload)
	n.version++
	n.modifyTime = time.Now()

	return nil
}

func (t *Tree) exists(ctx context.Context, path string) (bool, error) {
	if err := t.check(ctx, path); err != nil {
		return false, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	_, exists := t.nodes.Get(path)
	return exists, nil
}

func (t *Tree) children(ctx context.Context, path string) ([]string, error) {
	if err := t.check(ctx, path); err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if _, exists := t.nodes.Get(path); !exists {
		return nil, errors.NoNode(data.ErrNoNode, path)
	}

	children := make([]string, 0)
	t.scanChildren(path, func(name string) bool {
		children = append(children, name)
		return true
	})

	return children, nil
}

func (t *Tree) delete(ctx context.Context, path string) error {
	if err := t.check(ctx, path); err != nil {
		return err
	}

	if path == data.RootPath {
		return errors.Unsupported(data.ErrUnsupported, "memory", "deleting the root node")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.nodes.Get(path); !exists {
		return errors.NoNode(data.ErrNoNode, path)
	}

	count := 0
	t.scanChildren(path, func(string) bool {
		count++
		return true
	})
	if count > 0 {
		return errors.NotEmpty(data.ErrNotEmpty, path, count)
	}

	t.nodes.Delete(path)
	return nil
}

// Stat returns the bookkeeping of the node at path.
func (t *Tree) Stat(path string) (data.NodeStat, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, exists := t.nodes.Get(path)
	if !exists {
		return data.NodeStat{}, errors.NoNode(data.ErrNoNode, path)
	}

	stat := data.NodeStat{
		CreateTime: n.createTime,
		ModifyTime: n.modifyTime,
		Version:    n.version,
		DataLength: len(n.payload),
		Ephemeral:  n.owner != "",
	}
	t.scanChildren(path, func(string) bool {
		stat.NumChildren++
		return true
	})

	return stat, nil
}

func clone(payload []byte) []byte {
	if payload == nil {
		return nil
	}

	return append([]byte(nil), payload...)
}
