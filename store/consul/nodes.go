package consul

import (
	"context"
	"slices"
	"strings"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/coordtree/data"
	dataerrors "github.com/mwantia/coordtree/data/errors"
	"github.com/mwantia/coordtree/store"
)

func (cs *ConsulStore) Create(ctx context.Context, path string, payload []byte, mode store.CreateMode) error {
	if err := data.ValidatePath(path); err != nil {
		return err
	}

	if mode == store.Ephemeral {
		return dataerrors.Unsupported(data.ErrUnsupported, cs.Name(), "ephemeral nodes")
	}

	if path == data.RootPath {
		return dataerrors.NodeExists(data.ErrNodeExists, path)
	}

	if len(payload) > MaxPayloadSize {
		return dataerrors.PayloadTooLarge(data.ErrPayloadTooLarge, path, len(payload), MaxPayloadSize)
	}

	parent := data.ParentPath(path)
	exists, err := cs.Exists(ctx, parent)
	if err != nil {
		return err
	}
	if !exists {
		return dataerrors.NoNode(data.ErrNoNode, parent)
	}

	// ModifyIndex 0 makes the write succeed only if the key does not exist
	pair := &api.KVPair{
		Key:         cs.buildKey(path),
		Value:       payload,
		ModifyIndex: 0,
	}

	created, _, err := cs.kv.CAS(pair, cs.writeOptions(ctx))
	if err != nil {
		return cs.wrap(err)
	}
	if !created {
		return dataerrors.NodeExists(data.ErrNodeExists, path)
	}

	return nil
}

func (cs *ConsulStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := data.ValidatePath(path); err != nil {
		return nil, err
	}

	if path == data.RootPath {
		return nil, nil
	}

	pair, _, err := cs.kv.Get(cs.buildKey(path), cs.queryOptions(ctx))
	if err != nil {
		return nil, cs.wrap(err)
	}
	if pair == nil {
		return nil, dataerrors.NoNode(data.ErrNoNode, path)
	}

	return pair.Value, nil
}

func (cs *ConsulStore) Set(ctx context.Context, path string, payload []byte) error {
	if err := data.ValidatePath(path); err != nil {
		return err
	}

	if path == data.RootPath {
		return dataerrors.Unsupported(data.ErrUnsupported, cs.Name(), "payloads on the root node")
	}

	if len(payload) > MaxPayloadSize {
		return dataerrors.PayloadTooLarge(data.ErrPayloadTooLarge, path, len(payload), MaxPayloadSize)
	}

	pair, _, err := cs.kv.Get(cs.buildKey(path), cs.queryOptions(ctx))
	if err != nil {
		return cs.wrap(err)
	}
	if pair == nil {
		return dataerrors.NoNode(data.ErrNoNode, path)
	}

	pair.Value = payload
	if _, err := cs.kv.Put(pair, cs.writeOptions(ctx)); err != nil {
		return cs.wrap(err)
	}

	return nil
}

func (cs *ConsulStore) Exists(ctx context.Context, path string) (bool, error) {
	if err := data.ValidatePath(path); err != nil {
		return false, err
	}

	if path == data.RootPath {
		return true, nil
	}

	pair, _, err := cs.kv.Get(cs.buildKey(path), cs.queryOptions(ctx))
	if err != nil {
		return false, cs.wrap(err)
	}

	return pair != nil, nil
}

func (cs *ConsulStore) Children(ctx context.Context, path string) ([]string, error) {
	exists, err := cs.Exists(ctx, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, dataerrors.NoNode(data.ErrNoNode, path)
	}

	return cs.children(ctx, path)
}

// children lists direct child names without checking that path exists.
func (cs *ConsulStore) children(ctx context.Context, path string) ([]string, error) {
	prefix := cs.childPrefix(path)

	// Separator "/" folds deeper keys into "<child>/" entries
	keys, _, err := cs.kv.Keys(prefix, "/", cs.queryOptions(ctx))
	if err != nil {
		return nil, cs.wrap(err)
	}

	children := make([]string, 0, len(keys))
	for _, key := range keys {
		name := strings.TrimSuffix(strings.TrimPrefix(key, prefix), "/")
		if name == "" || slices.Contains(children, name) {
			continue
		}
		children = append(children, name)
	}

	slices.Sort(children)
	return children, nil
}

func (cs *ConsulStore) Delete(ctx context.Context, path string) error {
	if err := data.ValidatePath(path); err != nil {
		return err
	}

	if path == data.RootPath {
		return dataerrors.Unsupported(data.ErrUnsupported, cs.Name(), "deleting the root node")
	}

	exists, err := cs.Exists(ctx, path)
	if err != nil {
		return err
	}
	if !exists {
		return dataerrors.NoNode(data.ErrNoNode, path)
	}

	children, err := cs.children(ctx, path)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return dataerrors.NotEmpty(data.ErrNotEmpty, path, len(children))
	}

	if _, err := cs.kv.Delete(cs.buildKey(path), cs.writeOptions(ctx)); err != nil {
		return cs.wrap(err)
	}

	return nil
}
