package coordtree_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mwantia/coordtree"
	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/store"
	"github.com/mwantia/coordtree/store/memory"
)

func buildTree(t *testing.T, s store.Store, paths ...string) {
	t.Helper()

	for _, path := range paths {
		if _, err := coordtree.EnsurePath(t.Context(), s, path, []byte(path)); err != nil {
			t.Fatalf("EnsurePath '%s' failed: %v", path, err)
		}
	}
}

func TestCleanSubtree_RemovesEverything(t *testing.T) {
	ctx := t.Context()
	tree := memory.NewTree()
	s := newRecordingStore(tree.Open())
	defer s.Close()

	buildTree(t, s,
		"/solr/collections/collection1/shards",
		"/solr/collections/control_collection/shards",
		"/solr/configs/conf1/schema.xml",
		"/other",
	)

	before := len(s.Calls())
	deleted, err := coordtree.CleanSubtree(ctx, s, "/solr")
	if err != nil {
		t.Fatalf("CleanSubtree failed: %v", err)
	}
	if deleted != 9 {
		t.Errorf("Expected 9 deleted nodes, got %d", deleted)
	}

	calls := s.Calls()[before:]
	if calls[len(calls)-1] != "delete /solr" {
		t.Errorf("Expected root to be deleted last, got %v", calls)
	}

	mustExist(t, s, "/solr", false)
	mustExist(t, s, "/other", true)

	if tree.Len() != 2 {
		t.Errorf("Expected only root and /other to remain, got %d nodes", tree.Len())
	}
}

func TestCleanSubtree_AbsentIsNoop(t *testing.T) {
	s := newRecordingStore(memory.NewTree().Open())
	defer s.Close()

	deleted, err := coordtree.CleanSubtree(t.Context(), s, "/solr")
	if err != nil {
		t.Fatalf("CleanSubtree failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected nothing deleted, got %d", deleted)
	}
	if len(s.Calls()) != 0 {
		t.Errorf("Expected zero mutations, got %v", s.Calls())
	}
}

func TestCleanSubtree_RootKeepsRootNode(t *testing.T) {
	tree := memory.NewTree()
	s := tree.Open()
	defer s.Close()

	buildTree(t, s, "/solr/collections", "/zookeeper")

	deleted, err := coordtree.CleanSubtree(t.Context(), s, "/")
	if err != nil {
		t.Fatalf("CleanSubtree failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 deleted nodes, got %d", deleted)
	}

	children, err := s.Children(t.Context(), "/")
	if err != nil {
		t.Fatalf("Children failed: %v", err)
	}
	if len(children) != 0 {
		t.Errorf("Expected empty root, got %v", children)
	}
}

// vanishingStore deletes a node behind the cleaner's back right before the
// cleaner tries to.
type vanishingStore struct {
	store.Store
	path string
}

func (v *vanishingStore) Children(ctx context.Context, path string) ([]string, error) {
	if path == v.path {
		if err := v.Store.Delete(ctx, path); err != nil {
			return nil, err
		}
	}

	return v.Store.Children(ctx, path)
}

func TestCleanSubtree_ToleratesConcurrentRemoval(t *testing.T) {
	s := memory.NewTree().Open()
	defer s.Close()

	buildTree(t, s, "/solr/a", "/solr/b")

	deleted, err := coordtree.CleanSubtree(t.Context(), &vanishingStore{Store: s, path: "/solr/a"}, "/solr")
	if err != nil {
		t.Fatalf("CleanSubtree failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted nodes, got %d", deleted)
	}
	mustExist(t, s, "/solr", false)
}

func TestCleanSubtree_ConnectionLoss(t *testing.T) {
	_, err := coordtree.CleanSubtree(t.Context(), &failingStore{err: data.ErrConnectionLoss}, "/solr")
	if !errors.Is(err, data.ErrConnectionLoss) {
		t.Errorf("Expected ErrConnectionLoss, got %v", err)
	}
}

func TestTryCleanPath(t *testing.T) {
	ctx := t.Context()
	tree := memory.NewTree()

	s := tree.Open()
	buildTree(t, s, "/solr/collections/collection1")
	s.Close()

	deleted, err := coordtree.TryCleanPath(ctx, tree.Dialer(), "localhost:2181", "/solr", coordtree.DefaultTimeout)
	if err != nil {
		t.Fatalf("TryCleanPath failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 deleted nodes, got %d", deleted)
	}

	deleted, err = coordtree.TryCleanPath(ctx, tree.Dialer(), "localhost:2181", "/solr", coordtree.DefaultTimeout)
	if err != nil || deleted != 0 {
		t.Errorf("Expected no-op on second clean, got %d, %v", deleted, err)
	}
}
