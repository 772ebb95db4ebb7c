package coordtree_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/mwantia/coordtree"
	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/store"
	"github.com/mwantia/coordtree/store/memory"
)

func TestEnsurePath_CreatesAncestorsInOrder(t *testing.T) {
	ctx := t.Context()
	s := newRecordingStore(memory.NewTree().Open())
	defer s.Close()

	result, err := coordtree.EnsurePath(ctx, s, "/configs/conf1/schema.xml", []byte("<schema/>"))
	if err != nil {
		t.Fatalf("EnsurePath failed: %v", err)
	}
	if result != coordtree.PathCreated {
		t.Errorf("Expected %s, got %s", coordtree.PathCreated, result)
	}

	expected := []string{
		"create /configs",
		"create /configs/conf1",
		"create /configs/conf1/schema.xml",
	}
	if !slices.Equal(s.Calls(), expected) {
		t.Errorf("Expected calls %v, got %v", expected, s.Calls())
	}
	if len(s.orphans) > 0 {
		t.Errorf("Expected no create without parent, got %v", s.orphans)
	}

	if got := mustGet(t, s, "/configs/conf1"); len(got) != 0 {
		t.Errorf("Expected empty ancestor payload, got %q", got)
	}
	if got := mustGet(t, s, "/configs/conf1/schema.xml"); string(got) != "<schema/>" {
		t.Errorf("Expected payload on final node, got %q", got)
	}
}

func TestEnsurePath_ExistingNode(t *testing.T) {
	ctx := t.Context()
	s := memory.NewTree().Open()
	defer s.Close()

	if _, err := coordtree.EnsurePath(ctx, s, "/collections/collection1", []byte("first")); err != nil {
		t.Fatalf("EnsurePath failed: %v", err)
	}

	result, err := coordtree.EnsurePath(ctx, s, "/collections/collection1", []byte("second"))
	if err != nil {
		t.Fatalf("EnsurePath on existing node failed: %v", err)
	}
	if result != coordtree.PathExisted {
		t.Errorf("Expected %s, got %s", coordtree.PathExisted, result)
	}
	if got := mustGet(t, s, "/collections/collection1"); string(got) != "first" {
		t.Errorf("Expected preserved payload 'first', got %q", got)
	}

	result, err = coordtree.EnsurePath(ctx, s, "/collections/collection1", []byte("third"), coordtree.WithOverwrite())
	if err != nil {
		t.Fatalf("EnsurePath with overwrite failed: %v", err)
	}
	if result != coordtree.PathUpdated {
		t.Errorf("Expected %s, got %s", coordtree.PathUpdated, result)
	}
	if got := mustGet(t, s, "/collections/collection1"); string(got) != "third" {
		t.Errorf("Expected overwritten payload 'third', got %q", got)
	}

	_, err = coordtree.EnsurePath(ctx, s, "/collections/collection1", nil, coordtree.WithFailOnExists())
	if !errors.Is(err, data.ErrNodeExists) {
		t.Errorf("Expected ErrNodeExists, got %v", err)
	}
}

func TestEnsurePath_WithoutIntermediates(t *testing.T) {
	ctx := t.Context()
	s := memory.NewTree().Open()
	defer s.Close()

	_, err := coordtree.EnsurePath(ctx, s, "/collections/collection1/shards", nil, coordtree.WithoutIntermediates())
	if !errors.Is(err, data.ErrNoNode) {
		t.Errorf("Expected ErrNoNode, got %v", err)
	}
	mustExist(t, s, "/collections", false)
}

func TestEnsurePath_InvalidPath(t *testing.T) {
	s := memory.NewTree().Open()
	defer s.Close()

	for _, path := range []string{"", "solr", "/solr/", "/solr//collections", "/solr/../etc"} {
		result, err := coordtree.EnsurePath(t.Context(), s, path, nil)
		if !errors.Is(err, data.ErrInvalidPath) {
			t.Errorf("Expected ErrInvalidPath for %q, got %v", path, err)
		}
		if result != coordtree.PathFailed {
			t.Errorf("Expected %s for %q, got %s", coordtree.PathFailed, path, result)
		}
	}
}

func TestEnsurePath_Ephemeral(t *testing.T) {
	ctx := t.Context()
	tree := memory.NewTree()

	s := tree.Open()
	if _, err := coordtree.EnsurePath(ctx, s, "/live_nodes/node1", nil, coordtree.WithCreateMode(store.Ephemeral)); err != nil {
		t.Fatalf("EnsurePath failed: %v", err)
	}

	stat, err := tree.Stat("/live_nodes")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if stat.Ephemeral {
		t.Errorf("Expected ancestor to be persistent")
	}

	s.Close()

	if _, err := tree.Stat("/live_nodes/node1"); !errors.Is(err, data.ErrNoNode) {
		t.Errorf("Expected ephemeral node to be gone after close, got %v", err)
	}
}

func TestEnsurePath_ConnectionLoss(t *testing.T) {
	s := &failingStore{err: data.ErrConnectionLoss}

	result, err := coordtree.EnsurePath(t.Context(), s, "/solr/collections", nil)
	if !errors.Is(err, data.ErrConnectionLoss) {
		t.Errorf("Expected ErrConnectionLoss, got %v", err)
	}
	if result != coordtree.PathFailed {
		t.Errorf("Expected %s, got %s", coordtree.PathFailed, result)
	}
}
