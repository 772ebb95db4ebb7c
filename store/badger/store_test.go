package badger

import (
	"errors"
	"slices"
	"testing"

	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/store"
)

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	ctx := t.Context()
	dir := t.TempDir()

	s, err := NewBadgerStore(BadgerStoreConfig{Dir: dir})
	if err != nil {
		t.Fatalf("NewBadgerStore failed: %v", err)
	}

	for _, path := range []string{"/solr", "/solr/configs"} {
		if err := s.Create(ctx, path, []byte(path), store.Persistent); err != nil {
			t.Fatalf("Create %s failed: %v", path, err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewBadgerStore(BadgerStoreConfig{Dir: dir})
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "/solr/configs")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "/solr/configs" {
		t.Errorf("Expected '/solr/configs', got %q", got)
	}

	children, err := reopened.Children(ctx, "/")
	if err != nil {
		t.Fatalf("Children failed: %v", err)
	}
	if !slices.Equal(children, []string{"solr"}) {
		t.Errorf("Expected [solr], got %v", children)
	}
}

func TestBadgerStore_ChildIndexFollowsDelete(t *testing.T) {
	ctx := t.Context()

	s, err := NewBadgerStore(BadgerStoreConfig{})
	if err != nil {
		t.Fatalf("NewBadgerStore failed: %v", err)
	}
	defer s.Close()

	// "a" and "a.b" share a byte prefix but are siblings, not parent and child
	for _, path := range []string{"/a", "/a.b", "/a/c"} {
		if err := s.Create(ctx, path, nil, store.Persistent); err != nil {
			t.Fatalf("Create %s failed: %v", path, err)
		}
	}

	children, err := s.Children(ctx, "/a")
	if err != nil {
		t.Fatalf("Children failed: %v", err)
	}
	if !slices.Equal(children, []string{"c"}) {
		t.Errorf("Expected [c], got %v", children)
	}

	if err := s.Delete(ctx, "/a/c"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	children, err = s.Children(ctx, "/a")
	if err != nil {
		t.Fatalf("Children failed: %v", err)
	}
	if len(children) != 0 {
		t.Errorf("Expected no children, got %v", children)
	}
}

func TestBadgerStore_RejectsEphemeral(t *testing.T) {
	s, err := NewBadgerStore(BadgerStoreConfig{})
	if err != nil {
		t.Fatalf("NewBadgerStore failed: %v", err)
	}
	defer s.Close()

	if err := s.Create(t.Context(), "/live", nil, store.Ephemeral); !errors.Is(err, data.ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
}

func TestBadgerStore_ClosedIsConnectionLoss(t *testing.T) {
	s, err := NewBadgerStore(BadgerStoreConfig{})
	if err != nil {
		t.Fatalf("NewBadgerStore failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := s.Create(t.Context(), "/late", nil, store.Persistent); !errors.Is(err, data.ErrConnectionLoss) {
		t.Errorf("Expected ErrConnectionLoss, got %v", err)
	}
}
