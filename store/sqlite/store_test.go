package sqlite

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/store"
)

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := t.Context()
	dbPath := filepath.Join(t.TempDir(), "tree.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}

	if err := s.Create(ctx, "/solr", []byte("root"), store.Persistent); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "/solr")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "root" {
		t.Errorf("Expected 'root', got %q", got)
	}
}

func TestSQLiteStore_InMemory(t *testing.T) {
	ctx := t.Context()

	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	if err := s.Create(ctx, "/a", nil, store.Persistent); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	exists, err := s.Exists(ctx, "/a")
	if err != nil || !exists {
		t.Errorf("Expected /a to exist, exists=%v err=%v", exists, err)
	}

	if err := s.Create(ctx, "/eph", nil, store.Ephemeral); !errors.Is(err, data.ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
}

func TestDialer_SharesDatabaseFile(t *testing.T) {
	ctx := t.Context()
	dialer := Dialer(filepath.Join(t.TempDir(), "tree.db"))

	host, err := dialer.Dial(ctx, "sqlite")
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer host.Close()

	if err := host.Create(ctx, "/solr", nil, store.Persistent); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	client, err := dialer.Dial(ctx, "sqlite/solr")
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	if err := client.Create(ctx, "/collections", nil, store.Persistent); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	exists, err := host.Exists(ctx, "/solr/collections")
	if err != nil || !exists {
		t.Errorf("Expected chrooted node visible to host session, exists=%v err=%v", exists, err)
	}
}
