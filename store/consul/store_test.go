package consul

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/store"
	"github.com/mwantia/coordtree/store/consul/consultest"
)

func TestConsulStore_KeyLayout(t *testing.T) {
	ctx := t.Context()
	srv := consultest.NewServer(t)

	cs, err := NewConsulStore(&ConsulStoreConfig{Address: srv.Address(), Prefix: "/clusters/test/"})
	if err != nil {
		t.Fatalf("NewConsulStore failed: %v", err)
	}

	for _, path := range []string{"/solr", "/solr/collections"} {
		if err := cs.Create(ctx, path, nil, store.Persistent); err != nil {
			t.Fatalf("Create %s failed: %v", path, err)
		}
	}

	expected := []string{"clusters/test/solr", "clusters/test/solr/collections"}
	if keys := srv.Keys(); !slices.Equal(keys, expected) {
		t.Errorf("Expected keys %v, got %v", expected, keys)
	}
}

func TestConsulStore_PayloadLimit(t *testing.T) {
	ctx := t.Context()
	srv := consultest.NewServer(t)

	cs, err := NewConsulStore(&ConsulStoreConfig{Address: srv.Address()})
	if err != nil {
		t.Fatalf("NewConsulStore failed: %v", err)
	}

	large := bytes.Repeat([]byte("x"), MaxPayloadSize+1)
	if err := cs.Create(ctx, "/big", large, store.Persistent); !errors.Is(err, data.ErrPayloadTooLarge) {
		t.Errorf("Expected ErrPayloadTooLarge, got %v", err)
	}

	if srv.Writes() != 0 {
		t.Errorf("Expected no writes, got %d", srv.Writes())
	}
}

func TestConsulStore_ConnectionLoss(t *testing.T) {
	ctx := t.Context()
	srv := consultest.NewServer(t)

	cs, err := NewConsulStore(&ConsulStoreConfig{Address: srv.Address()})
	if err != nil {
		t.Fatalf("NewConsulStore failed: %v", err)
	}

	srv.SetOffline(true)

	if _, err := cs.Exists(ctx, "/solr"); !errors.Is(err, data.ErrConnectionLoss) {
		t.Errorf("Expected ErrConnectionLoss, got %v", err)
	}
	if err := cs.Ping(ctx); !errors.Is(err, data.ErrConnectionLoss) {
		t.Errorf("Expected ErrConnectionLoss from ping, got %v", err)
	}

	srv.Close()
	srv.SetOffline(false)

	if _, err := cs.Exists(ctx, "/solr"); !errors.Is(err, data.ErrConnectionLoss) {
		t.Errorf("Expected ErrConnectionLoss after shutdown, got %v", err)
	}
}

func TestConsulStore_Ephemeral(t *testing.T) {
	srv := consultest.NewServer(t)

	cs, err := NewConsulStore(&ConsulStoreConfig{Address: srv.Address()})
	if err != nil {
		t.Fatalf("NewConsulStore failed: %v", err)
	}

	if err := cs.Create(t.Context(), "/lock", nil, store.Ephemeral); !errors.Is(err, data.ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
}

func TestDialer_UsesHostAndChroot(t *testing.T) {
	ctx := t.Context()
	srv := consultest.NewServer(t)
	dialer := Dialer(ConsulStoreConfig{Prefix: "coordtree"})

	host, err := dialer.Dial(ctx, srv.Address())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer host.Close()

	if err := host.Create(ctx, "/solr", nil, store.Persistent); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	client, err := dialer.Dial(ctx, srv.Address()+"/solr")
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	if err := client.Create(ctx, "/collections", nil, store.Persistent); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if keys := srv.Keys(); !slices.Contains(keys, "coordtree/solr/collections") {
		t.Errorf("Expected chrooted key, got %v", keys)
	}
}
