package coordtree_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/mwantia/coordtree"
	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/source/bundle"
	"github.com/mwantia/coordtree/store"
)

// recordingStore logs every mutating call and fails a create whose parent
// is missing at the moment it is issued.
type recordingStore struct {
	store.Store

	mu        sync.Mutex
	calls     []string
	orphans   []string
	failAfter int
	failErr   error
}

func newRecordingStore(s store.Store) *recordingStore {
	return &recordingStore{Store: s, failAfter: -1}
}

func (r *recordingStore) record(call string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failAfter >= 0 && len(r.calls) >= r.failAfter {
		return r.failErr
	}

	r.calls = append(r.calls, call)
	return nil
}

func (r *recordingStore) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string{}, r.calls...)
}

func (r *recordingStore) Create(ctx context.Context, path string, payload []byte, mode store.CreateMode) error {
	if err := r.record("create " + path); err != nil {
		return err
	}

	if path != data.RootPath {
		parent := data.ParentPath(path)
		exists, err := r.Store.Exists(ctx, parent)
		if err != nil {
			return err
		}
		if !exists {
			r.mu.Lock()
			r.orphans = append(r.orphans, path)
			r.mu.Unlock()
		}
	}

	return r.Store.Create(ctx, path, payload, mode)
}

func (r *recordingStore) Set(ctx context.Context, path string, payload []byte) error {
	if err := r.record("set " + path); err != nil {
		return err
	}

	return r.Store.Set(ctx, path, payload)
}

func (r *recordingStore) Delete(ctx context.Context, path string) error {
	if err := r.record("delete " + path); err != nil {
		return err
	}

	return r.Store.Delete(ctx, path)
}

// failingStore rejects every call with err.
type failingStore struct {
	err error
}

func (*failingStore) Name() string { return "failing" }

func (f *failingStore) Create(context.Context, string, []byte, store.CreateMode) error {
	return f.err
}

func (f *failingStore) Get(context.Context, string) ([]byte, error) { return nil, f.err }

func (f *failingStore) Set(context.Context, string, []byte) error { return f.err }

func (f *failingStore) Exists(context.Context, string) (bool, error) { return false, f.err }

func (f *failingStore) Children(context.Context, string) ([]string, error) { return nil, f.err }

func (f *failingStore) Delete(context.Context, string) error { return f.err }

func (*failingStore) Close() error { return nil }

// testConfigFiles returns every default config file except currency.xml.
func testConfigFiles() fstest.MapFS {
	return fstest.MapFS{
		"collection1/conf/solrconfig.xml":              {Data: []byte("<config/>")},
		"collection1/conf/schema.xml":                  {Data: []byte("<schema/>")},
		"collection1/conf/stopwords.txt":               {Data: []byte("a\nan\nthe")},
		"collection1/conf/protwords.txt":               {Data: []byte("protected")},
		"collection1/conf/open-exchange-rates.json":    {Data: []byte(`{"rates":{}}`)},
		"collection1/conf/mapping-ISOLatin1Accent.txt": {Data: []byte(`"À" => "A"`)},
		"collection1/conf/old_synonyms.txt":            {Data: []byte("foo => bar")},
		"collection1/conf/synonyms.txt":                {Data: []byte("tv, television")},
	}
}

func newTestResolver() *bundle.BundleResolver {
	return bundle.NewBundleResolver(testConfigFiles(), "collection1/conf")
}

func mustGet(t *testing.T, s store.Store, path string) []byte {
	t.Helper()

	payload, err := s.Get(t.Context(), path)
	if err != nil {
		t.Fatalf("Get '%s' failed: %v", path, err)
	}

	return payload
}

func mustExist(t *testing.T, s store.Store, path string, want bool) {
	t.Helper()

	exists, err := s.Exists(t.Context(), path)
	if err != nil {
		t.Fatalf("Exists '%s' failed: %v", path, err)
	}
	if exists != want {
		t.Errorf("Expected exists('%s') to be %v", path, want)
	}
}

func dump(t *testing.T, s store.Store) string {
	t.Helper()

	var out strings.Builder
	if err := coordtree.PrintLayout(t.Context(), s, &out); err != nil {
		t.Fatalf("PrintLayout failed: %v", err)
	}

	return out.String()
}
