package bundle

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/mwantia/coordtree/data"
)

func TestBundleResolver_Read(t *testing.T) {
	fsys := fstest.MapFS{
		"conf/solrconfig.xml": {Data: []byte("<config/>")},
		"conf/synonyms.txt":   {Data: []byte("tv, television")},
	}

	r := NewBundleResolver(fsys, "conf")

	content, err := r.Read(t.Context(), "solrconfig.xml")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(content) != "<config/>" {
		t.Errorf("Unexpected content %q", content)
	}

	if _, err := r.Read(t.Context(), "currency.xml"); !errors.Is(err, data.ErrSourceNotExist) {
		t.Errorf("Expected ErrSourceNotExist, got %v", err)
	}

	if r.Locate("synonyms.txt") != "conf/synonyms.txt" {
		t.Errorf("Unexpected location %q", r.Locate("synonyms.txt"))
	}
}
