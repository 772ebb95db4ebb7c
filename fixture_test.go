package coordtree_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mwantia/coordtree"
	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/metrics"
	"github.com/mwantia/coordtree/server/embedded"
	"github.com/mwantia/coordtree/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestFixture(t *testing.T, opts ...coordtree.Option) (*coordtree.Fixture, *embedded.EmbeddedServer) {
	t.Helper()

	es, err := embedded.NewEmbeddedServer(embedded.WithDataDir(t.TempDir() + "/zookeeper/server1/data"))
	if err != nil {
		t.Fatalf("NewEmbeddedServer failed: %v", err)
	}

	opts = append([]coordtree.Option{coordtree.WithResolver(newTestResolver())}, opts...)
	fixture, err := coordtree.NewFixture(es, nil, opts...)
	if err != nil {
		t.Fatalf("NewFixture failed: %v", err)
	}

	return fixture, es
}

func TestFixture_SetupAndTeardown(t *testing.T) {
	ctx := t.Context()

	extra := coordtree.NewProperties()
	extra.Set("solr.test.sys.prop1", "propone")

	fixture, es := newTestFixture(t, coordtree.WithProperties(extra))

	if err := fixture.Setup(ctx); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := fixture.Setup(ctx); !errors.Is(err, data.ErrServerRunning) {
		t.Errorf("Expected ErrServerRunning on second setup, got %v", err)
	}

	props := fixture.Properties()
	if props.Address() != es.ClientAddress() {
		t.Errorf("Expected published address %q, got %q", es.ClientAddress(), props.Address())
	}
	if !props.SkipAutoRecovery() {
		t.Errorf("Expected auto recovery to be suppressed")
	}
	if props.HostPort() != "0000" {
		t.Errorf("Expected host port '0000', got %q", props.HostPort())
	}

	err := fixture.WithSession(ctx, props.Address(), func(s store.Store) error {
		name, err := coordtree.NewReader(s).CollectionConfigName(ctx, "collection1")
		if err != nil {
			return err
		}
		if name != "conf1" {
			t.Errorf("Expected config name 'conf1', got %q", name)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithSession failed: %v", err)
	}

	if err := fixture.Teardown(ctx); err != nil {
		t.Fatalf("Teardown failed: %v", err)
	}
	if err := fixture.Teardown(ctx); !errors.Is(err, data.ErrServerNotRunning) {
		t.Errorf("Expected ErrServerNotRunning on second teardown, got %v", err)
	}

	if snapshot := props.Snapshot(); len(snapshot) != 0 {
		t.Errorf("Expected all properties to be cleared, got %v", snapshot)
	}
	if es.OpenSessions() != 0 {
		t.Errorf("Expected no open sessions, got %d", es.OpenSessions())
	}

	// The data dir survives the stop, the tree must not
	if err := es.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer es.Stop(ctx)

	s, err := es.Dial(ctx, es.HostOnlyAddress())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer s.Close()

	children, err := s.Children(ctx, data.RootPath)
	if err != nil {
		t.Fatalf("Children failed: %v", err)
	}
	if len(children) != 0 {
		t.Errorf("Expected root to be empty after teardown, got %v", children)
	}
}

func TestFixture_RestartKeepsTreeInDataDir(t *testing.T) {
	ctx := t.Context()
	fixture, _ := newTestFixture(t, coordtree.WithGracePeriod(0), coordtree.WithKeepTree())

	if err := fixture.Setup(ctx); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := fixture.Teardown(ctx); err != nil {
		t.Fatalf("Teardown failed: %v", err)
	}

	if err := fixture.Setup(ctx); err != nil {
		t.Fatalf("Setup on existing tree failed: %v", err)
	}
	defer fixture.Teardown(ctx)

	deleted, err := fixture.CleanRootNode(ctx)
	if err != nil {
		t.Fatalf("CleanRootNode failed: %v", err)
	}
	if deleted == 0 {
		t.Errorf("Expected the bootstrapped tree to be deleted")
	}

	if err := fixture.MakeRootNode(ctx); err != nil {
		t.Fatalf("MakeRootNode failed: %v", err)
	}

	var layout strings.Builder
	if err := fixture.PrintLayout(ctx, &layout); err != nil {
		t.Fatalf("PrintLayout failed: %v", err)
	}
	if !strings.Contains(layout.String(), " /solr (0)") {
		t.Errorf("Expected empty /solr in layout, got:\n%s", layout.String())
	}
}

func TestFixture_DrainIsBounded(t *testing.T) {
	ctx := t.Context()
	fixture, es := newTestFixture(t, coordtree.WithGracePeriod(50*time.Millisecond))

	if err := fixture.Setup(ctx); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	// A client that never closes its session
	leaked, err := es.Dial(ctx, es.ClientAddress())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	start := time.Now()
	if err := fixture.Teardown(ctx); err != nil {
		t.Fatalf("Teardown failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected teardown to give up after the grace period, took %s", elapsed)
	}

	if _, err := leaked.Exists(ctx, "/"); !errors.Is(err, data.ErrConnectionLoss) {
		t.Errorf("Expected leaked session to fail with ErrConnectionLoss, got %v", err)
	}
	leaked.Close()

	select {
	case <-es.Drained():
	default:
		t.Errorf("Expected server to be drained once the leaked session closed")
	}
}

func TestFixture_TeardownHonoursContext(t *testing.T) {
	fixture, es := newTestFixture(t, coordtree.WithGracePeriod(time.Minute))

	if err := fixture.Setup(t.Context()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	leaked, err := es.Dial(t.Context(), es.HostOnlyAddress())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer leaked.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	if err := fixture.Teardown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
}

func TestFixture_DebugLayout(t *testing.T) {
	var out strings.Builder
	fixture, _ := newTestFixture(t, coordtree.WithDebugLayout(&out), coordtree.WithGracePeriod(0))

	if err := fixture.Setup(t.Context()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := fixture.Teardown(t.Context()); err != nil {
		t.Fatalf("Teardown failed: %v", err)
	}

	for _, expected := range []string{"/solr/collections/collection1 (1)", `{"configName":"conf1"}`, "/solr/configs/conf1/schema.xml (0)"} {
		if !strings.Contains(out.String(), expected) {
			t.Errorf("Expected layout to contain %q, got:\n%s", expected, out.String())
		}
	}
}

func TestFixture_WithSessionClosesOnError(t *testing.T) {
	ctx := t.Context()
	fixture, es := newTestFixture(t, coordtree.WithGracePeriod(0))

	if err := fixture.Setup(ctx); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer fixture.Teardown(ctx)

	failure := errors.New("operation failed")
	err := fixture.WithSession(ctx, es.ClientAddress(), func(s store.Store) error {
		return failure
	})
	if !errors.Is(err, failure) {
		t.Errorf("Expected operation error, got %v", err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Errorf("Expected panic to propagate")
			}
		}()

		fixture.WithSession(ctx, es.ClientAddress(), func(s store.Store) error {
			panic("boom")
		})
	}()

	if es.OpenSessions() != 0 {
		t.Errorf("Expected every session to be closed, got %d open", es.OpenSessions())
	}
}

func TestFixture_RecordsMetrics(t *testing.T) {
	ctx := t.Context()
	m := metrics.NewMetrics(prometheus.NewRegistry())

	fixture, _ := newTestFixture(t, coordtree.WithMetrics(m))
	if fixture.Ready() {
		t.Errorf("Expected fixture not to be ready before setup")
	}

	if err := fixture.Setup(ctx); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if !fixture.Ready() {
		t.Errorf("Expected fixture to be ready after setup")
	}
	if got := testutil.ToFloat64(m.ServerRunning); got != 1 {
		t.Errorf("Expected running gauge 1, got %v", got)
	}

	// root, two collections and their shards
	if got := testutil.ToFloat64(m.NodesTotal.WithLabelValues("created")); got != 5 {
		t.Errorf("Expected 5 created nodes, got %v", got)
	}
	if got := testutil.ToFloat64(m.UploadsTotal.WithLabelValues("created")); got != 8 {
		t.Errorf("Expected 8 created uploads, got %v", got)
	}
	if got := testutil.ToFloat64(m.UploadsTotal.WithLabelValues("skipped")); got != 1 {
		t.Errorf("Expected 1 skipped upload, got %v", got)
	}

	deleted, err := fixture.CleanRootNode(ctx)
	if err != nil {
		t.Fatalf("CleanRootNode failed: %v", err)
	}
	if got := testutil.ToFloat64(m.DeletedTotal); got != float64(deleted) {
		t.Errorf("Expected %d deleted nodes recorded, got %v", deleted, got)
	}

	if err := fixture.Teardown(ctx); err != nil {
		t.Fatalf("Teardown failed: %v", err)
	}
	if got := testutil.ToFloat64(m.ServerRunning); got != 0 {
		t.Errorf("Expected running gauge 0, got %v", got)
	}
	if fixture.Ready() {
		t.Errorf("Expected fixture not to be ready after teardown")
	}
}
