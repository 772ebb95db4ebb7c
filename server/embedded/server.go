package embedded

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/data/errors"
	"github.com/mwantia/coordtree/log"
	"github.com/mwantia/coordtree/store"
	"github.com/mwantia/coordtree/store/memory"
	"github.com/mwantia/coordtree/store/sqlite"
)

// EmbeddedServer is an in-process coordination server. Without a data
// directory it keeps the tree in memory; with one it persists the tree in
// "<dir>/tree.db" so a restarted server sees the previous state.
//
// The server also acts as the dialer for its own addresses, tracking every
// session it hands out so teardown can wait for them to be released.
type EmbeddedServer struct {
	mu  sync.Mutex
	log *log.Logger

	id      string
	chroot  string
	dataDir string

	running  bool
	tree     *memory.Tree
	database *sqlite.SQLiteStore

	sessions map[string]*store.Session
	drained  chan struct{}
}

func NewEmbeddedServer(opts ...EmbeddedServerOption) (*EmbeddedServer, error) {
	options := newDefaultEmbeddedServerOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	if options.Chroot != "" {
		if err := data.ValidatePath(options.Chroot); err != nil {
			return nil, err
		}
	}

	id := uuid.Must(uuid.NewV7()).String()
	drained := make(chan struct{})
	close(drained)

	return &EmbeddedServer{
		log:      options.Logger.Named("embedded"),
		id:       id,
		chroot:   options.Chroot,
		dataDir:  options.DataDir,
		sessions: make(map[string]*store.Session),
		drained:  drained,
	}, nil
}

// Name returns the identifier name defined for this server.
func (*EmbeddedServer) Name() string {
	return "embedded"
}

// Start brings the server up, creating the data directory if configured.
func (es *EmbeddedServer) Start(ctx context.Context) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.running {
		return data.ErrServerRunning
	}

	if es.dataDir != "" {
		if err := os.MkdirAll(es.dataDir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		database, err := sqlite.NewSQLiteStore(filepath.Join(es.dataDir, "tree.db"))
		if err != nil {
			return fmt.Errorf("failed to open tree database: %w", err)
		}
		if err := database.Ping(ctx); err != nil {
			database.Close()
			return err
		}
		es.database = database
	} else if es.tree == nil {
		// Keep the tree across restarts of the same instance
		es.tree = memory.NewTree()
	}

	es.running = true
	es.drained = make(chan struct{})

	es.log.Info("started server at '%s' (data dir: '%s')", es.HostOnlyAddress(), es.dataDir)
	return nil
}

// ClientAddress returns the host address followed by the chroot.
func (es *EmbeddedServer) ClientAddress() string {
	return es.HostOnlyAddress() + es.chroot
}

// HostOnlyAddress returns the address that identifies this server.
func (es *EmbeddedServer) HostOnlyAddress() string {
	return "embedded-" + es.id[len(es.id)-12:]
}

// Stop shuts the server down. Open sessions fail with data.ErrConnectionLoss
// until their owners close them.
func (es *EmbeddedServer) Stop(ctx context.Context) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	if !es.running {
		return data.ErrServerNotRunning
	}
	es.running = false

	es.log.Info("stopped server at '%s' with %d open sessions", es.HostOnlyAddress(), len(es.sessions))

	var err error
	if es.database != nil {
		err = es.database.Close()
		es.database = nil
	}

	es.checkDrained()
	return err
}

// Drained is closed once the server is stopped and all sessions are closed.
func (es *EmbeddedServer) Drained() <-chan struct{} {
	es.mu.Lock()
	defer es.mu.Unlock()

	return es.drained
}

// OpenSessions returns the number of sessions not yet closed.
func (es *EmbeddedServer) OpenSessions() int {
	es.mu.Lock()
	defer es.mu.Unlock()

	return len(es.sessions)
}

// Dial opens a session if the host part of address names this server.
func (es *EmbeddedServer) Dial(ctx context.Context, address string) (store.Store, error) {
	addr, err := store.ParseAddress(address)
	if err != nil {
		return nil, err
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	if addr.Host != es.HostOnlyAddress() {
		return nil, errors.ConnectionLoss(data.ErrConnectionLoss, fmt.Errorf("unknown host '%s'", addr.Host), address)
	}

	if !es.running {
		return nil, errors.ConnectionLoss(data.ErrConnectionLoss, data.ErrServerNotRunning, address)
	}

	var backing store.Store
	shared := es.database != nil
	if shared {
		backing = es.database
	} else {
		backing = es.tree.Open()
	}

	id := uuid.Must(uuid.NewV7()).String()
	session := store.NewSession(id, &gatedStore{Store: backing, server: es}, func() error {
		es.release(id)

		// The shared database handle stays open until the server stops
		if shared {
			return nil
		}
		return backing.Close()
	})
	es.sessions[id] = session

	es.log.Debug("opened session '%s' on '%s'", id, address)
	return store.Chroot(session, addr.Chroot), nil
}

func (es *EmbeddedServer) release(id string) {
	es.mu.Lock()
	defer es.mu.Unlock()

	delete(es.sessions, id)
	es.log.Debug("closed session '%s'", id)
	es.checkDrained()
}

// checkDrained closes the drained channel when possible.
// Must be called with lock held.
func (es *EmbeddedServer) checkDrained() {
	if es.running || len(es.sessions) > 0 {
		return
	}

	select {
	case <-es.drained:
	default:
		close(es.drained)
	}
}

func (es *EmbeddedServer) isRunning() bool {
	es.mu.Lock()
	defer es.mu.Unlock()

	return es.running
}
