package sqlite

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/store"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore keeps the coordination tree in a single SQLite table:
//
//	coordtree_nodes(path PRIMARY KEY, parent, payload, version, create_time, modify_time)
//
// The parent column is indexed so listing children is a single range query.
// Ephemeral nodes are not supported because the store has no notion of
// client sessions that could own them.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB

	dsn string
}

// NewSQLiteStore opens or creates the tree at dbPath.
// The dbPath can be ":memory:" for an in-memory database or a file path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// A single connection keeps per-connection pragmas in effect
	// and an in-memory database alive.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{
		db:  db,
		dsn: dbPath,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// initSchema creates the table and the root node.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS coordtree_nodes (
		path TEXT PRIMARY KEY,
		parent TEXT NOT NULL,
		payload BLOB,
		version INTEGER NOT NULL DEFAULT 0,
		create_time INTEGER NOT NULL,
		modify_time INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_coordtree_nodes_parent ON coordtree_nodes(parent);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	now := time.Now().UnixNano()
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO coordtree_nodes (path, parent, payload, version, create_time, modify_time)
		VALUES (?, '', NULL, 0, ?, ?)
	`, data.RootPath, now, now)

	return err
}

// Name returns the identifier name defined for this store.
func (*SQLiteStore) Name() string {
	return "sqlite"
}

// DSN returns the database path this store was opened with.
func (s *SQLiteStore) DSN() string {
	return s.dsn
}

// Ping verifies the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Close()
}

// Dialer opens a fresh SQLiteStore per session on the database at dbPath.
// Only the chroot part of the dialed address is used.
func Dialer(dbPath string) store.Dialer {
	return store.DialerFunc(func(ctx context.Context, address string) (store.Store, error) {
		addr, err := store.ParseAddress(address)
		if err != nil {
			return nil, err
		}

		s, err := NewSQLiteStore(dbPath)
		if err != nil {
			return nil, err
		}

		if err := s.Ping(ctx); err != nil {
			s.Close()
			return nil, err
		}

		return store.Chroot(s, addr.Chroot), nil
	})
}
