package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/mwantia/coordtree/data"
	dataerrors "github.com/mwantia/coordtree/data/errors"
	"github.com/mwantia/coordtree/log"
	"github.com/mwantia/coordtree/store"
)

// Key layout:
//
//	n:<path>              payload of the node at path
//	c:<parent>\x00<name>  child index entry, empty value
//
// Names never contain NUL, so "c:<parent>\x00" lists exactly the direct
// children of parent with a single prefix scan.
const (
	prefixNode  = "n:"
	prefixChild = "c:"
)

func keyNode(path string) []byte {
	return []byte(prefixNode + path)
}

func keyChild(parent, name string) []byte {
	return []byte(prefixChild + parent + "\x00" + name)
}

func keyChildPrefix(parent string) []byte {
	return []byte(prefixChild + parent + "\x00")
}

// BadgerStore keeps the coordination tree in an embedded BadgerDB.
// Every write runs in a single transaction, so a node and its child index
// entry appear and disappear together. Ephemeral nodes are not supported.
type BadgerStore struct {
	db  *badgerdb.DB
	dir string
}

// BadgerStoreConfig contains configuration options for the Badger store
type BadgerStoreConfig struct {
	// Dir holds the database files. Empty keeps the tree in memory.
	Dir string

	// Logger receives badger's internal messages (optional)
	Logger *log.Logger
}

// badgerLogger adapts the leveled logger to badger.Logger.
type badgerLogger struct {
	log *log.Logger
}

func (l badgerLogger) Errorf(format string, args ...any)   { l.log.Error(format, args...) }
func (l badgerLogger) Warningf(format string, args ...any) { l.log.Warn(format, args...) }
func (l badgerLogger) Infof(format string, args ...any)    { l.log.Debug(format, args...) }
func (l badgerLogger) Debugf(format string, args ...any)   { l.log.Debug(format, args...) }

// NewBadgerStore opens or creates the tree described by config.
func NewBadgerStore(config BadgerStoreConfig) (*BadgerStore, error) {
	opts := badgerdb.DefaultOptions(config.Dir)
	if config.Dir == "" {
		opts = opts.WithInMemory(true)
	}

	if config.Logger != nil {
		opts = opts.WithLogger(badgerLogger{log: config.Logger.Named("badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at '%s': %w", config.Dir, err)
	}

	s := &BadgerStore{
		db:  db,
		dir: config.Dir,
	}

	// The root node always exists
	if err := db.Update(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(keyNode(data.RootPath))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return txn.Set(keyNode(data.RootPath), nil)
		}
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Name returns the identifier name defined for this store.
func (*BadgerStore) Name() string {
	return "badger"
}

func (s *BadgerStore) Create(ctx context.Context, path string, payload []byte, mode store.CreateMode) error {
	if err := data.ValidatePath(path); err != nil {
		return err
	}

	if mode == store.Ephemeral {
		return dataerrors.Unsupported(data.ErrUnsupported, s.Name(), "ephemeral nodes")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badgerdb.Txn) error {
		if exists, err := nodeExists(txn, path); err != nil {
			return err
		} else if exists {
			return dataerrors.NodeExists(data.ErrNodeExists, path)
		}

		parent := data.ParentPath(path)
		if exists, err := nodeExists(txn, parent); err != nil {
			return err
		} else if !exists {
			return dataerrors.NoNode(data.ErrNoNode, parent)
		}

		if err := txn.Set(keyNode(path), payload); err != nil {
			return err
		}
		return txn.Set(keyChild(parent, data.BaseName(path)), nil)
	})
}

func (s *BadgerStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := data.ValidatePath(path); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var payload []byte
	err := s.view(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keyNode(path))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return dataerrors.NoNode(data.ErrNoNode, path)
		}
		if err != nil {
			return err
		}

		payload, err = item.ValueCopy(nil)
		return err
	})

	return payload, err
}

func (s *BadgerStore) Set(ctx context.Context, path string, payload []byte) error {
	if err := data.ValidatePath(path); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badgerdb.Txn) error {
		if exists, err := nodeExists(txn, path); err != nil {
			return err
		} else if !exists {
			return dataerrors.NoNode(data.ErrNoNode, path)
		}

		return txn.Set(keyNode(path), payload)
	})
}

func (s *BadgerStore) Exists(ctx context.Context, path string) (bool, error) {
	if err := data.ValidatePath(path); err != nil {
		return false, err
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}

	var exists bool
	err := s.view(func(txn *badgerdb.Txn) (err error) {
		exists, err = nodeExists(txn, path)
		return err
	})

	return exists, err
}

func (s *BadgerStore) Children(ctx context.Context, path string) ([]string, error) {
	if err := data.ValidatePath(path); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var children []string
	err := s.view(func(txn *badgerdb.Txn) error {
		if exists, err := nodeExists(txn, path); err != nil {
			return err
		} else if !exists {
			return dataerrors.NoNode(data.ErrNoNode, path)
		}

		children = listChildren(txn, path)
		return nil
	})

	return children, err
}

func (s *BadgerStore) Delete(ctx context.Context, path string) error {
	if err := data.ValidatePath(path); err != nil {
		return err
	}

	if path == data.RootPath {
		return dataerrors.Unsupported(data.ErrUnsupported, s.Name(), "deleting the root node")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badgerdb.Txn) error {
		if exists, err := nodeExists(txn, path); err != nil {
			return err
		} else if !exists {
			return dataerrors.NoNode(data.ErrNoNode, path)
		}

		if children := listChildren(txn, path); len(children) > 0 {
			return dataerrors.NotEmpty(data.ErrNotEmpty, path, len(children))
		}

		if err := txn.Delete(keyNode(path)); err != nil {
			return err
		}
		return txn.Delete(keyChild(data.ParentPath(path), data.BaseName(path)))
	})
}

// Close flushes and closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// update runs fn in a read-write transaction. Conflicting concurrent writers
// surface as ErrNodeExists or ErrNoNode on the retry.
func (s *BadgerStore) update(fn func(txn *badgerdb.Txn) error) error {
	err := s.db.Update(fn)
	if errors.Is(err, badgerdb.ErrConflict) {
		err = s.db.Update(fn)
	}
	if errors.Is(err, badgerdb.ErrDBClosed) {
		return dataerrors.ConnectionLoss(data.ErrConnectionLoss, err, s.dir)
	}

	return err
}

// view runs fn in a read-only transaction.
func (s *BadgerStore) view(fn func(txn *badgerdb.Txn) error) error {
	err := s.db.View(fn)
	if errors.Is(err, badgerdb.ErrDBClosed) {
		return dataerrors.ConnectionLoss(data.ErrConnectionLoss, err, s.dir)
	}

	return err
}

func nodeExists(txn *badgerdb.Txn, path string) (bool, error) {
	_, err := txn.Get(keyNode(path))
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return false, nil
	}

	return err == nil, err
}

// listChildren returns the sorted names below path. Badger iterates keys in
// byte order, so no extra sort is needed.
func listChildren(txn *badgerdb.Txn, path string) []string {
	opts := badgerdb.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = keyChildPrefix(path)

	it := txn.NewIterator(opts)
	defer it.Close()

	children := []string{}
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		children = append(children, strings.TrimPrefix(string(it.Item().Key()), string(opts.Prefix)))
	}

	return children
}

// Dialer opens the tree in dir for every dial. Badger holds an exclusive
// directory lock, so sessions of one Dialer must not overlap; use an
// in-memory store or the embedded server for concurrent sessions.
func Dialer(config BadgerStoreConfig) store.Dialer {
	return store.DialerFunc(func(ctx context.Context, address string) (store.Store, error) {
		addr, err := store.ParseAddress(address)
		if err != nil {
			return nil, err
		}

		s, err := NewBadgerStore(config)
		if err != nil {
			return nil, dataerrors.ConnectionLoss(data.ErrConnectionLoss, err, addr.Host)
		}

		return store.Chroot(s, addr.Chroot), nil
	})
}
