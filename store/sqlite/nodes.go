package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/data/errors"
	"github.com/mwantia/coordtree/store"
)

func (s *SQLiteStore) Create(ctx context.Context, path string, payload []byte, mode store.CreateMode) error {
	if err := data.ValidatePath(path); err != nil {
		return err
	}

	if mode == store.Ephemeral {
		return errors.Unsupported(data.ErrUnsupported, s.Name(), "ephemeral nodes")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	exists, err := rowExists(ctx, tx, path)
	if err != nil {
		return err
	}
	if exists {
		return errors.NodeExists(data.ErrNodeExists, path)
	}

	parent := data.ParentPath(path)
	exists, err = rowExists(ctx, tx, parent)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NoNode(data.ErrNoNode, parent)
	}

	now := time.Now().UnixNano()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO coordtree_nodes (path, parent, payload, version, create_time, modify_time)
		VALUES (?, ?, ?, 0, ?, ?)
	`, path, parent, payload, now, now); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := data.ValidatePath(path); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM coordtree_nodes WHERE path = ?`, path).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errors.NoNode(data.ErrNoNode, path)
	}
	if err != nil {
		return nil, err
	}

	return payload, nil
}

func (s *SQLiteStore) Set(ctx context.Context, path string, payload []byte) error {
	if err := data.ValidatePath(path); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		UPDATE coordtree_nodes SET payload = ?, version = version + 1, modify_time = ?
		WHERE path = ?
	`, payload, time.Now().UnixNano(), path)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.NoNode(data.ErrNoNode, path)
	}

	return nil
}

func (s *SQLiteStore) Exists(ctx context.Context, path string) (bool, error) {
	if err := data.ValidatePath(path); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return rowExists(ctx, s.db, path)
}

func (s *SQLiteStore) Children(ctx context.Context, path string) ([]string, error) {
	if err := data.ValidatePath(path); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	exists, err := rowExists(ctx, s.db, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NoNode(data.ErrNoNode, path)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT path FROM coordtree_nodes WHERE parent = ? ORDER BY path`, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	children := make([]string, 0)
	for rows.Next() {
		var child string
		if err := rows.Scan(&child); err != nil {
			return nil, err
		}
		children = append(children, data.BaseName(child))
	}

	return children, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, path string) error {
	if err := data.ValidatePath(path); err != nil {
		return err
	}

	if path == data.RootPath {
		return errors.Unsupported(data.ErrUnsupported, s.Name(), "deleting the root node")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	exists, err := rowExists(ctx, tx, path)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NoNode(data.ErrNoNode, path)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM coordtree_nodes WHERE parent = ?`, path).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return errors.NotEmpty(data.ErrNotEmpty, path, count)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM coordtree_nodes WHERE path = ?`, path); err != nil {
		return err
	}

	return tx.Commit()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func rowExists(ctx context.Context, q queryer, path string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM coordtree_nodes WHERE path = ?`, path).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
