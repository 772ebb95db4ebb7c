package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mwantia/coordtree/data"
	dataerrors "github.com/mwantia/coordtree/data/errors"
	"github.com/mwantia/coordtree/store"
)

func (s *PostgresStore) Create(ctx context.Context, path string, payload []byte, mode store.CreateMode) error {
	if err := data.ValidatePath(path); err != nil {
		return err
	}

	if mode == store.Ephemeral {
		return dataerrors.Unsupported(data.ErrUnsupported, s.Name(), "ephemeral nodes")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	parent := data.ParentPath(path)

	var one int
	err = tx.QueryRow(ctx, `SELECT 1 FROM coordtree_nodes WHERE path = $1 FOR SHARE`, parent).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return dataerrors.NoNode(data.ErrNoNode, parent)
	}
	if err != nil {
		return err
	}

	now := time.Now().UnixNano()
	tag, err := tx.Exec(ctx, `
		INSERT INTO coordtree_nodes (path, parent, payload, version, create_time, modify_time)
		VALUES ($1, $2, $3, 0, $4, $4)
		ON CONFLICT (path) DO NOTHING
	`, path, parent, payload, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return dataerrors.NodeExists(data.ErrNodeExists, path)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := data.ValidatePath(path); err != nil {
		return nil, err
	}

	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM coordtree_nodes WHERE path = $1`, path).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, dataerrors.NoNode(data.ErrNoNode, path)
	}
	if err != nil {
		return nil, err
	}

	return payload, nil
}

func (s *PostgresStore) Set(ctx context.Context, path string, payload []byte) error {
	if err := data.ValidatePath(path); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE coordtree_nodes SET payload = $1, version = version + 1, modify_time = $2
		WHERE path = $3
	`, payload, time.Now().UnixNano(), path)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return dataerrors.NoNode(data.ErrNoNode, path)
	}

	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, path string) (bool, error) {
	if err := data.ValidatePath(path); err != nil {
		return false, err
	}

	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM coordtree_nodes WHERE path = $1)`, path).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) Children(ctx context.Context, path string) ([]string, error) {
	exists, err := s.Exists(ctx, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, dataerrors.NoNode(data.ErrNoNode, path)
	}

	rows, err := s.pool.Query(ctx, `SELECT path FROM coordtree_nodes WHERE parent = $1 ORDER BY path`, path)
	if err != nil {
		return nil, err
	}

	paths, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	children := make([]string, 0, len(paths))
	for _, child := range paths {
		children = append(children, data.BaseName(child))
	}

	return children, nil
}

func (s *PostgresStore) Delete(ctx context.Context, path string) error {
	if err := data.ValidatePath(path); err != nil {
		return err
	}

	if path == data.RootPath {
		return dataerrors.Unsupported(data.ErrUnsupported, s.Name(), "deleting the root node")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM coordtree_nodes WHERE parent = $1`, path).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return dataerrors.NotEmpty(data.ErrNotEmpty, path, count)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM coordtree_nodes WHERE path = $1`, path)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return dataerrors.NoNode(data.ErrNoNode, path)
	}

	return tx.Commit(ctx)
}
