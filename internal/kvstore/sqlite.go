package kvstore

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/myrjola/unsolved/internal/errors"
	"github.com/myrjola/unsolved/internal/sqlite"
)

// SQLite is a Store backed by the kv_store table.
type SQLite struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewSQLite(db *sqlite.Database, logger *slog.Logger) *SQLite {
	return &SQLite{
		db:     db,
		logger: logger.With(slog.String("source", "kvstore.SQLite")),
	}
}

func (s *SQLite) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.ReadOnly.GetContext(ctx, &value, `SELECT value FROM kv_store WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "select value", slog.String("key", key))
	}
	return value, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	stmt := `INSERT INTO kv_store (key, value) VALUES (?, ?)
	ON CONFLICT (key) DO UPDATE SET value = excluded.value,
	                                updated_at = strftime('%Y-%m-%dT%H:%M:%fZ')`
	if _, err := s.db.ReadWrite.ExecContext(ctx, stmt, key, value); err != nil {
		return errors.Wrap(err, "upsert value", slog.String("key", key))
	}
	return nil
}

func (s *SQLite) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ReadWrite.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return errors.Wrap(err, "delete value", slog.String("key", key))
	}
	return nil
}

func (s *SQLite) Keys(ctx context.Context) ([]string, error) {
	keys := []string{}
	if err := s.db.ReadOnly.SelectContext(ctx, &keys, `SELECT key FROM kv_store ORDER BY key`); err != nil {
		return nil, errors.Wrap(err, "select keys")
	}
	return keys, nil
}
