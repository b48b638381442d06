package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/taskflow/internal/repository"
)

// Schema совпадает с migrations/000001_init_schema.up.sql
const Schema = `
	CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_kv_key_prefix ON kv (key text_pattern_ops);
`

// Store реализует repository.Store для PostgreSQL
type Store struct {
	db *pgxpool.Pool
}

// NewStore создает новый экземпляр Store
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// EnsureSchema создает таблицу kv если ее нет
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	return err
}

// Get возвращает значение по ключу
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrKeyNotFound
		}
		return nil, err
	}
	return value, nil
}

// Put сохраняет значение по ключу
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.Exec(ctx, upsertQuery, key, value)
	return err
}

const upsertQuery = `
	INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, NOW())
	ON CONFLICT (key) DO UPDATE
	SET value = EXCLUDED.value,
	    updated_at = NOW()
`

// Delete удаляет ключ
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM kv WHERE key = $1`, key)
	return err
}

// Update читает строку под блокировкой и перезаписывает ее в той же транзакции.
// Advisory lock по ключу сериализует и запись еще не существующих ключей.
func (s *Store) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("failed to lock key: %w", err)
	}

	var current []byte
	err = tx.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1 FOR UPDATE`, key).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, upsertQuery, key, next); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Keys возвращает ключи с префиксом
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT key FROM kv WHERE key LIKE $1 ORDER BY key`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}

// Close закрывает пул соединений
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

var _ repository.Store = (*Store)(nil)
