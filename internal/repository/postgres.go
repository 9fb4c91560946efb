package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rdesitter/gym-tracker/internal/domain"
)

// PostgresKV stores values in the kv_entries table. The version column turns Update into a
// compare-and-set.
type PostgresKV struct {
	dbpool *sql.DB
}

func NewPostgresKV(dbpool *sql.DB) *PostgresKV {
	return &PostgresKV{dbpool: dbpool}
}

func (k *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM kv_entries WHERE key = $1`

	var value []byte
	if err := k.dbpool.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (k *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_entries (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, version = kv_entries.version + 1, updated_at = now()
	`
	_, err := k.dbpool.ExecContext(ctx, query, key, value)
	return err
}

func (k *PostgresKV) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	for i := 0; i < maxUpdateAttempts; i++ {
		err := k.tryUpdate(ctx, key, fn)
		if errors.Is(err, errConflict) {
			continue
		}
		return err
	}
	return errConflict
}

func (k *PostgresKV) tryUpdate(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	var (
		current []byte
		version int64
	)

	query := `SELECT value, version FROM kv_entries WHERE key = $1`
	err := k.dbpool.QueryRowContext(ctx, query, key).Scan(&current, &version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		current = nil
	case err != nil:
		return err
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	if current == nil {
		query = `INSERT INTO kv_entries (key, value) VALUES ($1, $2)`
		if _, err := k.dbpool.ExecContext(ctx, query, key, next); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				// someone created the key first
				return errConflict
			}
			return err
		}
		return nil
	}

	query = `
		UPDATE kv_entries
		SET value = $2, version = version + 1, updated_at = now()
		WHERE key = $1 AND version = $3
	`
	result, err := k.dbpool.ExecContext(ctx, query, key, next, version)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errConflict
	}
	return nil
}
