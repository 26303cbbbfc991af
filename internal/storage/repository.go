// Package storage persists blobs in a SQLite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"

	"finassist/internal/blob"

	_ "modernc.org/sqlite"
)

const blobsTable = "blobs"

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serialises them anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Get implements blob.Reader.
func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := sq.Select("data").
		From(blobsTable).
		Where(sq.Eq{"name": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var data []byte
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, blob.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", key, err)
	}
	return data, nil
}

// Put implements blob.Writer.
func (r *SQLiteRepository) Put(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	query, args, err := sq.Insert(blobsTable).
		Columns("name", "data", "updated_at").
		Values(key, value, r.now().UTC().Format(time.RFC3339Nano)).
		Suffix("ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put blob %s: %w", key, err)
	}

	slog.DebugContext(ctx, "Blob saved to SQLite", "key", key, "bytes", len(value))
	return nil
}

// Keys lists the stored blob names in alphabetical order.
func (r *SQLiteRepository) Keys(ctx context.Context) ([]string, error) {
	query, args, err := sq.Select("name").From(blobsTable).OrderBy("name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan blob name: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
