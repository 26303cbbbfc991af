package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"finassist/internal/blob"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db", "finassist.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestSQLiteRepositoryGetPut(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Get(ctx, "finassist_expenses"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Put(ctx, "finassist_expenses", []byte(`[]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Put(ctx, "finassist_expenses", []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := repo.Get(ctx, "finassist_expenses")
	if err != nil || string(got) != `[{"id":"1"}]` {
		t.Fatalf("unexpected get: %q err=%v", got, err)
	}

	keys, err := repo.Keys(ctx)
	if err != nil || len(keys) != 1 || keys[0] != "finassist_expenses" {
		t.Fatalf("unexpected keys: %v err=%v", keys, err)
	}
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestSQLiteRepositoryPersistsAcrossReopen(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()
	if err := repo.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	again, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	got, err := again.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("unexpected value after reopen: %q err=%v", got, err)
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	_, path := newTestRepo(t)
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second migration run: %v", err)
	}
}
