package repositories

import (
	"context"
	"database/sql"
	"testing"

	"github.com/desertthunder/mergemix/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestKVRepository(t *testing.T) {
	ctx := context.Background()
	const key = "code_verifier"

	t.Run("Put and Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewKVRepository(db)
		if err := repo.Put(ctx, key, "abc"); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		got, ok, err := repo.Get(ctx, key)
		if err != nil || !ok {
			t.Fatalf("Get() = %q, %v, %v", got, ok, err)
		}
		if got != "abc" {
			t.Errorf("expected abc, got %q", got)
		}
	})

	t.Run("Put replaces", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewKVRepository(db)
		_ = repo.Put(ctx, key, "first")
		if err := repo.Put(ctx, key, "second"); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		got, _, _ := repo.Get(ctx, key)
		if got != "second" {
			t.Errorf("expected second, got %q", got)
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		_, ok, err := NewKVRepository(db).Get(ctx, "missing")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("expected missing key to report !ok")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewKVRepository(db)
		_ = repo.Put(ctx, key, "abc")

		if err := repo.Delete(ctx, key); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, ok, _ := repo.Get(ctx, key); ok {
			t.Error("key should be gone after Delete")
		}
		if err := repo.Delete(ctx, key); err != nil {
			t.Errorf("deleting a missing key should succeed, got %v", err)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		t.Run("EmptyKey", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			if err := NewKVRepository(db).Put(ctx, " ", "v"); err == nil {
				t.Error("expected error for empty key")
			}
		})

		t.Run("ClosedDatabase", func(t *testing.T) {
			db := setupTestDB(t)
			db.Close()

			repo := NewKVRepository(db)
			if err := repo.Put(ctx, "k", "v"); err == nil {
				t.Error("expected Put error on closed database")
			}
			if _, _, err := repo.Get(ctx, "k"); err == nil {
				t.Error("expected Get error on closed database")
			}
		})
	})
}
