package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"quiz-player/internal/domain"
	"quiz-player/internal/infra/sqlite"
)

func TestStoreBasicFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "player.db")
	st, err := sqlite.NewStore(dbPath, "player")
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	if _, err := st.Get(ctx, "playerName"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("Get() on empty store err = %v", err)
	}
	if err := st.Set(ctx, "playerName", []byte("Alice")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := st.Set(ctx, "playerName", []byte("Bob")); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	got, err := st.Get(ctx, "playerName")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "Bob" {
		t.Fatalf("expected %q got %q", "Bob", got)
	}

	if err := st.Remove(ctx, "playerName"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := st.Get(ctx, "playerName"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("Get() after remove err = %v", err)
	}
}

func TestStoreNamespacesAreIsolated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "player.db")
	alice, err := sqlite.NewStore(dbPath, "alice")
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { _ = alice.Close() })
	bob, err := sqlite.NewStore(dbPath, "bob")
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { _ = bob.Close() })

	if err := alice.Set(ctx, "rewards", []byte(`{"totalPoints":5}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := bob.Get(ctx, "rewards"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected other namespace to be empty, err = %v", err)
	}
}
