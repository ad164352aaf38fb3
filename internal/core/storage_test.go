package core

import (
	"path/filepath"
	"testing"

	"dormcore/internal/infra/persistence/memory"
	"dormcore/internal/infra/persistence/sqlite"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv("DORMCORE_STORAGE_DRIVER", "memory")

	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenPersistentStoreSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dormcore.db")
	t.Setenv("DORMCORE_STORAGE_DRIVER", "sqlite")
	t.Setenv("DORMCORE_SQLITE_PATH", path)

	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	t.Cleanup(func() { _ = s.DB().Close() })
	if s.Path() != path {
		t.Fatalf("unexpected path %q", s.Path())
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	t.Setenv("DORMCORE_STORAGE_DRIVER", "oracle")

	if _, err := OpenPersistentStore(nil); err == nil {
		t.Fatal("unknown driver must fail")
	}
}
