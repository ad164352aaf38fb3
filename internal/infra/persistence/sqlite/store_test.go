package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"dormcore/pkg/domain"
)

func TestStatePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dormcore.db")

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	var dorm domain.Dormitory
	var room domain.Room
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		dorm, err = tx.CreateDormitory(domain.Dormitory{Number: 1, Address: "5 Main Street"})
		if err != nil {
			return err
		}
		room, err = tx.CreateRoom(domain.Room{DormitoryID: dorm.ID, Number: 101, Capacity: 2})
		return err
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := store.DB().Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	t.Cleanup(func() { _ = reopened.DB().Close() })

	if got, ok := reopened.GetDormitory(dorm.ID); !ok || got.Number != 1 {
		t.Fatalf("dormitory not restored: ok=%v got=%+v", ok, got)
	}
	if got, ok := reopened.GetRoom(room.ID); !ok || got.Capacity != 2 {
		t.Fatalf("room not restored: ok=%v got=%+v", ok, got)
	}
	if reopened.Path() != path {
		t.Fatalf("unexpected path %q", reopened.Path())
	}
}

func TestFailedTransactionDoesNotPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dormcore.db")

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	boom := errors.New("boom")
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateDormitory(domain.Dormitory{Number: 9, Address: "7 Side Street"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if err := store.DB().Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	t.Cleanup(func() { _ = reopened.DB().Close() })

	if got := len(reopened.ListDormitories()); got != 0 {
		t.Fatalf("discarded transaction leaked %d dormitories to disk", got)
	}
}
