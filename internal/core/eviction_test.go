package core_test

import (
	"context"
	"errors"
	"testing"

	"dormcore/internal/core"
	"dormcore/pkg/domain"
)

func TestEvictionLifecycleWithSkipList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dorm := mustDormitory(t, svc, 1, "5 Main Street")
	room := mustRoom(t, svc, dorm.ID, 101, 3)
	a := mustResident(t, svc, "Anna Petrova")
	b := mustResident(t, svc, "Boris Ivanov")
	c := mustResident(t, svc, "Carl Sidorov")

	settled, _, err := svc.Settle(ctx, room.ID, []string{a.ID, b.ID}, nil)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	// The batch names one occupant who never lived in this room.
	rec, _, err := svc.InitializeEviction(ctx, room.ID, "renovation", []string{a.ID, b.ID, c.ID}, &settled.ID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if rec.Status != core.EvictionInitialized {
		t.Fatalf("status %s, want initialized", rec.Status)
	}
	if rec.SettlementID == nil || *rec.SettlementID != settled.ID {
		t.Fatal("eviction must reference the originating settlement")
	}

	performed, _, err := svc.PerformEviction(ctx, rec.ID)
	if err != nil {
		t.Fatalf("perform: %v", err)
	}
	if performed.Status != core.EvictionExecuted {
		t.Fatalf("status %s, want executed", performed.Status)
	}
	if len(performed.SkippedOccupantIDs) != 1 || performed.SkippedOccupantIDs[0] != c.ID {
		t.Fatalf("absent occupant must land in the skip list, got %v", performed.SkippedOccupantIDs)
	}

	got, _ := svc.GetRoom(room.ID)
	if len(got.OccupantIDs) != 0 {
		t.Fatalf("room must be empty after eviction, got %v", got.OccupantIDs)
	}

	if _, _, err := svc.PerformEviction(ctx, rec.ID); err == nil {
		t.Fatal("performing an executed eviction must fail")
	}
	if _, _, err := svc.CancelEviction(ctx, rec.ID); err == nil {
		t.Fatal("cancelling an executed eviction must fail")
	}
}

func TestCancelEviction(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dorm := mustDormitory(t, svc, 1, "5 Main Street")
	room := mustRoom(t, svc, dorm.ID, 101, 2)
	a := mustResident(t, svc, "Anna Petrova")

	if _, _, err := svc.Settle(ctx, room.ID, []string{a.ID}, nil); err != nil {
		t.Fatalf("settle: %v", err)
	}
	rec, _, err := svc.InitializeEviction(ctx, room.ID, "complaint", []string{a.ID}, nil)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	cancelled, _, err := svc.CancelEviction(ctx, rec.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != core.EvictionCancelled {
		t.Fatalf("status %s, want cancelled", cancelled.Status)
	}

	// Cancellation leaves the occupant in place.
	got, _ := svc.GetRoom(room.ID)
	if !got.HasOccupant(a.ID) {
		t.Fatal("cancelled eviction must not move occupants")
	}
}

func TestEvictOccupantOneShot(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dorm := mustDormitory(t, svc, 1, "5 Main Street")
	room := mustRoom(t, svc, dorm.ID, 101, 2)
	a := mustResident(t, svc, "Anna Petrova")

	if _, _, err := svc.Settle(ctx, room.ID, []string{a.ID}, nil); err != nil {
		t.Fatalf("settle: %v", err)
	}

	rec, _, err := svc.EvictOccupant(ctx, a.ID, "lease ended")
	if err != nil {
		t.Fatalf("evict: %v", err)
	}
	if rec.Status != core.EvictionExecuted || rec.RoomID != room.ID {
		t.Fatalf("unexpected eviction record %+v", rec)
	}
	got, _ := svc.GetRoom(room.ID)
	if got.HasOccupant(a.ID) {
		t.Fatal("occupant must leave the room")
	}
	// The occupant record itself survives.
	if _, ok, err := svc.FindOccupant(ctx, a.ID); err != nil || !ok {
		t.Fatalf("occupant record lost: ok=%v err=%v", ok, err)
	}

	// Evicting again fails: the occupant is no longer settled anywhere.
	_, _, err = svc.EvictOccupant(ctx, a.ID, "lease ended")
	var vErr domain.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "occupant_id" {
		t.Fatalf("expected not-settled validation error, got %v", err)
	}

	// An empty reason is rejected before touching the store.
	_, _, err = svc.EvictOccupant(ctx, a.ID, "   ")
	if !errors.As(err, &vErr) || vErr.Field != "reason" {
		t.Fatalf("expected reason validation error, got %v", err)
	}
}

func TestListRoomEvictions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dorm := mustDormitory(t, svc, 1, "5 Main Street")
	roomA := mustRoom(t, svc, dorm.ID, 101, 2)
	roomB := mustRoom(t, svc, dorm.ID, 102, 2)
	a := mustResident(t, svc, "Anna Petrova")
	b := mustResident(t, svc, "Boris Ivanov")

	if _, _, err := svc.Settle(ctx, roomA.ID, []string{a.ID}, nil); err != nil {
		t.Fatalf("settle a: %v", err)
	}
	if _, _, err := svc.Settle(ctx, roomB.ID, []string{b.ID}, nil); err != nil {
		t.Fatalf("settle b: %v", err)
	}
	if _, _, err := svc.EvictOccupant(ctx, a.ID, "transfer"); err != nil {
		t.Fatalf("evict a: %v", err)
	}
	if _, _, err := svc.EvictOccupant(ctx, b.ID, "transfer"); err != nil {
		t.Fatalf("evict b: %v", err)
	}

	if got := len(svc.ListEvictions()); got != 2 {
		t.Fatalf("expected 2 evictions, got %d", got)
	}
	records := svc.ListRoomEvictions(roomA.ID)
	if len(records) != 1 || records[0].RoomID != roomA.ID {
		t.Fatalf("room ledger mismatch: %+v", records)
	}
}

func TestDeleteEvictionCorrection(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dorm := mustDormitory(t, svc, 1, "5 Main Street")
	room := mustRoom(t, svc, dorm.ID, 101, 2)
	a := mustResident(t, svc, "Anna Petrova")

	if _, _, err := svc.Settle(ctx, room.ID, []string{a.ID}, nil); err != nil {
		t.Fatalf("settle: %v", err)
	}
	rec, _, err := svc.EvictOccupant(ctx, a.ID, "transfer")
	if err != nil {
		t.Fatalf("evict: %v", err)
	}
	if _, err := svc.DeleteEviction(ctx, rec.ID); err != nil {
		t.Fatalf("delete eviction: %v", err)
	}
	if got := len(svc.ListEvictions()); got != 0 {
		t.Fatalf("ledger must be empty, got %d", got)
	}

	var notFound domain.NotFoundError
	if _, err := svc.DeleteEviction(ctx, rec.ID); !errors.As(err, &notFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
