package core_test

import (
	"context"
	"errors"
	"testing"

	"dormcore/pkg/domain"
)

func TestBuildDormitorySummary(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dorm := mustDormitory(t, svc, 1, "5 Main Street")
	room1 := mustRoom(t, svc, dorm.ID, 101, 2)
	mustRoom(t, svc, dorm.ID, 102, 3)
	a := mustResident(t, svc, "Anna Petrova")

	if _, _, err := svc.Settle(ctx, room1.ID, []string{a.ID}, nil); err != nil {
		t.Fatalf("settle: %v", err)
	}

	summary, err := svc.BuildDormitorySummary(ctx, dorm.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalCapacity != 5 || summary.TotalOccupied != 1 || summary.AvailablePlaces != 4 {
		t.Fatalf("totals mismatch: %+v", summary)
	}
	if summary.OccupancyPercent != 20 {
		t.Fatalf("occupancy percent %v, want 20", summary.OccupancyPercent)
	}
	if len(summary.Rooms) != 2 || summary.Rooms[0].Room.Number != 101 {
		t.Fatal("rooms must be ordered by number")
	}
	if summary.Rooms[0].OccupantNames != "Anna Petrova" {
		t.Fatalf("occupant names mismatch: %q", summary.Rooms[0].OccupantNames)
	}
	if summary.Rooms[1].Occupied != 0 || summary.Rooms[1].AvailablePlaces != 3 {
		t.Fatalf("empty room summary mismatch: %+v", summary.Rooms[1])
	}

	var notFound domain.NotFoundError
	if _, err := svc.BuildDormitorySummary(ctx, "missing"); !errors.As(err, &notFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListDormitorySummariesOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	second := mustDormitory(t, svc, 2, "9 Back Street")
	first := mustDormitory(t, svc, 1, "5 Main Street")
	mustRoom(t, svc, first.ID, 101, 2)
	mustRoom(t, svc, second.ID, 201, 4)

	summaries, err := svc.ListDormitorySummaries(ctx)
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].Dormitory.Number != 1 || summaries[1].Dormitory.Number != 2 {
		t.Fatal("summaries must be ordered by facility number")
	}
	if summaries[1].TotalCapacity != 4 {
		t.Fatalf("capacity mismatch: %+v", summaries[1])
	}
}

func TestSummaryCountsUnknownOccupants(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dorm := mustDormitory(t, svc, 1, "5 Main Street")
	room := mustRoom(t, svc, dorm.ID, 101, 2)
	a := mustResident(t, svc, "Anna Petrova")

	if _, _, err := svc.Settle(ctx, room.ID, []string{a.ID}, nil); err != nil {
		t.Fatalf("settle: %v", err)
	}
	// Occupant removal does not cascade to room membership; the summary still
	// counts the place as taken and falls back to the raw id for the name.
	if _, err := svc.RemoveOccupant(ctx, a.ID); err != nil {
		t.Fatalf("remove occupant: %v", err)
	}

	summary, err := svc.BuildDormitorySummary(ctx, dorm.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalOccupied != 1 {
		t.Fatalf("unknown occupant must still occupy a place, got %d", summary.TotalOccupied)
	}
	if summary.Rooms[0].OccupantNames != a.ID {
		t.Fatalf("name must fall back to the id, got %q", summary.Rooms[0].OccupantNames)
	}
}
