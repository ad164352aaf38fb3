package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dormcore/internal/core"
	"dormcore/pkg/domain"
)

func newTestService(t *testing.T, opts ...core.ServiceOption) *core.Service {
	t.Helper()
	return core.NewInMemoryService(core.NewDefaultRulesEngine(), opts...)
}

func mustDormitory(t *testing.T, svc *core.Service, number int, address string) core.Dormitory {
	t.Helper()
	dorm, _, err := svc.CreateDormitory(context.Background(), core.Dormitory{Number: number, Address: address})
	if err != nil {
		t.Fatalf("create dormitory: %v", err)
	}
	return dorm
}

func mustRoom(t *testing.T, svc *core.Service, dormitoryID string, number, capacity int) core.Room {
	t.Helper()
	room, _, err := svc.CreateRoom(context.Background(), core.Room{DormitoryID: dormitoryID, Number: number, Capacity: capacity, Floor: 1})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return room
}

func mustResident(t *testing.T, svc *core.Service, name string) core.Resident {
	t.Helper()
	res, _, err := svc.RegisterResident(context.Background(), core.Resident{
		FullName:  name,
		BirthDate: time.Date(1994, 7, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("register resident %s: %v", name, err)
	}
	return res
}

func TestDormitoryLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dorm := mustDormitory(t, svc, 1, "5 Main Street")

	if _, _, err := svc.CreateDormitory(ctx, core.Dormitory{Number: 1, Address: "7 Side Street"}); err == nil {
		t.Fatal("duplicate dormitory number must fail")
	}

	updated, _, err := svc.UpdateDormitory(ctx, dorm.ID, func(d *core.Dormitory) error {
		d.Address = "5 Main Street, Building A"
		return nil
	})
	if err != nil {
		t.Fatalf("update dormitory: %v", err)
	}
	if updated.Address != "5 Main Street, Building A" {
		t.Fatalf("address not updated: %q", updated.Address)
	}

	found, ok, err := svc.FindDormitoryByNumber(ctx, 1)
	if err != nil || !ok || found.ID != dorm.ID {
		t.Fatalf("find by number: ok=%v err=%v", ok, err)
	}

	if _, err := svc.DeleteDormitory(ctx, dorm.ID); err != nil {
		t.Fatalf("delete dormitory: %v", err)
	}
	if len(svc.ListDormitories()) != 0 {
		t.Fatal("dormitory list must be empty after delete")
	}
}

func TestDeleteDormitoryWithOccupantsFails(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dorm := mustDormitory(t, svc, 1, "5 Main Street")
	room := mustRoom(t, svc, dorm.ID, 101, 2)
	res := mustResident(t, svc, "Anna Petrova")

	if _, _, err := svc.Settle(ctx, room.ID, []string{res.ID}, nil); err != nil {
		t.Fatalf("settle: %v", err)
	}

	_, err := svc.DeleteDormitory(ctx, dorm.ID)
	var vErr domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// Delete succeeds once the room is empty; empty rooms go with the building.
	if _, _, err := svc.EvictOccupant(ctx, res.ID, "lease ended"); err != nil {
		t.Fatalf("evict: %v", err)
	}
	if _, err := svc.DeleteDormitory(ctx, dorm.ID); err != nil {
		t.Fatalf("delete after eviction: %v", err)
	}
	if len(svc.ListRooms()) != 0 {
		t.Fatal("rooms must be deleted with the dormitory")
	}
}

func TestRegisterOccupantIsAtomic(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dorm := mustDormitory(t, svc, 1, "5 Main Street")
	room := mustRoom(t, svc, dorm.ID, 101, 2)

	r1, rec1, _, err := svc.RegisterOccupant(ctx, core.Resident{FullName: "Anna Petrova", BirthDate: time.Date(1994, 7, 2, 0, 0, 0, 0, time.UTC)}, room.ID, nil)
	if err != nil {
		t.Fatalf("register first occupant: %v", err)
	}
	if rec1.Status != core.SettlementCompleted {
		t.Fatalf("settlement status %s, want completed", rec1.Status)
	}
	if _, _, _, err := svc.RegisterOccupant(ctx, core.Resident{FullName: "Boris Ivanov", BirthDate: time.Date(1992, 3, 4, 0, 0, 0, 0, time.UTC)}, room.ID, nil); err != nil {
		t.Fatalf("register second occupant: %v", err)
	}

	// Third registration exceeds capacity: neither resident nor settlement
	// may survive the failed transaction.
	_, _, _, err = svc.RegisterOccupant(ctx, core.Resident{FullName: "Carl Sidorov", BirthDate: time.Date(1991, 1, 1, 0, 0, 0, 0, time.UTC)}, room.ID, nil)
	var capErr domain.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if got := len(svc.ListResidents()); got != 2 {
		t.Fatalf("failed registration leaked a resident, have %d", got)
	}
	if got := len(svc.ListSettlements()); got != 2 {
		t.Fatalf("failed registration leaked a settlement, have %d", got)
	}

	got, ok, err := svc.OccupantRoom(ctx, r1.ID)
	if err != nil || !ok || got.ID != room.ID {
		t.Fatalf("occupant room: ok=%v err=%v", ok, err)
	}
}

func TestRegisterOccupantWithDocument(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dorm := mustDormitory(t, svc, 1, "5 Main Street")
	room := mustRoom(t, svc, dorm.ID, 101, 2)
	doc := mustDocument(t, svc, "AB", "123456")

	res, rec, _, err := svc.RegisterOccupant(ctx, core.Resident{FullName: "Anna Petrova", BirthDate: time.Date(1994, 7, 2, 0, 0, 0, 0, time.UTC)}, room.ID, &doc.ID)
	if err != nil {
		t.Fatalf("register with document: %v", err)
	}
	if rec.DocumentID == nil || *rec.DocumentID != doc.ID {
		t.Fatal("settlement must reference the presented document")
	}
	docs, err := svc.ListOccupantDocuments(ctx, res.ID)
	if err != nil {
		t.Fatalf("list occupant documents: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != doc.ID {
		t.Fatalf("expected the presented document linked, got %d", len(docs))
	}

	// An expired document blocks the whole registration.
	stale, _, err := svc.CreateDocument(ctx, core.Document{
		Series:    "CD",
		Number:    "654321",
		Title:     "Settlement order",
		IssueDate: time.Now().UTC().AddDate(-11, 0, 0),
		IssuedBy:  "Housing office",
	})
	if err != nil {
		t.Fatalf("create stale document: %v", err)
	}
	_, _, _, err = svc.RegisterOccupant(ctx, core.Resident{FullName: "Boris Ivanov", BirthDate: time.Date(1992, 3, 4, 0, 0, 0, 0, time.UTC)}, room.ID, &stale.ID)
	var valErr domain.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected validation error for expired document, got %v", err)
	}
	if got := len(svc.ListResidents()); got != 1 {
		t.Fatalf("failed registration leaked a resident, have %d", got)
	}
}

func TestUpdateResidentKeepsPassport(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	res, _, err := svc.RegisterResident(ctx, core.Resident{
		FullName:  "Anna Petrova",
		BirthDate: time.Date(1994, 7, 2, 0, 0, 0, 0, time.UTC),
		Passport:  domain.Passport{Series: "AB", Number: "123456", IssuedBy: "City office", IssuedAt: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, _, err := svc.UpdateResident(ctx, res.ID, func(r *core.Resident) error {
		r.Workplace = "Depot 4"
		r.Employed = true
		r.Passport = domain.Passport{Series: "ZZ", Number: "000000"}
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Employed || updated.Workplace != "Depot 4" {
		t.Fatal("mutable fields not applied")
	}
	if updated.Passport.Series != "AB" || updated.Passport.Number != "123456" {
		t.Fatalf("passport must be immutable, got %+v", updated.Passport)
	}
}

func TestRegisterChildRequiresParent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.RegisterChild(ctx, core.Child{
		FullName:         "Misha Petrov",
		BirthDate:        time.Date(2018, 9, 1, 0, 0, 0, 0, time.UTC),
		ParentResidentID: "missing",
	})
	var notFound domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected missing parent error, got %v", err)
	}

	parent := mustResident(t, svc, "Anna Petrova")
	child, _, err := svc.RegisterChild(ctx, core.Child{
		FullName:         "Misha Petrov",
		BirthDate:        time.Date(2018, 9, 1, 0, 0, 0, 0, time.UTC),
		ParentResidentID: parent.ID,
	})
	if err != nil {
		t.Fatalf("register child: %v", err)
	}

	children := svc.ListResidentChildren(parent.ID)
	if len(children) != 1 || children[0].ID != child.ID {
		t.Fatalf("expected the registered child, got %d", len(children))
	}

	// Removing the parent leaves the child record intact.
	if _, err := svc.RemoveOccupant(ctx, parent.ID); err != nil {
		t.Fatalf("remove parent: %v", err)
	}
	if got := svc.ListResidentChildren(parent.ID); len(got) != 1 {
		t.Fatalf("weak parent reference must survive removal, got %d", len(got))
	}
	found, ok, err := svc.FindOccupant(ctx, child.ID)
	if err != nil || !ok {
		t.Fatalf("child lost after parent removal: ok=%v err=%v", ok, err)
	}
	if found.Type() != domain.OccupantChild {
		t.Fatalf("unexpected occupant type %s", found.Type())
	}
}

func TestListRoomOccupantsSkipsUnknownIDs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dorm := mustDormitory(t, svc, 1, "5 Main Street")
	room := mustRoom(t, svc, dorm.ID, 101, 2)
	a := mustResident(t, svc, "Anna Petrova")
	b := mustResident(t, svc, "Boris Ivanov")
	if _, _, err := svc.Settle(ctx, room.ID, []string{a.ID, b.ID}, nil); err != nil {
		t.Fatalf("settle: %v", err)
	}

	occupants, err := svc.ListRoomOccupants(ctx, room.ID)
	if err != nil {
		t.Fatalf("list room occupants: %v", err)
	}
	if len(occupants) != 2 {
		t.Fatalf("expected 2 occupants, got %d", len(occupants))
	}

	// A removed occupant still holds the place but drops out of the
	// resolved projection.
	if _, err := svc.RemoveOccupant(ctx, b.ID); err != nil {
		t.Fatalf("remove occupant: %v", err)
	}
	occupants, err = svc.ListRoomOccupants(ctx, room.ID)
	if err != nil {
		t.Fatalf("list room occupants: %v", err)
	}
	if len(occupants) != 1 || occupants[0].OccupantID() != a.ID {
		t.Fatalf("expected only the remaining resident, got %d", len(occupants))
	}

	var notFound domain.NotFoundError
	if _, err := svc.ListRoomOccupants(ctx, "missing"); !errors.As(err, &notFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListOccupantsOrdersResidentsFirst(t *testing.T) {
	svc := newTestService(t)
	parent := mustResident(t, svc, "Zoya Orlova")
	mustResident(t, svc, "Anna Petrova")
	if _, _, err := svc.RegisterChild(context.Background(), core.Child{
		FullName:         "Misha Petrov",
		BirthDate:        time.Date(2018, 9, 1, 0, 0, 0, 0, time.UTC),
		ParentResidentID: parent.ID,
	}); err != nil {
		t.Fatalf("register child: %v", err)
	}

	occupants := svc.ListOccupants()
	if len(occupants) != 3 {
		t.Fatalf("expected 3 occupants, got %d", len(occupants))
	}
	if occupants[0].OccupantName() != "Anna Petrova" || occupants[1].OccupantName() != "Zoya Orlova" {
		t.Fatal("residents must come first, sorted by name")
	}
	if occupants[2].Type() != domain.OccupantChild {
		t.Fatal("children must come last")
	}
}
