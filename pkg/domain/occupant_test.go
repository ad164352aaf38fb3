package domain

import (
	"testing"
	"time"
)

func TestOccupantVariants(t *testing.T) {
	birth := time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC)
	r := Resident{Base: Base{ID: "r-1"}, FullName: "Anna Petrova", BirthDate: birth}
	c := Child{Base: Base{ID: "c-1"}, FullName: "Misha Petrov", BirthDate: birth.AddDate(25, 0, 0), ParentResidentID: "r-1"}

	var occupants = []Occupant{r, c}
	if occupants[0].Type() != OccupantResident {
		t.Fatalf("expected resident variant, got %s", occupants[0].Type())
	}
	if occupants[1].Type() != OccupantChild {
		t.Fatalf("expected child variant, got %s", occupants[1].Type())
	}
	if occupants[0].OccupantID() != "r-1" || occupants[0].OccupantName() != "Anna Petrova" {
		t.Fatal("resident identity accessors mismatch")
	}
	if !occupants[1].OccupantBirthDate().Equal(c.BirthDate) {
		t.Fatal("child birth date accessor mismatch")
	}
}

func TestAgeAt(t *testing.T) {
	birth := time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)
	r := Resident{BirthDate: birth}

	cases := []struct {
		at   time.Time
		want int
	}{
		{time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), 24},
		{time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), 25},
		{time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), 25},
		{time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tc := range cases {
		if got := AgeAt(r, tc.at); got != tc.want {
			t.Fatalf("AgeAt(%s) = %d, want %d", tc.at.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestRoomHelpers(t *testing.T) {
	room := Room{Capacity: 3, OccupantIDs: []string{"a", "b"}}
	if room.AvailablePlaces() != 1 {
		t.Fatalf("expected 1 available place, got %d", room.AvailablePlaces())
	}
	if !room.HasOccupant("a") || room.HasOccupant("z") {
		t.Fatal("occupant membership mismatch")
	}
}
