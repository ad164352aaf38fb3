package core

import (
	"context"
	"fmt"

	"dormcore/pkg/domain"
)

// NewRoomCapacityRule returns the in-transaction rule enforcing room capacity
// constraints across the whole snapshot.
func NewRoomCapacityRule() domain.Rule {
	return roomCapacityRule{}
}

type roomCapacityRule struct{}

func (roomCapacityRule) Name() string { return "room_capacity" }

func (roomCapacityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, room := range view.ListRooms() {
		if len(room.OccupantIDs) > room.Capacity {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "room_capacity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("room %d (%s) over capacity: %d/%d occupants", room.Number, room.ID, len(room.OccupantIDs), room.Capacity),
				Entity:   domain.EntityRoom,
				EntityID: room.ID,
			})
		}
	}
	return res, nil
}
