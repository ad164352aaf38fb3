package core

import (
	"context"
	"fmt"

	"dormcore/pkg/domain"
)

// NewRoomMembershipRule returns the in-transaction rule enforcing that no
// occupant is listed twice within a room or assigned to more than one room.
func NewRoomMembershipRule() domain.Rule {
	return roomMembershipRule{}
}

type roomMembershipRule struct{}

func (roomMembershipRule) Name() string { return "room_membership" }

func (roomMembershipRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	assigned := make(map[string]string)
	for _, room := range view.ListRooms() {
		seen := make(map[string]struct{}, len(room.OccupantIDs))
		for _, occupantID := range room.OccupantIDs {
			if _, dup := seen[occupantID]; dup {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "room_membership",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("occupant %s listed twice in room %d (%s)", occupantID, room.Number, room.ID),
					Entity:   domain.EntityRoom,
					EntityID: room.ID,
				})
				continue
			}
			seen[occupantID] = struct{}{}
			if otherRoomID, ok := assigned[occupantID]; ok {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "room_membership",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("occupant %s assigned to rooms %s and %s", occupantID, otherRoomID, room.ID),
					Entity:   domain.EntityRoom,
					EntityID: room.ID,
				})
				continue
			}
			assigned[occupantID] = room.ID
		}
	}
	return res, nil
}
