package core

import (
	"context"
	"fmt"

	"dormcore/pkg/domain"
)

// InitializeSettlement records a pending settlement after a capacity
// precheck. The occupants are not moved yet.
func (s *Service) InitializeSettlement(ctx context.Context, roomID string, occupantIDs []string, documentID *string) (Settlement, Result, error) {
	var created Settlement
	res, err := s.run(ctx, "initialize_settlement", func(tx Transaction) error {
		room, ok := tx.FindRoom(roomID)
		if !ok {
			return domain.NotFoundError{Entity: EntityRoom, ID: roomID}
		}
		pending := 0
		for _, occupantID := range occupantIDs {
			if err := verifyOccupantExists(tx, occupantID); err != nil {
				return err
			}
			if !room.HasOccupant(occupantID) {
				pending++
			}
		}
		if pending > room.AvailablePlaces() {
			return domain.CapacityError{RoomID: roomID, Capacity: room.Capacity, Occupied: len(room.OccupantIDs), Requested: pending}
		}
		var err error
		created, err = tx.CreateSettlement(Settlement{
			RoomID:      roomID,
			DocumentID:  documentID,
			OccupantIDs: occupantIDs,
			Status:      SettlementInitialized,
		})
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// PerformSettlement executes an initialized settlement. The status moves to
// InProgress in its own transaction so a failed execution leaves a visible
// in-progress record that can be cancelled. The room mutation and the
// Completed status commit atomically: a capacity or membership failure
// discards both.
func (s *Service) PerformSettlement(ctx context.Context, id string) (Settlement, Result, error) {
	var record Settlement
	res, err := s.runPhased(ctx, "perform_settlement",
		func(tx Transaction) error {
			_, err := tx.UpdateSettlement(id, func(rec *Settlement) error {
				if rec.Status != SettlementInitialized {
					return domain.ValidationError{Field: "status", Reason: fmt.Sprintf("cannot perform settlement in status %s", rec.Status)}
				}
				rec.Status = SettlementInProgress
				return nil
			})
			return err
		},
		func(tx Transaction) error {
			current, ok := tx.FindSettlement(id)
			if !ok {
				return domain.NotFoundError{Entity: EntitySettlement, ID: id}
			}
			room, ok := tx.FindRoom(current.RoomID)
			if !ok {
				return domain.NotFoundError{Entity: EntityRoom, ID: current.RoomID}
			}
			for _, occupantID := range current.OccupantIDs {
				if err := verifyOccupantExists(tx, occupantID); err != nil {
					return err
				}
				added, err := tx.AddRoomOccupant(current.RoomID, occupantID)
				if err != nil {
					return err
				}
				if !added {
					if room, _ = tx.FindRoom(current.RoomID); room.HasOccupant(occupantID) {
						return domain.ConflictError{Entity: EntityRoom, Key: occupantID}
					}
					return domain.CapacityError{RoomID: current.RoomID, Capacity: room.Capacity, Occupied: room.Capacity, Requested: 1}
				}
			}
			var err error
			record, err = tx.UpdateSettlement(id, func(rec *Settlement) error {
				rec.Status = SettlementCompleted
				return nil
			})
			return err
		},
		func() string { return id },
	)
	if err != nil {
		return Settlement{}, res, err
	}
	return record, res, nil
}

// CancelSettlement aborts a settlement that has not completed.
func (s *Service) CancelSettlement(ctx context.Context, id string) (Settlement, Result, error) {
	var record Settlement
	res, err := s.run(ctx, "cancel_settlement", func(tx Transaction) error {
		var err error
		record, err = tx.UpdateSettlement(id, func(rec *Settlement) error {
			switch rec.Status {
			case SettlementInitialized, SettlementInProgress:
				rec.Status = SettlementCancelled
				return nil
			default:
				return domain.ValidationError{Field: "status", Reason: fmt.Sprintf("cannot cancel settlement in status %s", rec.Status)}
			}
		})
		return err
	}, func() string { return id })
	return record, res, err
}

// Settle moves a batch of occupants into a room in one transaction and
// records the completed settlement. This is the one-shot path; the
// Initialize/Perform pair exists for flows that need an intermediate record.
func (s *Service) Settle(ctx context.Context, roomID string, occupantIDs []string, documentID *string) (Settlement, Result, error) {
	var record Settlement
	res, err := s.run(ctx, "settle", func(tx Transaction) error {
		room, ok := tx.FindRoom(roomID)
		if !ok {
			return domain.NotFoundError{Entity: EntityRoom, ID: roomID}
		}
		for _, occupantID := range occupantIDs {
			if err := verifyOccupantExists(tx, occupantID); err != nil {
				return err
			}
			added, err := tx.AddRoomOccupant(roomID, occupantID)
			if err != nil {
				return err
			}
			if !added {
				if current, _ := tx.FindRoom(roomID); current.HasOccupant(occupantID) {
					return domain.ConflictError{Entity: EntityRoom, Key: occupantID}
				}
				return domain.CapacityError{RoomID: roomID, Capacity: room.Capacity, Occupied: len(room.OccupantIDs), Requested: len(occupantIDs)}
			}
		}
		var err error
		record, err = tx.CreateSettlement(Settlement{
			RoomID:      roomID,
			DocumentID:  documentID,
			OccupantIDs: occupantIDs,
			Status:      SettlementCompleted,
		})
		return err
	}, func() string { return record.ID })
	return record, res, err
}

// DeleteSettlement removes a ledger record outright. This is a correction
// mechanism for mis-entered records, not part of the settlement lifecycle.
// Cancelling is the normal way to void a settlement.
func (s *Service) DeleteSettlement(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_settlement", func(tx Transaction) error {
		return tx.DeleteSettlement(id)
	}, func() string { return id })
}

// GetSettlement retrieves a settlement record from committed state.
func (s *Service) GetSettlement(ctx context.Context, id string) (Settlement, bool, error) {
	var (
		found Settlement
		ok    bool
	)
	err := s.store.View(ctx, func(view TransactionView) error {
		found, ok = view.FindSettlement(id)
		return nil
	})
	return found, ok, err
}

// ListSettlements returns the settlement ledger ordered by date.
func (s *Service) ListSettlements() []Settlement {
	return sortSettlements(s.store.ListSettlements())
}

// ListRoomSettlements returns the settlement ledger for one room.
func (s *Service) ListRoomSettlements(roomID string) []Settlement {
	var out []Settlement
	for _, rec := range s.store.ListSettlements() {
		if rec.RoomID == roomID {
			out = append(out, rec)
		}
	}
	return sortSettlements(out)
}

func verifyOccupantExists(tx Transaction, occupantID string) error {
	if _, ok := tx.FindResident(occupantID); ok {
		return nil
	}
	if _, ok := tx.FindChild(occupantID); ok {
		return nil
	}
	return domain.NotFoundError{Entity: EntityResident, ID: occupantID}
}
