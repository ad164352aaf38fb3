package core

import (
	"context"
	"fmt"
	"strings"

	"dormcore/pkg/domain"
)

// InitializeEviction records a pending eviction. The occupants stay in the
// room until the eviction is performed.
func (s *Service) InitializeEviction(ctx context.Context, roomID, reason string, occupantIDs []string, settlementID *string) (Eviction, Result, error) {
	var created Eviction
	res, err := s.run(ctx, "initialize_eviction", func(tx Transaction) error {
		if _, ok := tx.FindRoom(roomID); !ok {
			return domain.NotFoundError{Entity: EntityRoom, ID: roomID}
		}
		var err error
		created, err = tx.CreateEviction(Eviction{
			RoomID:       roomID,
			Reason:       reason,
			SettlementID: settlementID,
			OccupantIDs:  occupantIDs,
			Status:       EvictionInitialized,
		})
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// PerformEviction executes an initialized eviction. Occupants absent from the
// room are recorded in the skip list instead of failing the transaction; the
// eviction still reaches Executed when at least the present occupants are
// removed.
func (s *Service) PerformEviction(ctx context.Context, id string) (Eviction, Result, error) {
	var record Eviction
	res, err := s.runPhased(ctx, "perform_eviction",
		func(tx Transaction) error {
			_, err := tx.UpdateEviction(id, func(rec *Eviction) error {
				if rec.Status != EvictionInitialized {
					return domain.ValidationError{Field: "status", Reason: fmt.Sprintf("cannot perform eviction in status %s", rec.Status)}
				}
				rec.Status = EvictionInProgress
				return nil
			})
			return err
		},
		func(tx Transaction) error {
			current, ok := tx.FindEviction(id)
			if !ok {
				return domain.NotFoundError{Entity: EntityEviction, ID: id}
			}
			if _, ok := tx.FindRoom(current.RoomID); !ok {
				return domain.NotFoundError{Entity: EntityRoom, ID: current.RoomID}
			}
			var skipped []string
			for _, occupantID := range current.OccupantIDs {
				removed, err := tx.RemoveRoomOccupant(current.RoomID, occupantID)
				if err != nil {
					return err
				}
				if !removed {
					skipped = append(skipped, occupantID)
				}
			}
			var err error
			record, err = tx.UpdateEviction(id, func(rec *Eviction) error {
				rec.SkippedOccupantIDs = skipped
				rec.Status = EvictionExecuted
				return nil
			})
			return err
		},
		func() string { return id },
	)
	if err != nil {
		return Eviction{}, res, err
	}
	return record, res, nil
}

// CancelEviction aborts an eviction that has not executed.
func (s *Service) CancelEviction(ctx context.Context, id string) (Eviction, Result, error) {
	var record Eviction
	res, err := s.run(ctx, "cancel_eviction", func(tx Transaction) error {
		var err error
		record, err = tx.UpdateEviction(id, func(rec *Eviction) error {
			switch rec.Status {
			case EvictionInitialized, EvictionInProgress:
				rec.Status = EvictionCancelled
				return nil
			default:
				return domain.ValidationError{Field: "status", Reason: fmt.Sprintf("cannot cancel eviction in status %s", rec.Status)}
			}
		})
		return err
	}, func() string { return id })
	return record, res, err
}

// EvictOccupant removes a single occupant from their current room in one
// transaction and records the executed eviction. The occupant record itself
// is not deleted.
func (s *Service) EvictOccupant(ctx context.Context, occupantID, reason string) (Eviction, Result, error) {
	if strings.TrimSpace(reason) == "" {
		err := domain.ValidationError{Field: "reason", Reason: "must not be empty"}
		s.recordAuditError(ctx, "evict_occupant", err, 0)
		return Eviction{}, Result{}, err
	}
	var record Eviction
	res, err := s.run(ctx, "evict_occupant", func(tx Transaction) error {
		view := tx.Snapshot()
		var roomID string
		for _, room := range view.ListRooms() {
			if room.HasOccupant(occupantID) {
				roomID = room.ID
				break
			}
		}
		if roomID == "" {
			return domain.ValidationError{Field: "occupant_id", Reason: "not settled in any room"}
		}
		if _, err := tx.RemoveRoomOccupant(roomID, occupantID); err != nil {
			return err
		}
		var err error
		record, err = tx.CreateEviction(Eviction{
			RoomID:      roomID,
			Reason:      reason,
			OccupantIDs: []string{occupantID},
			Status:      EvictionExecuted,
		})
		return err
	}, func() string { return record.ID })
	return record, res, err
}

// DeleteEviction removes a ledger record outright, as an explicit correction.
func (s *Service) DeleteEviction(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_eviction", func(tx Transaction) error {
		return tx.DeleteEviction(id)
	}, func() string { return id })
}

// GetEviction retrieves an eviction record from committed state.
func (s *Service) GetEviction(ctx context.Context, id string) (Eviction, bool, error) {
	var (
		found Eviction
		ok    bool
	)
	err := s.store.View(ctx, func(view TransactionView) error {
		found, ok = view.FindEviction(id)
		return nil
	})
	return found, ok, err
}

// ListEvictions returns the eviction ledger ordered by date.
func (s *Service) ListEvictions() []Eviction {
	return sortEvictions(s.store.ListEvictions())
}

// ListRoomEvictions returns the eviction ledger for one room.
func (s *Service) ListRoomEvictions(roomID string) []Eviction {
	var out []Eviction
	for _, rec := range s.store.ListEvictions() {
		if rec.RoomID == roomID {
			out = append(out, rec)
		}
	}
	return sortEvictions(out)
}
