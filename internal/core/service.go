package core

import (
	"context"
	"sort"
	"time"

	"dormcore/internal/infra/persistence/memory"
	"dormcore/pkg/domain"
)

// Service exposes higher-level transactional operations over the occupancy
// store. It is the single entry point used by transports and tooling.
type Service struct {
	store       PersistentStore
	logger      Logger
	clock       Clock
	audit       AuditRecorder
	metrics     MetricsRecorder
	tracer      Tracer
	permissions *PermissionManager
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		logger: noopLogger{},
		clock:  ClockFunc(func() time.Time { return time.Now().UTC() }),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service and in-memory store with the given
// rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// Dormitories ----------------------------------------------------------------

// CreateDormitory persists a new dormitory.
func (s *Service) CreateDormitory(ctx context.Context, dormitory Dormitory) (Dormitory, Result, error) {
	var created Dormitory
	res, err := s.run(ctx, "create_dormitory", func(tx Transaction) error {
		var err error
		created, err = tx.CreateDormitory(dormitory)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateDormitory mutates a dormitory using the provided mutator.
func (s *Service) UpdateDormitory(ctx context.Context, id string, mutator func(*Dormitory) error) (Dormitory, Result, error) {
	var updated Dormitory
	res, err := s.run(ctx, "update_dormitory", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateDormitory(id, mutator)
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// DeleteDormitory removes a dormitory together with its empty rooms.
func (s *Service) DeleteDormitory(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_dormitory", func(tx Transaction) error {
		return tx.DeleteDormitory(id)
	}, func() string { return id })
}

// GetDormitory retrieves a dormitory from committed state.
func (s *Service) GetDormitory(id string) (Dormitory, bool) {
	return s.store.GetDormitory(id)
}

// FindDormitoryByNumber retrieves a dormitory by its facility number.
func (s *Service) FindDormitoryByNumber(ctx context.Context, number int) (Dormitory, bool, error) {
	var found Dormitory
	ok := false
	err := s.store.View(ctx, func(view TransactionView) error {
		for _, d := range view.ListDormitories() {
			if d.Number == number {
				found = d
				ok = true
				return nil
			}
		}
		return nil
	})
	return found, ok, err
}

// ListDormitories returns all dormitories ordered by facility number.
func (s *Service) ListDormitories() []Dormitory {
	out := s.store.ListDormitories()
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Rooms ----------------------------------------------------------------------

// CreateRoom persists a new room under an existing dormitory.
func (s *Service) CreateRoom(ctx context.Context, room Room) (Room, Result, error) {
	var created Room
	res, err := s.run(ctx, "create_room", func(tx Transaction) error {
		var err error
		created, err = tx.CreateRoom(room)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateRoom mutates a room using the provided mutator. Occupancy cannot be
// changed through this path.
func (s *Service) UpdateRoom(ctx context.Context, id string, mutator func(*Room) error) (Room, Result, error) {
	var updated Room
	res, err := s.run(ctx, "update_room", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateRoom(id, mutator)
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// DeleteRoom removes an empty room.
func (s *Service) DeleteRoom(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_room", func(tx Transaction) error {
		return tx.DeleteRoom(id)
	}, func() string { return id })
}

// GetRoom retrieves a room from committed state.
func (s *Service) GetRoom(id string) (Room, bool) {
	return s.store.GetRoom(id)
}

// ListRooms returns all rooms.
func (s *Service) ListRooms() []Room {
	out := s.store.ListRooms()
	sort.Slice(out, func(i, j int) bool {
		if out[i].DormitoryID != out[j].DormitoryID {
			return out[i].DormitoryID < out[j].DormitoryID
		}
		return out[i].Number < out[j].Number
	})
	return out
}

// ListDormitoryRooms returns the rooms belonging to one dormitory ordered by
// room number.
func (s *Service) ListDormitoryRooms(dormitoryID string) []Room {
	var out []Room
	for _, room := range s.store.ListRooms() {
		if room.DormitoryID == dormitoryID {
			out = append(out, room)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Occupants ------------------------------------------------------------------

// RegisterResident persists a new adult resident.
func (s *Service) RegisterResident(ctx context.Context, resident Resident) (Resident, Result, error) {
	var created Resident
	res, err := s.run(ctx, "register_resident", func(tx Transaction) error {
		var err error
		created, err = tx.CreateResident(resident)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateResident mutates a resident record.
func (s *Service) UpdateResident(ctx context.Context, id string, mutator func(*Resident) error) (Resident, Result, error) {
	var updated Resident
	res, err := s.run(ctx, "update_resident", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateResident(id, mutator)
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// RegisterChild persists a new dependent child. The parent must be a
// registered resident at registration time.
func (s *Service) RegisterChild(ctx context.Context, child Child) (Child, Result, error) {
	var created Child
	res, err := s.run(ctx, "register_child", func(tx Transaction) error {
		var err error
		created, err = tx.CreateChild(child)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateChild mutates a child record.
func (s *Service) UpdateChild(ctx context.Context, id string, mutator func(*Child) error) (Child, Result, error) {
	var updated Child
	res, err := s.run(ctx, "update_child", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateChild(id, mutator)
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// RemoveOccupant deletes an occupant record unconditionally. Room membership,
// document links and dependent children are intentionally left untouched.
func (s *Service) RemoveOccupant(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "remove_occupant", func(tx Transaction) error {
		return tx.DeleteOccupant(id)
	}, func() string { return id })
}

// RegisterOccupant registers a resident and settles them into the given room
// within one transaction. When a document id is supplied it must be valid as
// of the settlement date and is linked to the new resident. Either all
// effects commit or none do.
func (s *Service) RegisterOccupant(ctx context.Context, resident Resident, roomID string, documentID *string) (Resident, Settlement, Result, error) {
	var (
		created Resident
		record  Settlement
	)
	res, err := s.run(ctx, "register_occupant", func(tx Transaction) error {
		if documentID != nil {
			doc, ok := tx.FindDocument(*documentID)
			if !ok {
				return domain.NotFoundError{Entity: EntityDocument, ID: *documentID}
			}
			if err := domain.CheckDocumentValidity(doc, s.clock.Now()); err != nil {
				return err
			}
		}
		var err error
		created, err = tx.CreateResident(resident)
		if err != nil {
			return err
		}
		room, ok := tx.FindRoom(roomID)
		if !ok {
			return domain.NotFoundError{Entity: EntityRoom, ID: roomID}
		}
		added, err := tx.AddRoomOccupant(roomID, created.ID)
		if err != nil {
			return err
		}
		if !added {
			return domain.CapacityError{RoomID: roomID, Capacity: room.Capacity, Occupied: len(room.OccupantIDs), Requested: 1}
		}
		if documentID != nil {
			if _, err := tx.CreateLink(DocumentOccupantLink{
				DocumentID: *documentID,
				OccupantID: created.ID,
			}); err != nil {
				return err
			}
		}
		record, err = tx.CreateSettlement(Settlement{
			RoomID:      roomID,
			DocumentID:  documentID,
			OccupantIDs: []string{created.ID},
			Status:      SettlementCompleted,
		})
		return err
	}, func() string { return created.ID })
	return created, record, res, err
}

// ListResidents returns all registered residents ordered by name.
func (s *Service) ListResidents() []Resident {
	out := s.store.ListResidents()
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

// ListChildren returns all registered children ordered by name.
func (s *Service) ListChildren() []Child {
	out := s.store.ListChildren()
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

// ListResidentChildren returns the children whose parent reference matches
// the given resident id, ordered by name. The reference is a weak one, so the
// parent may have since been removed from the registry.
func (s *Service) ListResidentChildren(residentID string) []Child {
	var out []Child
	for _, c := range s.store.ListChildren() {
		if c.ParentResidentID == residentID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

// ListOccupants returns every occupant, residents first.
func (s *Service) ListOccupants() []Occupant {
	residents := s.ListResidents()
	children := s.ListChildren()
	out := make([]Occupant, 0, len(residents)+len(children))
	for _, r := range residents {
		out = append(out, r)
	}
	for _, c := range children {
		out = append(out, c)
	}
	return out
}

// FindOccupant retrieves an occupant by id from committed state.
func (s *Service) FindOccupant(ctx context.Context, id string) (Occupant, bool, error) {
	var (
		found Occupant
		ok    bool
	)
	err := s.store.View(ctx, func(view TransactionView) error {
		if r, present := view.FindResident(id); present {
			found, ok = r, true
			return nil
		}
		if c, present := view.FindChild(id); present {
			found, ok = c, true
		}
		return nil
	})
	return found, ok, err
}

func sortSettlements(out []Settlement) []Settlement {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SettlementDate.Equal(out[j].SettlementDate) {
			return out[i].SettlementDate.Before(out[j].SettlementDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortEvictions(out []Eviction) []Eviction {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EvictionDate.Equal(out[j].EvictionDate) {
			return out[i].EvictionDate.Before(out[j].EvictionDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ListRoomOccupants resolves the registry records of a room's current
// occupants. Occupant ids with no matching record are skipped, the same way
// dangling document links are skipped at read time.
func (s *Service) ListRoomOccupants(ctx context.Context, roomID string) ([]Occupant, error) {
	var out []Occupant
	err := s.store.View(ctx, func(view TransactionView) error {
		room, ok := view.FindRoom(roomID)
		if !ok {
			return domain.NotFoundError{Entity: EntityRoom, ID: roomID}
		}
		for _, id := range room.OccupantIDs {
			if r, present := view.FindResident(id); present {
				out = append(out, r)
				continue
			}
			if c, present := view.FindChild(id); present {
				out = append(out, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// OccupantRoom resolves the room an occupant currently lives in.
func (s *Service) OccupantRoom(ctx context.Context, occupantID string) (Room, bool, error) {
	var (
		found Room
		ok    bool
	)
	err := s.store.View(ctx, func(view TransactionView) error {
		for _, room := range view.ListRooms() {
			if room.HasOccupant(occupantID) {
				found, ok = room, true
				return nil
			}
		}
		return nil
	})
	return found, ok, err
}
