// Package memory provides the canonical in-memory transactional store for the
// dormcore domain. Durable backends embed it and persist snapshots.
package memory

import (
	"context"
	"sync"
	"time"

	"dormcore/pkg/domain"

	"github.com/google/uuid"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Dormitory aliases domain.Dormitory for in-memory persistence operations.
	Dormitory = domain.Dormitory
	// Room aliases domain.Room.
	Room = domain.Room
	// Resident aliases domain.Resident.
	Resident = domain.Resident
	// Child aliases domain.Child.
	Child = domain.Child
	// Document aliases domain.Document.
	Document = domain.Document
	// DocumentOccupantLink aliases domain.DocumentOccupantLink.
	DocumentOccupantLink = domain.DocumentOccupantLink
	// Settlement aliases domain.Settlement.
	Settlement = domain.Settlement
	// Eviction aliases domain.Eviction.
	Eviction = domain.Eviction
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	dormitories map[string]Dormitory
	rooms       map[string]Room
	residents   map[string]Resident
	children    map[string]Child
	documents   map[string]Document
	links       map[string]DocumentOccupantLink
	settlements map[string]Settlement
	evictions   map[string]Eviction
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Dormitories map[string]Dormitory            `json:"dormitories"`
	Rooms       map[string]Room                 `json:"rooms"`
	Residents   map[string]Resident             `json:"residents"`
	Children    map[string]Child                `json:"children"`
	Documents   map[string]Document             `json:"documents"`
	Links       map[string]DocumentOccupantLink `json:"links"`
	Settlements map[string]Settlement           `json:"settlements"`
	Evictions   map[string]Eviction             `json:"evictions"`
}

func newMemoryState() memoryState {
	return memoryState{
		dormitories: make(map[string]Dormitory),
		rooms:       make(map[string]Room),
		residents:   make(map[string]Resident),
		children:    make(map[string]Child),
		documents:   make(map[string]Document),
		links:       make(map[string]DocumentOccupantLink),
		settlements: make(map[string]Settlement),
		evictions:   make(map[string]Eviction),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Dormitories: make(map[string]Dormitory, len(state.dormitories)),
		Rooms:       make(map[string]Room, len(state.rooms)),
		Residents:   make(map[string]Resident, len(state.residents)),
		Children:    make(map[string]Child, len(state.children)),
		Documents:   make(map[string]Document, len(state.documents)),
		Links:       make(map[string]DocumentOccupantLink, len(state.links)),
		Settlements: make(map[string]Settlement, len(state.settlements)),
		Evictions:   make(map[string]Eviction, len(state.evictions)),
	}
	for k, v := range state.dormitories {
		s.Dormitories[k] = cloneDormitory(v)
	}
	for k, v := range state.rooms {
		s.Rooms[k] = cloneRoom(v)
	}
	for k, v := range state.residents {
		s.Residents[k] = cloneResident(v)
	}
	for k, v := range state.children {
		s.Children[k] = cloneChild(v)
	}
	for k, v := range state.documents {
		s.Documents[k] = cloneDocument(v)
	}
	for k, v := range state.links {
		s.Links[k] = cloneLink(v)
	}
	for k, v := range state.settlements {
		s.Settlements[k] = cloneSettlement(v)
	}
	for k, v := range state.evictions {
		s.Evictions[k] = cloneEviction(v)
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Dormitories {
		state.dormitories[k] = cloneDormitory(v)
	}
	for k, v := range s.Rooms {
		state.rooms[k] = cloneRoom(v)
	}
	for k, v := range s.Residents {
		state.residents[k] = cloneResident(v)
	}
	for k, v := range s.Children {
		state.children[k] = cloneChild(v)
	}
	for k, v := range s.Documents {
		state.documents[k] = cloneDocument(v)
	}
	for k, v := range s.Links {
		state.links[k] = cloneLink(v)
	}
	for k, v := range s.Settlements {
		state.settlements[k] = cloneSettlement(v)
	}
	for k, v := range s.Evictions {
		state.evictions[k] = cloneEviction(v)
	}
	return state
}

// migrateSnapshot repairs referential damage in imported snapshots. Rooms
// pointing at a missing dormitory are dropped and duplicate occupant ids
// within a room are collapsed. Room occupant lists are deliberately NOT
// filtered against the occupant registry: occupant removal does not cascade
// to room membership, and imports preserve that documented behavior. Orphaned
// document links survive import for the same reason.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Dormitories == nil {
		snapshot.Dormitories = map[string]Dormitory{}
	}
	if snapshot.Rooms == nil {
		snapshot.Rooms = map[string]Room{}
	}
	if snapshot.Residents == nil {
		snapshot.Residents = map[string]Resident{}
	}
	if snapshot.Children == nil {
		snapshot.Children = map[string]Child{}
	}
	if snapshot.Documents == nil {
		snapshot.Documents = map[string]Document{}
	}
	if snapshot.Links == nil {
		snapshot.Links = map[string]DocumentOccupantLink{}
	}
	if snapshot.Settlements == nil {
		snapshot.Settlements = map[string]Settlement{}
	}
	if snapshot.Evictions == nil {
		snapshot.Evictions = map[string]Eviction{}
	}

	for id, room := range snapshot.Rooms {
		if room.DormitoryID == "" {
			delete(snapshot.Rooms, id)
			continue
		}
		if _, ok := snapshot.Dormitories[room.DormitoryID]; !ok {
			delete(snapshot.Rooms, id)
			continue
		}
		if room.Capacity <= 0 {
			room.Capacity = 1
		}
		room.OccupantIDs = dedupeStrings(room.OccupantIDs)
		snapshot.Rooms[id] = room
	}

	return snapshot
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.dormitories {
		cloned.dormitories[k] = cloneDormitory(v)
	}
	for k, v := range s.rooms {
		cloned.rooms[k] = cloneRoom(v)
	}
	for k, v := range s.residents {
		cloned.residents[k] = cloneResident(v)
	}
	for k, v := range s.children {
		cloned.children[k] = cloneChild(v)
	}
	for k, v := range s.documents {
		cloned.documents[k] = cloneDocument(v)
	}
	for k, v := range s.links {
		cloned.links[k] = cloneLink(v)
	}
	for k, v := range s.settlements {
		cloned.settlements[k] = cloneSettlement(v)
	}
	for k, v := range s.evictions {
		cloned.evictions[k] = cloneEviction(v)
	}
	return cloned
}

func cloneDormitory(d Dormitory) Dormitory { return d }

func cloneRoom(r Room) Room {
	cp := r
	if len(r.OccupantIDs) != 0 {
		cp.OccupantIDs = append([]string(nil), r.OccupantIDs...)
	}
	return cp
}

func cloneResident(r Resident) Resident { return r }
func cloneChild(c Child) Child          { return c }
func cloneDocument(d Document) Document { return d }

func cloneLink(l DocumentOccupantLink) DocumentOccupantLink { return l }

func cloneSettlement(s Settlement) Settlement {
	cp := s
	cp.OccupantIDs = append([]string(nil), s.OccupantIDs...)
	if s.DocumentID != nil {
		id := *s.DocumentID
		cp.DocumentID = &id
	}
	return cp
}

func cloneEviction(e Eviction) Eviction {
	cp := e
	cp.OccupantIDs = append([]string(nil), e.OccupantIDs...)
	cp.SkippedOccupantIDs = append([]string(nil), e.SkippedOccupantIDs...)
	if e.SettlementID != nil {
		id := *e.SettlementID
		cp.SettlementID = &id
	}
	return cp
}

func dedupeStrings(values []string) []string {
	if len(values) <= 1 {
		return append([]string(nil), values...)
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// SetNowFunc overrides the store clock. Intended for tests.
func (s *Store) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now != nil {
		s.nowFn = now
	}
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces the committed state only when fn succeeds and no blocking
// rule violation is present; any error discards every mutation made by fn.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// Read helpers ---------------------------------------------------------------

// GetDormitory retrieves a dormitory by ID from committed state.
func (s *Store) GetDormitory(id string) (Dormitory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.state.dormitories[id]
	if !ok {
		return Dormitory{}, false
	}
	return cloneDormitory(d), true
}

// GetRoom retrieves a room by ID from committed state.
func (s *Store) GetRoom(id string) (Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.rooms[id]
	if !ok {
		return Room{}, false
	}
	return cloneRoom(r), true
}

// ListDormitories returns all dormitories from committed state.
func (s *Store) ListDormitories() []Dormitory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Dormitory, 0, len(s.state.dormitories))
	for _, d := range s.state.dormitories {
		out = append(out, cloneDormitory(d))
	}
	return out
}

// ListRooms returns all rooms from committed state.
func (s *Store) ListRooms() []Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Room, 0, len(s.state.rooms))
	for _, r := range s.state.rooms {
		out = append(out, cloneRoom(r))
	}
	return out
}

// ListResidents returns all residents from committed state.
func (s *Store) ListResidents() []Resident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Resident, 0, len(s.state.residents))
	for _, r := range s.state.residents {
		out = append(out, cloneResident(r))
	}
	return out
}

// ListChildren returns all children from committed state.
func (s *Store) ListChildren() []Child {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Child, 0, len(s.state.children))
	for _, c := range s.state.children {
		out = append(out, cloneChild(c))
	}
	return out
}

// ListDocuments returns all documents from committed state.
func (s *Store) ListDocuments() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Document, 0, len(s.state.documents))
	for _, d := range s.state.documents {
		out = append(out, cloneDocument(d))
	}
	return out
}

// ListLinks returns all document-occupant links from committed state.
func (s *Store) ListLinks() []DocumentOccupantLink {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DocumentOccupantLink, 0, len(s.state.links))
	for _, l := range s.state.links {
		out = append(out, cloneLink(l))
	}
	return out
}

// ListSettlements returns all settlement records from committed state.
func (s *Store) ListSettlements() []Settlement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Settlement, 0, len(s.state.settlements))
	for _, rec := range s.state.settlements {
		out = append(out, cloneSettlement(rec))
	}
	return out
}

// ListEvictions returns all eviction records from committed state.
func (s *Store) ListEvictions() []Eviction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Eviction, 0, len(s.state.evictions))
	for _, rec := range s.state.evictions {
		out = append(out, cloneEviction(rec))
	}
	return out
}
