package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView

	CreateDormitory(Dormitory) (Dormitory, error)
	UpdateDormitory(id string, mutator func(*Dormitory) error) (Dormitory, error)
	DeleteDormitory(id string) error

	CreateRoom(Room) (Room, error)
	UpdateRoom(id string, mutator func(*Room) error) (Room, error)
	DeleteRoom(id string) error
	AddRoomOccupant(roomID, occupantID string) (bool, error)
	RemoveRoomOccupant(roomID, occupantID string) (bool, error)

	CreateResident(Resident) (Resident, error)
	UpdateResident(id string, mutator func(*Resident) error) (Resident, error)
	CreateChild(Child) (Child, error)
	UpdateChild(id string, mutator func(*Child) error) (Child, error)
	DeleteOccupant(id string) error

	CreateDocument(Document) (Document, error)
	UpdateDocument(id string, mutator func(*Document) error) (Document, error)
	DeleteDocument(id string) error

	CreateLink(DocumentOccupantLink) (DocumentOccupantLink, error)
	DeleteLink(id string) error

	CreateSettlement(Settlement) (Settlement, error)
	UpdateSettlement(id string, mutator func(*Settlement) error) (Settlement, error)
	DeleteSettlement(id string) error

	CreateEviction(Eviction) (Eviction, error)
	UpdateEviction(id string, mutator func(*Eviction) error) (Eviction, error)
	DeleteEviction(id string) error

	FindDormitory(id string) (Dormitory, bool)
	FindDormitoryByNumber(number int) (Dormitory, bool)
	FindRoom(id string) (Room, bool)
	FindResident(id string) (Resident, bool)
	FindChild(id string) (Child, bool)
	FindDocument(id string) (Document, bool)
	FindSettlement(id string) (Settlement, bool)
	FindEviction(id string) (Eviction, bool)
}

// TransactionView provides read-only access to snapshot data. It extends the
// RuleView surface with ledger records and point lookups.
type TransactionView interface {
	RuleView
	ListSettlements() []Settlement
	ListEvictions() []Eviction
	FindResident(id string) (Resident, bool)
	FindChild(id string) (Child, bool)
	FindDocument(id string) (Document, bool)
	FindSettlement(id string) (Settlement, bool)
	FindEviction(id string) (Eviction, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetDormitory(id string) (Dormitory, bool)
	GetRoom(id string) (Room, bool)
	ListDormitories() []Dormitory
	ListRooms() []Room
	ListResidents() []Resident
	ListChildren() []Child
	ListDocuments() []Document
	ListLinks() []DocumentOccupantLink
	ListSettlements() []Settlement
	ListEvictions() []Eviction
}
