// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by dormcore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityDormitory identifies a dormitory record.
	EntityDormitory EntityType = "dormitory"
	// EntityRoom identifies a room record.
	EntityRoom EntityType = "room"
	// EntityResident identifies an adult resident record.
	EntityResident EntityType = "resident"
	// EntityChild identifies a dependent child record.
	EntityChild EntityType = "child"
	// EntityDocument identifies an identity document record.
	EntityDocument EntityType = "document"
	// EntityDocumentLink identifies a document-occupant link record.
	EntityDocumentLink EntityType = "document_link"
	// EntitySettlement identifies a settlement (move-in) transaction record.
	EntitySettlement EntityType = "settlement"
	// EntityEviction identifies an eviction (move-out) transaction record.
	EntityEviction EntityType = "eviction"
)

// SettlementStatus enumerates the settlement state machine.
type SettlementStatus string

// Canonical settlement states. A settlement is created Initialized, marked
// InProgress when execution starts, and ends Completed or Cancelled.
const (
	SettlementInitialized SettlementStatus = "initialized"
	SettlementInProgress  SettlementStatus = "in_progress"
	SettlementCompleted   SettlementStatus = "completed"
	SettlementCancelled   SettlementStatus = "cancelled"
)

// EvictionStatus enumerates the eviction state machine.
type EvictionStatus string

// Canonical eviction states. Executed is terminal for a performed eviction.
const (
	EvictionInitialized EvictionStatus = "initialized"
	EvictionInProgress  EvictionStatus = "in_progress"
	EvictionExecuted    EvictionStatus = "executed"
	EvictionCancelled   EvictionStatus = "cancelled"
)

// Gender captures the registered gender of a resident.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Dormitory is a facility building owning a set of rooms. Number is the
// globally unique natural key.
type Dormitory struct {
	Base
	Number  int    `json:"number"`
	Address string `json:"address"`
}

// Room is a capacity-bearing container within a dormitory. Number is unique
// within the owning dormitory; Capacity is the number of places. OccupantIDs
// holds the occupants currently settled in the room and never exceeds
// Capacity after a committed transaction.
type Room struct {
	Base
	DormitoryID string   `json:"dormitory_id"`
	Number      int      `json:"number"`
	Capacity    int      `json:"capacity"`
	Floor       int      `json:"floor"`
	Area        float64  `json:"area"`
	OccupantIDs []string `json:"occupant_ids"`
}

// AvailablePlaces returns capacity minus current occupancy. Never negative
// after a committed transaction.
func (r Room) AvailablePlaces() int {
	return r.Capacity - len(r.OccupantIDs)
}

// HasOccupant reports whether the given occupant is present in the room.
func (r Room) HasOccupant(id string) bool {
	for _, existing := range r.OccupantIDs {
		if existing == id {
			return true
		}
	}
	return false
}

// Passport is the identity value object owned by a resident. Immutable once
// the resident is created.
type Passport struct {
	Series   string    `json:"series"`
	Number   string    `json:"number"`
	IssuedBy string    `json:"issued_by"`
	IssuedAt time.Time `json:"issued_at"`
}

// Resident is an adult occupant with registration and passport data.
type Resident struct {
	Base
	FullName           string    `json:"full_name"`
	BirthDate          time.Time `json:"birth_date"`
	RegistrationNumber string    `json:"registration_number"`
	Gender             Gender    `json:"gender"`
	Passport           Passport  `json:"passport"`
	Employed           bool      `json:"employed"`
	Workplace          string    `json:"workplace,omitempty"`
	Studying           bool      `json:"studying"`
	StudyPlace         string    `json:"study_place,omitempty"`
	CheckInDate        time.Time `json:"check_in_date"`
}

// Child is a dependent occupant. ParentResidentID is a weak reference to a
// resident: validated when the child is created, not maintained afterward.
type Child struct {
	Base
	FullName               string    `json:"full_name"`
	BirthDate              time.Time `json:"birth_date"`
	BirthCertificateNumber string    `json:"birth_certificate_number"`
	ParentResidentID       string    `json:"parent_resident_id"`
}

// Document is an identity or authorization document. Comment is the only
// field mutable after creation.
type Document struct {
	Base
	Series    string    `json:"series"`
	Number    string    `json:"number"`
	Title     string    `json:"title"`
	IssueDate time.Time `json:"issue_date"`
	IssuedBy  string    `json:"issued_by"`
	Comment   string    `json:"comment,omitempty"`
}

// DocumentOccupantLink is the many-to-many join record between a document and
// an occupant. The (DocumentID, OccupantID) pair is unique. Neither side owns
// the other: a link may outlive its document or occupant and is skipped at
// read time when that happens.
type DocumentOccupantLink struct {
	Base
	DocumentID string    `json:"document_id"`
	OccupantID string    `json:"occupant_id"`
	LinkedAt   time.Time `json:"linked_at"`
}

// Settlement records one atomic move-in of a batch of occupants into a room.
type Settlement struct {
	Base
	SettlementDate time.Time        `json:"settlement_date"`
	RoomID         string           `json:"room_id"`
	DocumentID     *string          `json:"document_id,omitempty"`
	OccupantIDs    []string         `json:"occupant_ids"`
	Status         SettlementStatus `json:"status"`
}

// Eviction records one move-out of a batch of occupants from a room.
// Occupants absent from the room at execution time are recorded in
// SkippedOccupantIDs rather than failing the transaction.
type Eviction struct {
	Base
	EvictionDate       time.Time      `json:"eviction_date"`
	RoomID             string         `json:"room_id"`
	Reason             string         `json:"reason"`
	SettlementID       *string        `json:"settlement_id,omitempty"`
	OccupantIDs        []string       `json:"occupant_ids"`
	SkippedOccupantIDs []string       `json:"skipped_occupant_ids,omitempty"`
	Status             EvictionStatus `json:"status"`
}

// TransactionBatchLimit bounds the occupant batch size of a settlement or
// eviction.
const TransactionBatchLimit = 10

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}
