package domain

import "time"

// OccupantType discriminates the occupant variants.
type OccupantType string

const (
	OccupantResident OccupantType = "resident"
	OccupantChild    OccupantType = "child"
)

// Occupant is the identity contract shared by residents and children. Only
// identity fields and age/type accessors are common between the variants, so
// this is an interface with a discriminant rather than a type hierarchy.
type Occupant interface {
	OccupantID() string
	OccupantName() string
	OccupantBirthDate() time.Time
	Type() OccupantType
}

// OccupantID returns the resident identifier.
func (r Resident) OccupantID() string { return r.ID }

// OccupantName returns the resident full name.
func (r Resident) OccupantName() string { return r.FullName }

// OccupantBirthDate returns the resident birth date.
func (r Resident) OccupantBirthDate() time.Time { return r.BirthDate }

// Type discriminates the resident variant.
func (r Resident) Type() OccupantType { return OccupantResident }

// OccupantID returns the child identifier.
func (c Child) OccupantID() string { return c.ID }

// OccupantName returns the child full name.
func (c Child) OccupantName() string { return c.FullName }

// OccupantBirthDate returns the child birth date.
func (c Child) OccupantBirthDate() time.Time { return c.BirthDate }

// Type discriminates the child variant.
func (c Child) Type() OccupantType { return OccupantChild }

// AgeAt computes full years between the occupant's birth date and the given
// reference date.
func AgeAt(o Occupant, at time.Time) int {
	birth := o.OccupantBirthDate()
	if at.Before(birth) {
		return 0
	}
	age := at.Year() - birth.Year()
	anniversary := time.Date(at.Year(), birth.Month(), birth.Day(), 0, 0, 0, 0, at.Location())
	if at.Before(anniversary) {
		age--
	}
	return age
}
