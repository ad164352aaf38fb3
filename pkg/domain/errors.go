package domain

import "fmt"

// ValidationError reports malformed input rejected before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports a duplicate id or natural key.
type ConflictError struct {
	Entity EntityType
	Key    string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Entity, e.Key)
}

// NotFoundError reports an operation against a missing record.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// CapacityError reports a settlement that would exceed a room's capacity.
type CapacityError struct {
	RoomID    string
	Capacity  int
	Occupied  int
	Requested int
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("room %q capacity exceeded: %d occupied of %d, %d requested", e.RoomID, e.Occupied, e.Capacity, e.Requested)
}

// PermissionDeniedError reports a role lacking the permission for an action.
type PermissionDeniedError struct {
	Role   string
	Action string
}

func (e PermissionDeniedError) Error() string {
	return fmt.Sprintf("role %q may not perform %q", e.Role, e.Action)
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
