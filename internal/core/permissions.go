package core

import (
	"context"

	"dormcore/pkg/domain"
)

// Role identifies an operator category interacting with the service.
type Role string

const (
	// RoleAdministrator has full access to every operation.
	RoleAdministrator Role = "administrator"
	// RoleCommandant manages occupants and the settlement/eviction ledger of
	// a facility.
	RoleCommandant Role = "commandant"
	// RoleClerk handles documents and reporting.
	RoleClerk Role = "clerk"
)

// Permission names a guarded action category.
type Permission string

const (
	PermManageDormitories Permission = "manage_dormitories"
	PermManageOccupants   Permission = "manage_occupants"
	PermManageDocuments   Permission = "manage_documents"
	PermManageSettlements Permission = "manage_settlements"
	PermManageEvictions   Permission = "manage_evictions"
	PermGenerateReports   Permission = "generate_reports"
)

// PermissionManager resolves whether a role may perform a guarded action.
// Unknown roles and unknown permissions are denied.
type PermissionManager struct {
	grants map[Role]map[Permission]struct{}
}

// NewPermissionManager constructs the default static role grant table.
func NewPermissionManager() *PermissionManager {
	grant := func(perms ...Permission) map[Permission]struct{} {
		m := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			m[p] = struct{}{}
		}
		return m
	}
	return &PermissionManager{grants: map[Role]map[Permission]struct{}{
		RoleAdministrator: grant(
			PermManageDormitories,
			PermManageOccupants,
			PermManageDocuments,
			PermManageSettlements,
			PermManageEvictions,
			PermGenerateReports,
		),
		RoleCommandant: grant(
			PermManageOccupants,
			PermManageSettlements,
			PermManageEvictions,
			PermGenerateReports,
		),
		RoleClerk: grant(
			PermManageDocuments,
			PermGenerateReports,
		),
	}}
}

// Allows reports whether the role holds the permission.
func (m *PermissionManager) Allows(role Role, perm Permission) bool {
	if m == nil {
		return false
	}
	perms, ok := m.grants[role]
	if !ok {
		return false
	}
	_, ok = perms[perm]
	return ok
}

// Grant adds a permission to a role at runtime.
func (m *PermissionManager) Grant(role Role, perm Permission) {
	if m.grants == nil {
		m.grants = make(map[Role]map[Permission]struct{})
	}
	if m.grants[role] == nil {
		m.grants[role] = make(map[Permission]struct{})
	}
	m.grants[role][perm] = struct{}{}
}

// Revoke removes a permission from a role at runtime.
func (m *PermissionManager) Revoke(role Role, perm Permission) {
	if m.grants[role] == nil {
		return
	}
	delete(m.grants[role], perm)
}

type roleContextKey struct{}

// ContextWithRole attaches the acting role to a context.
func ContextWithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, roleContextKey{}, role)
}

// RoleFromContext extracts the acting role, if any.
func RoleFromContext(ctx context.Context) (Role, bool) {
	role, ok := ctx.Value(roleContextKey{}).(Role)
	return role, ok
}

// authorize enforces the permission guard when a manager is configured. A
// service without a permission manager trusts its caller.
func (s *Service) authorize(ctx context.Context, perm Permission) error {
	if s.permissions == nil {
		return nil
	}
	role, ok := RoleFromContext(ctx)
	if !ok {
		return domain.PermissionDeniedError{Role: "", Action: string(perm)}
	}
	if !s.permissions.Allows(role, perm) {
		return domain.PermissionDeniedError{Role: string(role), Action: string(perm)}
	}
	return nil
}
