package entity

import "strings"

// Role represents the privilege level of an authenticated user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// Actor is the resolved identity performing a workflow operation.
type Actor struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NormalizeRole lower-cases a role string so policy checks are
// case-insensitive regardless of how the identity provider spells it.
func NormalizeRole(r Role) Role {
	return Role(strings.ToLower(string(r)))
}

// IsApprover reports whether the role may approve or reject quotes.
// Policy: only managers and admins act as quote approvers.
func (r Role) IsApprover() bool {
	switch NormalizeRole(r) {
	case RoleAdmin, RoleManager:
		return true
	}
	return false
}

// IsOverride reports whether the role may decide any contract checkpoint
// regardless of the checkpoint's required role.
func (r Role) IsOverride() bool {
	switch NormalizeRole(r) {
	case RoleAdmin, RoleOwner:
		return true
	}
	return false
}
