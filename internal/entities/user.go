// Package entities contains core business entities.
package entities

import "time"

// Role enumerates user authorization tiers.
type Role string

const (
	// RoleAdmin may manage any user, task or export job.
	RoleAdmin Role = "ADMIN"
	// RoleMember may only manage their own resources.
	RoleMember Role = "MEMBER"
)

// Valid reports whether the role is a known tier.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// User is a domain representation of an account.
//
// PasswordHash is the bcrypt hash of the account password. It never crosses
// the transport boundary; the mapper drops it.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
}

// UserPatch carries the mutable profile fields; nil means keep current value.
type UserPatch struct {
	Name         *string
	PasswordHash *string
}

// IsZero reports whether the patch would change nothing.
func (p UserPatch) IsZero() bool {
	return p.Name == nil && p.PasswordHash == nil
}

// Principal is the authenticated caller extracted from an access token.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}

// IsAdmin reports whether the principal holds the ADMIN role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
