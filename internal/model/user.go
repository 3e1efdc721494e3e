// Package model defines the core domain types for the event registration
// and ticketing system.
package model

import "time"

// Role is the capability tier of an authenticated user.
type Role string

const (
	RoleUser      Role = "user"
	RoleMember    Role = "member"
	RoleOrganizer Role = "organizer"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// roleRank orders roles for escalation. Organizer and moderator share a
// tier for staff operations; only admin sits strictly above them.
var roleRank = map[Role]int{
	RoleUser:      0,
	RoleMember:    1,
	RoleOrganizer: 2,
	RoleModerator: 2,
	RoleAdmin:     3,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// IsOrganizerOrAbove reports whether r is organizer, moderator, or admin.
// This tier check is fixed code: revoking permission rows never changes it.
func (r Role) IsOrganizerOrAbove() bool {
	return roleRank[r] >= roleRank[RoleOrganizer]
}

// IsAdmin reports whether r is admin.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// AppUser is an authenticated identity. Created on first successful
// authentication; role changes and deletion are admin-only.
type AppUser struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// PermissionGrant is one (role, permission) row of the runtime-configurable
// grant table. Grants are additive on top of the fixed role tiers.
type PermissionGrant struct {
	Role         Role   `json:"role"`
	PermissionID string `json:"permission_id"`
}
