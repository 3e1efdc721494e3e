package policy

import (
	"context"
	"fmt"

	"github.com/communityos/ticketing/internal/model"
)

// Well-known fine-grained permission IDs managed through the grant table.
const (
	PermExportAttendees = "perm.export_attendees"
)

// GrantStore is the persistence surface for grant management. Writes go to
// the store first; cache invalidation follows, so a crash between the two
// leaves the cache merely stale.
type GrantStore interface {
	GrantSource
	Insert(ctx context.Context, g model.PermissionGrant) error
	Delete(ctx context.Context, g model.PermissionGrant) error
}

// Policy answers "can identity X perform action A" questions. Tier checks
// are compiled in; fine-grained permissions come from the cached grant
// table and are only additive on top of a role's tier.
type Policy struct {
	store GrantStore
	cache *PermissionCache
}

// New builds a Policy over the given grant store.
func New(store GrantStore, cache *PermissionCache) *Policy {
	return &Policy{store: store, cache: cache}
}

// RequireAuth fails with ErrUnauthenticated when no identity is present.
func (p *Policy) RequireAuth(user *model.AppUser) error {
	if user == nil {
		return model.ErrUnauthenticated
	}
	return nil
}

// RequireAdmin fails unless the caller is an admin.
func (p *Policy) RequireAdmin(user *model.AppUser) error {
	if err := p.RequireAuth(user); err != nil {
		return err
	}
	if !user.Role.IsAdmin() {
		return fmt.Errorf("%w: admin role required, caller is %q", model.ErrForbidden, user.Role)
	}
	return nil
}

// RequireOrganizerOrAbove fails unless the caller is staff tier
// (organizer, moderator, or admin).
func (p *Policy) RequireOrganizerOrAbove(user *model.AppUser) error {
	if err := p.RequireAuth(user); err != nil {
		return err
	}
	if !user.Role.IsOrganizerOrAbove() {
		return fmt.Errorf("%w: organizer tier required, caller is %q", model.ErrForbidden, user.Role)
	}
	return nil
}

// RequireNotSelf rejects admin actions targeting the admin's own identity.
// Enforced here rather than in callers: it is a security invariant, not a
// UI nicety.
func (p *Policy) RequireNotSelf(actor *model.AppUser, targetUserID string) error {
	if actor != nil && actor.ID == targetUserID {
		return fmt.Errorf("%w: cannot modify or delete your own account", model.ErrForbidden)
	}
	return nil
}

// HasPermission consults the fine-grained grant table for the caller's
// role. It never unlocks anything above the role's own ceiling and never
// replaces the fixed tier checks.
func (p *Policy) HasPermission(ctx context.Context, user *model.AppUser, permissionID string) (bool, error) {
	if user == nil {
		return false, nil
	}
	return p.cache.Has(ctx, user.Role, permissionID)
}

// Grant records a (role, permission) pair. Admin only. The store write
// happens before the cache invalidation.
func (p *Policy) Grant(ctx context.Context, actor *model.AppUser, role model.Role, permissionID string) error {
	if err := p.RequireAdmin(actor); err != nil {
		return err
	}
	if !role.Valid() {
		return fmt.Errorf("%w: field \"role\": unknown role %q", model.ErrValidation, role)
	}
	if permissionID == "" {
		return fmt.Errorf("%w: field \"permission_id\" is required", model.ErrValidation)
	}
	if err := p.store.Insert(ctx, model.PermissionGrant{Role: role, PermissionID: permissionID}); err != nil {
		return fmt.Errorf("insert grant: %w", err)
	}
	p.cache.Invalidate()
	return nil
}

// Revoke removes a (role, permission) pair. Admin only. Revoking a grant
// that does not exist is a no-op.
func (p *Policy) Revoke(ctx context.Context, actor *model.AppUser, role model.Role, permissionID string) error {
	if err := p.RequireAdmin(actor); err != nil {
		return err
	}
	if err := p.store.Delete(ctx, model.PermissionGrant{Role: role, PermissionID: permissionID}); err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}
	p.cache.Invalidate()
	return nil
}

// ─── Pure predicates ─────────────────────────────────────────────────────────
//
// These never touch the store and never fail; callers decide whether a
// false answer means "deny" or "hide".

// CanRegisterForEvent reports whether the identity may register for the
// event. Guests (nil user) may register through the guest path.
func CanRegisterForEvent(user *model.AppUser, event *model.Event, alreadyRegistered bool) bool {
	if event == nil || event.Status != model.EventOngoing {
		return false
	}
	return !alreadyRegistered
}

// CanViewEvent reports whether the identity may view the event. Archived
// events stay visible to staff only.
func CanViewEvent(user *model.AppUser, event *model.Event) bool {
	if event == nil {
		return false
	}
	if event.Status == model.EventArchive {
		return user != nil && user.Role.IsOrganizerOrAbove()
	}
	return true
}

// CanCreateEvent reports whether the identity may create events.
func CanCreateEvent(user *model.AppUser) bool {
	return user != nil && user.Role.IsAdmin()
}

// CanEditEvent reports whether the identity may edit the event.
func CanEditEvent(user *model.AppUser, event *model.Event) bool {
	return user != nil && event != nil && user.Role.IsAdmin()
}

// CanDeleteEvent reports whether the identity may delete the event.
func CanDeleteEvent(user *model.AppUser, event *model.Event) bool {
	return user != nil && event != nil && user.Role.IsAdmin()
}
