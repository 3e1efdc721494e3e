// Package policy implements the access-control layer: fixed role-tier
// guards, pure capability predicates, and a cached view of the
// runtime-configurable permission grant table.
package policy

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/communityos/ticketing/internal/model"
)

// DefaultFreshness is how long a loaded snapshot is trusted before the
// next read triggers a reload, absent an explicit invalidation.
const DefaultFreshness = 5 * time.Minute

// GrantSource supplies the persisted grant table.
type GrantSource interface {
	ListGrants(ctx context.Context) ([]model.PermissionGrant, error)
}

// snapshot is an immutable view of the grant table. Readers always see a
// fully-built snapshot or none at all; a reload builds a fresh one and
// swaps the pointer.
type snapshot struct {
	grants   map[model.Role]map[string]bool
	loadedAt time.Time
}

// PermissionCache caches the grant table in memory. Populated on first
// use, invalidated explicitly on grant/revoke, and reloaded passively once
// a snapshot is older than the freshness bound.
type PermissionCache struct {
	source    GrantSource
	freshness time.Duration
	now       func() time.Time

	snap atomic.Pointer[snapshot]

	// reloadMu serialises reloads so a burst of stale reads performs one
	// store round-trip. Readers never take it.
	reloadMu sync.Mutex
}

// NewPermissionCache builds an empty cache over the given source. A zero
// freshness falls back to DefaultFreshness; a nil now falls back to
// time.Now.
func NewPermissionCache(source GrantSource, freshness time.Duration, now func() time.Time) *PermissionCache {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	if now == nil {
		now = time.Now
	}
	return &PermissionCache{source: source, freshness: freshness, now: now}
}

// Has reports whether the role holds the permission, loading or refreshing
// the snapshot as needed.
func (c *PermissionCache) Has(ctx context.Context, role model.Role, permissionID string) (bool, error) {
	// An Invalidate can race between a Reload and the Load below, so
	// retry until a usable snapshot is observed.
	for {
		if snap := c.snap.Load(); snap != nil && c.now().Sub(snap.loadedAt) <= c.freshness {
			return snap.grants[role][permissionID], nil
		}
		if err := c.Reload(ctx); err != nil {
			return false, err
		}
	}
}

// Invalidate drops the current snapshot so the next read reloads from the
// store. Safe to call concurrently and repeatedly.
func (c *PermissionCache) Invalidate() {
	c.snap.Store(nil)
}

// Reload fetches the grant table and atomically replaces the snapshot.
// Concurrent reloads converge to the same persisted truth; readers observe
// either the old or the new snapshot, never a partial one.
func (c *PermissionCache) Reload(ctx context.Context) error {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	// Another reload may have completed while we waited for the lock.
	if snap := c.snap.Load(); snap != nil && c.now().Sub(snap.loadedAt) <= c.freshness {
		return nil
	}

	rows, err := c.source.ListGrants(ctx)
	if err != nil {
		return fmt.Errorf("load permission grants: %w", err)
	}

	grants := make(map[model.Role]map[string]bool)
	for _, g := range rows {
		byRole, ok := grants[g.Role]
		if !ok {
			byRole = make(map[string]bool)
			grants[g.Role] = byRole
		}
		byRole[g.PermissionID] = true
	}

	c.snap.Store(&snapshot{grants: grants, loadedAt: c.now()})
	return nil
}
