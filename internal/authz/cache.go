package authz

import (
	"context"
	"sync"
)

// RoleStore is the persistent source of truth for role assignments. The
// roles module implements it on PostgreSQL.
type RoleStore interface {
	ListRolesForUser(ctx context.Context, id UserID) ([]Role, error)
}

// CacheObserver receives hit/miss notifications, typically backed by
// prometheus counters. Implementations must be safe for concurrent use.
type CacheObserver interface {
	CacheHit()
	CacheMiss()
}

// RolesCache keeps resolved user→roles mappings in memory so authorization
// checks do not round-trip to the role store on every call. Entries are
// refreshed only through explicit invalidation by role-mutating operations.
type RolesCache struct {
	store    RoleStore
	observer CacheObserver

	mu    sync.Mutex
	roles map[UserID][]Role
}

// NewRolesCache builds a cache in front of the given store. The observer may
// be nil.
func NewRolesCache(store RoleStore, observer CacheObserver) *RolesCache {
	return &RolesCache{
		store:    store,
		observer: observer,
		roles:    make(map[UserID][]Role),
	}
}

// Get returns the cached roles for a user, falling through to the store on a
// miss. Store errors propagate unchanged and nothing is cached for them.
//
// The lock is held only for the map accesses, never across the store call.
// Concurrent misses for the same user may therefore both hit the store and
// both write back the same answer; the fetch is an idempotent read, so the
// race is benign.
func (c *RolesCache) Get(ctx context.Context, id UserID) ([]Role, error) {
	c.mu.Lock()
	cached, ok := c.roles[id]
	c.mu.Unlock()
	if ok {
		if c.observer != nil {
			c.observer.CacheHit()
		}
		return cloneRoles(cached), nil
	}
	if c.observer != nil {
		c.observer.CacheMiss()
	}

	roles, err := c.store.ListRolesForUser(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.roles[id] = cloneRoles(roles)
	c.mu.Unlock()
	// The store's slice stays private too, not just the cached one.
	return cloneRoles(roles), nil
}

// Remove invalidates the entry for one user. Role-mutating operations call
// it after their mutation succeeds, never before, so a failed mutation
// cannot leave a prematurely refreshed entry behind.
func (c *RolesCache) Remove(id UserID) {
	c.mu.Lock()
	delete(c.roles, id)
	c.mu.Unlock()
}

// Clear drops every entry. Used for administrative resets and tests.
func (c *RolesCache) Clear() {
	c.mu.Lock()
	c.roles = make(map[UserID][]Role)
	c.mu.Unlock()
}

// Len reports the number of cached users.
func (c *RolesCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.roles)
}

func cloneRoles(roles []Role) []Role {
	copied := make([]Role, len(roles))
	copy(copied, roles)
	return copied
}
