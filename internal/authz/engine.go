package authz

import "context"

// Engine decides whether an actor may perform an action on a resource.
// Candidates are the concrete instances involved; an empty candidate list
// (listing, creating) means no instance-level scope check applies.
type Engine interface {
	Can(ctx context.Context, resource Resource, action Action, actor UserID, candidates []ScopeCapability) (bool, error)
}

// DecisionObserver receives every ACL verdict, typically backed by a
// prometheus counter. Implementations must be safe for concurrent use.
type DecisionObserver interface {
	Decision(resource Resource, action Action, allowed bool)
}

// ACL is the catalog-backed engine used for authenticated principals.
type ACL struct {
	Catalog  *Catalog
	Cache    *RolesCache
	Observer DecisionObserver
}

// NewACL builds the engine over a sealed catalog and a roles cache.
func NewACL(catalog *Catalog, cache *RolesCache) *ACL {
	return &ACL{Catalog: catalog, Cache: cache}
}

// Can resolves the actor's roles, filters the granted permissions down to
// those matching the requested resource and action, and allows iff at least
// one surviving permission clears the scope check for every candidate.
// Permissions are never combined field-by-field across roles: a single
// permission must cover the whole request. Role resolution failures
// propagate as errors, never as an allow.
func (e *ACL) Can(ctx context.Context, resource Resource, action Action, actor UserID, candidates []ScopeCapability) (bool, error) {
	roles, err := e.Cache.Get(ctx, actor)
	if err != nil {
		return false, wrapStoreError(err)
	}

	allowed := false
search:
	for _, role := range roles {
		for _, perm := range e.Catalog.PermissionsFor(role) {
			if !perm.Matches(resource, action) {
				continue
			}
			if covers(perm, candidates, actor) {
				allowed = true
				break search
			}
		}
	}

	if e.Observer != nil {
		e.Observer.Decision(resource, action, allowed)
	}
	return allowed, nil
}

func covers(perm Permission, candidates []ScopeCapability, actor UserID) bool {
	for _, candidate := range candidates {
		if !candidate.InScope(perm.Scope, actor) {
			return false
		}
	}
	return true
}

// System always allows. It backs server-internal operations (background
// jobs, seeding) that run without a real principal.
type System struct{}

func (System) Can(context.Context, Resource, Action, UserID, []ScopeCapability) (bool, error) {
	return true, nil
}

// Unauthorized always denies. It backs requests with no authenticated
// principal, so every guarded operation fails closed.
type Unauthorized struct{}

func (Unauthorized) Can(context.Context, Resource, Action, UserID, []ScopeCapability) (bool, error) {
	return false, nil
}
