package authz

// ScopeCapability is implemented by every entity type that can be scope
// checked. The capability answers whether this concrete instance falls
// within the given scope for the acting user. Entities implement it
// independently; no shared base type exists.
type ScopeCapability interface {
	InScope(scope Scope, actor UserID) bool
}

// OwnedBy implements the common owner comparison entities delegate to:
// ScopeAll is always satisfied, ScopeOwned requires a known owner equal to
// the actor, and any other scope fails closed. An owner id of zero or below
// means ownership is unknown and denies ScopeOwned.
func OwnedBy(scope Scope, owner, actor UserID) bool {
	switch scope {
	case ScopeAll:
		return true
	case ScopeOwned:
		return owner > 0 && owner == actor
	default:
		return false
	}
}
