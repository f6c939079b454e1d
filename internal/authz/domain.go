// Package authz decides whether an acting principal may perform an action on
// a protected resource. It combines a write-once permission catalog, a cached
// view of the user's roles, and per-entity ownership checks into an
// allow/deny verdict. The package performs no I/O of its own besides the
// role-store lookup routed through the cache.
package authz

// UserID identifies the acting principal. It matches the users table key.
type UserID = int64

// Role names a bundle of grants assignable to a user. The set of roles is
// closed; assignment lifecycle is owned by the roles module.
type Role string

const (
	RoleSuperuser Role = "superuser"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// ParseRole maps a stored role name onto the closed enumeration. Unknown
// names are rejected so stale database rows cannot mint grants.
func ParseRole(name string) (Role, bool) {
	switch Role(name) {
	case RoleSuperuser, RoleModerator, RoleUser:
		return Role(name), true
	}
	return "", false
}

// Resource is a protected entity kind.
type Resource string

const (
	ResourceUsers             Resource = "users"
	ResourceUserRoles         Resource = "user_roles"
	ResourceDeliveryAddresses Resource = "delivery_addresses"
)

// Action is an operation category performable on a resource.
type Action string

const (
	// ActionAll is a wildcard that matches every concrete action during
	// evaluation.
	ActionAll    Action = "all"
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionBlock  Action = "block"
)

// Scope restricts a permission to all instances or only instances owned by
// the acting user.
type Scope string

const (
	ScopeAll   Scope = "all"
	ScopeOwned Scope = "owned"
)

// Permission grants an action on a resource within a scope. Values are
// immutable once constructed.
type Permission struct {
	Resource Resource
	Action   Action
	Scope    Scope
}

// NewPermission builds a fully specified permission.
func NewPermission(resource Resource, action Action, scope Scope) Permission {
	return Permission{Resource: resource, Action: action, Scope: scope}
}

// Matches reports whether the permission covers the requested resource and
// action. ActionAll acts as a wildcard over actions; resources never match
// across kinds.
func (p Permission) Matches(resource Resource, action Action) bool {
	return p.Resource == resource && (p.Action == action || p.Action == ActionAll)
}
