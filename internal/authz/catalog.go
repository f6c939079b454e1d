package authz

// Catalog maps each role to the permissions it grants. It is built once
// during startup wiring and read-only afterwards, so it may be shared across
// request contexts without synchronization.
type Catalog struct {
	grants map[Role][]Permission
}

// CatalogBuilder accumulates grants before the catalog is sealed. There is
// no removal operation; the catalog is write-once.
type CatalogBuilder struct {
	grants map[Role][]Permission
}

// NewCatalogBuilder returns an empty builder.
func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{grants: make(map[Role][]Permission)}
}

// Permit registers a fully specified (resource, action, scope) grant.
func (b *CatalogBuilder) Permit(role Role, resource Resource, action Action, scope Scope) *CatalogBuilder {
	b.grants[role] = append(b.grants[role], NewPermission(resource, action, scope))
	return b
}

// PermitAction registers a grant for one action across all instances.
func (b *CatalogBuilder) PermitAction(role Role, resource Resource, action Action) *CatalogBuilder {
	return b.Permit(role, resource, action, ScopeAll)
}

// Grant registers a wildcard grant: every action, every instance.
func (b *CatalogBuilder) Grant(role Role, resource Resource) *CatalogBuilder {
	return b.Permit(role, resource, ActionAll, ScopeAll)
}

// Build seals the accumulated grants into an immutable catalog. The builder
// must not be reused afterwards.
func (b *CatalogBuilder) Build() *Catalog {
	grants := make(map[Role][]Permission, len(b.grants))
	for role, perms := range b.grants {
		copied := make([]Permission, len(perms))
		copy(copied, perms)
		grants[role] = copied
	}
	b.grants = nil
	return &Catalog{grants: grants}
}

// PermissionsFor returns the permissions granted to a role, or an empty
// slice for roles with no explicit grants. The returned slice is shared
// read-only state and must not be modified.
func (c *Catalog) PermissionsFor(role Role) []Permission {
	return c.grants[role]
}

// DefaultCatalog ships the stock grants: superusers administer everything,
// moderators read and block accounts, regular users read the directory and
// manage what they own.
func DefaultCatalog() *Catalog {
	return NewCatalogBuilder().
		Grant(RoleSuperuser, ResourceUsers).
		Grant(RoleSuperuser, ResourceUserRoles).
		Grant(RoleSuperuser, ResourceDeliveryAddresses).
		PermitAction(RoleModerator, ResourceUsers, ActionRead).
		PermitAction(RoleModerator, ResourceUsers, ActionBlock).
		PermitAction(RoleUser, ResourceUsers, ActionRead).
		Permit(RoleUser, ResourceUsers, ActionAll, ScopeOwned).
		Permit(RoleUser, ResourceDeliveryAddresses, ActionAll, ScopeOwned).
		Build()
}
