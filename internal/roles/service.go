package roles

import (
	"context"
	"strconv"

	"github.com/gatehouse-io/gatehouse/internal/authz"
	"github.com/gatehouse-io/gatehouse/internal/shared"
)

// RepositoryPort defines data access methods for role assignments.
type RepositoryPort interface {
	ListAssignments(ctx context.Context, userID int64) ([]Assignment, error)
	Assign(ctx context.Context, userID int64, role authz.Role) error
	Remove(ctx context.Context, userID int64, role authz.Role) error
}

// CacheInvalidator drops a user's cached role resolution. Satisfied by
// *authz.RolesCache.
type CacheInvalidator interface {
	Remove(id authz.UserID)
}

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles role assignment lifecycle. Mutations invalidate the roles
// cache for the affected user strictly after the database write succeeds, so
// a failed write never refreshes the cache early and a successful one is
// visible on the next authorization check.
type Service struct {
	repo    RepositoryPort
	cache   CacheInvalidator
	catalog *authz.Catalog
	audit   AuditRecorder
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, cache CacheInvalidator, catalog *authz.Catalog, audit AuditRecorder) *Service {
	return &Service{repo: repo, cache: cache, catalog: catalog, audit: audit}
}

// ListAssignments returns the roles held by a user.
func (s *Service) ListAssignments(ctx context.Context, userID int64) ([]Assignment, error) {
	if err := authz.FromContext(ctx).Enforce(ctx, authz.ResourceUserRoles, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.repo.ListAssignments(ctx, userID)
}

// Assign grants a role to a user and invalidates their cached resolution.
func (s *Service) Assign(ctx context.Context, userID int64, roleName string) error {
	role, ok := authz.ParseRole(roleName)
	if !ok {
		return ErrUnknownRole
	}
	a := authz.FromContext(ctx)
	if err := a.Enforce(ctx, authz.ResourceUserRoles, authz.ActionCreate); err != nil {
		return err
	}
	if err := s.repo.Assign(ctx, userID, role); err != nil {
		return err
	}
	s.cache.Remove(userID)
	s.recordAudit(ctx, a.Actor, "user_roles.assign", userID, role)
	return nil
}

// Remove revokes a role from a user and invalidates their cached resolution.
func (s *Service) Remove(ctx context.Context, userID int64, roleName string) error {
	role, ok := authz.ParseRole(roleName)
	if !ok {
		return ErrUnknownRole
	}
	a := authz.FromContext(ctx)
	if err := a.Enforce(ctx, authz.ResourceUserRoles, authz.ActionDelete); err != nil {
		return err
	}
	if err := s.repo.Remove(ctx, userID, role); err != nil {
		return err
	}
	s.cache.Remove(userID)
	s.recordAudit(ctx, a.Actor, "user_roles.remove", userID, role)
	return nil
}

// RoleGrants is one row of the catalog listing.
type RoleGrants struct {
	Role        authz.Role
	Permissions []authz.Permission
}

// Catalog lists the permissions each role grants. The listing is derived from
// the sealed catalog, so it reflects exactly what the engine evaluates.
func (s *Service) Catalog(ctx context.Context) ([]RoleGrants, error) {
	if err := authz.FromContext(ctx).Enforce(ctx, authz.ResourceUserRoles, authz.ActionRead); err != nil {
		return nil, err
	}
	all := []authz.Role{authz.RoleSuperuser, authz.RoleModerator, authz.RoleUser}
	out := make([]RoleGrants, 0, len(all))
	for _, role := range all {
		out = append(out, RoleGrants{Role: role, Permissions: s.catalog.PermissionsFor(role)})
	}
	return out, nil
}

func (s *Service) recordAudit(ctx context.Context, actor int64, action string, userID int64, role authz.Role) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "user_roles",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     map[string]any{"role": string(role)},
	})
}
