package roles

import (
	"context"
	"errors"
	"testing"

	"github.com/gatehouse-io/gatehouse/internal/authz"
	"github.com/gatehouse-io/gatehouse/internal/shared"
)

type mockRepo struct {
	assignments map[int64][]authz.Role
	assignErr   error
	removeErr   error
}

func newMockRepo() *mockRepo {
	return &mockRepo{assignments: make(map[int64][]authz.Role)}
}

func (m *mockRepo) ListAssignments(_ context.Context, userID int64) ([]Assignment, error) {
	var out []Assignment
	for _, role := range m.assignments[userID] {
		out = append(out, Assignment{UserID: userID, Role: role})
	}
	return out, nil
}

func (m *mockRepo) Assign(_ context.Context, userID int64, role authz.Role) error {
	if m.assignErr != nil {
		return m.assignErr
	}
	for _, held := range m.assignments[userID] {
		if held == role {
			return shared.ErrDuplicateAssignment
		}
	}
	m.assignments[userID] = append(m.assignments[userID], role)
	return nil
}

func (m *mockRepo) Remove(_ context.Context, userID int64, role authz.Role) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	held := m.assignments[userID]
	for i, r := range held {
		if r == role {
			m.assignments[userID] = append(held[:i], held[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

// ListRolesForUser lets the mock double as the cache's backing store, so the
// tests can watch invalidation propagate end to end.
func (m *mockRepo) ListRolesForUser(_ context.Context, id authz.UserID) ([]authz.Role, error) {
	return m.assignments[id], nil
}

type recordingCache struct {
	removed []authz.UserID
}

func (c *recordingCache) Remove(id authz.UserID) {
	c.removed = append(c.removed, id)
}

func superuserContext(repo *mockRepo, actor authz.UserID) context.Context {
	engine := authz.NewACL(authz.DefaultCatalog(), authz.NewRolesCache(repo, nil))
	return authz.ContextWith(context.Background(), authz.Authorizer{Engine: engine, Actor: actor})
}

func TestAssignInvalidatesCacheAfterWrite(t *testing.T) {
	repo := newMockRepo()
	repo.assignments[1] = []authz.Role{authz.RoleSuperuser}
	cache := &recordingCache{}
	svc := NewService(repo, cache, authz.DefaultCatalog(), nil)
	ctx := superuserContext(repo, 1)

	if err := svc.Assign(ctx, 7, "moderator"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(repo.assignments[7]) != 1 || repo.assignments[7][0] != authz.RoleModerator {
		t.Fatalf("assignment not persisted: %v", repo.assignments[7])
	}
	if len(cache.removed) != 1 || cache.removed[0] != 7 {
		t.Fatalf("expected cache invalidation for user 7, got %v", cache.removed)
	}
}

func TestAssignFailureLeavesCacheUntouched(t *testing.T) {
	repo := newMockRepo()
	repo.assignments[1] = []authz.Role{authz.RoleSuperuser}
	repo.assignErr = errors.New("write failed")
	cache := &recordingCache{}
	svc := NewService(repo, cache, authz.DefaultCatalog(), nil)
	ctx := superuserContext(repo, 1)

	if err := svc.Assign(ctx, 7, "moderator"); err == nil {
		t.Fatal("expected the write failure to surface")
	}
	if len(cache.removed) != 0 {
		t.Fatalf("failed mutation must not invalidate, got %v", cache.removed)
	}
}

func TestRemoveInvalidatesCacheAfterWrite(t *testing.T) {
	repo := newMockRepo()
	repo.assignments[1] = []authz.Role{authz.RoleSuperuser}
	repo.assignments[7] = []authz.Role{authz.RoleModerator}
	cache := &recordingCache{}
	svc := NewService(repo, cache, authz.DefaultCatalog(), nil)
	ctx := superuserContext(repo, 1)

	if err := svc.Remove(ctx, 7, "moderator"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(cache.removed) != 1 || cache.removed[0] != 7 {
		t.Fatalf("expected cache invalidation for user 7, got %v", cache.removed)
	}
}

func TestRemoveMissingAssignmentDoesNotInvalidate(t *testing.T) {
	repo := newMockRepo()
	repo.assignments[1] = []authz.Role{authz.RoleSuperuser}
	cache := &recordingCache{}
	svc := NewService(repo, cache, authz.DefaultCatalog(), nil)
	ctx := superuserContext(repo, 1)

	if err := svc.Remove(ctx, 7, "moderator"); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(cache.removed) != 0 {
		t.Fatalf("failed mutation must not invalidate, got %v", cache.removed)
	}
}

func TestAssignRejectsUnknownRole(t *testing.T) {
	repo := newMockRepo()
	repo.assignments[1] = []authz.Role{authz.RoleSuperuser}
	cache := &recordingCache{}
	svc := NewService(repo, cache, authz.DefaultCatalog(), nil)
	ctx := superuserContext(repo, 1)

	if err := svc.Assign(ctx, 7, "root"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected unknown role, got %v", err)
	}
}

func TestAssignDeniedForModerator(t *testing.T) {
	repo := newMockRepo()
	repo.assignments[2] = []authz.Role{authz.RoleModerator}
	cache := &recordingCache{}
	svc := NewService(repo, cache, authz.DefaultCatalog(), nil)
	ctx := superuserContext(repo, 2)

	if err := svc.Assign(ctx, 7, "moderator"); !authz.IsUnauthorized(err) {
		t.Fatalf("expected denial, got %v", err)
	}
	if len(repo.assignments[7]) != 0 {
		t.Fatal("denied assign must not persist")
	}
}

// The grant must be visible to authorization checks right after Assign
// returns: the cache entry for the target is dropped, so the next check
// refetches from the store.
func TestGrantVisibleAfterAssign(t *testing.T) {
	repo := newMockRepo()
	repo.assignments[1] = []authz.Role{authz.RoleSuperuser}
	cache := authz.NewRolesCache(repo, nil)
	engine := authz.NewACL(authz.DefaultCatalog(), cache)
	svc := NewService(repo, cache, authz.DefaultCatalog(), nil)
	ctx := authz.ContextWith(context.Background(), authz.Authorizer{Engine: engine, Actor: 1})

	// Warm the cache with the target's (empty) resolution.
	target := authz.Authorizer{Engine: engine, Actor: 7}
	if allowed, err := target.Can(ctx, authz.ResourceUsers, authz.ActionBlock); err != nil || allowed {
		t.Fatalf("user 7 should hold nothing yet: allowed=%v err=%v", allowed, err)
	}

	if err := svc.Assign(ctx, 7, "moderator"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if allowed, err := target.Can(ctx, authz.ResourceUsers, authz.ActionBlock); err != nil || !allowed {
		t.Fatalf("grant should be visible after assign: allowed=%v err=%v", allowed, err)
	}
}

func TestCatalogListing(t *testing.T) {
	repo := newMockRepo()
	repo.assignments[1] = []authz.Role{authz.RoleSuperuser}
	svc := NewService(repo, &recordingCache{}, authz.DefaultCatalog(), nil)
	ctx := superuserContext(repo, 1)

	grants, err := svc.Catalog(ctx)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(grants) != 3 {
		t.Fatalf("expected three roles, got %d", len(grants))
	}
	if grants[0].Role != authz.RoleSuperuser || len(grants[0].Permissions) != 3 {
		t.Fatalf("unexpected superuser grants: %+v", grants[0])
	}
}

func TestCatalogDeniedForRegularUser(t *testing.T) {
	repo := newMockRepo()
	repo.assignments[6] = []authz.Role{authz.RoleUser}
	svc := NewService(repo, &recordingCache{}, authz.DefaultCatalog(), nil)
	ctx := superuserContext(repo, 6)

	if _, err := svc.Catalog(ctx); !authz.IsUnauthorized(err) {
		t.Fatalf("expected denial, got %v", err)
	}
}
