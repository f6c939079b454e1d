package authz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gatehouse-io/gatehouse/internal/authz"
)

type ownedThing struct {
	owner authz.UserID
}

func (o ownedThing) InScope(scope authz.Scope, actor authz.UserID) bool {
	return authz.OwnedBy(scope, o.owner, actor)
}

func newEngine(t *testing.T, catalog *authz.Catalog, roles map[authz.UserID][]authz.Role) (*authz.ACL, *stubRoleStore) {
	t.Helper()
	store := &stubRoleStore{roles: roles}
	return authz.NewACL(catalog, authz.NewRolesCache(store, nil)), store
}

func TestACLDeniesRoleWithoutMatchingGrant(t *testing.T) {
	catalog := authz.NewCatalogBuilder().
		Grant(authz.RoleUser, authz.ResourceDeliveryAddresses).
		Build()
	engine, _ := newEngine(t, catalog, map[authz.UserID][]authz.Role{1: {authz.RoleUser}})

	ok, err := engine.Can(context.Background(), authz.ResourceUsers, authz.ActionRead, 1, nil)
	if err != nil {
		t.Fatalf("can: %v", err)
	}
	if ok {
		t.Fatal("role without matching grant must deny")
	}
}

func TestACLWildcardActionAllowsEverything(t *testing.T) {
	catalog := authz.NewCatalogBuilder().
		Grant(authz.RoleSuperuser, authz.ResourceUsers).
		Build()
	engine, _ := newEngine(t, catalog, map[authz.UserID][]authz.Role{1: {authz.RoleSuperuser}})

	for _, action := range []authz.Action{authz.ActionRead, authz.ActionCreate, authz.ActionUpdate, authz.ActionDelete, authz.ActionBlock} {
		ok, err := engine.Can(context.Background(), authz.ResourceUsers, action, 1, nil)
		if err != nil {
			t.Fatalf("can %s: %v", action, err)
		}
		if !ok {
			t.Fatalf("wildcard grant should allow %s", action)
		}
	}
}

func TestACLOwnedScope(t *testing.T) {
	catalog := authz.NewCatalogBuilder().
		Permit(authz.RoleUser, authz.ResourceUsers, authz.ActionRead, authz.ScopeOwned).
		Build()
	engine, _ := newEngine(t, catalog, map[authz.UserID][]authz.Role{
		5: {authz.RoleUser},
		6: {authz.RoleUser},
	})
	candidate := ownedThing{owner: 5}

	ok, err := engine.Can(context.Background(), authz.ResourceUsers, authz.ActionRead, 5, []authz.ScopeCapability{candidate})
	if err != nil {
		t.Fatalf("can: %v", err)
	}
	if !ok {
		t.Fatal("owner should read its own record")
	}

	ok, err = engine.Can(context.Background(), authz.ResourceUsers, authz.ActionRead, 6, []authz.ScopeCapability{candidate})
	if err != nil {
		t.Fatalf("can: %v", err)
	}
	if ok {
		t.Fatal("non-owner must be denied")
	}
}

func TestACLOwnedScopeFailsClosedOnUnknownOwner(t *testing.T) {
	catalog := authz.NewCatalogBuilder().
		Permit(authz.RoleUser, authz.ResourceUsers, authz.ActionRead, authz.ScopeOwned).
		Build()
	engine, _ := newEngine(t, catalog, map[authz.UserID][]authz.Role{5: {authz.RoleUser}})

	ok, err := engine.Can(context.Background(), authz.ResourceUsers, authz.ActionRead, 5, []authz.ScopeCapability{ownedThing{owner: 0}})
	if err != nil {
		t.Fatalf("can: %v", err)
	}
	if ok {
		t.Fatal("unknown ownership must deny an owned-scope permission")
	}
}

func TestACLSinglePermissionMustCoverAllCandidates(t *testing.T) {
	catalog := authz.NewCatalogBuilder().
		Permit(authz.RoleUser, authz.ResourceDeliveryAddresses, authz.ActionDelete, authz.ScopeOwned).
		Build()
	engine, _ := newEngine(t, catalog, map[authz.UserID][]authz.Role{5: {authz.RoleUser}})

	mixed := []authz.ScopeCapability{ownedThing{owner: 5}, ownedThing{owner: 6}}
	ok, err := engine.Can(context.Background(), authz.ResourceDeliveryAddresses, authz.ActionDelete, 5, mixed)
	if err != nil {
		t.Fatalf("can: %v", err)
	}
	if ok {
		t.Fatal("one foreign candidate should sink the whole request")
	}
}

func TestACLAnyRolePermissionSuffices(t *testing.T) {
	// Moderator's scope-all read clears a foreign candidate even though the
	// user role's owned grant does not; permissions are not merged across
	// roles, one of them just has to fit.
	catalog := authz.NewCatalogBuilder().
		Permit(authz.RoleUser, authz.ResourceUsers, authz.ActionRead, authz.ScopeOwned).
		PermitAction(authz.RoleModerator, authz.ResourceUsers, authz.ActionRead).
		Build()
	engine, _ := newEngine(t, catalog, map[authz.UserID][]authz.Role{5: {authz.RoleUser, authz.RoleModerator}})

	ok, err := engine.Can(context.Background(), authz.ResourceUsers, authz.ActionRead, 5, []authz.ScopeCapability{ownedThing{owner: 99}})
	if err != nil {
		t.Fatalf("can: %v", err)
	}
	if !ok {
		t.Fatal("moderator grant should clear the foreign candidate")
	}
}

func TestACLIdempotentVerdicts(t *testing.T) {
	engine, _ := newEngine(t, authz.DefaultCatalog(), map[authz.UserID][]authz.Role{5: {authz.RoleUser}})
	candidate := ownedThing{owner: 5}

	first, err := engine.Can(context.Background(), authz.ResourceUsers, authz.ActionUpdate, 5, []authz.ScopeCapability{candidate})
	if err != nil {
		t.Fatalf("can: %v", err)
	}
	second, err := engine.Can(context.Background(), authz.ResourceUsers, authz.ActionUpdate, 5, []authz.ScopeCapability{candidate})
	if err != nil {
		t.Fatalf("can: %v", err)
	}
	if first != second {
		t.Fatalf("verdicts diverged: %v then %v", first, second)
	}
}

func TestACLFailsClosedOnStoreError(t *testing.T) {
	store := &stubRoleStore{err: authz.ErrStoreUnavailable}
	engine := authz.NewACL(authz.DefaultCatalog(), authz.NewRolesCache(store, nil))

	ok, err := engine.Can(context.Background(), authz.ResourceUsers, authz.ActionRead, 1, nil)
	if err == nil {
		t.Fatal("expected an error when the store is unreachable")
	}
	if ok {
		t.Fatal("store failure must never authorize")
	}
	if !authz.IsConnection(err) {
		t.Fatalf("expected connection classification, got %v", err)
	}

	store.mu.Lock()
	store.err = errors.New("scan: bad row")
	store.mu.Unlock()
	_, err = engine.Can(context.Background(), authz.ResourceUsers, authz.ActionRead, 2, nil)
	if err == nil || authz.IsConnection(err) {
		t.Fatalf("expected unknown classification, got %v", err)
	}
}

func TestSuperuserDeletesUsers(t *testing.T) {
	catalog := authz.NewCatalogBuilder().
		Grant(authz.RoleSuperuser, authz.ResourceUsers).
		Grant(authz.RoleSuperuser, authz.ResourceUserRoles).
		Build()
	engine, _ := newEngine(t, catalog, map[authz.UserID][]authz.Role{1: {authz.RoleSuperuser}})

	ok, err := engine.Can(context.Background(), authz.ResourceUsers, authz.ActionDelete, 1, nil)
	if err != nil {
		t.Fatalf("can: %v", err)
	}
	if !ok {
		t.Fatal("superuser should delete users")
	}
}

func TestUserRoleOwnedUpdateMatrix(t *testing.T) {
	catalog := authz.NewCatalogBuilder().
		PermitAction(authz.RoleUser, authz.ResourceUsers, authz.ActionRead).
		Permit(authz.RoleUser, authz.ResourceUsers, authz.ActionAll, authz.ScopeOwned).
		Build()
	engine, _ := newEngine(t, catalog, map[authz.UserID][]authz.Role{
		5: {authz.RoleUser},
		6: {authz.RoleUser},
	})
	record := ownedThing{owner: 5}

	cases := []struct {
		name   string
		action authz.Action
		actor  authz.UserID
		want   bool
	}{
		{"owner updates own record", authz.ActionUpdate, 5, true},
		{"stranger cannot update", authz.ActionUpdate, 6, false},
		{"stranger can still read", authz.ActionRead, 6, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := engine.Can(context.Background(), authz.ResourceUsers, tc.action, tc.actor, []authz.ScopeCapability{record})
			if err != nil {
				t.Fatalf("can: %v", err)
			}
			if ok != tc.want {
				t.Fatalf("want %v, got %v", tc.want, ok)
			}
		})
	}
}

func TestUnauthorizedEngineDeniesEverything(t *testing.T) {
	engine := authz.Unauthorized{}
	for _, resource := range []authz.Resource{authz.ResourceUsers, authz.ResourceUserRoles, authz.ResourceDeliveryAddresses} {
		ok, err := engine.Can(context.Background(), resource, authz.ActionRead, 1, nil)
		if err != nil {
			t.Fatalf("can: %v", err)
		}
		if ok {
			t.Fatalf("unauthorized engine allowed %s", resource)
		}
	}
}

func TestSystemEngineAllowsEverything(t *testing.T) {
	ok, err := authz.System{}.Can(context.Background(), authz.ResourceUserRoles, authz.ActionDelete, 0, nil)
	if err != nil {
		t.Fatalf("can: %v", err)
	}
	if !ok {
		t.Fatal("system engine should allow internal operations")
	}
}
