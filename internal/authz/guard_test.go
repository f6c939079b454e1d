package authz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gatehouse-io/gatehouse/internal/authz"
)

type verdictEngine struct {
	ok  bool
	err error
}

func (e verdictEngine) Can(context.Context, authz.Resource, authz.Action, authz.UserID, []authz.ScopeCapability) (bool, error) {
	return e.ok, e.err
}

func TestEnforceAllows(t *testing.T) {
	if err := authz.Enforce(context.Background(), verdictEngine{ok: true}, authz.ResourceUsers, authz.ActionRead, 1); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}
}

func TestEnforceMapsDenyToUnauthorized(t *testing.T) {
	err := authz.Enforce(context.Background(), verdictEngine{}, authz.ResourceUsers, authz.ActionDelete, 1)
	if !authz.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	var typed *authz.Error
	if !errors.As(err, &typed) {
		t.Fatalf("expected *authz.Error, got %T", err)
	}
	if typed.Resource != authz.ResourceUsers || typed.Action != authz.ActionDelete {
		t.Fatalf("denial should carry resource and action, got %+v", typed)
	}
}

func TestEnforcePassesEngineErrorsThrough(t *testing.T) {
	sentinel := errors.New("boom")
	err := authz.Enforce(context.Background(), verdictEngine{err: sentinel}, authz.ResourceUsers, authz.ActionRead, 1)
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected engine error passthrough, got %v", err)
	}
	if authz.IsUnauthorized(err) {
		t.Fatal("engine errors must not be reported as denials")
	}
}

func TestZeroAuthorizerDeniesEverything(t *testing.T) {
	var a authz.Authorizer
	if err := a.Enforce(context.Background(), authz.ResourceUsers, authz.ActionRead); !authz.IsUnauthorized(err) {
		t.Fatalf("zero authorizer must fail closed, got %v", err)
	}
}

func TestFromContextDefaultsToDeny(t *testing.T) {
	a := authz.FromContext(context.Background())
	ok, err := a.Can(context.Background(), authz.ResourceUsers, authz.ActionRead)
	if err != nil {
		t.Fatalf("can: %v", err)
	}
	if ok {
		t.Fatal("unbound context must deny")
	}
}

func TestSystemContextAllows(t *testing.T) {
	ctx := authz.SystemContext(context.Background())
	a := authz.FromContext(ctx)
	if err := a.Enforce(ctx, authz.ResourceUserRoles, authz.ActionDelete); err != nil {
		t.Fatalf("system context should allow, got %v", err)
	}
}

func TestContextRoundTrip(t *testing.T) {
	bound := authz.Authorizer{Engine: verdictEngine{ok: true}, Actor: 42}
	ctx := authz.ContextWith(context.Background(), bound)
	got := authz.FromContext(ctx)
	if got.Actor != 42 {
		t.Fatalf("expected actor 42, got %d", got.Actor)
	}
	if err := got.Enforce(ctx, authz.ResourceUsers, authz.ActionRead); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}
}
