package authz

import "context"

// Enforce runs the engine and translates a deny into a typed error. Engine
// errors pass through unchanged. Read paths call it before returning fetched
// rows (deny means the caller must discard them); create paths call it after
// the insert with the created row, since ownership is unknown beforehand —
// rolling the insert back is the transaction boundary's job, not the
// guard's.
func Enforce(ctx context.Context, engine Engine, resource Resource, action Action, actor UserID, candidates ...ScopeCapability) error {
	ok, err := engine.Can(ctx, resource, action, actor, candidates)
	if err != nil {
		return err
	}
	if !ok {
		return NewUnauthorized(resource, action)
	}
	return nil
}

// Authorizer pairs an engine with the acting user. It is bound once per
// request by the middleware and travels in the context, so repository
// operations share a single call site for their checks.
type Authorizer struct {
	Engine Engine
	Actor  UserID
}

// Enforce applies the bound engine and actor to one authorization request.
func (a Authorizer) Enforce(ctx context.Context, resource Resource, action Action, candidates ...ScopeCapability) error {
	return Enforce(ctx, a.engine(), resource, action, a.Actor, candidates...)
}

// Can exposes the raw verdict for callers that filter rather than fail.
func (a Authorizer) Can(ctx context.Context, resource Resource, action Action, candidates ...ScopeCapability) (bool, error) {
	return a.engine().Can(ctx, resource, action, a.Actor, candidates)
}

// engine defaults the zero value to a deny-all engine so a missing binding
// can never authorize anything.
func (a Authorizer) engine() Engine {
	if a.Engine == nil {
		return Unauthorized{}
	}
	return a.Engine
}

type authorizerContextKey struct{}

// ContextWith binds the per-request authorizer.
func ContextWith(ctx context.Context, a Authorizer) context.Context {
	return context.WithValue(ctx, authorizerContextKey{}, a)
}

// FromContext extracts the bound authorizer. The zero value denies
// everything, so unauthenticated or unwired paths fail closed.
func FromContext(ctx context.Context) Authorizer {
	a, _ := ctx.Value(authorizerContextKey{}).(Authorizer)
	return a
}

// SystemContext binds the always-allow engine for server-internal work.
func SystemContext(ctx context.Context) context.Context {
	return ContextWith(ctx, Authorizer{Engine: System{}})
}
