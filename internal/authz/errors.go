package authz

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable is wrapped by role store implementations when the
// backing database cannot be reached. The engine maps it to CodeConnection.
var ErrStoreUnavailable = errors.New("authz: role store unavailable")

// Code classifies authorization failures.
type Code string

const (
	// CodeUnauthorized is the expected, user-facing denial.
	CodeUnauthorized Code = "unauthorized"
	// CodeConnection means the role store could not be reached. Treated as
	// "cannot authorize", never as allow.
	CodeConnection Code = "connection"
	// CodeUnknown wraps any other role store failure.
	CodeUnknown Code = "unknown"
)

// Error is the failure type surfaced by the engine and the guard.
type Error struct {
	Code     Code
	Resource Resource
	Action   Action
	Err      error
}

func (e *Error) Error() string {
	switch e.Code {
	case CodeUnauthorized:
		return fmt.Sprintf("authz: %s on %s unauthorized", e.Action, e.Resource)
	case CodeConnection:
		return fmt.Sprintf("authz: role store unreachable: %v", e.Err)
	default:
		return fmt.Sprintf("authz: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// NewUnauthorized builds the denial error carried to callers.
func NewUnauthorized(resource Resource, action Action) *Error {
	return &Error{Code: CodeUnauthorized, Resource: resource, Action: action}
}

// wrapStoreError classifies a role resolution failure. Connectivity errors
// keep their own code so the HTTP layer can answer 503 instead of 403.
func wrapStoreError(err error) *Error {
	if errors.Is(err, ErrStoreUnavailable) {
		return &Error{Code: CodeConnection, Err: err}
	}
	return &Error{Code: CodeUnknown, Err: err}
}

// IsUnauthorized reports whether err is a denial verdict.
func IsUnauthorized(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeUnauthorized
}

// IsConnection reports whether err stems from an unreachable role store.
func IsConnection(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeConnection
}
