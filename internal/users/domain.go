package users

import (
	"time"

	"github.com/gatehouse-io/gatehouse/internal/authz"
)

// User represents a managed user account.
type User struct {
	ID        int64
	Email     string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InScope satisfies the authorization scope capability. A user record is
// owned by the account itself.
func (u User) InScope(scope authz.Scope, actor authz.UserID) bool {
	return authz.OwnedBy(scope, u.ID, actor)
}

// NewUser carries the fields required to register an account.
type NewUser struct {
	Email    string
	Name     string
	Password string
}
