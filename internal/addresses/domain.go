package addresses

import (
	"time"

	"github.com/gatehouse-io/gatehouse/internal/authz"
)

// Address is a delivery address attached to a user account.
type Address struct {
	ID         int64
	UserID     int64
	Label      string
	Street     string
	City       string
	PostalCode string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// InScope satisfies the authorization scope capability: the owning user id
// is the address's user_id column.
func (a Address) InScope(scope authz.Scope, actor authz.UserID) bool {
	return authz.OwnedBy(scope, a.UserID, actor)
}

// NewAddress carries the fields required to attach an address.
type NewAddress struct {
	UserID     int64
	Label      string
	Street     string
	City       string
	PostalCode string
}
