package roles

import (
	"errors"
	"time"

	"github.com/gatehouse-io/gatehouse/internal/authz"
)

// ErrUnknownRole rejects assignment requests naming a role outside the
// closed enumeration.
var ErrUnknownRole = errors.New("unknown role")

// Assignment records that a user holds a role.
type Assignment struct {
	UserID    int64
	Role      authz.Role
	CreatedAt time.Time
}
