package authz

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gatehouse-io/gatehouse/internal/shared"
)

// Middleware binds the per-request authorizer from the session principal.
// Authenticated users get the ACL engine; everyone else gets the deny-all
// engine. The selection happens once per request, not inside the engine.
type Middleware struct {
	ACL    *ACL
	Logger *slog.Logger
}

// Bind installs the authorizer into the request context. It must run after
// the session middleware.
func (m Middleware) Bind(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorizer := Authorizer{Engine: Unauthorized{}}
		if id, ok := m.currentUserID(r); ok {
			authorizer = Authorizer{Engine: m.ACL, Actor: id}
		}
		next.ServeHTTP(w, r.WithContext(ContextWith(r.Context(), authorizer)))
	})
}

func (m Middleware) currentUserID(r *http.Request) (UserID, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		if m.Logger != nil {
			m.Logger.Error("authz parse session user id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}
