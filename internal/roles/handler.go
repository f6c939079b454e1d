package roles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gatehouse-io/gatehouse/internal/authz"
	"github.com/gatehouse-io/gatehouse/internal/platform/httpx"
	"github.com/gatehouse-io/gatehouse/internal/shared"
)

// Handler manages role assignment endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountUserRoutes registers the per-user role collection, nested under
// /users/{userID}.
func (h *Handler) MountUserRoutes(r chi.Router) {
	r.Get("/", h.listAssignments)
	r.Post("/", h.assignRole)
	r.Delete("/{role}", h.removeRole)
}

// MountCatalogRoutes registers the permission catalog listing.
func (h *Handler) MountCatalogRoutes(r chi.Router) {
	r.Get("/", h.listCatalog)
}

type assignmentResponse struct {
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) listAssignments(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUserID(w, r)
	if !ok {
		return
	}
	assignments, err := h.service.ListAssignments(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]assignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, assignmentResponse{UserID: a.UserID, Role: string(a.Role), CreatedAt: a.CreatedAt})
	}
	httpx.JSON(w, http.StatusOK, out)
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUserID(w, r)
	if !ok {
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed json body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "role is required")
		return
	}
	if err := h.service.Assign(r.Context(), userID, req.Role); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUserID(w, r)
	if !ok {
		return
	}
	if err := h.service.Remove(r.Context(), userID, chi.URLParam(r, "role")); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.NoContent(w)
}

type permissionResponse struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Scope    string `json:"scope"`
}

type roleGrantsResponse struct {
	Role        string               `json:"role"`
	Permissions []permissionResponse `json:"permissions"`
}

func (h *Handler) listCatalog(w http.ResponseWriter, r *http.Request) {
	grants, err := h.service.Catalog(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]roleGrantsResponse, 0, len(grants))
	for _, g := range grants {
		perms := make([]permissionResponse, 0, len(g.Permissions))
		for _, p := range g.Permissions {
			perms = append(perms, permissionResponse{
				Resource: string(p.Resource),
				Action:   string(p.Action),
				Scope:    string(p.Scope),
			})
		}
		out = append(out, roleGrantsResponse{Role: string(g.Role), Permissions: perms})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) pathUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case authz.IsUnauthorized(err):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
	case authz.IsConnection(err):
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "")
	case errors.Is(err, ErrUnknownRole):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", ErrUnknownRole.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
	case errors.Is(err, shared.ErrDuplicateAssignment):
		httpx.Problem(w, http.StatusConflict, "Duplicate", shared.ErrDuplicateAssignment.Error())
	default:
		if h.logger != nil {
			h.logger.Error("roles handler", slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
