package addresses

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

// Handler manages delivery address endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountUserRoutes registers the per-user address collection, nested under
// /users/{userID}.
func (h *Handler) MountUserRoutes(r chi.Router) {
	r.Get("/", h.listForUser)
	r.Post("/", h.createAddress)
}

// MountRoutes registers the flat address routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{addressID}", h.getAddress)
	r.Put("/{addressID}", h.updateAddress)
	r.Delete("/{addressID}", h.deleteAddress)
}

type addressResponse struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Label      string    `json:"label"`
	Street     string    `json:"street"`
	City       string    `json:"city"`
	PostalCode string    `json:"postal_code"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toResponse(a Address) addressResponse {
	return addressResponse{
		ID:         a.ID,
		UserID:     a.UserID,
		Label:      a.Label,
		Street:     a.Street,
		City:       a.City,
		PostalCode: a.PostalCode,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func (h *Handler) listForUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	list, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		h.respondError(w, err, false)
		return
	}
	out := make([]addressResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toResponse(a))
	}
	httpx.JSON(w, http.StatusOK, out)
}

type createAddressRequest struct {
	Label      string `json:"label" validate:"required"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
}

func (h *Handler) createAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var req createAddressRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed json body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}
	created, err := h.service.CreateAddress(r.Context(), NewAddress{
		UserID:     userID,
		Label:      req.Label,
		Street:     req.Street,
		City:       req.City,
		PostalCode: req.PostalCode,
	})
	if err != nil {
		h.respondError(w, err, false)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) getAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "addressID")
	if !ok {
		return
	}
	addr, err := h.service.GetAddress(r.Context(), id)
	if err != nil {
		h.respondError(w, err, true)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(addr))
}

type updateAddressRequest struct {
	Label      string `json:"label" validate:"required"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
}

func (h *Handler) updateAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "addressID")
	if !ok {
		return
	}
	var req updateAddressRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed json body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}
	updated, err := h.service.UpdateAddress(r.Context(), id, req.Label, req.Street, req.City, req.PostalCode)
	if err != nil {
		h.respondError(w, err, true)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "addressID")
	if !ok {
		return
	}
	if err := h.service.DeleteAddress(r.Context(), id); err != nil {
		h.respondError(w, err, true)
		return
	}
	httpx.NoContent(w)
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid "+param)
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error, hideDenial bool) {
	switch {
	case authz.IsUnauthorized(err):
		if hideDenial {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "")
			return
		}
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
	case authz.IsConnection(err):
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "")
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
	default:
		if h.logger != nil {
			h.logger.Error("addresses handler", slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Error()
	}
	return "invalid payload"
}
