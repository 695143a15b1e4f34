package profile

import (
	"context"
	"net/http"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/core/user"
	"github.com/frahmantamala/zhar/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Get(ctx context.Context, id string) (*Profile, error)
	List(ctx context.Context, filter ListFilter) ([]*Profile, error)
	UpdateSelf(ctx context.Context, userID string, dto UpdateSelfDTO) (*Profile, error)
	AdminUpdate(ctx context.Context, id string, dto AdminUpdateDTO) (*Profile, error)
	CreateEmployee(ctx context.Context, dto CreateProfileDTO) (*Profile, error)
	EnsureAdmin(ctx context.Context, admin BootstrapAdmin) (BootstrapResult, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	// Bootstrap is nil when the setup endpoint is disabled.
	Bootstrap *BootstrapAdmin
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, bootstrap *BootstrapAdmin) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Bootstrap:   bootstrap,
	}
}

type meResponse struct {
	*Profile
	Home string `json:"home"`
}

// Me handles GET /me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	p, err := h.Service.Get(r.Context(), u.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, meResponse{Profile: p, Home: p.Role.Home()})
}

// UpdateMe handles PATCH /me
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	u, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UpdateSelfDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	p, err := h.Service.UpdateSelf(r.Context(), u.ID, dto)
	if err != nil {
		h.Logger.Error("UpdateMe: service error", "error", err, "user_id", u.ID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

// ListEmployees handles GET /employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{Sector: q.Get("sector"), Search: q.Get("search")}
	if raw := q.Get("role"); raw != "" {
		role, err := user.ParseRole(raw)
		if err != nil {
			h.HandleServiceError(w, ErrInvalidRole)
			return
		}
		filter.Role = role
	}

	profiles, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"employees": profiles,
		"count":     len(profiles),
	})
}

// CreateEmployee handles POST /employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var dto CreateProfileDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	p, err := h.Service.CreateEmployee(r.Context(), dto)
	if err != nil {
		h.Logger.Error("CreateEmployee: service error", "error", err, "email", dto.Email)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateEmployee: profile created", "profile_id", p.ID, "role", p.Role, "by", internal.UserIDFromContext(r.Context()))
	h.WriteJSON(w, http.StatusCreated, p)
}

// UpdateEmployee handles PATCH /employees/{id}
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto AdminUpdateDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	p, err := h.Service.AdminUpdate(r.Context(), id, dto)
	if err != nil {
		h.Logger.Error("UpdateEmployee: service error", "error", err, "profile_id", id)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

// SetupAdmin handles POST /setup-admin
func (h *Handler) SetupAdmin(w http.ResponseWriter, r *http.Request) {
	if h.Bootstrap == nil {
		h.HandleServiceError(w, ErrBootstrapDisabled)
		return
	}

	result, err := h.Service.EnsureAdmin(r.Context(), *h.Bootstrap)
	if err != nil {
		h.Logger.Error("SetupAdmin: bootstrap failed", "error", err)
		h.WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "admin setup failed",
		})
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}
