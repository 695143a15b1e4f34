package assignment

import (
	"context"
	"net/http"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Assign(ctx context.Context, actorID string, dto AssignDTO) (*Assignment, error)
	Advance(ctx context.Context, actorID, id string) (*Assignment, error)
	SetProgress(ctx context.Context, actorID, id string, dto ProgressDTO) (*Assignment, error)
	ListMine(ctx context.Context, employeeID string) ([]*Assignment, error)
}

// ApprovedCredits reports which of an employee's assignments already have an approved
// credit request.
type ApprovedCredits interface {
	ApprovedAssignmentIDs(ctx context.Context, employeeID string) (map[string]bool, error)
}

type Handler struct {
	*transport.BaseHandler
	Service  ServiceAPI
	Approved ApprovedCredits
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, approved ApprovedCredits) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Approved:    approved,
	}
}

type assignmentView struct {
	*Assignment
	HasApprovedCredit bool `json:"has_approved_credit"`
}

// ListMine handles GET /assignments/mine
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	u, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	assignments, err := h.Service.ListMine(r.Context(), u.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	approved := map[string]bool{}
	if h.Approved != nil {
		if approved, err = h.Approved.ApprovedAssignmentIDs(r.Context(), u.ID); err != nil {
			h.HandleServiceError(w, err)
			return
		}
	}

	views := make([]assignmentView, 0, len(assignments))
	for _, a := range assignments {
		views = append(views, assignmentView{Assignment: a, HasApprovedCredit: approved[a.ID]})
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"assignments": views,
		"count":       len(views),
	})
}

// Assign handles POST /assignments
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	u, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto AssignDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	a, err := h.Service.Assign(r.Context(), u.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, a)
}

// Advance handles POST /assignments/{id}/advance
func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	u, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	a, err := h.Service.Advance(r.Context(), u.ID, id)
	if err != nil {
		h.Logger.Warn("Advance: refused", "error", err, "assignment_id", id, "user_id", u.ID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, a)
}

// SetProgress handles PATCH /assignments/{id}/progress
func (h *Handler) SetProgress(w http.ResponseWriter, r *http.Request) {
	u, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto ProgressDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	a, err := h.Service.SetProgress(r.Context(), u.ID, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, a)
}
