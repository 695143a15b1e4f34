package creditrequest

import (
	"context"
	"net/http"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/approval"
	"github.com/frahmantamala/zhar/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Create(ctx context.Context, actorID string, dto CreateDTO) (*CreditRequest, error)
	Approve(ctx context.Context, actorID, id string) (*CreditRequest, error)
	Reject(ctx context.Context, actorID, id string) (*CreditRequest, error)
	List(ctx context.Context, filter ListFilter) ([]*CreditRequest, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// Create handles POST /credit-requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	req, err := h.Service.Create(r.Context(), u.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, req)
}

// ListMine handles GET /credit-requests/mine
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	u, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reqs, err := h.Service.List(r.Context(), ListFilter{
		EmployeeID: u.ID,
		Status:     approval.Status(r.URL.Query().Get("status")),
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"credit_requests": reqs,
		"count":           len(reqs),
	})
}

// Approve handles POST /credit-requests/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Service.Approve)
}

// Reject handles POST /credit-requests/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Service.Reject)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, decide func(ctx context.Context, actorID, id string) (*CreditRequest, error)) {
	u, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	req, err := decide(r.Context(), u.ID, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, req)
}
