package mission

import (
	"context"
	"net/http"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/approval"
	"github.com/frahmantamala/zhar/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateMission(ctx context.Context, dto CreateMissionDTO) (*Mission, error)
	UpdateMission(ctx context.Context, id string, dto UpdateMissionDTO) (*Mission, error)
	ListMissions(ctx context.Context, activeOnly bool) ([]*Mission, error)
	Request(ctx context.Context, actorID string, dto RequestDTO) (*Request, error)
	Approve(ctx context.Context, actorID, id string) (*Request, error)
	Reject(ctx context.Context, actorID, id string) (*Request, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]*Request, error)
	ApprovedClaimCounts(ctx context.Context, employeeID string) (map[string]int64, error)
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

type missionView struct {
	*Mission
	ApprovedClaims int64 `json:"approved_claims"`
}

// ListActive handles GET /missions
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	u, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	missions, err := h.Service.ListMissions(r.Context(), true)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	claims, err := h.Service.ApprovedClaimCounts(r.Context(), u.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	views := make([]missionView, 0, len(missions))
	for _, m := range missions {
		views = append(views, missionView{Mission: m, ApprovedClaims: claims[m.ID]})
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"missions": views,
		"count":    len(views),
	})
}

// ListAll handles GET /missions/all
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	missions, err := h.Service.ListMissions(r.Context(), false)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"missions": missions,
		"count":    len(missions),
	})
}

// CreateMission handles POST /missions
func (h *Handler) CreateMission(w http.ResponseWriter, r *http.Request) {
	var dto CreateMissionDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	m, err := h.Service.CreateMission(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, m)
}

// UpdateMission handles PATCH /missions/{id}
func (h *Handler) UpdateMission(w http.ResponseWriter, r *http.Request) {
	var dto UpdateMissionDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	m, err := h.Service.UpdateMission(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, m)
}

// CreateRequest handles POST /mission-requests
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	u, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto RequestDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	req, err := h.Service.Request(r.Context(), u.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, req)
}

// ListMyRequests handles GET /mission-requests/mine
func (h *Handler) ListMyRequests(w http.ResponseWriter, r *http.Request) {
	u, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reqs, err := h.Service.ListRequests(r.Context(), RequestFilter{
		EmployeeID: u.ID,
		Status:     approval.Status(r.URL.Query().Get("status")),
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"mission_requests": reqs,
		"count":            len(reqs),
	})
}

// Approve handles POST /mission-requests/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Service.Approve)
}

// Reject handles POST /mission-requests/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Service.Reject)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, decide func(ctx context.Context, actorID, id string) (*Request, error)) {
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
