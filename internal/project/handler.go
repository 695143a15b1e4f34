package project

import (
	"context"
	"net/http"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Create(ctx context.Context, actorID string, dto CreateProjectDTO) (*Project, error)
	Update(ctx context.Context, id string, dto UpdateProjectDTO) (*Project, error)
	Get(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context, filter ListFilter) ([]*Project, error)
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

// ListProjects handles GET /projects
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Status:      r.URL.Query().Get("status"),
		ProjectType: r.URL.Query().Get("project_type"),
	}
	projects, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"projects": projects,
		"count":    len(projects),
	})
}

// GetProject handles GET /projects/{id}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

// CreateProject handles POST /projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	u, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateProjectDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	p, err := h.Service.Create(r.Context(), u.ID, dto)
	if err != nil {
		h.Logger.Error("CreateProject: service error", "error", err, "user_id", u.ID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, p)
}

// UpdateProject handles PATCH /projects/{id}
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto UpdateProjectDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	p, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.Logger.Error("UpdateProject: service error", "error", err, "project_id", id)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}
