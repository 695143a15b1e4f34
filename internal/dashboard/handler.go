package dashboard

import (
	"context"
	"net/http"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/core/user"
	"github.com/frahmantamala/zhar/internal/credit"
	"github.com/frahmantamala/zhar/internal/leaderboard"
	"github.com/frahmantamala/zhar/internal/profile"
	"github.com/frahmantamala/zhar/internal/project"
	"github.com/frahmantamala/zhar/internal/transport"
)

type ServiceAPI interface {
	Employee(ctx context.Context, userID string) (*EmployeeView, error)
	Lead(ctx context.Context, sector string) (*LeadView, error)
	Team(ctx context.Context, sector string) ([]Member, error)
	Admin(ctx context.Context) (*AdminView, error)
	Approvals(ctx context.Context) (*ApprovalsView, error)
	MyProjects(ctx context.Context, userID string) (*MyProjectsView, error)
	ProjectsOverview(ctx context.Context, filter project.ListFilter) ([]ProjectOverview, error)
	ProfileView(ctx context.Context, userID string) (*ProfileView, error)
	Employees(ctx context.Context, filter profile.ListFilter) ([]Member, error)
	Settings(ctx context.Context, userID string) (*SettingsView, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Board   Leaderboard
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, board Leaderboard) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Board:       board,
	}
}

type page struct {
	Page string      `json:"page"`
	User pageUser    `json:"user"`
	Data interface{} `json:"data"`
}

type pageUser struct {
	ID       string    `json:"id"`
	FullName string    `json:"full_name"`
	Role     user.Role `json:"role"`
	Sector   *string   `json:"sector,omitempty"`
}

// render writes the view model of a page together with the signed-in user.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, load func(ctx context.Context, u *user.User) (interface{}, error)) {
	u, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	data, err := load(r.Context(), u)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page{
		Page: name,
		User: pageUser{ID: u.ID, FullName: u.FullName, Role: u.Role, Sector: u.Sector},
		Data: data,
	})
}

// teamSector is the sector a lead page is scoped to: the query value if given,
// otherwise the lead's own sector.
func teamSector(r *http.Request, u *user.User) string {
	if s := r.URL.Query().Get("sector"); s != "" {
		return s
	}
	if u.Role == user.RoleLead && u.Sector != nil {
		return *u.Sector
	}
	return ""
}

// EmployeeDashboard handles GET /dashboard
func (h *Handler) EmployeeDashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "dashboard", func(ctx context.Context, u *user.User) (interface{}, error) {
		return h.Service.Employee(ctx, u.ID)
	})
}

// MyProjects handles GET /projects
func (h *Handler) MyProjects(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "projects", func(ctx context.Context, u *user.User) (interface{}, error) {
		return h.Service.MyProjects(ctx, u.ID)
	})
}

// Profile handles GET /profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "profile", func(ctx context.Context, u *user.User) (interface{}, error) {
		return h.Service.ProfileView(ctx, u.ID)
	})
}

// Leaderboard handles GET /leaderboard?period=&sector=
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	period, err := credit.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		h.HandleServiceError(w, leaderboard.ErrInvalidPeriod)
		return
	}
	h.render(w, r, "leaderboard", func(ctx context.Context, u *user.User) (interface{}, error) {
		return h.Board.Board(ctx, period, r.URL.Query().Get("sector"))
	})
}

// Lead handles GET /lead
func (h *Handler) Lead(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "lead", func(ctx context.Context, u *user.User) (interface{}, error) {
		return h.Service.Lead(ctx, teamSector(r, u))
	})
}

// LeadProjects handles GET /lead/projects
func (h *Handler) LeadProjects(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "lead_projects", func(ctx context.Context, u *user.User) (interface{}, error) {
		return h.Service.ProjectsOverview(ctx, project.ListFilter{Status: r.URL.Query().Get("status")})
	})
}

// LeadTeam handles GET /lead/team
func (h *Handler) LeadTeam(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "lead_team", func(ctx context.Context, u *user.User) (interface{}, error) {
		return h.Service.Team(ctx, teamSector(r, u))
	})
}

// Settings handles GET /lead/settings and GET /admin/settings
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "settings", func(ctx context.Context, u *user.User) (interface{}, error) {
		return h.Service.Settings(ctx, u.ID)
	})
}

// Admin handles GET /admin
func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "admin", func(ctx context.Context, u *user.User) (interface{}, error) {
		return h.Service.Admin(ctx)
	})
}

// AdminEmployees handles GET /admin/employees?role=&sector=&search=
func (h *Handler) AdminEmployees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := profile.ListFilter{Sector: q.Get("sector"), Search: q.Get("search")}
	if role := q.Get("role"); role != "" {
		parsed, err := user.ParseRole(role)
		if err != nil {
			h.HandleServiceError(w, profile.ErrInvalidRole)
			return
		}
		filter.Role = parsed
	}
	h.render(w, r, "admin_employees", func(ctx context.Context, u *user.User) (interface{}, error) {
		return h.Service.Employees(ctx, filter)
	})
}

// AdminProjects handles GET /admin/projects
func (h *Handler) AdminProjects(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "admin_projects", func(ctx context.Context, u *user.User) (interface{}, error) {
		return h.Service.ProjectsOverview(ctx, project.ListFilter{Status: r.URL.Query().Get("status")})
	})
}

// AdminApprovals handles GET /admin/approvals
func (h *Handler) AdminApprovals(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "admin_approvals", func(ctx context.Context, u *user.User) (interface{}, error) {
		return h.Service.Approvals(ctx)
	})
}

// ListApprovals handles GET /approvals
func (h *Handler) ListApprovals(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.Approvals(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, view)
}
