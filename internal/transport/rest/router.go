package rest

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/zhar/internal/access"
	"github.com/frahmantamala/zhar/internal/assignment"
	"github.com/frahmantamala/zhar/internal/creditrequest"
	"github.com/frahmantamala/zhar/internal/dashboard"
	"github.com/frahmantamala/zhar/internal/leaderboard"
	"github.com/frahmantamala/zhar/internal/mission"
	"github.com/frahmantamala/zhar/internal/profile"
	"github.com/frahmantamala/zhar/internal/project"
	"github.com/frahmantamala/zhar/internal/session"
	"github.com/frahmantamala/zhar/internal/transport/middleware"
	"github.com/frahmantamala/zhar/internal/transport/openapi"
	"github.com/frahmantamala/zhar/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

const APIPrefix = "/api/v1"

type Handlers struct {
	Guard         *access.Guard
	Health        *HealthHandler
	Session       *session.Handler
	Profile       *profile.Handler
	Project       *project.Handler
	Assignment    *assignment.Handler
	CreditRequest *creditrequest.Handler
	Mission       *mission.Handler
	Leaderboard   *leaderboard.Handler
	Dashboard     *dashboard.Handler
	OpenAPI       *openapi.Document
}

type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options, logger *slog.Logger) error {
	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.Timeout(opts.RequestTimeout))

	if h.OpenAPI != nil {
		router.Method(http.MethodGet, "/openapi.yml", h.OpenAPI.Handler())
		router.Handle("/swagger/*", swagger.Handler())
	}

	if err := registerPages(router, h); err != nil {
		return err
	}
	router.Route(APIPrefix, func(r chi.Router) {
		registerAPI(r, h)
	})
	router.NotFound(h.Guard.NotFound)
	return nil
}

func registerPages(router chi.Router, h Handlers) error {
	router.Get("/", h.Guard.Index)
	router.Get(access.LoginPath, h.Guard.LoginForm)
	router.Post(access.LoginPath, h.Guard.Login)
	router.Get("/logout", h.Guard.Logout)
	router.Post("/logout", h.Guard.Logout)

	d := h.Dashboard
	pages := map[string]http.HandlerFunc{
		"/dashboard":   d.EmployeeDashboard,
		"/projects":    d.MyProjects,
		"/profile":     d.Profile,
		"/leaderboard": d.Leaderboard,

		"/lead":          d.Lead,
		"/lead/projects": d.LeadProjects,
		"/lead/team":     d.LeadTeam,
		"/lead/settings": d.Settings,

		"/admin":           d.Admin,
		"/admin/employees": d.AdminEmployees,
		"/admin/projects":  d.AdminProjects,
		"/admin/approvals": d.AdminApprovals,
		"/admin/settings":  d.Settings,
	}

	for _, route := range access.PageRoutes {
		handler, ok := pages[route.Path]
		if !ok {
			return fmt.Errorf("no handler for page %s", route.Path)
		}
		router.With(h.Guard.Page(route.Allowed)).Get(route.Path, handler)
	}
	return nil
}

func registerAPI(r chi.Router, h Handlers) {
	r.Get("/health", h.Health.Health)
	r.Get("/ping", h.Health.Ping)

	r.Post("/auth/login", h.Session.Login)
	r.Post("/auth/refresh", h.Session.RefreshToken)
	r.Post("/auth/logout", h.Session.Logout)
	r.Post("/setup-admin", h.Profile.SetupAdmin)

	r.Group(func(sr chi.Router) {
		sr.Use(h.Guard.API(access.Staff))

		sr.Get("/me", h.Profile.Me)
		sr.Patch("/me", h.Profile.UpdateMe)

		sr.Get("/leaderboard", h.Leaderboard.GetBoard)
		sr.Get("/leaderboard/me", h.Leaderboard.GetMyStanding)

		sr.Get("/assignments/mine", h.Assignment.ListMine)
		sr.Post("/assignments/{id}/advance", h.Assignment.Advance)
		sr.Patch("/assignments/{id}/progress", h.Assignment.SetProgress)

		sr.Post("/credit-requests", h.CreditRequest.Create)
		sr.Get("/credit-requests/mine", h.CreditRequest.ListMine)

		sr.Get("/missions", h.Mission.ListActive)
		sr.Post("/mission-requests", h.Mission.CreateRequest)
		sr.Get("/mission-requests/mine", h.Mission.ListMyRequests)
	})

	r.Group(func(lr chi.Router) {
		lr.Use(h.Guard.API(access.Leads))

		lr.Post("/assignments", h.Assignment.Assign)
		lr.Get("/projects", h.Project.ListProjects)
		lr.Get("/projects/{id}", h.Project.GetProject)
		lr.Get("/employees", h.Profile.ListEmployees)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(h.Guard.API(access.Admins))

		ar.Post("/projects", h.Project.CreateProject)
		ar.Patch("/projects/{id}", h.Project.UpdateProject)

		ar.Post("/employees", h.Profile.CreateEmployee)
		ar.Patch("/employees/{id}", h.Profile.UpdateEmployee)

		ar.Get("/missions/all", h.Mission.ListAll)
		ar.Post("/missions", h.Mission.CreateMission)
		ar.Patch("/missions/{id}", h.Mission.UpdateMission)

		ar.Get("/approvals", h.Dashboard.ListApprovals)
		ar.Post("/credit-requests/{id}/approve", h.CreditRequest.Approve)
		ar.Post("/credit-requests/{id}/reject", h.CreditRequest.Reject)
		ar.Post("/mission-requests/{id}/approve", h.Mission.Approve)
		ar.Post("/mission-requests/{id}/reject", h.Mission.Reject)
	})
}
