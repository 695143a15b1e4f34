package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/frahmantamala/zhar/internal/access"
	"github.com/frahmantamala/zhar/internal/assignment"
	"github.com/frahmantamala/zhar/internal/auth"
	"github.com/frahmantamala/zhar/internal/core/user"
	"github.com/frahmantamala/zhar/internal/creditrequest"
	"github.com/frahmantamala/zhar/internal/dashboard"
	"github.com/frahmantamala/zhar/internal/leaderboard"
	"github.com/frahmantamala/zhar/internal/mission"
	"github.com/frahmantamala/zhar/internal/profile"
	"github.com/frahmantamala/zhar/internal/project"
	"github.com/frahmantamala/zhar/internal/session"
	"github.com/frahmantamala/zhar/internal/transport"
	"github.com/frahmantamala/zhar/internal/transport/openapi"
	"github.com/frahmantamala/zhar/internal/transport/rest"
	"github.com/frahmantamala/zhar/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Rest Suite")
}

// fakeSessions resolves bearer tokens of the form "<role>-token".
type fakeSessions struct{}

func (fakeSessions) Resolve(_ context.Context, token string) (session.State, error) {
	role, ok := strings.CutSuffix(token, "-token")
	if !ok {
		return session.Unauthenticated(), nil
	}
	return session.State{
		Status:   session.StatusReady,
		Identity: &auth.Identity{UserID: "u-1", SessionID: "s-1"},
		Profile:  &user.User{ID: "u-1", Role: user.Role(role)},
	}, nil
}

func (fakeSessions) Refresh(context.Context, string) (auth.AuthTokens, session.State, error) {
	return auth.AuthTokens{}, session.Unauthenticated(), errors.New("no refresh")
}

func (fakeSessions) SignIn(context.Context, string, string) session.SignInResult {
	return session.SignInResult{}
}

func (fakeSessions) SignOut(context.Context, string) error { return nil }

func newRouter(doc *openapi.Document) *chi.Mux {
	base := transport.NewBaseHandler(logger.Discard())
	handlers := rest.Handlers{
		Guard: access.NewGuard(base, fakeSessions{}, access.CookieConfig{}),
		Health: rest.NewHealthHandler(base, map[string]rest.Check{
			"postgres": func(context.Context) error { return nil },
		}),
		Session:       session.NewHandler(base, nil),
		Profile:       &profile.Handler{BaseHandler: base},
		Project:       &project.Handler{BaseHandler: base},
		Assignment:    &assignment.Handler{BaseHandler: base},
		CreditRequest: &creditrequest.Handler{BaseHandler: base},
		Mission:       &mission.Handler{BaseHandler: base},
		Leaderboard:   &leaderboard.Handler{BaseHandler: base},
		Dashboard:     &dashboard.Handler{BaseHandler: base},
		OpenAPI:       doc,
	}

	router := chi.NewRouter()
	Expect(rest.RegisterAllRoutes(router, handlers, rest.Options{}, logger.Discard())).To(Succeed())
	return router
}

func serve(router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

var _ = Describe("RegisterAllRoutes", func() {
	var (
		doc    *openapi.Document
		router *chi.Mux
	)

	BeforeEach(func() {
		var err error
		doc, err = openapi.Load(context.Background(), "../../../api/openapi.yml")
		Expect(err).NotTo(HaveOccurred())
		router = newRouter(doc)
	})

	It("documents exactly the registered API routes", func() {
		var registered []string
		err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			if !strings.HasPrefix(route, rest.APIPrefix) {
				return nil
			}
			Expect(doc.Documents(method, route)).To(BeTrue(), "%s %s is not documented", method, route)
			registered = append(registered, method+" "+route)
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(registered).To(ConsistOf(doc.Operations()))
	})

	It("registers every gated page", func() {
		pages := map[string]bool{}
		err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			if method == http.MethodGet {
				pages[route] = true
			}
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		for _, route := range access.PageRoutes {
			Expect(pages).To(HaveKey(route.Path))
		}
	})

	It("serves public routes without a session", func() {
		rec := serve(router, http.MethodGet, "/api/v1/ping", "")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var body map[string]string
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body).To(HaveKeyWithValue("status", "OK"))
	})

	It("answers 401 on a staff route without a session", func() {
		Expect(serve(router, http.MethodGet, "/api/v1/me", "").Code).To(Equal(http.StatusUnauthorized))
	})

	It("answers 403 when the role is not allowed", func() {
		rec := serve(router, http.MethodPost, "/api/v1/projects", "employee-token")
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(rec.Body.String()).To(ContainSubstring(`"redirect_to":"/dashboard"`))
	})

	It("redirects a page the role cannot see to its home", func() {
		rec := serve(router, http.MethodGet, "/admin", "lead-token")
		Expect(rec.Code).To(Equal(http.StatusSeeOther))
		Expect(rec.Header().Get("Location")).To(Equal("/lead"))
	})

	It("redirects anonymous page requests to login", func() {
		rec := serve(router, http.MethodGet, "/dashboard", "")
		Expect(rec.Code).To(Equal(http.StatusSeeOther))
		Expect(rec.Header().Get("Location")).To(HavePrefix("/login?from="))
	})

	It("answers unknown paths with 404", func() {
		Expect(serve(router, http.MethodGet, "/nowhere", "").Code).To(Equal(http.StatusNotFound))
	})

	It("publishes the API document", func() {
		rec := serve(router, http.MethodGet, "/openapi.yml", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("openapi: 3.0.3"))
	})

	It("tags responses with a trace id", func() {
		rec := serve(router, http.MethodGet, "/api/v1/ping", "")
		Expect(rec.Header().Get("X-Trace-ID")).NotTo(BeEmpty())
	})
})

var _ = Describe("HealthHandler", func() {
	base := transport.NewBaseHandler(logger.Discard())

	It("reports healthy components", func() {
		h := rest.NewHealthHandler(base, map[string]rest.Check{
			"postgres": func(context.Context) error { return nil },
		})
		rec := httptest.NewRecorder()
		h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		var resp rest.HealthResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Status).To(Equal(rest.HealthHealthy))
		Expect(resp.Components).To(HaveKey("postgres"))
	})

	It("answers 503 when a component fails", func() {
		h := rest.NewHealthHandler(base, map[string]rest.Check{
			"postgres": func(context.Context) error { return nil },
			"cache":    func(context.Context) error { return errors.New("connection refused") },
		})
		rec := httptest.NewRecorder()
		h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		var resp rest.HealthResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Status).To(Equal(rest.HealthUnhealthy))
		Expect(resp.Components["cache"].Message).To(Equal("connection refused"))
		Expect(resp.Components["postgres"].Status).To(Equal(rest.HealthHealthy))
	})
})
