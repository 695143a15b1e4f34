package project_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/core/common/dbtest"
	"github.com/frahmantamala/zhar/internal/core/user"
	"github.com/frahmantamala/zhar/internal/project"
	projectPostgres "github.com/frahmantamala/zhar/internal/project/postgres"
	"github.com/frahmantamala/zhar/internal/transport"
	"github.com/frahmantamala/zhar/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestProject(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Project Suite")
}

var _ = Describe("Project Handler Integration", func() {
	var (
		db      *gorm.DB
		service *project.Service
		router  *chi.Mux
		admin   *user.User
	)

	BeforeEach(func() {
		var err error
		db, err = dbtest.OpenSchema()
		Expect(err).NotTo(HaveOccurred())

		service = project.NewService(projectPostgres.NewRepository(db), logger.Discard())
		handler := project.NewHandler(transport.NewBaseHandler(logger.Discard()), service)
		admin = &user.User{ID: "admin-1", Role: user.RoleAdmin}

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithUser(r.Context(), admin)))
			})
		})
		router.Get("/projects", handler.ListProjects)
		router.Post("/projects", handler.CreateProject)
		router.Get("/projects/{id}", handler.GetProject)
		router.Patch("/projects/{id}", handler.UpdateProject)
	})

	AfterEach(func() {
		Expect(dbtest.Close(db)).To(Succeed())
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("creates a project with default status", func() {
		w := do(http.MethodPost, "/projects", map[string]interface{}{
			"name":             "Website revamp",
			"project_type":     "Web Development",
			"expected_credits": 40,
		})
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created project.Project
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.Status).To(Equal(project.StatusActive))
		Expect(created.CreatedBy).To(Equal("admin-1"))
		Expect(created.ExpectedCredits).To(Equal(int64(40)))

		w = do(http.MethodGet, "/projects/"+created.ID, nil)
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("rejects missing names and negative credits", func() {
		w := do(http.MethodPost, "/projects", map[string]interface{}{"project_type": "Web Development"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		w = do(http.MethodPost, "/projects", map[string]interface{}{
			"name": "x", "project_type": "Web Development", "expected_credits": -5,
		})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("updates only the given fields", func() {
		p, err := service.Create(context.Background(), "admin-1", project.CreateProjectDTO{
			Name: "Campaign", ProjectType: "Digital Marketing", ExpectedCredits: 25,
		})
		Expect(err).NotTo(HaveOccurred())

		w := do(http.MethodPatch, "/projects/"+p.ID, map[string]interface{}{"status": "completed"})
		Expect(w.Code).To(Equal(http.StatusOK))

		updated, err := service.Get(context.Background(), p.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Status).To(Equal("completed"))
		Expect(updated.Name).To(Equal("Campaign"))
		Expect(updated.ExpectedCredits).To(Equal(int64(25)))

		active, err := service.CountActive(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(active).To(BeZero())
	})

	It("returns 404 for unknown projects", func() {
		Expect(do(http.MethodGet, "/projects/nope", nil).Code).To(Equal(http.StatusNotFound))
		Expect(do(http.MethodPatch, "/projects/nope", map[string]interface{}{"status": "x"}).Code).To(Equal(http.StatusNotFound))
	})

	It("filters the listing by status", func() {
		ctx := context.Background()
		_, err := service.Create(ctx, "admin-1", project.CreateProjectDTO{Name: "A", ProjectType: "Web Development"})
		Expect(err).NotTo(HaveOccurred())
		_, err = service.Create(ctx, "admin-1", project.CreateProjectDTO{Name: "B", ProjectType: "Web Development", Status: "on_hold"})
		Expect(err).NotTo(HaveOccurred())

		w := do(http.MethodGet, "/projects?status=active", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var body struct {
			Projects []project.Project `json:"projects"`
			Count    int               `json:"count"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.Count).To(Equal(1))
		Expect(body.Projects[0].Name).To(Equal("A"))
	})
})
