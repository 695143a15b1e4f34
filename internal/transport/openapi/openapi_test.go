package openapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/frahmantamala/zhar/internal/transport/openapi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const documentPath = "../../../api/openapi.yml"

func TestOpenAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "OpenAPI Suite")
}

var _ = Describe("Document", func() {
	var doc *openapi.Document

	BeforeEach(func() {
		var err error
		doc, err = openapi.Load(context.Background(), documentPath)
		Expect(err).NotTo(HaveOccurred())
	})

	It("loads the published API description", func() {
		Expect(doc.Title()).To(Equal("Zhar API"))
		Expect(doc.Version()).To(Equal("1.0.0"))
		Expect(doc.Operations()).To(ContainElements(
			"GET /api/v1/leaderboard",
			"POST /api/v1/credit-requests/{id}/approve",
			"PATCH /api/v1/missions/{id}",
		))
	})

	It("matches chi patterns under the server base path", func() {
		Expect(doc.Documents("GET", "/api/v1/assignments/mine")).To(BeTrue())
		Expect(doc.Documents("post", "/api/v1/assignments/{assignmentID}/advance")).To(BeTrue())
		Expect(doc.Documents("DELETE", "/api/v1/projects/{id}")).To(BeFalse())
		Expect(doc.Documents("GET", "/api/v1/unknown")).To(BeFalse())
	})

	It("serves the raw document", func() {
		rec := httptest.NewRecorder()
		doc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yml", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/yaml"))
		Expect(rec.Body.String()).To(ContainSubstring("title: Zhar API"))
	})
})

var _ = Describe("Load", func() {
	It("fails for a missing file", func() {
		_, err := openapi.Load(context.Background(), "does-not-exist.yml")
		Expect(err).To(MatchError(ContainSubstring("read openapi document")))
	})

	It("rejects a document without info", func() {
		path := filepath.Join(GinkgoT().TempDir(), "broken.yml")
		Expect(os.WriteFile(path, []byte("openapi: 3.0.3\npaths: {}\n"), 0o600)).To(Succeed())

		_, err := openapi.Load(context.Background(), path)
		Expect(err).To(MatchError(ContainSubstring("invalid openapi document")))
	})
})
