package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

var _ = Describe("CORS", func() {
	handler := CORS([]string{"https://app.example.com"})(ok)

	It("echoes a listed origin with credentials", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://app.example.com"))
		Expect(rec.Header().Get("Access-Control-Allow-Credentials")).To(Equal("true"))
	})

	It("ignores other origins", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})

	It("answers preflight requests", func() {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/assignments", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(rec.Header().Get("Access-Control-Allow-Methods")).To(ContainSubstring("PATCH"))
	})

	It("admits any origin with a wildcard but without credentials", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://other.example.com")
		rec := httptest.NewRecorder()
		CORS([]string{"*"})(ok).ServeHTTP(rec, req)

		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
		Expect(rec.Header().Get("Access-Control-Allow-Credentials")).To(BeEmpty())
	})
})

var _ = Describe("RequestID", func() {
	It("keeps the caller's trace id", func() {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = middleware.GetReqID(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(TraceHeader, "trace-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(seen).To(Equal("trace-123"))
		Expect(rec.Header().Get(TraceHeader)).To(Equal("trace-123"))
	})

	It("mints one when missing", func() {
		rec := httptest.NewRecorder()
		RequestID(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Header().Get(TraceHeader)).To(HaveLen(36))
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("turns a panic into a 500", func() {
		h := RecoveryMiddleware(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		var body map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["message"]).To(Equal("internal server error"))
	})
})

var _ = Describe("Timeout", func() {
	It("puts a deadline on the request context", func() {
		var deadline time.Time
		h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deadline, _ = r.Context().Deadline()
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(deadline).To(BeTemporally("~", time.Now().Add(time.Second), 500*time.Millisecond))
	})
})

var _ = Describe("LoggingMiddleware", func() {
	var (
		buf *bytes.Buffer
		lg  *slog.Logger
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		lg = slog.New(slog.NewJSONHandler(buf, nil))
	})

	It("filters passwords from login forms and tokens from headers", func() {
		h := LoggingMiddleware(lg)(ok)
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("email=a%40b.c&password=hunter22"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Bearer abc.def")
		h.ServeHTTP(httptest.NewRecorder(), req)

		out := buf.String()
		Expect(out).NotTo(ContainSubstring("hunter22"))
		Expect(out).NotTo(ContainSubstring("abc.def"))
		Expect(out).To(ContainSubstring("a%40b.c"))
	})

	It("keeps the body readable for the next handler", func() {
		var body string
		h := LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b := new(bytes.Buffer)
			_, _ = b.ReadFrom(r.Body)
			body = b.String()
		}))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/credit-requests", strings.NewReader(`{"assignment_id":"a-1"}`))
		req.Header.Set("Content-Type", "application/json")
		h.ServeHTTP(httptest.NewRecorder(), req)

		Expect(body).To(Equal(`{"assignment_id":"a-1"}`))
	})

	It("masks nested JSON keys", func() {
		out := filterSensitiveBody("application/json", []byte(`{"user":{"refresh_token":"x","name":"n"}}`))
		Expect(out).To(Equal(`{"user":{"name":"n","refresh_token":"[FILTERED]"}}`))
	})

	It("logs client errors at warn", func() {
		h := LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin", nil))
		Expect(buf.String()).To(ContainSubstring(`"level":"WARN"`))
	})
})
