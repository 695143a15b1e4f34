package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/frahmantamala/zhar/pkg/logger"
)

const (
	filtered = "[FILTERED]"
	// maxLoggedBody caps how much of a body is kept for the log line.
	maxLoggedBody = 4 << 10
)

// sensitiveFields are matched as substrings of lower-cased header, form and JSON keys.
var sensitiveFields = []string{
	"password",
	"token",
	"authorization",
	"cookie",
	"secret",
	"api_key",
	"session",
	"credential",
}

// LoggingMiddleware logs each request and its response through the request-scoped logger,
// so the trace id set by RequestID appears on both lines.
func LoggingMiddleware(fallback *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lg := requestLogger(r, fallback)

			logRequest(lg, r)

			ww := &responseWriter{ResponseWriter: w, body: &bytes.Buffer{}}
			next.ServeHTTP(ww, r)

			logResponse(lg, r, ww, time.Since(start))
		})
	}
}

func requestLogger(r *http.Request, fallback *slog.Logger) *slog.Logger {
	if fallback == nil {
		return logger.From(r.Context())
	}
	return logger.FromOr(r.Context(), fallback)
}

// responseWriter records the status and the first bytes of the body.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.statusCode == 0 {
		rw.statusCode = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody - rw.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		rw.body.Write(b[:room])
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) status() int {
	if rw.statusCode == 0 {
		return http.StatusOK
	}
	return rw.statusCode
}

func logRequest(lg *slog.Logger, r *http.Request) {
	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
	}

	lg.Info("incoming request",
		"method", r.Method,
		"path", r.URL.Path,
		"query", filterQuery(r.URL.Query()),
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent(),
		"headers", filterSensitiveHeaders(r.Header),
		"body", filterSensitiveBody(r.Header.Get("Content-Type"), body),
	)
}

func logResponse(lg *slog.Logger, r *http.Request, rw *responseWriter, duration time.Duration) {
	status := rw.status()

	level := slog.LevelInfo
	switch {
	case status >= http.StatusInternalServerError:
		level = slog.LevelError
	case status >= http.StatusBadRequest:
		level = slog.LevelWarn
	}

	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", status,
		"duration_ms", duration.Milliseconds(),
	}
	if location := rw.Header().Get("Location"); location != "" {
		attrs = append(attrs, "location", location)
	}
	if level > slog.LevelInfo {
		attrs = append(attrs, "body", filterSensitiveBody(rw.Header().Get("Content-Type"), rw.body.Bytes()))
	}
	lg.Log(r.Context(), level, "response", attrs...)
}

func isSensitive(name string) bool {
	lower := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

func filterSensitiveHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isSensitive(name) {
			out[name] = filtered
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

func filterQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	for key := range values {
		if isSensitive(key) {
			values.Set(key, filtered)
		}
	}
	return values.Encode()
}

// filterSensitiveBody masks sensitive keys of JSON and form bodies. Other bodies are
// omitted.
func filterSensitiveBody(contentType string, body []byte) string {
	if len(body) == 0 {
		return ""
	}

	switch {
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return filtered
		}
		return filterQuery(values)
	case strings.HasPrefix(contentType, "application/json"), contentType == "":
		var data interface{}
		if err := json.Unmarshal(body, &data); err != nil {
			if contentType == "" {
				return "[body omitted]"
			}
			return "[invalid json]"
		}
		out, err := json.Marshal(filterSensitiveJSON(data))
		if err != nil {
			return filtered
		}
		return string(out)
	}
	return "[" + contentType + " body omitted]"
}

func filterSensitiveJSON(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isSensitive(key) {
				out[key] = filtered
				continue
			}
			out[key] = filterSensitiveJSON(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = filterSensitiveJSON(item)
		}
		return out
	default:
		return v
	}
}
