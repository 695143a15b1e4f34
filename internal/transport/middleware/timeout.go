package middleware

import (
	"net/http"
	"time"

	"github.com/frahmantamala/zhar/internal"
)

// Timeout bounds every request context. A zero duration uses internal.WithTimeout's default.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := internal.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
