package access

import (
	"context"
	"net/http"
	"net/url"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/auth"
	"github.com/frahmantamala/zhar/internal/session"
	"github.com/frahmantamala/zhar/internal/transport"
	"github.com/frahmantamala/zhar/pkg/logger"
)

// Sessions is the part of the session provider the guard depends on.
type Sessions interface {
	Resolve(ctx context.Context, accessToken string) (session.State, error)
	Refresh(ctx context.Context, refreshToken string) (auth.AuthTokens, session.State, error)
	SignIn(ctx context.Context, email, password string) session.SignInResult
	SignOut(ctx context.Context, sessionID string) error
}

type Guard struct {
	*transport.BaseHandler
	sessions Sessions
	cookies  CookieConfig
}

func NewGuard(baseHandler *transport.BaseHandler, sessions Sessions, cookies CookieConfig) *Guard {
	return &Guard{
		BaseHandler: baseHandler,
		sessions:    sessions,
		cookies:     cookies.withDefaults(),
	}
}

// resolve reads the access token from the Authorization header or the session cookie.
// A cookie-based request whose access token no longer verifies is refreshed when a
// refresh cookie is present, and both cookies are re-issued.
func (g *Guard) resolve(w http.ResponseWriter, r *http.Request) session.State {
	ctx := r.Context()

	token := transport.BearerToken(r)
	bearer := token != ""
	if !bearer {
		token = cookieValue(r, g.cookies.Name)
	}

	state, err := g.sessions.Resolve(ctx, token)
	if err != nil {
		logger.From(ctx).Debug("access token rejected", "path", r.URL.Path, "error", err)
	}
	if bearer || state.Status != session.StatusUnauthenticated {
		return state
	}

	refreshToken := cookieValue(r, g.cookies.RefreshName)
	if refreshToken == "" {
		return state
	}

	tokens, refreshed, err := g.sessions.Refresh(ctx, refreshToken)
	if err != nil {
		logger.From(ctx).Info("session refresh failed", "path", r.URL.Path, "error", err)
		g.cookies.clear(w)
		return session.Unauthenticated()
	}
	g.cookies.set(w, tokens)
	return refreshed
}

func withPrincipal(r *http.Request, state session.State) *http.Request {
	u, ok := state.User()
	if !ok {
		return r
	}
	ctx := internal.ContextWithUser(r.Context(), u)
	ctx = logger.With(ctx, "user_id", u.ID, "role", string(u.Role))
	return r.WithContext(ctx)
}

// Page gates a page route. Outcomes become redirects or a loading response, never errors.
func (g *Guard) Page(allowed RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := g.resolve(w, r)
			decision := Decide(state, allowed)

			switch decision.Outcome {
			case OutcomeRender:
				next.ServeHTTP(w, withPrincipal(r, state))
			case OutcomeRedirectLogin:
				location := decision.Location + "?from=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, location, http.StatusSeeOther)
			case OutcomeRedirectHome:
				logger.From(r.Context()).Warn("page not allowed for role",
					"path", r.URL.Path,
					"allowed", allowed.String(),
					"redirect_to", decision.Location)
				http.Redirect(w, r, decision.Location, http.StatusSeeOther)
			default:
				g.writeLoading(w, http.StatusAccepted, state)
			}
		})
	}
}

// API gates a JSON route with programmatic statuses instead of redirects.
func (g *Guard) API(allowed RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := g.resolve(w, r)
			decision := Decide(state, allowed)

			switch decision.Outcome {
			case OutcomeRender:
				next.ServeHTTP(w, withPrincipal(r, state))
			case OutcomeRedirectLogin:
				g.WriteError(w, http.StatusUnauthorized, "authentication required")
			case OutcomeRedirectHome:
				logger.From(r.Context()).Warn("api route not allowed for role",
					"path", r.URL.Path,
					"allowed", allowed.String())
				g.WriteJSON(w, http.StatusForbidden, map[string]interface{}{
					"code":        http.StatusForbidden,
					"message":     "role not allowed",
					"redirect_to": decision.Location,
				})
			default:
				g.writeLoading(w, http.StatusServiceUnavailable, state)
			}
		})
	}
}

func (g *Guard) writeLoading(w http.ResponseWriter, status int, state session.State) {
	w.Header().Set("Retry-After", "1")
	g.WriteJSON(w, status, map[string]string{
		"status": "loading",
		"state":  state.Status.String(),
	})
}
