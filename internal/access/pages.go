package access

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/frahmantamala/zhar/internal/session"
	"github.com/frahmantamala/zhar/pkg/logger"
)

// Index sends signed-in users to their home and everyone else to the login page.
func (g *Guard) Index(w http.ResponseWriter, r *http.Request) {
	state := g.resolve(w, r)
	switch state.Status {
	case session.StatusReady:
		u, _ := state.User()
		http.Redirect(w, r, u.Role.Home(), http.StatusSeeOther)
	case session.StatusLoading, session.StatusNoProfile:
		g.writeLoading(w, http.StatusAccepted, state)
	default:
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
	}
}

type loginForm struct {
	Fields []string `json:"fields"`
	From   string   `json:"from,omitempty"`
	Error  string   `json:"error,omitempty"`
	Reason string   `json:"reason,omitempty"`
}

func (g *Guard) LoginForm(w http.ResponseWriter, r *http.Request) {
	state := g.resolve(w, r)
	if u, ok := state.User(); ok {
		http.Redirect(w, r, u.Role.Home(), http.StatusSeeOther)
		return
	}
	g.WriteJSON(w, http.StatusOK, loginForm{
		Fields: []string{"email", "password"},
		From:   r.URL.Query().Get("from"),
	})
}

// Login signs in from a submitted form. Failures re-render the form with the reason.
func (g *Guard) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		g.WriteError(w, http.StatusBadRequest, "invalid form")
		return
	}
	from := r.PostForm.Get("from")

	result := g.sessions.SignIn(r.Context(), r.PostForm.Get("email"), r.PostForm.Get("password"))
	if !result.OK {
		status := http.StatusInternalServerError
		message := "sign-in is unavailable, try again later"
		switch result.Reason {
		case session.FailureInvalidCredentials:
			status, message = http.StatusUnauthorized, "invalid email or password"
		case session.FailureInvalidInput:
			status, message = http.StatusBadRequest, "email and password are required"
		}
		g.WriteJSON(w, status, loginForm{
			Fields: []string{"email", "password"},
			From:   from,
			Error:  message,
			Reason: string(result.Reason),
		})
		return
	}

	g.cookies.set(w, result.Tokens)

	location := "/dashboard"
	if u, ok := result.State.User(); ok {
		location = u.Role.Home()
	}
	if safeLocalPath(from) {
		location = from
	}
	logger.From(r.Context()).Info("signed in", "redirect_to", location, "state", result.State.Status.String())
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (g *Guard) Logout(w http.ResponseWriter, r *http.Request) {
	state := g.resolve(w, r)
	if state.Identity != nil {
		if err := g.sessions.SignOut(r.Context(), state.Identity.SessionID); err != nil {
			logger.From(r.Context()).Error("sign-out failed", "session_id", state.Identity.SessionID, "error", err)
		}
	}
	g.cookies.clear(w)
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

func (g *Guard) NotFound(w http.ResponseWriter, r *http.Request) {
	g.WriteError(w, http.StatusNotFound, "page not found")
}

// safeLocalPath accepts same-origin paths only. Browsers read a backslash as a slash, so
// `/\host` is protocol-relative too.
func safeLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, LoginPath) {
		return false
	}
	if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
		return false
	}
	u, err := url.Parse(strings.ReplaceAll(p, "\\", "/"))
	return err == nil && u.Scheme == "" && u.Host == ""
}
