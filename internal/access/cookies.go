package access

import (
	"net/http"
	"time"

	"github.com/frahmantamala/zhar/internal/auth"
)

type CookieConfig struct {
	Name        string
	RefreshName string
	Secure      bool
	// RefreshTTL bounds the lifetime of the refresh cookie. The access cookie lives for the browser session.
	RefreshTTL time.Duration
}

func (c CookieConfig) withDefaults() CookieConfig {
	if c.Name == "" {
		c.Name = "zhar_session"
	}
	if c.RefreshName == "" {
		c.RefreshName = "zhar_refresh"
	}
	return c
}

func (c CookieConfig) set(w http.ResponseWriter, tokens auth.AuthTokens) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    tokens.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	if tokens.RefreshToken == "" {
		return
	}
	refresh := &http.Cookie{
		Name:     c.RefreshName,
		Value:    tokens.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if c.RefreshTTL > 0 {
		refresh.MaxAge = int(c.RefreshTTL.Seconds())
	}
	http.SetCookie(w, refresh)
}

func (c CookieConfig) clear(w http.ResponseWriter) {
	for _, name := range []string{c.Name, c.RefreshName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   c.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
