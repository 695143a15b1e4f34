package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/frahmantamala/zhar/internal/auth"
	"github.com/frahmantamala/zhar/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Provider *Provider
}

func NewHandler(baseHandler *transport.BaseHandler, provider *Provider) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Provider:    provider,
	}
}

type sessionResponse struct {
	auth.AuthTokens
	Status  string      `json:"status"`
	Profile interface{} `json:"profile,omitempty"`
}

func newSessionResponse(tokens auth.AuthTokens, state State) sessionResponse {
	resp := sessionResponse{AuthTokens: tokens, Status: state.Status.String()}
	if u, ok := state.User(); ok {
		resp.Profile = map[string]interface{}{
			"id":        u.ID,
			"email":     u.Email,
			"full_name": u.FullName,
			"role":      u.Role,
			"sector":    u.Sector,
			"home":      u.Role.Home(),
		}
	}
	return resp
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto auth.LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := h.Provider.SignIn(r.Context(), dto.Email, dto.Password)
	if !result.OK {
		switch result.Reason {
		case FailureInvalidCredentials:
			h.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		case FailureInvalidInput:
			h.HandleServiceError(w, result.Err)
		default:
			h.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, newSessionResponse(result.Tokens, result.State))
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto auth.RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	tokens, state, err := h.Provider.Refresh(r.Context(), dto.RefreshToken)
	if err != nil {
		h.Logger.Warn("token refresh failed", "error", err)

		switch {
		case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrSessionRevoked):
			h.WriteError(w, http.StatusUnauthorized, "invalid refresh token")
		default:
			h.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, newSessionResponse(tokens, state))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	state, err := h.Provider.Resolve(r.Context(), token)
	if err != nil || state.Identity == nil {
		h.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	if err := h.Provider.SignOut(r.Context(), state.Identity.SessionID); err != nil {
		h.Logger.Error("logout failed", "error", err, "session_id", state.Identity.SessionID)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
