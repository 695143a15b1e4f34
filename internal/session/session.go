// Package session holds the application-wide view of who is signed in and which profile
// backs each sign-in.
package session

import (
	"context"
	"errors"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/auth"
	"github.com/frahmantamala/zhar/internal/core/events"
	"github.com/frahmantamala/zhar/internal/core/user"
)

// Status tags the session state.
type Status int

const (
	// StatusLoading: a restored session whose first profile load has not finished.
	StatusLoading Status = iota
	StatusUnauthenticated
	// StatusNoProfile: signed in, but no profile row matches the identity yet.
	StatusNoProfile
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusNoProfile:
		return "authenticated_no_profile"
	case StatusReady:
		return "authenticated"
	}
	return "unknown"
}

type State struct {
	Status   Status
	Identity *auth.Identity
	Profile  *user.User
}

// Unauthenticated is the state of a request without a valid session.
func Unauthenticated() State {
	return State{Status: StatusUnauthenticated}
}

// Loading reports whether the state is still waiting on its first profile load.
func (s State) Loading() bool {
	return s.Status == StatusLoading
}

// User returns the principal when the state carries a profile.
func (s State) User() (*user.User, bool) {
	if s.Status != StatusReady || s.Profile == nil {
		return nil, false
	}
	return s.Profile, true
}

// ErrNoProfile is returned by a ProfileLoader when the identity has no profile row.
var ErrNoProfile = internal.NewNotFoundError("profile not found", internal.ErrCodeProfileNotFound)

type ProfileLoader interface {
	LoadPrincipal(ctx context.Context, userID string) (*user.User, error)
}

type Authenticator interface {
	SignIn(ctx context.Context, dto auth.LoginDTO) (auth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (auth.Session, error)
	SignOut(ctx context.Context, sessionID string) error
	Verify(ctx context.Context, accessToken string) (auth.Identity, error)
	ActiveSessions(ctx context.Context) ([]auth.Identity, error)
}

type Subscriber interface {
	Subscribe(eventType string, handler events.Handler) (unsubscribe func())
}

// FailureReason explains a failed sign-in to the caller.
type FailureReason string

const (
	FailureInvalidCredentials FailureReason = "invalid_credentials"
	FailureInvalidInput       FailureReason = "invalid_input"
	FailureServiceError       FailureReason = "service_error"
)

type SignInResult struct {
	OK     bool
	Reason FailureReason
	Err    error
	Tokens auth.AuthTokens
	State  State
}

func failureReason(err error) FailureReason {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return FailureInvalidCredentials
	}
	if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeValidation {
		return FailureInvalidInput
	}
	return FailureServiceError
}
