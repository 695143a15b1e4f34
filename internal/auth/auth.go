package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/zhar/internal"
	userDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/user"
	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Identity is a verified sign-in: who, and which stored session vouches for it.
type Identity struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Session is returned by sign-in and refresh.
type Session struct {
	Identity Identity
	Tokens   AuthTokens
}

// Claims represents JWT token claims. RegisteredClaims.ID carries the session id.
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenGenerator creates and validates signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(identity Identity) (string, error)
	GenerateRefreshToken(identity Identity) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
	RefreshTTL() time.Duration
}

type RepositoryAPI interface {
	GetIdentityByEmail(ctx context.Context, email string) (*userDatamodel.Identity, error)
	GetIdentityByID(ctx context.Context, id string) (*userDatamodel.Identity, error)
	CreateIdentity(ctx context.Context, identity *userDatamodel.Identity) error
	DeleteIdentity(ctx context.Context, id string) error
	CreateSession(ctx context.Context, session *userDatamodel.AuthSession) error
	GetSession(ctx context.Context, id string) (*userDatamodel.AuthSession, error)
	RevokeSession(ctx context.Context, id string, at time.Time) error
	ListActiveSessions(ctx context.Context, now time.Time) ([]Identity, error)
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

var (
	ErrInvalidCredentials = internal.ErrInvalidCredentials
	ErrInvalidToken       = internal.ErrInvalidToken
	ErrTokenExpired       = internal.ErrTokenExpired
	ErrSessionRevoked     = internal.ErrSessionRevoked

	ErrIdentityNotFound = internal.NewNotFoundError("identity not found", internal.ErrCodeProfileNotFound)
	ErrSessionNotFound  = internal.NewUnauthorizedError("session not found", internal.ErrCodeSessionRevoked)
	ErrEmailTaken       = internal.NewConflictError("email is already registered", internal.ErrCodeEmailTaken)
)
