package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	userDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/user"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service is the main auth service with dependencies
type Service struct {
	repo           RepositoryAPI
	tokenGenerator TokenGenerator
	bcryptCost     int
	logger         *slog.Logger
	now            func() time.Time
}

// NewService creates a new auth service
func NewService(repo RepositoryAPI, tokenGen TokenGenerator, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// SignIn validates credentials, stores a new session and issues its tokens.
func (s *Service) SignIn(ctx context.Context, dto LoginDTO) (Session, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return Session{}, err
	}

	identity, err := s.repo.GetIdentityByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(dto.Password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	now := s.now()
	stored := &userDatamodel.AuthSession{
		ID:         uuid.NewString(),
		IdentityID: identity.ID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.tokenGenerator.RefreshTTL()),
	}
	if err := s.repo.CreateSession(ctx, stored); err != nil {
		s.logger.Error("failed to store session", "error", err, "identity_id", identity.ID)
		return Session{}, err
	}

	id := Identity{
		UserID:    identity.ID,
		Email:     identity.Email,
		SessionID: stored.ID,
		ExpiresAt: stored.ExpiresAt,
	}

	tokens, err := s.issue(id)
	if err != nil {
		return Session{}, err
	}

	s.logger.Info("identity signed in", "user_id", id.UserID, "session_id", id.SessionID)
	return Session{Identity: id, Tokens: tokens}, nil
}

// Refresh exchanges a refresh token for a new token pair on the same session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if err := (RefreshTokenDTO{RefreshToken: refreshToken}).Validate(); err != nil {
		return Session{}, err
	}

	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return Session{}, err
	}

	id, err := s.activeIdentity(ctx, claims)
	if err != nil {
		return Session{}, err
	}

	tokens, err := s.issue(id)
	if err != nil {
		return Session{}, err
	}
	return Session{Identity: id, Tokens: tokens}, nil
}

// Verify checks an access token and that its session is still live.
func (s *Service) Verify(ctx context.Context, accessToken string) (Identity, error) {
	claims, err := s.tokenGenerator.ValidateAccessToken(accessToken)
	if err != nil {
		return Identity{}, err
	}
	return s.activeIdentity(ctx, claims)
}

// SignOut revokes the session. Revoking an unknown session is not an error.
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if err := s.repo.RevokeSession(ctx, sessionID, s.now()); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	s.logger.Info("session revoked", "session_id", sessionID)
	return nil
}

func (s *Service) ActiveSessions(ctx context.Context) ([]Identity, error) {
	return s.repo.ListActiveSessions(ctx, s.now())
}

// PurgeExpiredSessions deletes sessions that expired before the retention horizon.
func (s *Service) PurgeExpiredSessions(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx, s.now().Add(-retention))
}

// CreateIdentity registers credentials for a new account.
func (s *Service) CreateIdentity(ctx context.Context, email, password string) (*userDatamodel.Identity, error) {
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	identity := &userDatamodel.Identity{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
	}
	if err := s.repo.CreateIdentity(ctx, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// DeleteIdentity removes credentials that never received a profile.
func (s *Service) DeleteIdentity(ctx context.Context, id string) error {
	return s.repo.DeleteIdentity(ctx, id)
}

// IdentityByEmail returns ErrIdentityNotFound when the email is unknown.
func (s *Service) IdentityByEmail(ctx context.Context, email string) (*userDatamodel.Identity, error) {
	return s.repo.GetIdentityByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) activeIdentity(ctx context.Context, claims *Claims) (Identity, error) {
	stored, err := s.repo.GetSession(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return Identity{}, ErrSessionRevoked
		}
		return Identity{}, err
	}
	if stored.IdentityID != claims.UserID || !stored.Active(s.now()) {
		return Identity{}, ErrSessionRevoked
	}

	return Identity{
		UserID:    claims.UserID,
		Email:     claims.Email,
		SessionID: stored.ID,
		ExpiresAt: stored.ExpiresAt,
	}, nil
}

func (s *Service) issue(id Identity) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(id)
	if err != nil {
		return AuthTokens{}, err
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(id)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
