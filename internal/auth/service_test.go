package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	userDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/user"
	"github.com/frahmantamala/zhar/pkg/logger"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

// Mock repository for testing
type mockRepository struct {
	identities map[string]*userDatamodel.Identity // email -> identity
	sessions   map[string]*userDatamodel.AuthSession

	returnError   bool
	errorToReturn error
}

func newMockRepository() *mockRepository {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)

	return &mockRepository{
		identities: map[string]*userDatamodel.Identity{
			"employee@example.com": {ID: "u-1", Email: "employee@example.com", PasswordHash: string(hashedPassword)},
			"admin@example.com":    {ID: "u-2", Email: "admin@example.com", PasswordHash: string(hashedPassword)},
		},
		sessions: map[string]*userDatamodel.AuthSession{},
	}
}

func (m *mockRepository) GetIdentityByEmail(_ context.Context, email string) (*userDatamodel.Identity, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	if identity, ok := m.identities[email]; ok {
		return identity, nil
	}
	return nil, ErrIdentityNotFound
}

func (m *mockRepository) GetIdentityByID(_ context.Context, id string) (*userDatamodel.Identity, error) {
	for _, identity := range m.identities {
		if identity.ID == id {
			return identity, nil
		}
	}
	return nil, ErrIdentityNotFound
}

func (m *mockRepository) CreateIdentity(_ context.Context, identity *userDatamodel.Identity) error {
	if _, ok := m.identities[identity.Email]; ok {
		return ErrEmailTaken
	}
	m.identities[identity.Email] = identity
	return nil
}

func (m *mockRepository) DeleteIdentity(_ context.Context, id string) error {
	for email, identity := range m.identities {
		if identity.ID == id {
			delete(m.identities, email)
		}
	}
	return nil
}

func (m *mockRepository) CreateSession(_ context.Context, session *userDatamodel.AuthSession) error {
	m.sessions[session.ID] = session
	return nil
}

func (m *mockRepository) GetSession(_ context.Context, id string) (*userDatamodel.AuthSession, error) {
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrSessionNotFound
}

func (m *mockRepository) RevokeSession(_ context.Context, id string, at time.Time) error {
	s, ok := m.sessions[id]
	if !ok || s.RevokedAt != nil {
		return ErrSessionNotFound
	}
	s.RevokedAt = &at
	return nil
}

func (m *mockRepository) ListActiveSessions(_ context.Context, now time.Time) ([]Identity, error) {
	var out []Identity
	for _, s := range m.sessions {
		if s.Active(now) {
			out = append(out, Identity{UserID: s.IdentityID, SessionID: s.ID, ExpiresAt: s.ExpiresAt})
		}
	}
	return out, nil
}

func (m *mockRepository) DeleteExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for id, s := range m.sessions {
		if s.ExpiresAt.Before(before) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		ctx           context.Context
		service       *Service
		mockRepo      *mockRepository
		tokenGen      *JWTTokenGenerator
		accessSecret  string        = "test-access-secret-test-access-secret"
		refreshSecret string        = "test-refresh-secret-test-refresh-secret"
		accessTTL     time.Duration = 15 * time.Minute
		refreshTTL    time.Duration = 24 * time.Hour
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		mockRepo = newMockRepository()
		tokenGen = NewJWTTokenGenerator(accessSecret, refreshSecret, accessTTL, refreshTTL)
		service = NewService(mockRepo, tokenGen, bcrypt.MinCost, logger.Discard())
	})

	ginkgo.Describe("SignIn", func() {
		ginkgo.Context("when credentials are valid", func() {
			ginkgo.It("should store a session and return distinct tokens", func() {
				// Given
				dto := LoginDTO{Email: "Employee@Example.com ", Password: "correct_password"}

				// When
				session, err := service.SignIn(ctx, dto)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(session.Tokens.AccessToken).ToNot(gomega.BeEmpty())
				gomega.Expect(session.Tokens.AccessToken).ToNot(gomega.Equal(session.Tokens.RefreshToken))
				gomega.Expect(session.Identity.UserID).To(gomega.Equal("u-1"))
				gomega.Expect(mockRepo.sessions).To(gomega.HaveKey(session.Identity.SessionID))
			})

			ginkgo.It("should issue tokens that verify against the stored session", func() {
				session, err := service.SignIn(ctx, LoginDTO{Email: "admin@example.com", Password: "correct_password"})
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				identity, err := service.Verify(ctx, session.Tokens.AccessToken)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(identity.UserID).To(gomega.Equal("u-2"))
				gomega.Expect(identity.Email).To(gomega.Equal("admin@example.com"))
				gomega.Expect(identity.SessionID).To(gomega.Equal(session.Identity.SessionID))
			})
		})

		ginkgo.Context("when credentials are invalid", func() {
			ginkgo.It("should return invalid credentials for an unknown email", func() {
				_, err := service.SignIn(ctx, LoginDTO{Email: "nobody@example.com", Password: "x"})
				gomega.Expect(errors.Is(err, ErrInvalidCredentials)).To(gomega.BeTrue())
			})

			ginkgo.It("should return invalid credentials for a wrong password", func() {
				_, err := service.SignIn(ctx, LoginDTO{Email: "employee@example.com", Password: "wrong"})
				gomega.Expect(errors.Is(err, ErrInvalidCredentials)).To(gomega.BeTrue())
				gomega.Expect(mockRepo.sessions).To(gomega.BeEmpty())
			})

			ginkgo.It("should reject malformed input before touching storage", func() {
				mockRepo.returnError = true
				mockRepo.errorToReturn = errors.New("must not be called")

				_, err := service.SignIn(ctx, LoginDTO{Email: "", Password: ""})
				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(err.Error()).ToNot(gomega.ContainSubstring("must not be called"))
			})
		})

		ginkgo.It("should surface storage failures as-is", func() {
			mockRepo.returnError = true
			mockRepo.errorToReturn = errors.New("connection refused")

			_, err := service.SignIn(ctx, LoginDTO{Email: "employee@example.com", Password: "correct_password"})
			gomega.Expect(err).To(gomega.MatchError("connection refused"))
		})
	})

	ginkgo.Describe("Refresh", func() {
		ginkgo.It("should keep the session id", func() {
			session, err := service.SignIn(ctx, LoginDTO{Email: "employee@example.com", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			refreshed, err := service.Refresh(ctx, session.Tokens.RefreshToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(refreshed.Identity.SessionID).To(gomega.Equal(session.Identity.SessionID))
		})

		ginkgo.It("should refuse an access token used as refresh token", func() {
			session, _ := service.SignIn(ctx, LoginDTO{Email: "employee@example.com", Password: "correct_password"})

			_, err := service.Refresh(ctx, session.Tokens.AccessToken)
			gomega.Expect(errors.Is(err, ErrInvalidToken)).To(gomega.BeTrue())
		})

		ginkgo.It("should refuse a revoked session", func() {
			session, _ := service.SignIn(ctx, LoginDTO{Email: "employee@example.com", Password: "correct_password"})
			gomega.Expect(service.SignOut(ctx, session.Identity.SessionID)).To(gomega.Succeed())

			_, err := service.Refresh(ctx, session.Tokens.RefreshToken)
			gomega.Expect(errors.Is(err, ErrSessionRevoked)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Verify", func() {
		ginkgo.It("should reject tokens after sign out", func() {
			session, _ := service.SignIn(ctx, LoginDTO{Email: "employee@example.com", Password: "correct_password"})
			gomega.Expect(service.SignOut(ctx, session.Identity.SessionID)).To(gomega.Succeed())

			_, err := service.Verify(ctx, session.Tokens.AccessToken)
			gomega.Expect(errors.Is(err, ErrSessionRevoked)).To(gomega.BeTrue())
		})

		ginkgo.It("should report expired tokens distinctly", func() {
			expired := NewJWTTokenGenerator(accessSecret, refreshSecret, time.Nanosecond, refreshTTL)
			token, err := expired.GenerateAccessToken(Identity{UserID: "u-1", SessionID: "s-1"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			time.Sleep(5 * time.Millisecond)

			_, err = service.Verify(ctx, token)
			gomega.Expect(errors.Is(err, ErrTokenExpired)).To(gomega.BeTrue())
		})

		ginkgo.It("should reject garbage", func() {
			_, err := service.Verify(ctx, "not-a-token")
			gomega.Expect(errors.Is(err, ErrInvalidToken)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("SignOut", func() {
		ginkgo.It("should be idempotent", func() {
			session, _ := service.SignIn(ctx, LoginDTO{Email: "employee@example.com", Password: "correct_password"})
			gomega.Expect(service.SignOut(ctx, session.Identity.SessionID)).To(gomega.Succeed())
			gomega.Expect(service.SignOut(ctx, session.Identity.SessionID)).To(gomega.Succeed())
		})
	})

	ginkgo.Describe("CreateIdentity", func() {
		ginkgo.It("should hash the password and normalise the email", func() {
			identity, err := service.CreateIdentity(ctx, " New@Example.com", "s3cret-pass")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(identity.Email).To(gomega.Equal("new@example.com"))
			gomega.Expect(bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte("s3cret-pass"))).To(gomega.Succeed())
		})

		ginkgo.It("should free the email once the identity is deleted", func() {
			identity, err := service.CreateIdentity(ctx, "temp@example.com", "s3cret-pass")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(service.DeleteIdentity(ctx, identity.ID)).To(gomega.Succeed())

			_, err = service.IdentityByEmail(ctx, "temp@example.com")
			gomega.Expect(errors.Is(err, ErrIdentityNotFound)).To(gomega.BeTrue())
		})

		ginkgo.It("should report a taken email as a conflict", func() {
			_, err := service.CreateIdentity(ctx, "admin@example.com", "whatever")
			gomega.Expect(errors.Is(err, ErrEmailTaken)).To(gomega.BeTrue())
		})
	})
})
