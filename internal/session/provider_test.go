package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/frahmantamala/zhar/internal/auth"
	"github.com/frahmantamala/zhar/internal/core/events"
	"github.com/frahmantamala/zhar/internal/core/user"
	"github.com/frahmantamala/zhar/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSession(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Session Provider Suite")
}

type fakeAuth struct {
	mu        sync.Mutex
	byToken   map[string]auth.Identity
	byEmail   map[string]auth.Identity
	active    []auth.Identity
	revoked   map[string]bool
	signInErr error
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		byToken: map[string]auth.Identity{},
		byEmail: map[string]auth.Identity{},
		revoked: map[string]bool{},
	}
}

func (f *fakeAuth) SignIn(_ context.Context, dto auth.LoginDTO) (auth.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signInErr != nil {
		return auth.Session{}, f.signInErr
	}
	id, ok := f.byEmail[dto.Email]
	if !ok || dto.Password != "pw" {
		return auth.Session{}, auth.ErrInvalidCredentials
	}
	return auth.Session{Identity: id, Tokens: auth.AuthTokens{AccessToken: "access-" + id.SessionID, RefreshToken: "refresh-" + id.SessionID}}, nil
}

func (f *fakeAuth) Refresh(_ context.Context, refreshToken string) (auth.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.byEmail {
		if "refresh-"+id.SessionID == refreshToken && !f.revoked[id.SessionID] {
			return auth.Session{Identity: id, Tokens: auth.AuthTokens{AccessToken: "access2-" + id.SessionID}}, nil
		}
	}
	return auth.Session{}, auth.ErrInvalidToken
}

func (f *fakeAuth) SignOut(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[sessionID] = true
	return nil
}

func (f *fakeAuth) Verify(_ context.Context, accessToken string) (auth.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byToken[accessToken]
	if !ok {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	if f.revoked[id.SessionID] {
		return auth.Identity{}, auth.ErrSessionRevoked
	}
	return id, nil
}

func (f *fakeAuth) ActiveSessions(context.Context) ([]auth.Identity, error) {
	return f.active, nil
}

func (f *fakeAuth) isRevoked(sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[sessionID]
}

type fakeProfiles struct {
	mu    sync.Mutex
	users map[string]*user.User
	err   error
	gate  chan struct{}
	calls int
}

func (f *fakeProfiles) LoadPrincipal(ctx context.Context, userID string) (*user.User, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, ErrNoProfile
	}
	cp := *u
	return &cp, nil
}

func (f *fakeProfiles) set(u *user.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

var _ = Describe("Provider", func() {
	var (
		ctx      context.Context
		authn    *fakeAuth
		profiles *fakeProfiles
		bus      *events.EventBus
		provider *Provider
		clock    time.Time
		ann      auth.Identity
	)

	BeforeEach(func() {
		ctx = context.Background()
		clock = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
		ann = auth.Identity{UserID: "u-ann", Email: "ann@example.com", SessionID: "s-ann", ExpiresAt: clock.Add(24 * time.Hour)}

		authn = newFakeAuth()
		authn.byEmail[ann.Email] = ann
		authn.byToken["tok-ann"] = ann

		profiles = &fakeProfiles{users: map[string]*user.User{
			"u-ann": {ID: "u-ann", Email: "ann@example.com", FullName: "Ann", Role: user.RoleEmployee},
		}}
		bus = events.NewEventBus(logger.Discard())

		provider = NewProvider(authn, profiles, bus, Config{RestoreWait: 200 * time.Millisecond, NoProfileTimeout: 30 * time.Second}, logger.Discard())
		provider.now = func() time.Time { return clock }
		Expect(provider.Init(ctx)).To(Succeed())
	})

	AfterEach(func() {
		provider.Dispose()
	})

	Describe("SignIn", func() {
		It("returns tokens and a loaded profile", func() {
			result := provider.SignIn(ctx, "ann@example.com", "pw")

			Expect(result.OK).To(BeTrue())
			Expect(result.Tokens.AccessToken).To(Equal("access-s-ann"))
			Expect(result.State.Status).To(Equal(StatusReady))

			u, ok := result.State.User()
			Expect(ok).To(BeTrue())
			Expect(u.Role).To(Equal(user.RoleEmployee))
			Expect(u.SessionID).To(Equal("s-ann"))
		})

		It("reports invalid credentials as a reason, not a redirect", func() {
			result := provider.SignIn(ctx, "ann@example.com", "nope")

			Expect(result.OK).To(BeFalse())
			Expect(result.Reason).To(Equal(FailureInvalidCredentials))
			Expect(provider.Current("s-ann").Status).To(Equal(StatusUnauthenticated))
		})

		It("reports backend failures as service errors", func() {
			authn.signInErr = errors.New("network down")

			result := provider.SignIn(ctx, "ann@example.com", "pw")
			Expect(result.Reason).To(Equal(FailureServiceError))
		})

		It("holds AuthenticatedNoProfile when the profile row is missing", func() {
			profiles.users = map[string]*user.User{}

			result := provider.SignIn(ctx, "ann@example.com", "pw")
			Expect(result.OK).To(BeTrue())
			Expect(result.State.Status).To(Equal(StatusNoProfile))
			Expect(result.State.Loading()).To(BeFalse())
		})
	})

	Describe("Resolve", func() {
		It("is unauthenticated without a token", func() {
			state, err := provider.Resolve(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(state.Status).To(Equal(StatusUnauthenticated))
		})

		It("returns the verification error for bad tokens", func() {
			state, err := provider.Resolve(ctx, "garbage")
			Expect(errors.Is(err, auth.ErrInvalidToken)).To(BeTrue())
			Expect(state.Status).To(Equal(StatusUnauthenticated))
		})

		It("restores an unknown session and waits for its profile", func() {
			state, err := provider.Resolve(ctx, "tok-ann")
			Expect(err).NotTo(HaveOccurred())
			Expect(state.Status).To(Equal(StatusReady))
		})

		It("answers Loading while a restored profile is still in flight", func() {
			profiles.gate = make(chan struct{})
			provider.cfg.RestoreWait = 10 * time.Millisecond

			state, err := provider.Resolve(ctx, "tok-ann")
			Expect(err).NotTo(HaveOccurred())
			Expect(state.Loading()).To(BeTrue())

			close(profiles.gate)
			Eventually(func() Status { return provider.Current("s-ann").Status }).Should(Equal(StatusReady))
		})

		It("forces sign-out once the no-profile timeout has elapsed", func() {
			profiles.users = map[string]*user.User{}
			state, _ := provider.Resolve(ctx, "tok-ann")
			Expect(state.Status).To(Equal(StatusNoProfile))

			clock = clock.Add(31 * time.Second)

			state, _ = provider.Resolve(ctx, "tok-ann")
			Expect(state.Status).To(Equal(StatusUnauthenticated))
			Expect(authn.isRevoked("s-ann")).To(BeTrue())
		})
	})

	Describe("Init", func() {
		It("restores persisted sessions", func() {
			other := NewProvider(authn, profiles, nil, Config{NoProfileTimeout: time.Minute}, logger.Discard())
			authn.active = []auth.Identity{ann}
			Expect(other.Init(ctx)).To(Succeed())
			defer other.Dispose()

			Eventually(func() Status { return other.Current("s-ann").Status }).Should(Equal(StatusReady))
		})
	})

	Describe("profile changes", func() {
		It("reloads on profile.updated without going back to Loading", func() {
			Expect(provider.SignIn(ctx, "ann@example.com", "pw").OK).To(BeTrue())

			profiles.gate = make(chan struct{})
			profiles.set(&user.User{ID: "u-ann", Email: "ann@example.com", FullName: "Ann", Role: user.RoleLead})
			Expect(bus.PublishSync(ctx, events.NewProfileChangedEvent(events.EventTypeProfileUpdated, "u-ann"))).To(Succeed())

			Expect(provider.Current("s-ann").Status).To(Equal(StatusReady))
			Expect(provider.Current("s-ann").Profile.Role).To(Equal(user.RoleEmployee))

			close(profiles.gate)
			Eventually(func() user.Role {
				st := provider.Current("s-ann")
				if st.Profile == nil {
					return ""
				}
				return st.Profile.Role
			}).Should(Equal(user.RoleLead))
		})

		It("lets a session waiting for its profile become ready when the profile is created", func() {
			profiles.users = map[string]*user.User{}
			Expect(provider.SignIn(ctx, "ann@example.com", "pw").State.Status).To(Equal(StatusNoProfile))

			profiles.set(&user.User{ID: "u-ann", Email: "ann@example.com", FullName: "Ann", Role: user.RoleAdmin})
			Expect(bus.PublishSync(ctx, events.NewProfileChangedEvent(events.EventTypeProfileCreated, "u-ann"))).To(Succeed())

			Eventually(func() Status { return provider.Current("s-ann").Status }).Should(Equal(StatusReady))
		})

		It("keeps the last profile when a refetch fails", func() {
			Expect(provider.SignIn(ctx, "ann@example.com", "pw").OK).To(BeTrue())
			profiles.mu.Lock()
			profiles.err = errors.New("timeout")
			profiles.mu.Unlock()

			Expect(provider.Reload("u-ann")).To(Equal(1))
			Consistently(func() Status { return provider.Current("s-ann").Status }, 50*time.Millisecond).Should(Equal(StatusReady))
		})
	})

	Describe("stale loads", func() {
		It("drops results from a superseded generation", func() {
			Expect(provider.SignIn(ctx, "ann@example.com", "pw").OK).To(BeTrue())

			provider.mu.Lock()
			e := provider.entries["s-ann"]
			e.generation += 2
			current := e.generation
			provider.mu.Unlock()

			_, applied := provider.apply("s-ann", current-1, &user.User{ID: "u-ann", Role: user.RoleAdmin}, nil)
			Expect(applied).To(BeFalse())
			Expect(provider.Current("s-ann").Profile.Role).To(Equal(user.RoleEmployee))

			_, applied = provider.apply("s-ann", current, &user.User{ID: "u-ann", Role: user.RoleLead}, nil)
			Expect(applied).To(BeTrue())
			Expect(provider.Current("s-ann").Profile.Role).To(Equal(user.RoleLead))
		})

		It("ignores loads that finish after sign-out", func() {
			Expect(provider.SignIn(ctx, "ann@example.com", "pw").OK).To(BeTrue())
			provider.mu.Lock()
			gen := provider.entries["s-ann"].generation
			provider.mu.Unlock()

			Expect(provider.SignOut(ctx, "s-ann")).To(Succeed())

			_, applied := provider.apply("s-ann", gen, &user.User{ID: "u-ann", Role: user.RoleAdmin}, nil)
			Expect(applied).To(BeFalse())
			Expect(provider.Current("s-ann").Status).To(Equal(StatusUnauthenticated))
		})
	})

	Describe("Refresh", func() {
		It("rotates tokens and keeps the session ready", func() {
			Expect(provider.SignIn(ctx, "ann@example.com", "pw").OK).To(BeTrue())

			tokens, state, err := provider.Refresh(ctx, "refresh-s-ann")
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.AccessToken).To(Equal("access2-s-ann"))
			Expect(state.Status).To(Equal(StatusReady))
		})

		It("fails for unknown refresh tokens", func() {
			_, state, err := provider.Refresh(ctx, "nope")
			Expect(err).To(HaveOccurred())
			Expect(state.Status).To(Equal(StatusUnauthenticated))
		})
	})

	Describe("Sweep", func() {
		It("signs out sessions stuck without a profile", func() {
			profiles.users = map[string]*user.User{}
			provider.SignIn(ctx, "ann@example.com", "pw")

			Expect(provider.Sweep(ctx)).To(Equal(0))

			clock = clock.Add(time.Minute)
			Expect(provider.Sweep(ctx)).To(Equal(1))
			Expect(provider.Current("s-ann").Status).To(Equal(StatusUnauthenticated))
			Expect(authn.isRevoked("s-ann")).To(BeTrue())
		})

		It("forgets expired sessions without revoking them", func() {
			provider.SignIn(ctx, "ann@example.com", "pw")
			clock = clock.Add(25 * time.Hour)

			Expect(provider.Sweep(ctx)).To(Equal(0))
			Expect(provider.Current("s-ann").Status).To(Equal(StatusUnauthenticated))
			Expect(authn.isRevoked("s-ann")).To(BeFalse())
		})
	})

	Describe("Dispose", func() {
		It("clears state and stops reacting to events", func() {
			Expect(provider.SignIn(ctx, "ann@example.com", "pw").OK).To(BeTrue())
			provider.Dispose()

			Expect(provider.Current("s-ann").Status).To(Equal(StatusUnauthenticated))
			Expect(bus.PublishSync(ctx, events.NewProfileChangedEvent(events.EventTypeProfileUpdated, "u-ann"))).To(Succeed())
			Expect(provider.Init(ctx)).To(MatchError(errDisposed))
		})
	})
})
