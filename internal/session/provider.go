package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/zhar/internal/auth"
	"github.com/frahmantamala/zhar/internal/core/events"
	"github.com/frahmantamala/zhar/internal/core/user"
)

type Config struct {
	// RestoreWait bounds how long Resolve waits for the first profile load of a restored session.
	RestoreWait time.Duration
	// NoProfileTimeout bounds how long a session may stay without a profile before it is signed out.
	NoProfileTimeout time.Duration
}

type entry struct {
	identity   auth.Identity
	state      State
	generation uint64
	// unresolvedSince is set while the entry has no profile.
	unresolvedSince time.Time
	restored        chan struct{}
	restoredOnce    sync.Once
}

func (e *entry) markRestored() {
	e.restoredOnce.Do(func() { close(e.restored) })
}

// Provider is the single owner of session state for the process. Construct it once, call
// Init at startup and Dispose at shutdown.
type Provider struct {
	auth     Authenticator
	profiles ProfileLoader
	bus      Subscriber
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time

	mu           sync.Mutex
	entries      map[string]*entry
	unsubscribes []func()
	disposed     bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var errDisposed = errors.New("session provider disposed")

func NewProvider(authn Authenticator, profiles ProfileLoader, bus Subscriber, cfg Config, logger *slog.Logger) *Provider {
	if cfg.NoProfileTimeout <= 0 {
		cfg.NoProfileTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Provider{
		auth:     authn,
		profiles: profiles,
		bus:      bus,
		cfg:      cfg,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		entries:  make(map[string]*entry),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Init subscribes to profile changes and restores every live stored session.
func (p *Provider) Init(ctx context.Context) error {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return errDisposed
	}
	if p.bus != nil {
		p.unsubscribes = append(p.unsubscribes,
			p.bus.Subscribe(events.EventTypeProfileCreated, p.onProfileChanged),
			p.bus.Subscribe(events.EventTypeProfileUpdated, p.onProfileChanged),
		)
	}
	p.mu.Unlock()

	identities, err := p.auth.ActiveSessions(ctx)
	if err != nil {
		return fmt.Errorf("restore sessions: %w", err)
	}
	for _, id := range identities {
		p.restore(id)
	}

	p.logger.Info("session provider initialised", "restored_sessions", len(identities))
	return nil
}

// Dispose drops all state. Loads still in flight are cancelled and their results ignored.
func (p *Provider) Dispose() {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.disposed = true
	unsubscribes := p.unsubscribes
	p.unsubscribes = nil
	p.entries = make(map[string]*entry)
	p.mu.Unlock()

	for _, unsubscribe := range unsubscribes {
		unsubscribe()
	}
	p.cancel()
	p.wg.Wait()
	p.logger.Info("session provider disposed")
}

// SignIn authenticates and loads the profile before returning. It never redirects.
func (p *Provider) SignIn(ctx context.Context, email, password string) SignInResult {
	sess, err := p.auth.SignIn(ctx, auth.LoginDTO{Email: email, Password: password})
	if err != nil {
		reason := failureReason(err)
		p.logger.Warn("sign-in failed", "reason", reason, "error", err)
		return SignInResult{Reason: reason, Err: err}
	}

	return SignInResult{
		OK:     true,
		Tokens: sess.Tokens,
		State:  p.establish(ctx, sess.Identity),
	}
}

// Refresh rotates the token pair and reloads the profile of the session.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (auth.AuthTokens, State, error) {
	sess, err := p.auth.Refresh(ctx, refreshToken)
	if err != nil {
		return auth.AuthTokens{}, Unauthenticated(), err
	}
	return sess.Tokens, p.establish(ctx, sess.Identity), nil
}

// SignOut revokes the stored session and forgets it locally even when revocation fails.
func (p *Provider) SignOut(ctx context.Context, sessionID string) error {
	err := p.auth.SignOut(ctx, sessionID)
	p.forget(sessionID)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// Resolve maps an access token to the current state of its session. A valid token for a
// session this process has not seen yet is restored; Resolve then waits up to RestoreWait
// for its profile and answers Loading if it has not arrived. The returned error is the
// token verification failure, if any.
func (p *Provider) Resolve(ctx context.Context, accessToken string) (State, error) {
	if accessToken == "" {
		return Unauthenticated(), nil
	}

	id, err := p.auth.Verify(ctx, accessToken)
	if err != nil {
		return Unauthenticated(), err
	}

	e := p.restore(id)
	if e == nil {
		return Unauthenticated(), nil
	}
	p.waitRestored(ctx, e)

	return p.check(ctx, id.SessionID), nil
}

// Current returns the state held for a session without touching the backend.
func (p *Provider) Current(sessionID string) State {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.entries[sessionID]; ok {
		return e.state
	}
	return Unauthenticated()
}

// Reload refetches the profile of every session signed in as userID. States keep serving
// their last value until the new profile arrives.
func (p *Provider) Reload(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disposed {
		return 0
	}
	n := 0
	for _, e := range p.entries {
		if e.identity.UserID == userID {
			p.startLoadLocked(e)
			n++
		}
	}
	return n
}

// Sweep forgets expired sessions and signs out sessions that stayed without a profile
// longer than NoProfileTimeout. It returns the number of forced sign-outs.
func (p *Provider) Sweep(ctx context.Context) int {
	now := p.now()

	var overdue []string
	p.mu.Lock()
	for id, e := range p.entries {
		switch {
		case !e.identity.ExpiresAt.IsZero() && !now.Before(e.identity.ExpiresAt):
			delete(p.entries, id)
		case p.overdueLocked(e, now):
			overdue = append(overdue, id)
		}
	}
	p.mu.Unlock()

	for _, id := range overdue {
		p.forceSignOut(ctx, id)
	}
	return len(overdue)
}

func (p *Provider) restore(id auth.Identity) *entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disposed {
		return nil
	}
	if e, ok := p.entries[id.SessionID]; ok {
		return e
	}

	e := &entry{
		identity:        id,
		state:           State{Status: StatusLoading, Identity: identityRef(id)},
		unresolvedSince: p.now(),
		restored:        make(chan struct{}),
	}
	p.entries[id.SessionID] = e
	p.startLoadLocked(e)
	return e
}

// establish records an identity change and loads its profile synchronously.
func (p *Provider) establish(ctx context.Context, id auth.Identity) State {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return Unauthenticated()
	}
	e, ok := p.entries[id.SessionID]
	if !ok {
		e = &entry{
			state:           State{Status: StatusNoProfile, Identity: identityRef(id)},
			unresolvedSince: p.now(),
			restored:        make(chan struct{}),
		}
		p.entries[id.SessionID] = e
	}
	e.identity = id
	e.generation++
	gen := e.generation
	p.mu.Unlock()

	principal, err := p.profiles.LoadPrincipal(ctx, id.UserID)
	if state, applied := p.apply(id.SessionID, gen, principal, err); applied {
		return state
	}
	return p.Current(id.SessionID)
}

func (p *Provider) startLoadLocked(e *entry) {
	e.generation++
	gen := e.generation
	sessionID := e.identity.SessionID
	userID := e.identity.UserID

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		principal, err := p.profiles.LoadPrincipal(p.ctx, userID)
		p.apply(sessionID, gen, principal, err)
	}()
}

// apply stores the result of load generation gen. Results of superseded loads, of
// forgotten sessions and of a disposed provider are dropped.
func (p *Provider) apply(sessionID string, gen uint64, principal *user.User, err error) (State, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[sessionID]
	if p.disposed || !ok || e.generation != gen {
		p.logger.Debug("dropping stale profile load", "session_id", sessionID, "generation", gen)
		return State{}, false
	}
	if err == nil && principal == nil {
		err = ErrNoProfile
	}

	switch {
	case err == nil:
		u := *principal
		u.SessionID = sessionID
		e.state = State{Status: StatusReady, Identity: identityRef(e.identity), Profile: &u}
		e.unresolvedSince = time.Time{}
	case errors.Is(err, ErrNoProfile), e.state.Status != StatusReady:
		if !errors.Is(err, ErrNoProfile) {
			p.logger.Warn("profile load failed", "session_id", sessionID, "user_id", e.identity.UserID, "error", err)
		}
		if e.unresolvedSince.IsZero() {
			e.unresolvedSince = p.now()
		}
		e.state = State{Status: StatusNoProfile, Identity: identityRef(e.identity)}
	default:
		// refetch failed; the last loaded profile stays in place
		p.logger.Warn("profile refetch failed", "session_id", sessionID, "user_id", e.identity.UserID, "error", err)
	}

	e.markRestored()
	return e.state, true
}

func (p *Provider) waitRestored(ctx context.Context, e *entry) {
	if p.cfg.RestoreWait <= 0 {
		return
	}
	timer := time.NewTimer(p.cfg.RestoreWait)
	defer timer.Stop()

	select {
	case <-e.restored:
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (p *Provider) check(ctx context.Context, sessionID string) State {
	p.mu.Lock()
	e, ok := p.entries[sessionID]
	if !ok {
		p.mu.Unlock()
		return Unauthenticated()
	}
	if p.overdueLocked(e, p.now()) {
		p.mu.Unlock()
		p.forceSignOut(ctx, sessionID)
		return Unauthenticated()
	}
	state := e.state
	p.mu.Unlock()
	return state
}

func (p *Provider) overdueLocked(e *entry, now time.Time) bool {
	if e.state.Status == StatusReady || e.unresolvedSince.IsZero() {
		return false
	}
	return now.Sub(e.unresolvedSince) >= p.cfg.NoProfileTimeout
}

func (p *Provider) forceSignOut(ctx context.Context, sessionID string) {
	p.logger.Warn("signing out session without profile", "session_id", sessionID, "timeout", p.cfg.NoProfileTimeout)
	if err := p.auth.SignOut(ctx, sessionID); err != nil {
		p.logger.Error("forced sign-out failed", "session_id", sessionID, "error", err)
	}
	p.forget(sessionID)
}

func (p *Provider) forget(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.entries[sessionID]; ok {
		e.markRestored()
		delete(p.entries, sessionID)
	}
}

func (p *Provider) onProfileChanged(_ context.Context, event events.Event) error {
	profileID := profileIDOf(event)
	if profileID == "" {
		return nil
	}
	n := p.Reload(profileID)
	p.logger.Debug("profile changed", "profile_id", profileID, "event_type", event.EventType(), "sessions", n)
	return nil
}

func profileIDOf(event events.Event) string {
	if ev, ok := event.(*events.ProfileChangedEvent); ok {
		return ev.ProfileID
	}
	if data, ok := event.Payload().(map[string]interface{}); ok {
		if id, ok := data["profile_id"].(string); ok {
			return id
		}
	}
	return ""
}

func identityRef(id auth.Identity) *auth.Identity {
	return &id
}
