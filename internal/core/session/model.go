package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Invalidator revokes a refresh token on the backend
type Invalidator interface {
	Invalidate(ctx context.Context, refreshToken string) error
}

// Option configures a Model
type Option func(*Model)

// WithInvalidator sets the remote logout call
func WithInvalidator(inv Invalidator) Option {
	return func(m *Model) { m.invalidator = inv }
}

// WithLogger sets the logger
func WithLogger(lg *zap.SugaredLogger) Option {
	return func(m *Model) { m.lg = lg }
}

// WithLogoutTimeout bounds the remote logout call
func WithLogoutTimeout(d time.Duration) Option {
	return func(m *Model) { m.logoutTimeout = d }
}

// Model is the single owner of one logical session
type Model struct {
	cookies       Store
	tokens        Store
	invalidator   Invalidator
	lg            *zap.SugaredLogger
	logoutTimeout time.Duration

	// writeMu serializes transitions; mu guards current only, so readers
	// never wait on storage I/O and never see a half-written session.
	writeMu sync.Mutex
	mu      sync.RWMutex
	current *Session

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int

	remote sync.WaitGroup
}

// New creates a LoggedOut model over the two stores.
// Call Reconcile to pick up a session already present in storage.
func New(cookies, tokens Store, opts ...Option) *Model {
	m := &Model{
		cookies:       cookies,
		tokens:        tokens,
		lg:            zap.NewNop().Sugar(),
		logoutTimeout: 5 * time.Second,
		subs:          make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot returns a copy of the current session, or nil when logged out
func (m *Model) Snapshot() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.clone()
}

// State returns the current login state
func (m *Model) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return LoggedOut
	}
	return LoggedIn
}

// Subscribe registers fn for every transition and returns its cancel func
func (m *Model) Subscribe(fn func(Event)) func() {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// Login stores s in both locations and transitions to LoggedIn.
// If any write fails the partial writes are rolled back and the model is
// left LoggedOut.
func (m *Model) Login(ctx context.Context, s Session) error {
	if err := s.validate(); err != nil {
		return err
	}
	raw, err := encode(&s)
	if err != nil {
		return err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := m.writeAll(ctx, raw, &s); err != nil {
		_ = m.clearStores(ctx)
		m.lg.Warnw("session login write failed, rolled back", "identity", s.Identity, "error", err)
		if ev, ok := m.setOut(ReasonLoginFailed); ok {
			m.publish(ev)
		}
		return err
	}

	m.mu.Lock()
	m.current = s.clone()
	m.mu.Unlock()

	m.lg.Infow("session logged in", "identity", s.Identity, "role", s.Role)
	m.publish(Event{Kind: EventLoggedIn, Session: s.clone()})
	return nil
}

func (m *Model) writeAll(ctx context.Context, raw string, s *Session) error {
	if err := m.cookies.Set(ctx, SessionKey, raw); err != nil {
		return err
	}
	if err := m.tokens.Set(ctx, AccessTokenKey, s.AccessToken); err != nil {
		return err
	}
	if s.RefreshToken == "" {
		return m.tokens.Delete(ctx, RefreshTokenKey)
	}
	return m.tokens.Set(ctx, RefreshTokenKey, s.RefreshToken)
}

// Logout transitions to LoggedOut and asks the backend to revoke the refresh
// token. The local transition never waits for the remote call; its failure is
// only logged.
func (m *Model) Logout(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	refresh := ""
	if cur := m.Snapshot(); cur != nil {
		refresh = cur.RefreshToken
	} else if v, ok, err := m.tokens.Get(ctx, RefreshTokenKey); err == nil && ok {
		refresh = v
	}

	err := m.clearStores(ctx)
	if ev, ok := m.setOut(ReasonLogout); ok {
		m.publish(ev)
	}

	if refresh != "" && m.invalidator != nil {
		m.invalidateRemote(ctx, refresh)
	}
	return err
}

func (m *Model) invalidateRemote(ctx context.Context, refresh string) {
	m.remote.Add(1)
	go func() {
		defer m.remote.Done()
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.logoutTimeout)
		defer cancel()
		if err := m.invalidator.Invalidate(rctx, refresh); err != nil {
			m.lg.Warnw("remote logout failed", "error", err)
		}
	}()
}

// Wait blocks until in-flight remote logout calls have finished
func (m *Model) Wait() {
	m.remote.Wait()
}

// ForceLogout handles an external "token invalidated" signal.
// It is a no-op when already LoggedOut.
func (m *Model) ForceLogout(ctx context.Context, reason string) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if m.State() == LoggedOut {
		return
	}
	if err := m.clearStores(ctx); err != nil {
		m.lg.Warnw("clearing storage on forced logout failed", "error", err)
	}
	if reason == "" {
		reason = ReasonForced
	}
	if ev, ok := m.setOut(reason); ok {
		m.lg.Infow("session force logged out", "identity", ev.Session.Identity, "reason", reason)
		m.publish(ev)
	}
}

// Reconcile checks both stores against the in-memory state. It runs on
// mount and whenever the console becomes visible again:
//   - both stores consistent: the stored session becomes current
//   - either store missing its data, or the two disagree: LoggedOut
//   - undecodable session object: stores cleared, LoggedOut
func (m *Model) Reconcile(ctx context.Context) State {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	raw, hasCookie, err := m.cookies.Get(ctx, SessionKey)
	if err != nil {
		return m.healOut(ctx, ReasonInconsistent, err)
	}
	access, hasAccess, err := m.tokens.Get(ctx, AccessTokenKey)
	if err != nil {
		return m.healOut(ctx, ReasonInconsistent, err)
	}
	refresh, _, err := m.tokens.Get(ctx, RefreshTokenKey)
	if err != nil {
		return m.healOut(ctx, ReasonInconsistent, err)
	}

	if !hasCookie && !hasAccess {
		var cause error
		if refresh != "" {
			cause = errors.New("orphan refresh token")
		}
		return m.healOut(ctx, ReasonInconsistent, cause)
	}
	if hasCookie != hasAccess {
		return m.healOut(ctx, ReasonInconsistent, errors.New("storage locations disagree on presence"))
	}

	stored, err := decode(raw)
	if err != nil {
		return m.healOut(ctx, ReasonCorrupt, err)
	}
	if stored.AccessToken != access || stored.RefreshToken != refresh {
		return m.healOut(ctx, ReasonInconsistent, errors.New("storage locations hold different tokens"))
	}

	m.mu.Lock()
	changed := m.current == nil || *m.current != *stored
	m.current = stored
	m.mu.Unlock()

	if changed {
		m.publish(Event{Kind: EventRestored, Session: stored.clone()})
	}
	return LoggedIn
}

// healOut brings the model and storage back to a clean LoggedOut state.
// cause == nil means storage was already empty.
func (m *Model) healOut(ctx context.Context, reason string, cause error) State {
	if cause != nil {
		m.lg.Warnw("session storage inconsistent, logging out", "reason", reason, "error", cause)
		if err := m.clearStores(ctx); err != nil {
			m.lg.Warnw("clearing inconsistent storage failed", "error", err)
		}
	}
	if ev, ok := m.setOut(reason); ok {
		m.publish(ev)
	}
	return LoggedOut
}

// setOut clears the in-memory session. ok is false if it was already clear.
func (m *Model) setOut(reason string) (Event, bool) {
	m.mu.Lock()
	prev := m.current
	m.current = nil
	m.mu.Unlock()

	if prev == nil {
		return Event{}, false
	}
	return Event{Kind: EventLoggedOut, Session: prev, Reason: reason}, true
}

func (m *Model) clearStores(ctx context.Context) error {
	return errors.Join(
		m.cookies.Delete(ctx, SessionKey),
		m.tokens.Delete(ctx, AccessTokenKey),
		m.tokens.Delete(ctx, RefreshTokenKey),
	)
}

func (m *Model) publish(ev Event) {
	m.subMu.Lock()
	fns := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
