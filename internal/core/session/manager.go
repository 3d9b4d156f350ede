package session

import (
	"context"
	"time"

	"einvoice-console/internal/core/domain"
	"einvoice-console/internal/pkg/events"
	"einvoice-console/internal/pkg/jwt"

	"go.uber.org/zap"
)

// Registry records which browser sessions are logged in as whom
type Registry interface {
	Register(ctx context.Context, sid, identity string, role domain.Role, expiresAt time.Time) error
	Revoke(ctx context.Context, sid string) error
	RevokeIdentity(ctx context.Context, identity string) ([]string, error)
	Active(ctx context.Context, sid string) (bool, error)
}

// TokenVault is the server-side token store, partitioned by browser session
type TokenVault interface {
	For(sid string) Store
	Purge(ctx context.Context, sids ...string) error
}

// Manager opens the Model of each browser session and applies backend
// force-logout signals across all of them.
type Manager struct {
	registry Registry
	vault    TokenVault
	opts     []Option
	maxAge   time.Duration
	lg       *zap.SugaredLogger
}

// NewManager creates a manager; opts are applied to every opened Model
func NewManager(registry Registry, vault TokenVault, maxAge time.Duration, lg *zap.SugaredLogger, opts ...Option) *Manager {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	return &Manager{
		registry: registry,
		vault:    vault,
		opts:     append([]Option{WithLogger(lg)}, opts...),
		maxAge:   maxAge,
		lg:       lg,
	}
}

// Open builds the Model for browser session sid and reconciles it against
// storage. cookies is the browser's cookie store for this request. A session
// whose registry row is revoked, expired or missing is forced out even if its
// tokens survived.
func (mgr *Manager) Open(ctx context.Context, cookies Store, sid string) *Model {
	m := New(cookies, mgr.vault.For(sid), mgr.opts...)
	m.Subscribe(func(ev Event) { mgr.track(ctx, sid, ev) })
	if m.Reconcile(ctx) == LoggedIn {
		mgr.checkRegistry(ctx, sid, m)
	}
	return m
}

func (mgr *Manager) checkRegistry(ctx context.Context, sid string, m *Model) {
	active, err := mgr.registry.Active(ctx, sid)
	if err != nil {
		// storage hiccup: keep the session, the next request checks again
		mgr.lg.Warnw("checking session registry failed", "sid", sid, "error", err)
		return
	}
	if !active {
		m.ForceLogout(ctx, ReasonForced)
	}
}

func (mgr *Manager) track(ctx context.Context, sid string, ev Event) {
	switch ev.Kind {
	case EventLoggedIn:
		exp, ok := jwt.ExpiryOf(ev.Session.AccessToken)
		if !ok {
			exp = time.Now().Add(mgr.maxAge)
		}
		if err := mgr.registry.Register(ctx, sid, ev.Session.Identity, ev.Session.Role, exp); err != nil {
			mgr.lg.Warnw("registering session failed", "sid", sid, "error", err)
		}
	case EventLoggedOut:
		if err := mgr.registry.Revoke(ctx, sid); err != nil {
			mgr.lg.Warnw("revoking session failed", "sid", sid, "error", err)
		}
	}
}

// HandleSignal ends the targeted sessions. Their tokens are purged, so the
// next Reconcile of each affected browser lands in LoggedOut.
func (mgr *Manager) HandleSignal(ctx context.Context, sig events.ForceLogout) error {
	var sids []string
	switch {
	case sig.SID != "":
		if err := mgr.registry.Revoke(ctx, sig.SID); err != nil {
			return err
		}
		sids = []string{sig.SID}
	case sig.Identity != "":
		revoked, err := mgr.registry.RevokeIdentity(ctx, sig.Identity)
		if err != nil {
			return err
		}
		sids = revoked
	default:
		return domain.ErrInvalidInput
	}

	if len(sids) == 0 {
		return nil
	}
	if err := mgr.vault.Purge(ctx, sids...); err != nil {
		return err
	}
	mgr.lg.Infow("force logout applied", "identity", sig.Identity, "sessions", len(sids), "reason", sig.Reason)
	return nil
}

// Listen applies every signal published on bus until the returned cancel
// func is called.
func (mgr *Manager) Listen(bus *events.Bus) func() {
	return bus.Subscribe(func(sig events.ForceLogout) {
		if err := mgr.HandleSignal(context.Background(), sig); err != nil {
			mgr.lg.Errorw("force logout failed", "identity", sig.Identity, "sid", sig.SID, "error", err)
		}
	})
}
