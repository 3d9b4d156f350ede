package repositories

import (
	"context"
	"errors"
	"time"

	"einvoice-console/internal/adapters/persistence/models"
	"einvoice-console/internal/core/session"
	"einvoice-console/internal/pkg/jwt"
	"einvoice-console/internal/pkg/sealer"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TokenVault hands out the server-side token store of each browser session.
// Values are sealed before they reach the database.
type TokenVault struct {
	repo   TokenRepository
	sealer *sealer.Sealer
	maxAge time.Duration
	lg     *zap.SugaredLogger
}

// NewTokenVault creates a vault; maxAge bounds tokens without an exp claim
func NewTokenVault(repo TokenRepository, s *sealer.Sealer, maxAge time.Duration, lg *zap.SugaredLogger) *TokenVault {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	return &TokenVault{repo: repo, sealer: s, maxAge: maxAge, lg: lg}
}

// For returns the token store of one browser session
func (v *TokenVault) For(sid string) session.Store {
	return &sidTokenStore{vault: v, sid: sid}
}

// Purge drops every token of the given sessions
func (v *TokenVault) Purge(ctx context.Context, sids ...string) error {
	return v.repo.DeleteBySIDs(ctx, sids)
}

// Sweep drops expired tokens
func (v *TokenVault) Sweep(ctx context.Context) (int64, error) {
	return v.repo.DeleteExpired(ctx)
}

func (v *TokenVault) expiry(token string) time.Time {
	if exp, ok := jwt.ExpiryOf(token); ok {
		return exp
	}
	return time.Now().Add(v.maxAge)
}

type sidTokenStore struct {
	vault *TokenVault
	sid   string
}

func (s *sidTokenStore) Get(ctx context.Context, key string) (string, bool, error) {
	row, err := s.vault.repo.Get(ctx, s.sid, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if row.IsExpired() {
		return "", false, nil
	}

	plain, err := s.vault.sealer.Open(row.Value)
	if err != nil {
		// an unreadable value is an absent value; the model heals it
		s.vault.lg.Warnw("sealed token unreadable, was SESSION_SEAL_KEY rotated?", "sid", s.sid, "key", key, "error", err)
		return "", false, nil
	}
	return plain, true, nil
}

func (s *sidTokenStore) Set(ctx context.Context, key, value string) error {
	sealed, err := s.vault.sealer.Seal(value)
	if err != nil {
		return err
	}
	return s.vault.repo.Upsert(ctx, &models.SessionToken{
		SID:       s.sid,
		Name:      key,
		Value:     sealed,
		ExpiresAt: s.vault.expiry(value),
	})
}

func (s *sidTokenStore) Delete(ctx context.Context, key string) error {
	return s.vault.repo.Delete(ctx, s.sid, key)
}
