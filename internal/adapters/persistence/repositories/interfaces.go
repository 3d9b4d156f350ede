package repositories

import (
	"context"
	"time"

	"einvoice-console/internal/adapters/persistence/models"
	"einvoice-console/internal/core/domain"
)

// SessionRepository defines the console session registry
type SessionRepository interface {
	Register(ctx context.Context, sid, identity string, role domain.Role, expiresAt time.Time) error
	GetBySID(ctx context.Context, sid string) (*models.ConsoleSession, error)
	Active(ctx context.Context, sid string) (bool, error)
	Revoke(ctx context.Context, sid string) error
	RevokeIdentity(ctx context.Context, identity string) ([]string, error)
	Sweep(ctx context.Context) (int64, error)
}

// TokenRepository defines raw access to session_tokens rows
type TokenRepository interface {
	Get(ctx context.Context, sid, name string) (*models.SessionToken, error)
	Upsert(ctx context.Context, token *models.SessionToken) error
	Delete(ctx context.Context, sid, name string) error
	DeleteBySIDs(ctx context.Context, sids []string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
