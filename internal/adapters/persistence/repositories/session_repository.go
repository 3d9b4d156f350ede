package repositories

import (
	"context"
	"errors"
	"time"

	"einvoice-console/internal/adapters/persistence/models"
	"einvoice-console/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sessionRepository implements SessionRepository interface
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session registry repository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Register records a logged-in browser session. A browser keeps its sid
// across logout, so the row of an earlier login is taken over and revived.
func (r *sessionRepository) Register(ctx context.Context, sid, identity string, role domain.Role, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sid"}},
			DoUpdates: clause.AssignmentColumns([]string{"identity", "role", "expires_at", "revoked_at"}),
		}).
		Create(&models.ConsoleSession{
			SID:       sid,
			Identity:  identity,
			Role:      string(role),
			ExpiresAt: expiresAt,
		}).Error
}

// GetBySID gets a session row, revoked or not
func (r *sessionRepository) GetBySID(ctx context.Context, sid string) (*models.ConsoleSession, error) {
	var s models.ConsoleSession
	err := r.db.WithContext(ctx).
		Where("sid = ?", sid).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Active reports whether sid has a live registry row
func (r *sessionRepository) Active(ctx context.Context, sid string) (bool, error) {
	s, err := r.GetBySID(ctx, sid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.IsActive(), nil
}

// Revoke revokes a session by sid
func (r *sessionRepository) Revoke(ctx context.Context, sid string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.ConsoleSession{}).
		Where("sid = ?", sid).
		Where("revoked_at IS NULL").
		Update("revoked_at", &now).Error
}

// RevokeIdentity revokes every active session of identity and returns their sids
func (r *sessionRepository) RevokeIdentity(ctx context.Context, identity string) ([]string, error) {
	var sids []string
	err := r.db.WithContext(ctx).
		Model(&models.ConsoleSession{}).
		Where("identity = ?", identity).
		Where("revoked_at IS NULL").
		Pluck("sid", &sids).Error
	if err != nil {
		return nil, err
	}
	if len(sids) == 0 {
		return nil, nil
	}

	now := time.Now()
	err = r.db.WithContext(ctx).
		Model(&models.ConsoleSession{}).
		Where("sid IN ?", sids).
		Update("revoked_at", &now).Error
	if err != nil {
		return nil, err
	}
	return sids, nil
}

// Sweep deletes expired and revoked sessions (cleanup job)
func (r *sessionRepository) Sweep(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at IS NOT NULL", time.Now()).
		Delete(&models.ConsoleSession{})
	return res.RowsAffected, res.Error
}
