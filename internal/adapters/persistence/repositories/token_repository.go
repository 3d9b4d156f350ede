package repositories

import (
	"context"
	"time"

	"einvoice-console/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tokenRepository implements TokenRepository interface
type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new session token repository
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

// Get gets one token row
func (r *tokenRepository) Get(ctx context.Context, sid, name string) (*models.SessionToken, error) {
	var t models.SessionToken
	err := r.db.WithContext(ctx).
		Where("sid = ?", sid).
		Where("token_key = ?", name).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Upsert creates or replaces a token row
func (r *tokenRepository) Upsert(ctx context.Context, token *models.SessionToken) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(token).Error
}

// Delete deletes one token row
func (r *tokenRepository) Delete(ctx context.Context, sid, name string) error {
	return r.db.WithContext(ctx).
		Where("sid = ?", sid).
		Where("token_key = ?", name).
		Delete(&models.SessionToken{}).Error
}

// DeleteBySIDs deletes every token of the given sessions
func (r *tokenRepository) DeleteBySIDs(ctx context.Context, sids []string) error {
	if len(sids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("sid IN ?", sids).
		Delete(&models.SessionToken{}).Error
}

// DeleteExpired deletes all expired tokens (cleanup job)
func (r *tokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&models.SessionToken{})
	return res.RowsAffected, res.Error
}
