package models

import (
	"time"

	"gorm.io/gorm"
)

// ConsoleSession represents console_sessions table: one row per browser
// session that has logged in.
type ConsoleSession struct {
	SID       string     `gorm:"column:sid;primaryKey;size:36" json:"sid"`
	Identity  string     `gorm:"size:100;not null;index" json:"identity"`
	Role      string     `gorm:"size:20;not null" json:"role"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
}

func (ConsoleSession) TableName() string {
	return "console_sessions"
}

func (s *ConsoleSession) IsRevoked() bool {
	return s.RevokedAt != nil
}

func (s *ConsoleSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsActive reports whether force-logout signals can still reach the session
func (s *ConsoleSession) IsActive() bool {
	return !s.IsRevoked() && !s.IsExpired()
}

// SessionToken represents session_tokens table: the token store of a browser
// session, one row per fixed key. Value is sealed.
type SessionToken struct {
	SID       string    `gorm:"column:sid;primaryKey;size:36" json:"sid"`
	Name      string    `gorm:"column:token_key;primaryKey;size:32" json:"name"`
	Value     string    `gorm:"type:text;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SessionToken) TableName() string {
	return "session_tokens"
}

func (t *SessionToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// AutoMigrate runs auto migration for console tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&ConsoleSession{},
		&SessionToken{},
	)
}
