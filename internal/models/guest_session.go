package models

import (
	"time"

	"gorm.io/datatypes"
)

// GuestSession is token-addressable scratch state for visitors without an account.
type GuestSession struct {
	ID           string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionToken string         `gorm:"column:session_token;type:text;uniqueIndex" json:"session_token"`
	Data         datatypes.JSON `gorm:"column:data;type:jsonb" json:"data"`
	CreatedAt    time.Time      `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	ExpiresAt    time.Time      `gorm:"column:expires_at;type:timestamptz;index" json:"expires_at"`

	MigratedToUserID *string    `gorm:"column:migrated_to_user_id;type:uuid" json:"migrated_to_user_id,omitempty"`
	MigratedAt       *time.Time `gorm:"column:migrated_at;type:timestamptz" json:"migrated_at,omitempty"`
}

func (GuestSession) TableName() string { return "guest_sessions" }

func (s *GuestSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
