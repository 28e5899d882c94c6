package models

import (
	"time"

	"github.com/google/uuid"
)

type Session struct {
	Base
	SessionToken string    `gorm:"uniqueIndex;not null" json:"-"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ExpiresAt    time.Time `gorm:"not null" json:"expires_at"`
	UserAgent    *string   `json:"user_agent"`
	IPAddress    *string   `json:"ip_address"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Session) TableName() string {
	return "sessions"
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
