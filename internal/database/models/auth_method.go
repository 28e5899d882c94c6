package models

import "github.com/google/uuid"

// Auth providers recorded per user. ProviderID deduplicates OAuth sign-ins:
// a returning Google user is matched on (provider, provider_id) instead of
// creating a second account.
const (
	ProviderPasswordless = "passwordless"
	ProviderGoogle       = "google"
)

type AuthMethod struct {
	Base
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Provider   string    `gorm:"type:varchar(50);not null" json:"provider"`
	ProviderID string    `gorm:"type:varchar(255);not null;index" json:"provider_id"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (AuthMethod) TableName() string {
	return "auth_methods"
}
