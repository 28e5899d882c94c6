package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Base
	Email           string     `gorm:"uniqueIndex;not null" json:"email"`
	Name            string     `gorm:"not null" json:"name"`
	Image           *string    `json:"image"`
	SuspendedAt     *time.Time `json:"suspended_at"`
	IsEmailVerified bool       `gorm:"default:false" json:"is_email_verified"`

	// Relationships
	Organizations []Organization `gorm:"many2many:users_to_organizations;constraint:OnDelete:CASCADE" json:"organizations,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Suspended reports whether the account is currently suspended.
func (u *User) Suspended() bool {
	return u.SuspendedAt != nil
}

// UserToOrganization is the membership join table. Declared explicitly so
// AutoMigrate creates the cascade constraints and so tests can insert rows
// directly.
type UserToOrganization struct {
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;primaryKey" json:"organization_id"`

	User         *User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (UserToOrganization) TableName() string {
	return "users_to_organizations"
}
