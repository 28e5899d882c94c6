package models

import (
	"time"

	"github.com/google/uuid"
)

// OtpToken is the short-lived handle issued on sign-up/sign-in. The token
// column is the opaque handle returned to the client; OTP is the 6-digit
// code delivered by email. The row is deleted when the OTP is verified, so
// a code is usable at most once.
type OtpToken struct {
	Base
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	OTP       string    `gorm:"type:varchar(6);not null" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ExpiredAt time.Time `gorm:"not null" json:"expired_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (OtpToken) TableName() string {
	return "otp_tokens"
}

// Expired is evaluated at verification time, not issuance.
func (t *OtpToken) Expired(now time.Time) bool {
	return now.After(t.ExpiredAt)
}
