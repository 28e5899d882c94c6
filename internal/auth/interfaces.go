package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sidrstudio/atlas/internal/database/models"
)

// SessionIssuer defines the credential/session lifecycle operations the
// route layer calls into.
type SessionIssuer interface {
	SignUp(ctx context.Context, input SignUpInput) (*SignUpResult, error)
	SignIn(ctx context.Context, email string) (string, error)
	VerifyOTP(ctx context.Context, input VerifyOTPInput) (string, error)
	ResendOTP(ctx context.Context, handle string) error
	Impersonate(ctx context.Context, callerSessionToken string, targetUserID uuid.UUID) (string, error)
	Logout(ctx context.Context, sessionToken string) error
	SessionByToken(ctx context.Context, sessionToken string) (*models.Session, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Compile-time interface satisfaction check
var _ SessionIssuer = (*Service)(nil)
