package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sidrstudio/atlas/internal/apperror"
	"github.com/sidrstudio/atlas/internal/database/models"
	"gorm.io/gorm"
)

const (
	otpTTL          = time.Hour
	sessionTTL      = 7 * 24 * time.Hour
	oauthSessionTTL = 90 * 24 * time.Hour
)

// OTPMailer delivers a one-time password to a recipient. Delivery is
// fire-and-forget: the issuing operation succeeds even when the mail cannot
// be sent, and the caller re-initiates if the code never arrives.
type OTPMailer interface {
	SendOTP(ctx context.Context, recipient, otp string) error
}

type Service struct {
	db     *gorm.DB
	codec  *TokenCodec
	mailer OTPMailer
	logger *slog.Logger
}

func NewService(db *gorm.DB, codec *TokenCodec, mailer OTPMailer, logger *slog.Logger) *Service {
	return &Service{db: db, codec: codec, mailer: mailer, logger: logger}
}

type SignUpInput struct {
	Email string
	Name  string
}

type SignUpResult struct {
	User     models.User
	OtpToken string
}

// SignUp registers a passwordless user: membership in the default
// organization, any sign-up roles, an OTP challenge and the auth method
// record, all in one transaction. The returned handle is what the client
// presents to verify-otp; the OTP itself only travels by email.
func (s *Service) SignUp(ctx context.Context, input SignUpInput) (*SignUpResult, error) {
	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", input.Email).First(&existing).Error
	if err == nil {
		return nil, apperror.Conflict("Sign up failed", "User already exist, please try to login.")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.From(err)
	}

	defaultOrg, err := s.defaultOrganization(ctx)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email: input.Email,
		Name:  input.Name,
	}

	var otp, handle string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		if err := tx.Create(&models.UserToOrganization{
			UserID:         user.ID,
			OrganizationID: defaultOrg.ID,
		}).Error; err != nil {
			return err
		}

		if err := grantSignUpRoles(tx, user.ID, defaultOrg.ID); err != nil {
			return err
		}

		if err := tx.Create(&models.AuthMethod{
			UserID:     user.ID,
			Provider:   models.ProviderPasswordless,
			ProviderID: input.Email,
		}).Error; err != nil {
			return err
		}

		otp, handle, err = s.issueOTP(tx, user.ID)
		return err
	})
	if err != nil {
		return nil, apperror.From(err)
	}

	s.deliverOTP(ctx, user.Email, otp)

	return &SignUpResult{User: user, OtpToken: handle}, nil
}

// SignIn issues a fresh OTP challenge for an existing user. No membership
// or role side effects.
func (s *Service) SignIn(ctx context.Context, email string) (string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperror.NotFound("User not found, please sign up.", "")
		}
		return "", apperror.From(err)
	}

	if user.Suspended() {
		return "", apperror.Forbidden("Login failed", "Your account is suspended")
	}

	var otp, handle string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		otp, handle, err = s.issueOTP(tx, user.ID)
		return err
	})
	if err != nil {
		return "", apperror.From(err)
	}

	s.deliverOTP(ctx, user.Email, otp)

	return handle, nil
}

type VerifyOTPInput struct {
	OtpToken  string
	OTP       string
	UserAgent string
	IPAddress string
}

// VerifyOTP exchanges a valid handle+code pair for a 7-day session token.
// The OTP row is consumed, so replaying the same code after a successful
// verify fails with Unauthorized. Expiry is compared against the stored
// timestamp at call time.
func (s *Service) VerifyOTP(ctx context.Context, input VerifyOTPInput) (string, error) {
	invalid := apperror.Unauthorized("Your OTP is invalid", "")

	var otpToken models.OtpToken
	if err := s.db.WithContext(ctx).Where("token = ?", input.OtpToken).First(&otpToken).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", invalid
		}
		return "", apperror.From(err)
	}

	if otpToken.OTP != input.OTP || otpToken.Expired(time.Now()) {
		return "", invalid
	}

	sessionToken := s.codec.NewToken()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.OtpToken{}, "token = ?", otpToken.Token).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", otpToken.UserID).
			Update("is_email_verified", true).Error; err != nil {
			return err
		}

		return tx.Create(&models.Session{
			SessionToken: sessionToken,
			UserID:       otpToken.UserID,
			ExpiresAt:    time.Now().Add(sessionTTL),
			UserAgent:    optional(input.UserAgent),
			IPAddress:    optional(input.IPAddress),
		}).Error
	})
	if err != nil {
		return "", apperror.From(err)
	}

	return sessionToken, nil
}

// ResendOTP rotates the code and expiry on an existing handle in place. The
// previous code stops verifying immediately.
func (s *Service) ResendOTP(ctx context.Context, handle string) error {
	failed := apperror.NotFound("Resending OTP failed", "Otp token is invalid")

	var otpToken models.OtpToken
	if err := s.db.WithContext(ctx).Where("token = ?", handle).First(&otpToken).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failed
		}
		return apperror.From(err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", otpToken.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failed
		}
		return apperror.From(err)
	}

	otp, err := GenerateOTP()
	if err != nil {
		return apperror.From(err)
	}

	err = s.db.WithContext(ctx).Model(&models.OtpToken{}).
		Where("token = ?", handle).
		Updates(map[string]any{
			"otp":        otp,
			"expired_at": time.Now().Add(otpTTL),
		}).Error
	if err != nil {
		return apperror.From(err)
	}

	s.deliverOTP(ctx, user.Email, otp)

	return nil
}

// Impersonate mints a session for the target user and deletes the caller's
// current one, so the privilege switch cannot be undone from within the new
// session.
func (s *Service) Impersonate(ctx context.Context, callerSessionToken string, targetUserID uuid.UUID) (string, error) {
	var target models.User
	if err := s.db.WithContext(ctx).First(&target, "id = ?", targetUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperror.NotFound("Impersonation failed", "User is not found")
		}
		return "", apperror.From(err)
	}

	sessionToken := s.codec.NewToken()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Session{
			SessionToken: sessionToken,
			UserID:       target.ID,
			ExpiresAt:    time.Now().Add(sessionTTL),
		}).Error; err != nil {
			return err
		}

		if callerSessionToken == "" {
			return nil
		}
		return tx.Delete(&models.Session{}, "session_token = ?", callerSessionToken).Error
	})
	if err != nil {
		return "", apperror.From(err)
	}

	return sessionToken, nil
}

// Logout deletes the session matching the token. Idempotent: an unknown or
// empty token is a no-op success.
func (s *Service) Logout(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	if err := s.db.WithContext(ctx).Delete(&models.Session{}, "session_token = ?", sessionToken).Error; err != nil {
		return apperror.From(err)
	}
	return nil
}

// SessionByToken resolves a live session. Unknown and expired tokens both
// come back as Unauthorized; expired rows are left for the purge job.
func (s *Service) SessionByToken(ctx context.Context, sessionToken string) (*models.Session, error) {
	notAuthenticated := apperror.Unauthorized("User is not authenticated", "")

	if sessionToken == "" {
		return nil, notAuthenticated
	}

	var session models.Session
	if err := s.db.WithContext(ctx).Where("session_token = ?", sessionToken).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notAuthenticated
		}
		return nil, apperror.From(err)
	}

	if session.Expired(time.Now()) {
		return nil, notAuthenticated
	}

	return &session, nil
}

// PurgeExpired deletes expired sessions and OTP tokens. Validity never
// depends on this sweep; it only keeps the tables from growing unbounded.
func (s *Service) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	sessions := s.db.WithContext(ctx).Delete(&models.Session{}, "expires_at < ?", now)
	if sessions.Error != nil {
		return 0, sessions.Error
	}

	otps := s.db.WithContext(ctx).Delete(&models.OtpToken{}, "expired_at < ?", now)
	if otps.Error != nil {
		return sessions.RowsAffected, otps.Error
	}

	return sessions.RowsAffected + otps.RowsAffected, nil
}

func (s *Service) defaultOrganization(ctx context.Context) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.WithContext(ctx).Where("is_default = ?", true).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Internal("Default organization is not found")
		}
		return nil, apperror.From(err)
	}
	return &org, nil
}

func (s *Service) issueOTP(tx *gorm.DB, userID uuid.UUID) (otp, handle string, err error) {
	otp, err = GenerateOTP()
	if err != nil {
		return "", "", err
	}

	handle = s.codec.NewToken()
	err = tx.Create(&models.OtpToken{
		Token:     handle,
		OTP:       otp,
		UserID:    userID,
		ExpiredAt: time.Now().Add(otpTTL),
	}).Error
	if err != nil {
		return "", "", err
	}

	return otp, handle, nil
}

func (s *Service) deliverOTP(ctx context.Context, email, otp string) {
	if err := s.mailer.SendOTP(ctx, email, otp); err != nil {
		s.logger.Warn("failed to send otp email", "recipient", email, "error", err)
	}
}

func grantSignUpRoles(tx *gorm.DB, userID, orgID uuid.UUID) error {
	var signUpRoles []models.Role
	if err := tx.Where("assigned_on_sign_up = ?", true).Find(&signUpRoles).Error; err != nil {
		return err
	}

	for _, role := range signUpRoles {
		if err := tx.Create(&models.RoleToUser{
			RoleID:         role.ID,
			UserID:         userID,
			OrganizationID: orgID,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
