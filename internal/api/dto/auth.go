package dto

import (
	"github.com/google/uuid"
	"github.com/sidrstudio/atlas/internal/api/validation"
)

type SignUpRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (r SignUpRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.Email == "" {
		errs["email"] = "Email is required"
	} else if !validation.IsValidEmail(r.Email) {
		errs["email"] = "Email is invalid"
	}
	if r.Name == "" {
		errs["name"] = "Name is required"
	}

	return errs
}

type SignInRequest struct {
	Email string `json:"email"`
}

func (r SignInRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.Email == "" {
		errs["email"] = "Email is required"
	} else if !validation.IsValidEmail(r.Email) {
		errs["email"] = "Email is invalid"
	}

	return errs
}

type VerifyOTPRequest struct {
	OtpToken string `json:"otpToken"`
	OTP      string `json:"otp"`
}

func (r VerifyOTPRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.OtpToken == "" {
		errs["otpToken"] = "Otp token is required"
	}
	if len(r.OTP) != 6 {
		errs["otp"] = "OTP must be 6 digits"
	}

	return errs
}

type ResendOTPRequest struct {
	OtpToken string `json:"otpToken"`
}

func (r ResendOTPRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.OtpToken == "" {
		errs["otpToken"] = "Otp token is required"
	}

	return errs
}

type ImpersonateRequest struct {
	UserID uuid.UUID `json:"userId"`
}

func (r ImpersonateRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.UserID == uuid.Nil {
		errs["userId"] = "User id is required"
	}

	return errs
}

// SignUpResponse carries the created user plus the OTP handle the client
// presents back to verify-otp. The OTP itself only travels by email.
type SignUpResponse struct {
	User     any    `json:"user"`
	OtpToken string `json:"otpToken"`
}

type SignInResponse struct {
	OtpToken string `json:"otpToken"`
}
