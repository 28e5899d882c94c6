package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeOTPEmail     = "email:otp"
	TypePurgeExpired = "auth:purge_expired"
)

// OTPEmailPayload carries one verification code delivery.
type OTPEmailPayload struct {
	Recipient string `json:"recipient"`
	OTP       string `json:"otp"`
}

func NewOTPEmailTask(payload OTPEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeOTPEmail, data), nil
}

// NewPurgeExpiredTask is the periodic expired session/OTP sweep; it carries
// no payload.
func NewPurgeExpiredTask() *asynq.Task {
	return asynq.NewTask(TypePurgeExpired, nil)
}
