package tasks

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Sender delivers an OTP email synchronously.
type Sender interface {
	SendOTP(ctx context.Context, recipient, otp string) error
}

// Enqueuer hands OTP deliveries to the background worker. Without a queue
// (Redis down, or single-binary deployments) it falls back to sending
// inline.
type Enqueuer struct {
	client   *asynq.Client
	fallback Sender
	logger   *slog.Logger
}

func NewEnqueuer(client *asynq.Client, fallback Sender, logger *slog.Logger) *Enqueuer {
	return &Enqueuer{client: client, fallback: fallback, logger: logger}
}

func (e *Enqueuer) SendOTP(ctx context.Context, recipient, otp string) error {
	if e.client == nil {
		return e.fallback.SendOTP(ctx, recipient, otp)
	}

	task, err := NewOTPEmailTask(OTPEmailPayload{Recipient: recipient, OTP: otp})
	if err != nil {
		return err
	}

	if _, err := e.client.EnqueueContext(ctx, task, asynq.Queue("critical")); err != nil {
		e.logger.Warn("enqueue failed, sending otp email inline", "error", err)
		return e.fallback.SendOTP(ctx, recipient, otp)
	}
	return nil
}
