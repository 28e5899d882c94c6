package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sidrstudio/atlas/internal/auth"
)

type Handler struct {
	mailer      Sender
	authService *auth.Service
	logger      *slog.Logger
}

func NewHandler(mailer Sender, authService *auth.Service, logger *slog.Logger) *Handler {
	return &Handler{mailer: mailer, authService: authService, logger: logger}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeOTPEmail, h.HandleOTPEmail)
	mux.HandleFunc(TypePurgeExpired, h.HandlePurgeExpired)
}

func (h *Handler) HandleOTPEmail(ctx context.Context, t *asynq.Task) error {
	var payload OTPEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := h.mailer.SendOTP(ctx, payload.Recipient, payload.OTP); err != nil {
		// Not retried: the user can hit resend-otp, which rotates the
		// code anyway.
		h.logger.Error("otp email delivery failed", "recipient", payload.Recipient, "error", err)
		return nil
	}

	h.logger.Info("otp email sent", "recipient", payload.Recipient)
	return nil
}

func (h *Handler) HandlePurgeExpired(ctx context.Context, t *asynq.Task) error {
	purged, err := h.authService.PurgeExpired(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("purging expired credentials: %w", err)
	}

	if purged > 0 {
		h.logger.Info("purged expired sessions and otp tokens", "rows", purged)
	}
	return nil
}
