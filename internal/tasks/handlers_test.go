package tasks_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sidrstudio/atlas/internal/database/models"
	"github.com/sidrstudio/atlas/internal/tasks"
	"github.com/sidrstudio/atlas/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

type failingMailer struct{}

func (failingMailer) SendOTP(ctx context.Context, recipient, otp string) error {
	return errors.New("smtp down")
}

func TestHandleOTPEmail_DeliversThroughMailer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	service, mailer := testutil.NewTestAuthService(db)
	handler := tasks.NewHandler(mailer, service, discardLogger())
	ctx := testutil.TestContext(t)

	task, err := tasks.NewOTPEmailTask(tasks.OTPEmailPayload{
		Recipient: "user@example.com",
		OTP:       "123456",
	})
	require.NoError(t, err)

	require.NoError(t, handler.HandleOTPEmail(ctx, task))
	require.Len(t, mailer.Sent, 1)
	assert.Equal(t, "user@example.com", mailer.Sent[0].Recipient)
	assert.Equal(t, "123456", mailer.Sent[0].OTP)
}

func TestHandleOTPEmail_MalformedPayload(t *testing.T) {
	db := testutil.SetupTestDB(t)
	service, mailer := testutil.NewTestAuthService(db)
	handler := tasks.NewHandler(mailer, service, discardLogger())
	ctx := testutil.TestContext(t)

	task := asynq.NewTask(tasks.TypeOTPEmail, []byte("not json"))
	assert.Error(t, handler.HandleOTPEmail(ctx, task))
	assert.Empty(t, mailer.Sent)
}

func TestHandleOTPEmail_MailerFailureNotRetried(t *testing.T) {
	db := testutil.SetupTestDB(t)
	service, _ := testutil.NewTestAuthService(db)
	handler := tasks.NewHandler(failingMailer{}, service, discardLogger())
	ctx := testutil.TestContext(t)

	task, err := tasks.NewOTPEmailTask(tasks.OTPEmailPayload{
		Recipient: "user@example.com",
		OTP:       "123456",
	})
	require.NoError(t, err)

	// Delivery failure is swallowed; resend-otp rotates the code anyway
	assert.NoError(t, handler.HandleOTPEmail(ctx, task))
}

func TestHandlePurgeExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	service, mailer := testutil.NewTestAuthService(db)
	handler := tasks.NewHandler(mailer, service, discardLogger())
	ctx := testutil.TestContext(t)

	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)
	stale := testutil.CreateSession(t, db, user)
	require.NoError(t, db.Model(&models.Session{}).
		Where("session_token = ?", stale).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	require.NoError(t, handler.HandlePurgeExpired(ctx, tasks.NewPurgeExpiredTask()))

	var count int64
	require.NoError(t, db.Model(&models.Session{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEnqueuer_FallsBackWithoutQueue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, mailer := testutil.NewTestAuthService(db)
	ctx := testutil.TestContext(t)

	enqueuer := tasks.NewEnqueuer(nil, mailer, discardLogger())
	require.NoError(t, enqueuer.SendOTP(ctx, "user@example.com", "123456"))
	require.Len(t, mailer.Sent, 1)
	assert.Equal(t, "123456", mailer.Sent[0].OTP)
}
