package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/sidrstudio/atlas/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.SMTPConfig {
	return &config.SMTPConfig{
		Host:   "smtp.example.com",
		Port:   587,
		Sender: "noreply@example.com",
	}
}

func TestSendOTP(t *testing.T) {
	m := New(testConfig())

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := m.SendOTP(context.Background(), "user@example.com", "123456")
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"user@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "123456")
	assert.Contains(t, string(gotMsg), "Subject: Email verification code")
}

func TestSendOTP_CatcherDiversion(t *testing.T) {
	cfg := testConfig()
	cfg.Catcher = "dev@example.com"
	m := New(cfg)

	var gotTo []string
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotTo = to
		return nil
	}

	require.NoError(t, m.SendOTP(context.Background(), "user@example.com", "123456"))
	assert.Equal(t, []string{"dev@example.com"}, gotTo)
}

func TestSendOTP_SendFailure(t *testing.T) {
	m := New(testConfig())
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return errors.New("connection refused")
	}

	err := m.SendOTP(context.Background(), "user@example.com", "123456")
	assert.Error(t, err)
}

func TestSendOTP_CancelledContext(t *testing.T) {
	m := New(testConfig())
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		t.Error("send should not be called")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, m.SendOTP(ctx, "user@example.com", "123456"))
}
