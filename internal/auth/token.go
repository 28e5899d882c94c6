package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// TokenCodec derives the opaque tokens handed to clients (session tokens
// and OTP handles). A token is the keyed hash of a random id, so values are
// unguessable and leak nothing about issuance order.
type TokenCodec struct {
	secret []byte
}

func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret)}
}

// NewToken mints a fresh opaque token from a random UUID.
func (c *TokenCodec) NewToken() string {
	return c.derive(uuid.NewString())
}

func (c *TokenCodec) derive(id string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}

const otpLength = 6

// GenerateOTP returns a 6-digit numeric one-time password drawn from
// crypto/rand.
func GenerateOTP() (string, error) {
	digits := make([]byte, otpLength)
	if _, err := rand.Read(digits); err != nil {
		return "", fmt.Errorf("generating otp: %w", err)
	}
	for i, b := range digits {
		digits[i] = '0' + b%10
	}
	return string(digits), nil
}
