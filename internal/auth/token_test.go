package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken_Unique(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := codec.NewToken()
		assert.Len(t, token, 64) // hex-encoded sha256
		assert.False(t, seen[token], "duplicate token minted")
		seen[token] = true
	}
}

func TestDerive_Deterministic(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	assert.Equal(t, codec.derive("some-id"), codec.derive("some-id"))
	assert.NotEqual(t, codec.derive("some-id"), codec.derive("other-id"))
}

func TestDerive_SecretDependent(t *testing.T) {
	a := NewTokenCodec("secret-a")
	b := NewTokenCodec("secret-b")

	assert.NotEqual(t, a.derive("same-id"), b.derive("same-id"))
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		otp, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, otp, 6)
		for _, c := range otp {
			assert.True(t, c >= '0' && c <= '9', "otp contains non-digit: %q", otp)
		}
	}
}
