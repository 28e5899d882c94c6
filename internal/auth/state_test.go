package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateSigner_RoundTrip(t *testing.T) {
	signer := NewStateSigner("test-secret")

	state, err := signer.Sign()
	require.NoError(t, err)
	require.NotEmpty(t, state)

	assert.NoError(t, signer.Verify(state))
}

func TestStateSigner_Tampered(t *testing.T) {
	signer := NewStateSigner("test-secret")

	state, err := signer.Sign()
	require.NoError(t, err)

	err = signer.Verify(state + "x")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestStateSigner_DifferentSecret(t *testing.T) {
	state, err := NewStateSigner("secret-a").Sign()
	require.NoError(t, err)

	err = NewStateSigner("secret-b").Verify(state)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestStateSigner_Garbage(t *testing.T) {
	signer := NewStateSigner("test-secret")
	assert.ErrorIs(t, signer.Verify("not-a-jwt"), ErrInvalidState)
	assert.ErrorIs(t, signer.Verify(""), ErrInvalidState)
}
