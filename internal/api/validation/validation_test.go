package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last@example.co.uk",
		"user+tag@example.io",
		"u_n%d@sub.example.com",
	}
	for _, email := range valid {
		assert.True(t, IsValidEmail(email), "expected valid: %s", email)
	}

	invalid := []string{
		"",
		"plainaddress",
		"@example.com",
		"user@",
		"user@example",
		"user @example.com",
		strings.Repeat("a", 250) + "@example.com",
	}
	for _, email := range invalid {
		assert.False(t, IsValidEmail(email), "expected invalid: %s", email)
	}
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID("550e8400-e29b-41d4-a716-446655440000"))
	assert.True(t, IsValidUUID("550E8400-E29B-41D4-A716-446655440000"))

	assert.False(t, IsValidUUID(""))
	assert.False(t, IsValidUUID("not-a-uuid"))
	assert.False(t, IsValidUUID("550e8400-e29b-41d4-a716-44665544000"))
	assert.False(t, IsValidUUID("550e8400e29b41d4a716446655440000"))
}

func TestIsValidOTP(t *testing.T) {
	assert.True(t, IsValidOTP("123456"))
	assert.True(t, IsValidOTP("000000"))

	assert.False(t, IsValidOTP(""))
	assert.False(t, IsValidOTP("12345"))
	assert.False(t, IsValidOTP("1234567"))
	assert.False(t, IsValidOTP("12345a"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("hel\x00lo"))
	assert.Equal(t, "line1\nline2", SanitizeString("line1\nline2"))
	assert.Equal(t, "tabbed\there", SanitizeString("tabbed\there"))
	assert.Equal(t, "clean", SanitizeString("cle\x1ban"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "hello", TruncateString("hello", 10))
	assert.Equal(t, "hel", TruncateString("hello", 3))
	assert.Equal(t, "", TruncateString("", 5))
}
