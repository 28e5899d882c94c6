package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequirement_Satisfied(t *testing.T) {
	tests := []struct {
		name     string
		req      Requirement
		granted  []string
		expected bool
	}{
		{
			name:     "single_key_granted",
			req:      Key(PermReadUsers),
			granted:  []string{PermReadUsers, PermReadRoles},
			expected: true,
		},
		{
			name:     "single_key_missing",
			req:      Key(PermWriteUsers),
			granted:  []string{PermReadUsers},
			expected: false,
		},
		{
			name:     "any_of_one_granted",
			req:      AnyOf(PermReadUsers, PermWriteUsers),
			granted:  []string{PermWriteUsers},
			expected: true,
		},
		{
			name:     "any_of_none_granted",
			req:      AnyOf(PermReadUsers, PermWriteUsers),
			granted:  []string{PermReadRoles},
			expected: false,
		},
		{
			name:     "all_of_complete",
			req:      AllOf(PermReadUsers, PermWriteUsers),
			granted:  []string{PermReadUsers, PermWriteUsers, PermReadRoles},
			expected: true,
		},
		{
			name:     "all_of_partial",
			req:      AllOf(PermReadUsers, PermWriteUsers),
			granted:  []string{PermReadUsers},
			expected: false,
		},
		{
			name:     "all_of_empty_keys",
			req:      AllOf(),
			granted:  []string{PermReadUsers},
			expected: false,
		},
		{
			name:     "empty_granted_set",
			req:      Key(PermReadUsers),
			granted:  nil,
			expected: false,
		},
		{
			name:     "zero_requirement",
			req:      Requirement{},
			granted:  []string{PermReadUsers},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.req.Satisfied(tt.granted))
		})
	}
}

func TestRequirement_Zero(t *testing.T) {
	assert.True(t, Requirement{}.Zero())
	assert.False(t, Key(PermReadUsers).Zero())
	assert.False(t, AnyOf(PermReadUsers).Zero())
}
