package users_test

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
)

func TestStructuredErrorProperties(t *testing.T) {
	t.Run("ErrIdentityNotFound", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryNotFound, users.ErrIdentityNotFound.Category)
		assert.Equal(t, "identity not found", users.ErrIdentityNotFound.Message)
	})

	t.Run("ErrMismatchedHashAndPassword", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, users.ErrMismatchedHashAndPassword.Category)
		assert.Equal(t, users.TextCodeInvalidCreds, users.ErrMismatchedHashAndPassword.TextCode)
		assert.Equal(t, "the credentials provided are invalid", users.ErrMismatchedHashAndPassword.Message)
	})

	t.Run("ErrUnauthorized", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, users.ErrUnauthorized.Category)
		assert.Equal(t, users.TextCodeUnauthorized, users.ErrUnauthorized.TextCode)
	})

	t.Run("ErrInvalidToken", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, users.ErrInvalidToken.Category)
		assert.Equal(t, users.TextCodeInvalidToken, users.ErrInvalidToken.TextCode)
	})

	t.Run("ErrTokenExpired", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, users.ErrTokenExpired.Category)
		assert.Equal(t, users.TextCodeTokenExpired, users.ErrTokenExpired.TextCode)
	})

	t.Run("ErrNoEmptyString", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryValidation, users.ErrNoEmptyString.Category)
		assert.Equal(t, users.TextCodeEmptyPassword, users.ErrNoEmptyString.TextCode)
	})
}

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured token expired error",
			err:      users.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "Legacy token expired error (string match)",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      users.ErrIdentityNotFound,
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, users.IsTokenExpiredError(tt.err))
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Legacy malformed error (string match)",
			err:      errors.New("token is malformed"),
			expected: true,
		},
		{
			name:     "Legacy missing JWT error (string match)",
			err:      errors.New("missing or malformed JWT"),
			expected: true,
		},
		{
			name:     "Different legacy error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, users.IsMalformedError(tt.err))
		})
	}
}
