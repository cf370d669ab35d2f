package auth

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockedError(t *testing.T) {
	tests := []struct {
		remaining time.Duration
		want      string
	}{
		{15 * time.Minute, "Account locked. Try again in 15 minutes."},
		{90 * time.Second, "Account locked. Try again in 2 minutes."},
		{time.Minute, "Account locked. Try again in 1 minute."},
		{time.Second, "Account locked. Try again in 1 minute."},
		{0, "Account locked. Try again in 1 minute."},
	}
	for _, tt := range tests {
		t.Run(tt.remaining.String(), func(t *testing.T) {
			err := &LockedError{Remaining: tt.remaining}
			assert.Equal(t, tt.want, err.Error())
			assert.ErrorIs(t, err, ErrAccountLocked)
			assert.ErrorIs(t, fmt.Errorf("login: %w", err), ErrAccountLocked)
		})
	}
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(ErrUsernameTooShort))
	assert.True(t, IsValidation(fmt.Errorf("wrapped: %w", ErrInvalidRole)))
	assert.False(t, IsValidation(ErrInvalidCredentials))
	assert.False(t, IsValidation(&LockedError{}))
	assert.False(t, IsValidation(errors.New("disk full")))
	assert.False(t, IsValidation(nil))
}

func TestRejectionUnwraps(t *testing.T) {
	err := reject(ErrUserNotFound)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, ErrUserNotFound.Error(), err.Error())
}
