package services

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/rate"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("user already exists")
	ErrPhoneTaken         = errors.New("phone number already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrAccountNotVerified = errors.New("email and phone must be verified before login")

	ErrNoPendingChallenge = errors.New("no pending challenge")
	ErrChallengeExpired   = errors.New("challenge expired")
	ErrChallengeMismatch  = errors.New("challenge mismatch")
	ErrResetTokenInvalid  = errors.New("invalid or expired reset token")
	ErrResetTokenMismatch = errors.New("invalid reset token")

	ErrRateLimited = rate.ErrRateLimited
)

// ValidationError carries a client-facing message for malformed or missing
// input. It matches ErrInvalidInput under errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
