package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for auth service; handler maps them to gRPC codes.
var (
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrInvalidSession      = errors.New("session not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrStoreUnavailable    = errors.New("store unavailable")
	// ErrInvalidInput reports a request the domain rejects (e.g. empty email, password over bcrypt's 72 bytes).
	ErrInvalidInput = errors.New("invalid input")
	// ErrUserNotDeleted is returned by RestoreUser for a user that is not soft-deleted.
	ErrUserNotDeleted = errors.New("user is not deleted")
)

// IsUnauthorized reports whether err belongs to the authentication-failure class that callers
// must see as one generic "unauthorized" outcome.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidRefreshToken) ||
		errors.Is(err, ErrInvalidSession)
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func inputErr(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
