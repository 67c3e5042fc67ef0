package domain

import "time"

// Session is one live refresh credential of a user. Many may exist per user (one per device).
// RefreshTokenHash is the bcrypt digest of the SHA-256 of the refresh token; the raw token is never stored.
type Session struct {
	ID               string
	UserID           string
	RefreshTokenHash string
	ExpiresAt        time.Time
	CreatedAt        time.Time
}

// Active reports whether the session has not yet expired at now. A session expiring exactly at now is still active.
func (s *Session) Active(now time.Time) bool {
	return !s.ExpiresAt.Before(now)
}
