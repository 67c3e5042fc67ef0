package security

import (
	"crypto/sha256"
	"encoding/hex"
)

// digestRefreshToken returns the hex-encoded SHA-256 of the raw refresh token.
// The digest is 64 bytes, inside bcrypt's input limit; it is never stored on its own.
func digestRefreshToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
