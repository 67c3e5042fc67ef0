package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, forged, expired, or of the wrong kind.
	ErrInvalidToken = errors.New("invalid token")
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the identity payload embedded in both token kinds.
type Claims struct {
	Subject   string
	Email     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// tokenClaims is the JWT body for access and refresh tokens.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email string    `json:"email"`
	Role  string    `json:"role"`
	Type  TokenType `json:"typ"`
}

// TokenProvider issues and validates JWT access and refresh tokens with a single SigningKey.
type TokenProvider struct {
	key        *SigningKey
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// TokenOption configures a TokenProvider.
type TokenOption func(*TokenProvider)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(p *TokenProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// NewTokenProvider returns a TokenProvider that signs with key.
// issuer and audience are set on claims and validated on every parse.
func NewTokenProvider(key *SigningKey, issuer, audience string, accessTTL, refreshTTL time.Duration, opts ...TokenOption) *TokenProvider {
	p := &TokenProvider{
		key:        key,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AccessTTL returns the configured access token lifetime.
func (p *TokenProvider) AccessTTL() time.Duration { return p.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (p *TokenProvider) RefreshTTL() time.Duration { return p.refreshTTL }

// IssueAccess issues a short-lived access JWT for claims. Returns the token and its expiry.
func (p *TokenProvider) IssueAccess(c Claims) (string, time.Time, error) {
	return p.issue(c, TokenTypeAccess, p.accessTTL)
}

// IssueRefresh issues a long-lived refresh JWT for claims. Returns the token and its expiry;
// callers persist the expiry on the session row.
func (p *TokenProvider) IssueRefresh(c Claims) (string, time.Time, error) {
	return p.issue(c, TokenTypeRefresh, p.refreshTTL)
}

func (p *TokenProvider) issue(c Claims, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	if p.key == nil || p.key.method == nil {
		return "", time.Time{}, ErrInvalidKey
	}
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := p.now().UTC()
	expiresAt := now.Add(ttl)
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   c.Subject,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: c.Email,
		Role:  c.Role,
		Type:  typ,
	}
	token, err := jwt.NewWithClaims(p.key.method, claims).SignedString(p.key.sign)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ValidateAccess parses and validates an access token (signature, exp, iss, aud, typ).
func (p *TokenProvider) ValidateAccess(tokenString string) (Claims, error) {
	return p.validate(tokenString, TokenTypeAccess)
}

// ValidateRefresh parses and validates a refresh token (signature, exp, iss, aud, typ).
func (p *TokenProvider) ValidateRefresh(tokenString string) (Claims, error) {
	return p.validate(tokenString, TokenTypeRefresh)
}

// validate collapses every failure into ErrInvalidToken so callers cannot tell a
// forged token from an expired one.
func (p *TokenProvider) validate(tokenString string, want TokenType) (Claims, error) {
	if tokenString == "" || p.key == nil || p.key.method == nil {
		return Claims{}, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		return p.key.verify, nil
	},
		jwt.WithValidMethods([]string{p.key.method.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Type != want || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	out := Claims{
		Subject: claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
