package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidKey is returned when PEM, key type, or secret is invalid.
var ErrInvalidKey = errors.New("invalid key")

// MinSecretLength is the minimum HS256 secret size in bytes.
const MinSecretLength = 32

// SigningKey is the process-wide token signing material. It is built once at
// startup and never mutated.
type SigningKey struct {
	method jwt.SigningMethod
	sign   any
	verify any
}

// NewHMACKey returns an HS256 signing key. The secret must be at least MinSecretLength bytes.
func NewHMACKey(secret []byte) (*SigningKey, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrInvalidKey
	}
	b := make([]byte, len(secret))
	copy(b, secret)
	return &SigningKey{method: jwt.SigningMethodHS256, sign: b, verify: b}, nil
}

// NewAsymmetricKey returns an RS256 or ES256 (P-256) signing key from a PEM private
// and public key. Each argument may be inline PEM or a file path.
func NewAsymmetricKey(privatePEM, publicPEM string) (*SigningKey, error) {
	signer, err := ParsePrivateKey(privatePEM)
	if err != nil {
		return nil, err
	}
	pub, err := ParsePublicKey(publicPEM)
	if err != nil {
		return nil, err
	}
	alg := KeyAlg(pub)
	if alg == "" || alg != KeyAlg(signer.Public()) {
		return nil, ErrInvalidKey
	}
	switch alg {
	case "RS256":
		return &SigningKey{method: jwt.SigningMethodRS256, sign: signer, verify: pub}, nil
	default:
		return &SigningKey{method: jwt.SigningMethodES256, sign: signer, verify: pub}, nil
	}
}

// Alg returns the JWS algorithm name (HS256, RS256, or ES256).
func (k *SigningKey) Alg() string {
	if k == nil || k.method == nil {
		return ""
	}
	return k.method.Alg()
}

// LoadPEM reads content from path if s does not look like inline PEM; otherwise returns s as bytes.
// Inline PEM coming from an env var may carry literal \n sequences; they are turned into newlines.
func LoadPEM(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKey
	}
	if strings.HasPrefix(s, "-----BEGIN") {
		return []byte(strings.ReplaceAll(s, `\n`, "\n")), nil
	}
	return os.ReadFile(s)
}

// ParsePrivateKey parses a PEM-encoded private key (RSA or ECDSA). s may be inline PEM or a file path.
func ParsePrivateKey(s string) (crypto.Signer, error) {
	pemBytes, err := LoadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, ErrInvalidKey
		}
		return signer, nil
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	default:
		return nil, ErrInvalidKey
	}
}

// ParsePublicKey parses a PEM-encoded public key (RSA or ECDSA). s may be inline PEM or a file path.
func ParsePublicKey(s string) (crypto.PublicKey, error) {
	pemBytes, err := LoadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		return x509.ParsePKIXPublicKey(block.Bytes)
	default:
		return nil, ErrInvalidKey
	}
}

// KeyAlg returns "RS256" for RSA and "ES256" for ECDSA P-256; empty otherwise.
func KeyAlg(pub crypto.PublicKey) string {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return "RS256"
	case *ecdsa.PublicKey:
		if k.Curve != elliptic.P256() {
			return ""
		}
		return "ES256"
	default:
		return ""
	}
}
