package interceptors

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"session-auth/backend/internal/security"
)

const (
	authorizationHeader = "authorization"
	bearerScheme        = "bearer"
)

var errUnauthorized = status.Error(codes.Unauthenticated, "unauthorized")

// AccessValidator verifies access tokens. *security.TokenProvider implements it; refresh tokens fail
// validation because of their typ claim.
type AccessValidator interface {
	ValidateAccess(token string) (security.Claims, error)
}

// AuthUnary authenticates callers from the "authorization: Bearer <access token>" metadata entry.
// On success the subject, email and role are attached to the context. Methods in publicMethods run
// without a token; a valid token on a public method still attaches the identity, an invalid one is ignored.
func AuthUnary(tokens AccessValidator, publicMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		claims, ok := authenticate(ctx, tokens)
		switch {
		case ok:
			ctx = WithIdentity(ctx, claims.Subject, claims.Email, claims.Role)
		case !publicMethods[info.FullMethod]:
			return nil, errUnauthorized
		}
		return handler(ctx, req)
	}
}

func authenticate(ctx context.Context, tokens AccessValidator) (security.Claims, bool) {
	token := extractBearer(ctx)
	if token == "" {
		return security.Claims{}, false
	}
	claims, err := tokens.ValidateAccess(token)
	if err != nil || claims.Subject == "" {
		return security.Claims{}, false
	}
	return claims, true
}

// extractBearer returns the token of the first authorization entry, or "" when the entry is
// missing or uses another scheme. The scheme is case-insensitive.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get(authorizationHeader)
	if len(vals) == 0 {
		return ""
	}
	scheme, token, found := strings.Cut(strings.TrimSpace(vals[0]), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}
