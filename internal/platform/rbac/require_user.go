package rbac

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"session-auth/backend/internal/server/interceptors"
)

// RequireUser ensures the caller is authenticated and returns the user id from the access token.
// Returns a gRPC Unauthenticated error when no identity is attached to ctx.
func RequireUser(ctx context.Context) (userID string, err error) {
	userID, ok := interceptors.GetUserID(ctx)
	if !ok || userID == "" {
		return "", status.Error(codes.Unauthenticated, "unauthorized")
	}
	return userID, nil
}
