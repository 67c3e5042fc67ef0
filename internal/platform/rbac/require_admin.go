package rbac

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	userdomain "session-auth/backend/internal/user/domain"
)

// UserGetter loads a user by id. Used by RequireAdmin to resolve the caller's current role.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// RequireAdmin ensures the caller is authenticated and currently holds role ADMIN. The role is read from
// the user store, not the token, so a demotion takes effect before the access token expires.
// Returns the caller's user id, or a gRPC error (Unauthenticated, PermissionDenied or Internal).
func RequireAdmin(ctx context.Context, getter UserGetter) (userID string, err error) {
	userID, err = RequireUser(ctx)
	if err != nil {
		return "", err
	}
	u, err := getter.GetByID(ctx, userID)
	if err != nil {
		return "", status.Error(codes.Internal, "failed to resolve caller")
	}
	if u == nil || u.IsDeleted() {
		return "", status.Error(codes.Unauthenticated, "unauthorized")
	}
	if u.Role != userdomain.RoleAdmin {
		return "", status.Error(codes.PermissionDenied, "admin role required")
	}
	return userID, nil
}
