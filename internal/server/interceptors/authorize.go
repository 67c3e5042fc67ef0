package interceptors

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"session-auth/backend/internal/policy/engine"
)

// AuthorizeUnary returns a unary server interceptor that asks the policy evaluator whether the
// caller identity set by AuthUnary may invoke the method. It must run after AuthUnary.
// Evaluation errors deny the request.
func AuthorizeUnary(evaluator engine.Evaluator, logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		userID, _ := GetUserID(ctx)
		role, _ := GetRole(ctx)
		allow, err := evaluator.Allow(ctx, engine.Input{Method: info.FullMethod, Subject: userID, Role: role})
		if err != nil {
			logger.ErrorContext(ctx, "authz.eval.fail", "method", info.FullMethod, "error", err)
			return nil, status.Error(codes.PermissionDenied, "permission denied")
		}
		if !allow {
			if userID == "" {
				return nil, status.Error(codes.Unauthenticated, "unauthorized")
			}
			return nil, status.Error(codes.PermissionDenied, "permission denied")
		}
		return handler(ctx, req)
	}
}
