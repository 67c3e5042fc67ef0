package handler

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	authv1 "session-auth/backend/api/auth/v1"
	auditdomain "session-auth/backend/internal/audit/domain"
	"session-auth/backend/internal/identity/service"
	"session-auth/backend/internal/platform/rbac"
	userdomain "session-auth/backend/internal/user/domain"
)

const (
	minNameLen     = 3
	minPasswordLen = 6
	// bcrypt ignores input beyond 72 bytes; longer passwords are rejected instead of silently truncated.
	maxPasswordBytes = 72

	defaultAuditPageSize = 50
	maxAuditPageSize     = 100
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// AuthServer implements auth.v1.AuthService on top of the auth service.
type AuthServer struct {
	authv1.UnimplementedAuthServiceServer
	authSvc *service.AuthService
	users   rbac.UserGetter
	log     *slog.Logger
}

// NewAuthServer returns a new Auth gRPC server. If authSvc is nil, every method returns Unimplemented.
// users resolves the caller's stored role for admin-only methods.
func NewAuthServer(authSvc *service.AuthService, users rbac.UserGetter, log *slog.Logger) *AuthServer {
	if log == nil {
		log = slog.Default()
	}
	return &AuthServer{authSvc: authSvc, users: users, log: log}
}

// Register creates an account and returns the user with a fresh token pair.
func (s *AuthServer) Register(ctx context.Context, req *authv1.RegisterRequest) (*authv1.AuthResponse, error) {
	if s.authSvc == nil {
		return nil, status.Error(codes.Unimplemented, "method Register not implemented")
	}
	if err := validateName(req.GetName()); err != nil {
		return nil, err
	}
	if err := validateEmail(req.GetEmail()); err != nil {
		return nil, err
	}
	if err := validateNewPassword("password", req.GetPassword()); err != nil {
		return nil, err
	}
	res, err := s.authSvc.Register(ctx, req.GetName(), req.GetEmail(), req.GetPassword())
	if err != nil {
		return nil, s.toStatus(ctx, "Register", err)
	}
	return authResponse(res), nil
}

// Login authenticates with email and password.
func (s *AuthServer) Login(ctx context.Context, req *authv1.LoginRequest) (*authv1.AuthResponse, error) {
	if s.authSvc == nil {
		return nil, status.Error(codes.Unimplemented, "method Login not implemented")
	}
	if strings.TrimSpace(req.GetEmail()) == "" || req.GetPassword() == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}
	res, err := s.authSvc.Login(ctx, req.GetEmail(), req.GetPassword())
	if err != nil {
		return nil, s.toStatus(ctx, "Login", err)
	}
	return authResponse(res), nil
}

// Refresh rotates the refresh token and returns a new pair.
func (s *AuthServer) Refresh(ctx context.Context, req *authv1.RefreshRequest) (*authv1.TokenPair, error) {
	if s.authSvc == nil {
		return nil, status.Error(codes.Unimplemented, "method Refresh not implemented")
	}
	if req.GetRefreshToken() == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh_token is required")
	}
	res, err := s.authSvc.Refresh(ctx, req.GetRefreshToken())
	if err != nil {
		return nil, s.toStatus(ctx, "Refresh", err)
	}
	return &authv1.TokenPair{
		AccessToken:      res.AccessToken,
		RefreshToken:     res.RefreshToken,
		AccessExpiresAt:  res.AccessExpiresAt,
		RefreshExpiresAt: res.RefreshExpiresAt,
	}, nil
}

// Logout closes the caller's session identified by the refresh token.
func (s *AuthServer) Logout(ctx context.Context, req *authv1.LogoutRequest) (*authv1.MessageResponse, error) {
	if s.authSvc == nil {
		return nil, status.Error(codes.Unimplemented, "method Logout not implemented")
	}
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if req.GetRefreshToken() == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh_token is required")
	}
	if err := s.authSvc.Logout(ctx, userID, req.GetRefreshToken()); err != nil {
		return nil, s.toStatus(ctx, "Logout", err)
	}
	return &authv1.MessageResponse{Message: "Logged out successfully"}, nil
}

// GetProfile returns the caller's profile.
func (s *AuthServer) GetProfile(ctx context.Context, _ *authv1.GetProfileRequest) (*authv1.User, error) {
	if s.authSvc == nil {
		return nil, status.Error(codes.Unimplemented, "method GetProfile not implemented")
	}
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.authSvc.GetProfile(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, "GetProfile", err)
	}
	return userToProto(u), nil
}

// UpdateProfile changes the caller's display name when set.
func (s *AuthServer) UpdateProfile(ctx context.Context, req *authv1.UpdateProfileRequest) (*authv1.User, error) {
	if s.authSvc == nil {
		return nil, status.Error(codes.Unimplemented, "method UpdateProfile not implemented")
	}
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	name := req.GetName()
	if name != nil {
		if err := validateName(*name); err != nil {
			return nil, err
		}
	}
	u, err := s.authSvc.UpdateProfile(ctx, userID, name)
	if err != nil {
		return nil, s.toStatus(ctx, "UpdateProfile", err)
	}
	return userToProto(u), nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *AuthServer) ChangePassword(ctx context.Context, req *authv1.ChangePasswordRequest) (*authv1.MessageResponse, error) {
	if s.authSvc == nil {
		return nil, status.Error(codes.Unimplemented, "method ChangePassword not implemented")
	}
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if len(req.GetCurrentPassword()) < minPasswordLen {
		return nil, status.Error(codes.InvalidArgument, "current_password must be at least 6 characters long")
	}
	if err := validateNewPassword("new_password", req.GetNewPassword()); err != nil {
		return nil, err
	}
	if err := s.authSvc.ChangePassword(ctx, userID, req.GetCurrentPassword(), req.GetNewPassword()); err != nil {
		return nil, s.toStatus(ctx, "ChangePassword", err)
	}
	return &authv1.MessageResponse{Message: "Password changed successfully"}, nil
}

// RevokeUserSessions deletes every session of the target user. Admin only.
func (s *AuthServer) RevokeUserSessions(ctx context.Context, req *authv1.RevokeUserSessionsRequest) (*authv1.RevokeUserSessionsResponse, error) {
	if s.authSvc == nil || s.users == nil {
		return nil, status.Error(codes.Unimplemented, "method RevokeUserSessions not implemented")
	}
	if _, err := rbac.RequireAdmin(ctx, s.users); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.GetUserId()) == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}
	n, err := s.authSvc.RevokeUserSessions(ctx, req.GetUserId())
	if err != nil {
		return nil, s.toStatus(ctx, "RevokeUserSessions", err)
	}
	return &authv1.RevokeUserSessionsResponse{Revoked: n}, nil
}

// DeleteUser soft-deletes the target user and revokes its sessions. Admin only; admins cannot delete themselves.
func (s *AuthServer) DeleteUser(ctx context.Context, req *authv1.DeleteUserRequest) (*authv1.MessageResponse, error) {
	if s.authSvc == nil || s.users == nil {
		return nil, status.Error(codes.Unimplemented, "method DeleteUser not implemented")
	}
	callerID, err := rbac.RequireAdmin(ctx, s.users)
	if err != nil {
		return nil, err
	}
	userID := strings.TrimSpace(req.GetUserId())
	if userID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}
	if userID == callerID {
		return nil, status.Error(codes.FailedPrecondition, "cannot delete your own account")
	}
	if err := s.authSvc.DeleteUser(ctx, userID); err != nil {
		return nil, s.adminStatus(ctx, "DeleteUser", err)
	}
	return &authv1.MessageResponse{Message: "User deleted successfully"}, nil
}

// RestoreUser clears the target user's soft-delete marker. Admin only.
func (s *AuthServer) RestoreUser(ctx context.Context, req *authv1.RestoreUserRequest) (*authv1.User, error) {
	if s.authSvc == nil || s.users == nil {
		return nil, status.Error(codes.Unimplemented, "method RestoreUser not implemented")
	}
	if _, err := rbac.RequireAdmin(ctx, s.users); err != nil {
		return nil, err
	}
	userID := strings.TrimSpace(req.GetUserId())
	if userID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}
	u, err := s.authSvc.RestoreUser(ctx, userID)
	if err != nil {
		return nil, s.adminStatus(ctx, "RestoreUser", err)
	}
	return userToProto(u), nil
}

// ListUserAuditLogs returns a page of the target user's audit events, newest first. Admin only.
func (s *AuthServer) ListUserAuditLogs(ctx context.Context, req *authv1.ListUserAuditLogsRequest) (*authv1.ListUserAuditLogsResponse, error) {
	if s.authSvc == nil || s.users == nil {
		return nil, status.Error(codes.Unimplemented, "method ListUserAuditLogs not implemented")
	}
	if _, err := rbac.RequireAdmin(ctx, s.users); err != nil {
		return nil, err
	}
	userID := strings.TrimSpace(req.GetUserId())
	if userID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}
	limit := req.GetLimit()
	switch {
	case limit < 0:
		return nil, status.Error(codes.InvalidArgument, "limit must not be negative")
	case limit == 0:
		limit = defaultAuditPageSize
	case limit > maxAuditPageSize:
		limit = maxAuditPageSize
	}
	if req.GetOffset() < 0 {
		return nil, status.Error(codes.InvalidArgument, "offset must not be negative")
	}
	logs, err := s.authSvc.ListUserAuditLogs(ctx, userID, limit, req.GetOffset())
	if err != nil {
		return nil, s.adminStatus(ctx, "ListUserAuditLogs", err)
	}
	out := make([]*authv1.AuditLog, 0, len(logs))
	for _, l := range logs {
		out = append(out, auditLogToProto(l))
	}
	return &authv1.ListUserAuditLogsResponse{Logs: out}, nil
}

// adminStatus maps errors from admin operations. The target user is not the caller, so a missing
// target is NotFound rather than the Unauthenticated used for the caller's own account.
func (s *AuthServer) adminStatus(ctx context.Context, method string, err error) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return status.Error(codes.NotFound, "user not found")
	case errors.Is(err, service.ErrUserNotDeleted):
		return status.Error(codes.FailedPrecondition, "user is not deleted")
	default:
		return s.toStatus(ctx, method, err)
	}
}

// toStatus maps service errors to gRPC codes. Every authentication failure surfaces as the same
// Unauthenticated "unauthorized" status; infrastructure failures are logged and returned as Internal.
func (s *AuthServer) toStatus(ctx context.Context, method string, err error) error {
	switch {
	case errors.Is(err, service.ErrDuplicateEmail):
		return status.Error(codes.AlreadyExists, "email already registered")
	case errors.Is(err, service.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case service.IsUnauthorized(err), errors.Is(err, service.ErrUserNotFound):
		return status.Error(codes.Unauthenticated, "unauthorized")
	default:
		s.log.ErrorContext(ctx, "auth.rpc.fail", "method", method, "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func validateName(name string) error {
	if len([]rune(strings.TrimSpace(name))) < minNameLen {
		return status.Error(codes.InvalidArgument, "name must be at least 3 characters long")
	}
	return nil
}

func validateEmail(email string) error {
	if !emailRegex.MatchString(strings.TrimSpace(email)) {
		return status.Error(codes.InvalidArgument, "email is not valid")
	}
	return nil
}

func validateNewPassword(field, password string) error {
	if len(password) < minPasswordLen {
		return status.Errorf(codes.InvalidArgument, "%s must be at least 6 characters long", field)
	}
	if len(password) > maxPasswordBytes {
		return status.Errorf(codes.InvalidArgument, "%s must be at most 72 bytes", field)
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return status.Errorf(codes.InvalidArgument, "%s must include uppercase, lowercase, and a number", field)
	}
	return nil
}

func authResponse(res *service.AuthResult) *authv1.AuthResponse {
	return &authv1.AuthResponse{
		User:             userToProto(res.User),
		AccessToken:      res.AccessToken,
		RefreshToken:     res.RefreshToken,
		AccessExpiresAt:  res.AccessExpiresAt,
		RefreshExpiresAt: res.RefreshExpiresAt,
	}
}

func userToProto(u *userdomain.User) *authv1.User {
	if u == nil {
		return nil
	}
	return &authv1.User{
		Id:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func auditLogToProto(l *auditdomain.AuditLog) *authv1.AuditLog {
	return &authv1.AuditLog{
		Id:        l.ID,
		UserId:    l.UserID,
		Action:    l.Action,
		Resource:  l.Resource,
		Ip:        l.IP,
		Metadata:  l.Metadata,
		CreatedAt: l.CreatedAt,
	}
}
