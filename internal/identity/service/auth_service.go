package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"session-auth/backend/internal/audit"
	auditdomain "session-auth/backend/internal/audit/domain"
	"session-auth/backend/internal/security"
	sessiondomain "session-auth/backend/internal/session/domain"
	userdomain "session-auth/backend/internal/user/domain"
	userrepo "session-auth/backend/internal/user/repository"
)

// AuthResult holds the outcome of Register, Login or Refresh.
type AuthResult struct {
	User             *userdomain.User
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	UpdateName(ctx context.Context, id, name string, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string, at time.Time) error
	SetDeletedAt(ctx context.Context, id string, deletedAt *time.Time, at time.Time) (bool, error)
}

// AuditReader lists recorded audit events for admin queries.
type AuditReader interface {
	ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*auditdomain.AuditLog, error)
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	Create(ctx context.Context, s *sessiondomain.Session) error
	ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]*sessiondomain.Session, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	DeleteAllByUser(ctx context.Context, userID string) (int64, error)
}

// AuthService implements register, login, refresh rotation, logout and password change.
// It holds no mutable state; all session state lives in SessionRepo.
type AuthService struct {
	userRepo         UserRepo
	sessionRepo      SessionRepo
	hasher           *security.Hasher
	tokens           *security.TokenProvider
	audit            audit.AuditLogger
	auditReader      AuditReader
	revokeOnPwChange bool
	now              func() time.Time
}

// Option configures an AuthService.
type Option func(*AuthService)

// WithAuditLogger records every auth outcome with l.
func WithAuditLogger(l audit.AuditLogger) Option {
	return func(s *AuthService) {
		if l != nil {
			s.audit = l
		}
	}
}

// WithAuditReader enables ListUserAuditLogs. Without it the method returns no entries.
func WithAuditReader(r AuditReader) Option {
	return func(s *AuthService) { s.auditReader = r }
}

// WithRevokeOnPasswordChange controls whether ChangePassword deletes every session of the user. Default true.
func WithRevokeOnPasswordChange(revoke bool) Option {
	return func(s *AuthService) { s.revokeOnPwChange = revoke }
}

// WithClock overrides the time source for session timestamps and the active-session filter.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(userRepo UserRepo, sessionRepo SessionRepo, hasher *security.Hasher, tokens *security.TokenProvider, opts ...Option) *AuthService {
	s := &AuthService{
		userRepo:         userRepo,
		sessionRepo:      sessionRepo,
		hasher:           hasher,
		tokens:           tokens,
		audit:            nopAudit{},
		revokeOnPwChange: true,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user with a hashed password, opens a session and returns the user with a token pair.
// The email is normalized before the duplicate check and before storage.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	email = userdomain.NormalizeEmail(email)
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, storeErr(err)
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, inputErr(err)
	}
	now := s.now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hashed,
		Role:         userdomain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, inputErr(err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrEmailTaken) {
			return nil, ErrDuplicateEmail
		}
		return nil, storeErr(err)
	}
	res, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, user.ID, auditdomain.ActionRegister, auditdomain.ResourceUser, "")
	return res, nil
}

// Login authenticates with email and password and opens a new session.
// Unknown email, soft-deleted user and wrong password all cost one bcrypt comparison and
// return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = userdomain.NormalizeEmail(email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, storeErr(err)
	}
	if user == nil {
		s.hasher.DummyCompare([]byte(password))
		s.audit.LogEvent(ctx, "", auditdomain.ActionLoginFailure, auditdomain.ResourceAuthentication, "")
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify([]byte(password), user.PasswordHash) || user.IsDeleted() {
		s.audit.LogEvent(ctx, user.ID, auditdomain.ActionLoginFailure, auditdomain.ResourceAuthentication, "")
		return nil, ErrInvalidCredentials
	}
	res, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, user.ID, auditdomain.ActionLoginSuccess, auditdomain.ResourceAuthentication, "")
	return res, nil
}

// Refresh consumes the session matching the refresh token and returns a new pair backed by a new session.
// A token that is expired, forged, already rotated or lost a concurrent race fails with ErrInvalidRefreshToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		s.audit.LogEvent(ctx, "", auditdomain.ActionRefreshFailure, auditdomain.ResourceSession, "")
		return nil, ErrInvalidRefreshToken
	}
	user, err := s.userRepo.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, storeErr(err)
	}
	if user == nil || user.IsDeleted() {
		s.audit.LogEvent(ctx, claims.Subject, auditdomain.ActionRefreshFailure, auditdomain.ResourceSession, "")
		return nil, ErrInvalidRefreshToken
	}
	if err := s.consumeSession(ctx, user.ID, refreshToken, ErrInvalidRefreshToken); err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			s.audit.LogEvent(ctx, user.ID, auditdomain.ActionRefreshFailure, auditdomain.ResourceSession, "")
		}
		return nil, err
	}
	res, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, user.ID, auditdomain.ActionRefresh, auditdomain.ResourceSession, "")
	return res, nil
}

// Logout deletes the caller's session matching refreshToken. The scan is restricted to userID, so a
// token belonging to another user fails with ErrInvalidSession.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil || claims.Subject != userID {
		s.audit.LogEvent(ctx, userID, auditdomain.ActionLogoutFailure, auditdomain.ResourceSession, "")
		return ErrInvalidSession
	}
	if err := s.consumeSession(ctx, userID, refreshToken, ErrInvalidSession); err != nil {
		if errors.Is(err, ErrInvalidSession) {
			s.audit.LogEvent(ctx, userID, auditdomain.ActionLogoutFailure, auditdomain.ResourceSession, "")
		}
		return err
	}
	s.audit.LogEvent(ctx, userID, auditdomain.ActionLogout, auditdomain.ResourceSession, "")
	return nil
}

// ChangePassword verifies currentPassword and stores the digest of newPassword. When configured,
// every session of the user is deleted first: if the revoke fails the password is left unchanged,
// and if the hash update fails afterwards the user only has to log in again with the old password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify([]byte(currentPassword), user.PasswordHash) {
		return ErrInvalidCredentials
	}
	hashed, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return inputErr(err)
	}
	meta := `{"sessions_revoked":false}`
	if s.revokeOnPwChange {
		if _, err := s.sessionRepo.DeleteAllByUser(ctx, user.ID); err != nil {
			return storeErr(err)
		}
		meta = `{"sessions_revoked":true}`
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, user.ID, hashed, s.now().UTC()); err != nil {
		return storeErr(err)
	}
	s.audit.LogEvent(ctx, user.ID, auditdomain.ActionPasswordChange, auditdomain.ResourceUser, meta)
	return nil
}

// GetProfile returns the user, or ErrUserNotFound when missing or soft-deleted.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*userdomain.User, error) {
	return s.activeUser(ctx, userID)
}

// UpdateProfile sets the display name when name is non-nil and returns the updated user.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, name *string) (*userdomain.User, error) {
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if name == nil {
		return user, nil
	}
	updated := *user
	updated.Name = strings.TrimSpace(*name)
	updated.UpdatedAt = s.now().UTC()
	if err := s.userRepo.UpdateName(ctx, user.ID, updated.Name, updated.UpdatedAt); err != nil {
		return nil, storeErr(err)
	}
	s.audit.LogEvent(ctx, user.ID, auditdomain.ActionProfileUpdate, auditdomain.ResourceUser, "")
	return &updated, nil
}

// RevokeUserSessions deletes every session of userID and returns how many were removed.
func (s *AuthService) RevokeUserSessions(ctx context.Context, userID string) (int64, error) {
	n, err := s.sessionRepo.DeleteAllByUser(ctx, userID)
	if err != nil {
		return 0, storeErr(err)
	}
	s.audit.LogEvent(ctx, userID, auditdomain.ActionSessionsRevoked, auditdomain.ResourceSession, "")
	return n, nil
}

// DeleteUser soft-deletes userID and revokes all of its sessions. Sessions go first so a failure
// never leaves a deleted user with live refresh tokens. A missing or already deleted user is ErrUserNotFound.
func (s *AuthService) DeleteUser(ctx context.Context, userID string) error {
	if _, err := s.activeUser(ctx, userID); err != nil {
		return err
	}
	n, err := s.sessionRepo.DeleteAllByUser(ctx, userID)
	if err != nil {
		return storeErr(err)
	}
	now := s.now().UTC()
	found, err := s.userRepo.SetDeletedAt(ctx, userID, &now, now)
	if err != nil {
		return storeErr(err)
	}
	if !found {
		return ErrUserNotFound
	}
	s.audit.LogEvent(ctx, userID, auditdomain.ActionUserDeleted, auditdomain.ResourceUser,
		fmt.Sprintf(`{"sessions_revoked":%d}`, n))
	return nil
}

// RestoreUser clears the soft delete of userID and returns the restored user. The user must log in again.
func (s *AuthService) RestoreUser(ctx context.Context, userID string) (*userdomain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.IsDeleted() {
		return nil, ErrUserNotDeleted
	}
	now := s.now().UTC()
	found, err := s.userRepo.SetDeletedAt(ctx, userID, nil, now)
	if err != nil {
		return nil, storeErr(err)
	}
	if !found {
		return nil, ErrUserNotFound
	}
	restored := *user
	restored.DeletedAt = nil
	restored.UpdatedAt = now
	s.audit.LogEvent(ctx, userID, auditdomain.ActionUserRestored, auditdomain.ResourceUser, "")
	return &restored, nil
}

// ListUserAuditLogs returns the audit events of userID, newest first.
func (s *AuthService) ListUserAuditLogs(ctx context.Context, userID string, limit, offset int32) ([]*auditdomain.AuditLog, error) {
	if s.auditReader == nil {
		return nil, nil
	}
	logs, err := s.auditReader.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, storeErr(err)
	}
	return logs, nil
}

func (s *AuthService) activeUser(ctx context.Context, userID string) (*userdomain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	if user == nil || user.IsDeleted() {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// openSession issues a token pair for user and persists the refresh token's digest as a new session.
func (s *AuthService) openSession(ctx context.Context, user *userdomain.User) (*AuthResult, error) {
	claims := security.Claims{Subject: user.ID, Email: user.Email, Role: string(user.Role)}
	accessToken, accessExp, err := s.tokens.IssueAccess(claims)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExp, err := s.tokens.IssueRefresh(claims)
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.HashToken(refreshToken)
	if err != nil {
		return nil, err
	}
	sess := &sessiondomain.Session{
		UserID:           user.ID,
		RefreshTokenHash: hash,
		ExpiresAt:        refreshExp,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, storeErr(err)
	}
	return &AuthResult{
		User:             user,
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// consumeSession finds the active session of userID whose digest matches refreshToken and deletes it.
// Only the caller whose delete removes the row succeeds; everyone else gets notFound.
func (s *AuthService) consumeSession(ctx context.Context, userID, refreshToken string, notFound error) error {
	sessions, err := s.sessionRepo.ListActiveByUser(ctx, userID, s.now().UTC())
	if err != nil {
		return storeErr(err)
	}
	for _, sess := range sessions {
		if !s.hasher.VerifyToken(refreshToken, sess.RefreshTokenHash) {
			continue
		}
		deleted, err := s.sessionRepo.DeleteByID(ctx, sess.ID)
		if err != nil {
			return storeErr(err)
		}
		if !deleted {
			return notFound
		}
		return nil
	}
	return notFound
}

type nopAudit struct{}

func (nopAudit) LogEvent(context.Context, string, string, string, string) {}
