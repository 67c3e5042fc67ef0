package domain

import "time"

// AuditLog represents an audit event. UserID is empty when the actor is unknown (e.g. login_failure).
type AuditLog struct {
	ID        string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}

// Actions recorded by the auth service.
const (
	ActionRegister        = "register"
	ActionLoginSuccess    = "login_success"
	ActionLoginFailure    = "login_failure"
	ActionRefresh         = "refresh"
	ActionRefreshFailure  = "refresh_failure"
	ActionLogout          = "logout"
	ActionLogoutFailure   = "logout_failure"
	ActionPasswordChange  = "password_change"
	ActionSessionsRevoked = "sessions_revoked"
	ActionProfileUpdate   = "profile_update"
	ActionUserDeleted     = "user_deleted"
	ActionUserRestored    = "user_restored"
)

// Resources recorded by the auth service.
const (
	ResourceAuthentication = "authentication"
	ResourceSession        = "session"
	ResourceUser           = "user"
)
