// Package authv1 defines the auth.v1.AuthService wire contract: request and response messages,
// the JSON codec they travel with, the service descriptor and a typed client.
package authv1

import "time"

// User is the public view of an account. The password hash never leaves the server.
type User struct {
	Id        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by Register and Login.
type AuthResponse struct {
	User             *User     `json:"user"`
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenPair is returned by Refresh.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// LogoutRequest carries the refresh token of the session to close. The user comes from the access token.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type GetProfileRequest struct{}

// UpdateProfileRequest changes only the fields that are set.
type UpdateProfileRequest struct {
	Name *string `json:"name,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type RevokeUserSessionsRequest struct {
	UserId string `json:"user_id"`
}

type RevokeUserSessionsResponse struct {
	Revoked int64 `json:"revoked"`
}

// DeleteUserRequest soft-deletes a user and revokes its sessions. Admin only.
type DeleteUserRequest struct {
	UserId string `json:"user_id"`
}

type RestoreUserRequest struct {
	UserId string `json:"user_id"`
}

// ListUserAuditLogsRequest pages through a user's audit events, newest first. Admin only.
// Limit defaults to 50 and is capped at 100.
type ListUserAuditLogsRequest struct {
	UserId string `json:"user_id"`
	Limit  int32  `json:"limit,omitempty"`
	Offset int32  `json:"offset,omitempty"`
}

// AuditLog is one recorded auth event. UserId is empty when the actor was unknown.
type AuditLog struct {
	Id        string    `json:"id"`
	UserId    string    `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	Ip        string    `json:"ip"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ListUserAuditLogsResponse struct {
	Logs []*AuditLog `json:"logs"`
}
