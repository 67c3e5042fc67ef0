package engine

import (
	"context"
	"testing"
)

func TestOPAEvaluator_HealthCheck(t *testing.T) {
	ctx := context.Background()
	e, err := NewOPAEvaluator(ctx, "")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	if err := e.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestOPAEvaluator_DefaultPolicy(t *testing.T) {
	ctx := context.Background()
	e, err := NewOPAEvaluator(ctx, "")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}

	tests := []struct {
		name string
		in   Input
		want bool
	}{
		{"public anonymous", Input{Method: "/auth.v1.AuthService/Login"}, true},
		{"health anonymous", Input{Method: "/grpc.health.v1.Health/Check"}, true},
		{"protected anonymous", Input{Method: "/auth.v1.AuthService/Logout"}, false},
		{"protected user", Input{Method: "/auth.v1.AuthService/Logout", Subject: "u1", Role: "USER"}, true},
		{"admin as user", Input{Method: "/auth.v1.AuthService/RevokeUserSessions", Subject: "u1", Role: "USER"}, false},
		{"admin as admin", Input{Method: "/auth.v1.AuthService/RevokeUserSessions", Subject: "u1", Role: "ADMIN"}, true},
		{"admin anonymous", Input{Method: "/auth.v1.AuthService/RevokeUserSessions", Role: "ADMIN"}, false},
		{"delete user as user", Input{Method: "/auth.v1.AuthService/DeleteUser", Subject: "u1", Role: "USER"}, false},
		{"delete user as admin", Input{Method: "/auth.v1.AuthService/DeleteUser", Subject: "u1", Role: "ADMIN"}, true},
		{"restore user as user", Input{Method: "/auth.v1.AuthService/RestoreUser", Subject: "u1", Role: "USER"}, false},
		{"audit logs as user", Input{Method: "/auth.v1.AuthService/ListUserAuditLogs", Subject: "u1", Role: "USER"}, false},
		{"audit logs as admin", Input{Method: "/auth.v1.AuthService/ListUserAuditLogs", Subject: "u1", Role: "ADMIN"}, true},
	}
	for _, tt := range tests {
		got, err := e.Allow(ctx, tt.in)
		if err != nil {
			t.Fatalf("%s: Allow: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: Allow = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestOPAEvaluator_CustomPolicy(t *testing.T) {
	ctx := context.Background()
	module := `package session_auth.authz

default allow := false

allow if input.role == "ADMIN"
`
	e, err := NewOPAEvaluator(ctx, module)
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	if ok, _ := e.Allow(ctx, Input{Method: "/auth.v1.AuthService/Login"}); ok {
		t.Error("custom policy should deny non-admins")
	}
	if ok, _ := e.Allow(ctx, Input{Method: "/auth.v1.AuthService/Login", Role: "ADMIN"}); !ok {
		t.Error("custom policy should allow admins")
	}
}

func TestOPAEvaluator_InvalidPolicy(t *testing.T) {
	if _, err := NewOPAEvaluator(context.Background(), "package broken\n\nallow if {"); err == nil {
		t.Fatal("want compile error for malformed policy")
	}
}
