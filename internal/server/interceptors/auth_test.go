package interceptors

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"session-auth/backend/internal/security"
)

const (
	testPublicMethod    = "/auth.v1.AuthService/Login"
	testProtectedMethod = "/auth.v1.AuthService/GetProfile"
)

func newTokens(t *testing.T) *security.TokenProvider {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	return tokens
}

func bearerCtx(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
}

func TestAuthUnary_PublicMethod(t *testing.T) {
	interceptor := AuthUnary(newTokens(t), map[string]bool{testPublicMethod: true})
	called := false
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		called = true
		if _, ok := GetUserID(ctx); ok {
			t.Error("anonymous public call should not carry an identity")
		}
		return "ok", nil
	}
	resp, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: testPublicMethod}, handler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called || resp != "ok" {
		t.Errorf("handler called = %v, resp = %v", called, resp)
	}
}

func TestAuthUnary_ProtectedMethod_NoToken(t *testing.T) {
	interceptor := AuthUnary(newTokens(t), map[string]bool{testPublicMethod: true})
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler must not be called")
		return nil, nil
	}
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: testProtectedMethod}, handler)
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("code = %v, want Unauthenticated", status.Code(err))
	}
}

func TestAuthUnary_ProtectedMethod_ValidToken(t *testing.T) {
	tokens := newTokens(t)
	access, _, err := tokens.IssueAccess(security.Claims{Subject: "user-1", Email: "a@example.com", Role: "ADMIN"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	interceptor := AuthUnary(tokens, nil)
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		if v, _ := GetUserID(ctx); v != "user-1" {
			t.Errorf("user_id = %q, want user-1", v)
		}
		if v, _ := GetEmail(ctx); v != "a@example.com" {
			t.Errorf("email = %q", v)
		}
		if v, _ := GetRole(ctx); v != "ADMIN" {
			t.Errorf("role = %q", v)
		}
		return "ok", nil
	}
	if _, err := interceptor(bearerCtx(access), nil, &grpc.UnaryServerInfo{FullMethod: testProtectedMethod}, handler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuthUnary_RefreshTokenRejected(t *testing.T) {
	tokens := newTokens(t)
	refresh, _, err := tokens.IssueRefresh(security.Claims{Subject: "user-1", Email: "a@example.com", Role: "USER"})
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	interceptor := AuthUnary(tokens, nil)
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler must not be called with a refresh token")
		return nil, nil
	}
	_, err = interceptor(bearerCtx(refresh), nil, &grpc.UnaryServerInfo{FullMethod: testProtectedMethod}, handler)
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("code = %v, want Unauthenticated", status.Code(err))
	}
}

func TestAuthUnary_InvalidTokenOnPublicMethod(t *testing.T) {
	interceptor := AuthUnary(newTokens(t), map[string]bool{testPublicMethod: true})
	called := false
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		called = true
		return nil, nil
	}
	if _, err := interceptor(bearerCtx("garbage"), nil, &grpc.UnaryServerInfo{FullMethod: testPublicMethod}, handler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("public method should proceed despite an invalid token")
	}
}

func TestAuthUnary_ProtectedMethod_InvalidToken(t *testing.T) {
	interceptor := AuthUnary(newTokens(t), nil)
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler must not be called")
		return nil, nil
	}
	_, err := interceptor(bearerCtx("not.a.jwt"), nil, &grpc.UnaryServerInfo{FullMethod: testProtectedMethod}, handler)
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("code = %v, want Unauthenticated", status.Code(err))
	}
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"valid", "Bearer abc", "abc"},
		{"case insensitive", "bEaReR abc", "abc"},
		{"whitespace", "  Bearer   abc  ", "abc"},
		{"wrong scheme", "Basic abc", ""},
		{"too short", "Bear", ""},
	}
	for _, tt := range tests {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", tt.value))
		if got := extractBearer(ctx); got != tt.want {
			t.Errorf("%s: extractBearer = %q, want %q", tt.name, got, tt.want)
		}
	}
	if got := extractBearer(context.Background()); got != "" {
		t.Errorf("missing metadata: extractBearer = %q, want empty", got)
	}
}

func TestAuthUnary_ValidTokenOnPublicMethod(t *testing.T) {
	tokens := newTokens(t)
	access, _, err := tokens.IssueAccess(security.Claims{Subject: "user-2", Email: "b@example.com", Role: "USER"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	interceptor := AuthUnary(tokens, map[string]bool{testPublicMethod: true})
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		if v, _ := GetUserID(ctx); v != "user-2" {
			t.Errorf("user_id = %q, want user-2", v)
		}
		return nil, nil
	}
	if _, err := interceptor(bearerCtx(access), nil, &grpc.UnaryServerInfo{FullMethod: testPublicMethod}, handler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
