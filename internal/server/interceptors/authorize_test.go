package interceptors

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"session-auth/backend/internal/logging"
	"session-auth/backend/internal/policy/engine"
)

type stubEvaluator struct {
	allow bool
	err   error
	got   engine.Input
}

func (s *stubEvaluator) Allow(_ context.Context, in engine.Input) (bool, error) {
	s.got = in
	return s.allow, s.err
}

func TestAuthorizeUnary_Allowed(t *testing.T) {
	ev := &stubEvaluator{allow: true}
	interceptor := AuthorizeUnary(ev, logging.Discard())
	ctx := WithIdentity(context.Background(), "user-1", "a@example.com", "ADMIN")
	called := false
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		called = true
		return nil, nil
	}
	if _, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/auth.v1.AuthService/RevokeUserSessions"}, handler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler not called")
	}
	want := engine.Input{Method: "/auth.v1.AuthService/RevokeUserSessions", Subject: "user-1", Role: "ADMIN"}
	if ev.got != want {
		t.Errorf("input = %+v, want %+v", ev.got, want)
	}
}

func TestAuthorizeUnary_Denied(t *testing.T) {
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler must not be called")
		return nil, nil
	}
	info := &grpc.UnaryServerInfo{FullMethod: "/auth.v1.AuthService/RevokeUserSessions"}

	interceptor := AuthorizeUnary(&stubEvaluator{allow: false}, logging.Discard())
	ctx := WithIdentity(context.Background(), "user-1", "a@example.com", "USER")
	if _, err := interceptor(ctx, nil, info, handler); status.Code(err) != codes.PermissionDenied {
		t.Errorf("authenticated deny: code = %v, want PermissionDenied", status.Code(err))
	}
	if _, err := interceptor(context.Background(), nil, info, handler); status.Code(err) != codes.Unauthenticated {
		t.Errorf("anonymous deny: code = %v, want Unauthenticated", status.Code(err))
	}
}

func TestAuthorizeUnary_EvalError(t *testing.T) {
	interceptor := AuthorizeUnary(&stubEvaluator{allow: true, err: errors.New("boom")}, logging.Discard())
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler must not be called")
		return nil, nil
	}
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: testProtectedMethod}, handler)
	if status.Code(err) != codes.PermissionDenied {
		t.Errorf("code = %v, want PermissionDenied", status.Code(err))
	}
}
