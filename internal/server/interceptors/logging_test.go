package interceptors

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"session-auth/backend/internal/logging"
)

func TestLoggingUnary_WritesAccessLine(t *testing.T) {
	var buf bytes.Buffer
	interceptor := LoggingUnary(logging.NewWithWriter(&buf, "debug"), nil)
	ctx := WithIdentity(context.Background(), "user-1", "a@example.com", "USER")
	req := struct{ Password string }{"Secret123"}
	_, _ = interceptor(ctx, req, &grpc.UnaryServerInfo{FullMethod: testProtectedMethod},
		func(ctx context.Context, req interface{}) (interface{}, error) { return nil, nil })

	out := buf.String()
	for _, want := range []string{`"msg":"grpc.request"`, `"method":"/auth.v1.AuthService/GetProfile"`, `"code":"OK"`, `"user_id":"user-1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}
	if strings.Contains(out, "Secret123") {
		t.Error("request body leaked into the access log")
	}
}

func TestLoggingUnary_ErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	interceptor := LoggingUnary(logging.NewWithWriter(&buf, "info"), nil)
	_, _ = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: testPublicMethod},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			return nil, status.Error(codes.Internal, "internal error")
		})
	if !strings.Contains(buf.String(), `"level":"ERROR"`) {
		t.Errorf("internal failure should log at ERROR: %s", buf.String())
	}
}

func TestLoggingUnary_SkipMethod(t *testing.T) {
	var buf bytes.Buffer
	skip := map[string]bool{"/grpc.health.v1.Health/Check": true}
	interceptor := LoggingUnary(logging.NewWithWriter(&buf, "debug"), skip)
	_, _ = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"},
		func(ctx context.Context, req interface{}) (interface{}, error) { return nil, nil })
	if buf.Len() != 0 {
		t.Errorf("skipped method was logged: %s", buf.String())
	}
}
