package server

import (
	"log/slog"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	authv1 "session-auth/backend/api/auth/v1"
	identityhandler "session-auth/backend/internal/identity/handler"
	identityservice "session-auth/backend/internal/identity/service"
	"session-auth/backend/internal/platform/rbac"
	"session-auth/backend/internal/policy/engine"
	"session-auth/backend/internal/security"
	"session-auth/backend/internal/server/interceptors"
)

// Deps holds the dependencies for the gRPC server.
type Deps struct {
	// Auth is the auth service. If nil, AuthService RPCs return Unimplemented.
	Auth *identityservice.AuthService
	// Users resolves the caller's stored role for admin-only RPCs.
	Users rbac.UserGetter
	// Tokens validates bearer access tokens. Required by NewServer.
	Tokens *security.TokenProvider
	// Policy authorizes each RPC. If nil, the authorization interceptor is not installed.
	Policy engine.Evaluator
	// Meter records RPC metrics. If nil, a no-op meter is used.
	Meter metric.Meter
	// Logger writes the access log and handler failures. If nil, slog.Default is used.
	Logger *slog.Logger
	// Health is the grpc.health.v1 server. If nil, a new one is created and left SERVING.
	Health *grpchealth.Server
}

var healthMethods = map[string]bool{
	"/grpc.health.v1.Health/Check": true,
	"/grpc.health.v1.Health/List":  true,
	"/grpc.health.v1.Health/Watch": true,
}

// PublicMethods returns the full method names callable without a bearer token.
func PublicMethods() map[string]bool {
	m := map[string]bool{
		authv1.AuthService_Register_FullMethodName: true,
		authv1.AuthService_Login_FullMethodName:    true,
		authv1.AuthService_Refresh_FullMethodName:  true,
	}
	for k := range healthMethods {
		m[k] = true
	}
	return m
}

// NewServer builds the gRPC server: OTel stats handler, then the unary chain
// logging → telemetry → auth → authorize, with all services registered.
func NewServer(deps Deps, opts ...grpc.ServerOption) (*grpc.Server, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Meter == nil {
		deps.Meter = noop.NewMeterProvider().Meter("session-auth")
	}
	telemetry, err := interceptors.TelemetryUnary(deps.Meter, healthMethods)
	if err != nil {
		return nil, err
	}
	chain := []grpc.UnaryServerInterceptor{
		interceptors.LoggingUnary(deps.Logger, healthMethods),
		telemetry,
		interceptors.AuthUnary(deps.Tokens, PublicMethods()),
	}
	if deps.Policy != nil {
		chain = append(chain, interceptors.AuthorizeUnary(deps.Policy, deps.Logger))
	}
	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(chain...),
	}, opts...)
	s := grpc.NewServer(opts...)
	RegisterServices(s, deps)
	return s, nil
}

// RegisterServices registers AuthService and the standard health service with s.
//
//   - auth.v1.AuthService   → internal/identity/handler
//   - grpc.health.v1.Health → google.golang.org/grpc/health (status driven by internal/health)
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	authv1.RegisterAuthServiceServer(s, identityhandler.NewAuthServer(deps.Auth, deps.Users, deps.Logger))
	hs := deps.Health
	if hs == nil {
		hs = grpchealth.NewServer()
	}
	healthpb.RegisterHealthServer(s, hs)
}
