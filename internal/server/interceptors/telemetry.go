package interceptors

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"session-auth/backend/internal/audit"
)

const (
	requestCounterName    = "auth.rpc.requests"
	durationHistogramName = "auth.rpc.duration"
)

// TelemetryUnary returns a unary server interceptor that counts RPCs and records their latency
// with the given OTel meter. skipMethods is the set of full method names not to record (e.g. health checks).
func TelemetryUnary(meter metric.Meter, skipMethods map[string]bool) (grpc.UnaryServerInterceptor, error) {
	requests, err := meter.Int64Counter(requestCounterName,
		metric.WithDescription("Auth RPCs handled, by action and status code."))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(durationHistogramName,
		metric.WithDescription("Auth RPC latency."),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if skipMethods[info.FullMethod] {
			return resp, err
		}
		ar := audit.ParseFullMethod(info.FullMethod)
		attrs := metric.WithAttributes(
			attribute.String("rpc.method", info.FullMethod),
			attribute.String("auth.action", ar.Action),
			attribute.String("auth.resource", ar.Resource),
			attribute.String("rpc.grpc.status_code", status.Code(err).String()),
		)
		requests.Add(ctx, 1, attrs)
		duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
		return resp, err
	}, nil
}
