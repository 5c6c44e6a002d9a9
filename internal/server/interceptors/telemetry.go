package interceptors

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const meterName = "github.com/Lorenzzoczn/Aumigo/internal/server"

// Metrics holds the RPC instruments. A nil *Metrics records nothing.
type Metrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	denials  metric.Int64Counter
}

// NewMetrics creates the RPC counter, duration histogram and authorization-denial counter on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	requests, err := m.Int64Counter("aumigo.rpc.requests",
		metric.WithDescription("Completed unary RPCs by method and status code."))
	if err != nil {
		return nil, err
	}
	duration, err := m.Float64Histogram("aumigo.rpc.duration",
		metric.WithDescription("Unary RPC handling time."),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	denials, err := m.Int64Counter("aumigo.authz.denials",
		metric.WithDescription("RPCs rejected by authorization by method and status code."))
	if err != nil {
		return nil, err
	}
	return &Metrics{requests: requests, duration: duration, denials: denials}, nil
}

// RecordDenial counts one rejected call.
func (m *Metrics) RecordDenial(ctx context.Context, fullMethod string, code codes.Code) {
	if m == nil {
		return
	}
	m.denials.Add(ctx, 1, metric.WithAttributes(
		attribute.String("rpc.method", fullMethod),
		attribute.String("rpc.grpc.status_code", code.String()),
	))
}

// TelemetryUnary returns a unary server interceptor that records request count and duration per
// method and status code. skipMethods is the set of full method names not to record (e.g. health checks).
func TelemetryUnary(m *Metrics, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if m == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		attrs := metric.WithAttributes(
			attribute.String("rpc.method", info.FullMethod),
			attribute.String("rpc.grpc.status_code", status.Code(err).String()),
		)
		m.requests.Add(ctx, 1, attrs)
		m.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
		return resp, err
	}
}
