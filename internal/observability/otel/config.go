// Package otel traces pipetriage commands and MCP tool calls over OTLP.
// Tracing is off unless --otel is given; every helper is a no-op without a
// Handle in the context.
package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"
)

// ServiceName is the resource service name and the tracer name
const ServiceName = "pipetriage"

const (
	ProtocolHTTP = "otlphttp"
	ProtocolGRPC = "otlpgrpc"
)

type Config struct {
	Enabled     bool
	Endpoint    string // host:port, scheme optional
	Protocol    string
	Insecure    bool
	ServiceName string
	SampleRatio float64 // 1 samples every triage run
}

func DefaultConfig() Config {
	return Config{
		Protocol:    ProtocolHTTP,
		ServiceName: ServiceName,
		SampleRatio: 1.0,
	}
}

// Validate is a no-op for disabled configs
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Protocol != ProtocolHTTP && c.Protocol != ProtocolGRPC {
		return fmt.Errorf("otel: unknown protocol %q (use %s or %s)", c.Protocol, ProtocolHTTP, ProtocolGRPC)
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return fmt.Errorf("otel: sample-ratio %g outside [0, 1]", c.SampleRatio)
	}
	if c.ServiceName == "" {
		return fmt.Errorf("otel: empty service name")
	}
	return nil
}

// Handle is what commands see of the tracer provider
type Handle struct {
	Tracer   trace.Tracer
	Shutdown func(context.Context) error
}

type handleKey struct{}

func WithHandle(ctx context.Context, h *Handle) context.Context {
	return context.WithValue(ctx, handleKey{}, h)
}

// From returns nil when tracing is off
func From(ctx context.Context) *Handle {
	h, _ := ctx.Value(handleKey{}).(*Handle)
	return h
}
