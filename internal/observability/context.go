// Package observability carries the per-invocation operation id shared by
// logs, spans and receipts.
package observability

import (
	"context"

	"github.com/google/uuid"
)

type opIDKey struct{}

// WithOpID generates a new operation ID and stores it in the context.
// Each CLI invocation or MCP tool call gets exactly one.
func WithOpID(ctx context.Context) context.Context {
	return context.WithValue(ctx, opIDKey{}, uuid.NewString())
}

// OpID retrieves the operation ID from context
// Returns empty string if no op_id was set
func OpID(ctx context.Context) string {
	if id, ok := ctx.Value(opIDKey{}).(string); ok {
		return id
	}
	return ""
}

// EnsureOpID keeps an existing op id or adds a new one
func EnsureOpID(ctx context.Context) context.Context {
	if OpID(ctx) != "" {
		return ctx
	}
	return WithOpID(ctx)
}
