// Package reqid stamps one correlation id per transact call and
// carries it on a request's context, so the same id shows up in the
// traced span, the websocket event, and the RPC reply for a single
// call (spec EXPANSION B.11).
package reqid

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// New mints a fresh correlation id.
func New() string {
	return uuid.New().String()
}

// WithID attaches id to ctx.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext recovers the id WithID attached, if any.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok
}
