package middleware

import (
	"context"

	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

type contextKey string

const (
	ctxActor     contextKey = "actor"
	ctxRequestID contextKey = "request_id"
)

// ActorFromContext returns the resolved caller, or the anonymous actor when
// the request carried no credentials.
func ActorFromContext(ctx context.Context) visibility.Actor {
	if ctx == nil {
		return visibility.Anonymous()
	}
	if v, ok := ctx.Value(ctxActor).(visibility.Actor); ok {
		return v
	}
	return visibility.Anonymous()
}

// UserIDFromContext returns the caller id as a string, empty for anonymous callers.
func UserIDFromContext(ctx context.Context) string {
	actor := ActorFromContext(ctx)
	if !actor.IsAuthenticated() {
		return ""
	}
	return actor.ID.String()
}

// WithActor injects the resolved caller into the context.
func WithActor(ctx context.Context, actor visibility.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}
