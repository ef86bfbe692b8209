package auth

import (
	"context"
	"errors"
)

// contextKey is an unexported type to prevent key collisions in context.
type contextKey string

const actorKey contextKey = "actor"

// DefaultActor is recorded in audit columns when no user is authenticated.
const DefaultActor = "system"

// ErrActorNotFound is returned when no authenticated user is in the context.
// Handlers should return 401 when this error occurs.
var ErrActorNotFound = errors.New("actor not found in context")

// ActorFromCtx returns the authenticated username stored by RequireAuth.
func ActorFromCtx(ctx context.Context) (string, error) {
	actor, ok := ctx.Value(actorKey).(string)
	if !ok || actor == "" {
		return "", ErrActorNotFound
	}
	return actor, nil
}

// ActorOrDefault returns the authenticated username, or DefaultActor.
func ActorOrDefault(ctx context.Context) string {
	if actor, err := ActorFromCtx(ctx); err == nil {
		return actor
	}
	return DefaultActor
}

// WithActor returns a new context carrying actor.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}
