package domain

import "context"

type actorKey struct{}

// WithActor returns a context carrying the acting operator or system
// identity, recorded on audit rows.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext extracts the acting identity, if any.
func ActorFromContext(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(actorKey{}).(string)

	return actor, ok && actor != ""
}
