package identity

import "context"

type ctxKey int

const actorCtxKey ctxKey = 1

// WithActor stamps the acting user onto the context. Services read it back
// when attributing writes (record authorship, history entries).
func WithActor(ctx context.Context, actor string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorCtxKey, actor)
}

func ActorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v := ctx.Value(actorCtxKey)
	actor, _ := v.(string)
	return actor
}
