package session

import "context"

var sessionCtxKey = &contextKey{"session"}

type contextKey struct {
	name string
}

// WithContext sets the Session in the given context
func WithContext(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, sess)
}

// FromContext finds the Session in the context.
func FromContext(ctx context.Context) (Session, bool) {
	raw, ok := ctx.Value(sessionCtxKey).(Session)
	return raw, ok
}
