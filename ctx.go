package identity

import "context"

var userCtxKey = &contextKey{"user"}
var principalCtxKey = &contextKey{"principal"}

type contextKey struct {
	name string
}

// WithUserContext sets the User in the given context
func WithUserContext(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// UserFromContext finds the user from the context.
func UserFromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithPrincipal records the authenticated principal's id in the context.
// Workflows never read ambient globals; the id travels explicitly from here
// into each message.
func WithPrincipal(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, principalCtxKey, id)
}

// PrincipalFromContext returns the authenticated principal's id, if any.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(principalCtxKey).(string)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}
