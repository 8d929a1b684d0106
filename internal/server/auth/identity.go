package auth

import (
	"context"
	"time"
)

// Identity is the verified claim set attached to a request. Handlers treat
// it as read-only.
type Identity struct {
	UserID    string
	UserName  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
