package auth

import (
	"context"

	"github.com/servicehub/marketplace/shared/models"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	AccountID string
	Role      models.Role
}

func (i Identity) IsAdmin() bool {
	return i.Role.IsAdmin()
}

// CanActFor reports whether the caller may act on a resource owned by ownerID.
func (i Identity) CanActFor(ownerID string) bool {
	return i.AccountID == ownerID || i.IsAdmin()
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
