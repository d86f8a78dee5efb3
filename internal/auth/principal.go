package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/user"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID uuid.UUID
	Role   user.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == user.RoleAdmin
}

// ActingFor resolves the user a write should belong to. A nil request means
// the caller; naming anyone else is allowed to admins only.
func (p Principal) ActingFor(requested *uuid.UUID) (uuid.UUID, bool) {
	if requested == nil || *requested == p.UserID {
		return p.UserID, true
	}

	return *requested, p.IsAdmin()
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFrom returns the caller stored by the authentication middleware.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}
