package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/auth"
	"github.com/MrJamesThe3rd/ledger/internal/http/render"
	"github.com/MrJamesThe3rd/ledger/internal/user"
)

// Accounts resolves the stored account behind a token.
type Accounts interface {
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller in the request context.
func Authenticate(issuer *auth.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			claims, err := issuer.Parse(token)
			if err != nil {
				slog.DebugContext(r.Context(), "rejected token", "error", err)
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)

				return
			}

			id, _ := claims.UserID()

			ctx := auth.WithPrincipal(r.Context(), auth.Principal{UserID: id, Role: claims.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole must run after Authenticate. The token's role is only a first
// filter: the account is reloaded so a deleted or demoted user loses access
// before the token expires.
func RequireRole(accounts Accounts, role user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFrom(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if p.Role != role {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			u, err := accounts.Get(r.Context(), p.UserID)
			if errors.Is(err, user.ErrNotFound) {
				http.Error(w, "account no longer exists", http.StatusUnauthorized)
				return
			}

			if err != nil {
				render.InternalError(w, r, "failed to load account", err)
				return
			}

			if u.Role != role {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
