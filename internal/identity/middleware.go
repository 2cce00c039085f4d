// internal/identity/middleware.go
package identity

import (
	"context"
	"net/http"

	"rejestr/internal/roles"
)

type contextKey struct{}

// Middleware resolves the authenticated caller's role once per request and
// stores the descriptor in the context. The upstream auth layer is trusted to
// set X-Forwarded-Email. Requests without the header may instead carry Basic
// credentials checked against the local keyring; everything else resolves to
// the unit-member fallback, which scopes to nothing.
func Middleware(resolver *roles.Resolver, orgDomain string, keyring Keyring) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := r.Header.Get("X-Forwarded-Email")
			var descriptor roles.RoleDescriptor
			switch {
			case email != "":
				descriptor = resolver.Resolve(RoleFromEmail(email, orgDomain))
			default:
				role, secret, ok := r.BasicAuth()
				if ok && keyring.Authenticate(role, secret) {
					descriptor = resolver.Resolve(role)
				} else {
					descriptor = resolver.Resolve("")
				}
			}
			ctx := context.WithValue(r.Context(), contextKey{}, descriptor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Role returns the request's resolved RoleDescriptor. Requests that never
// passed the middleware read as the empty unit-member fallback.
func Role(ctx context.Context) roles.RoleDescriptor {
	if d, ok := ctx.Value(contextKey{}).(roles.RoleDescriptor); ok {
		return d
	}
	return roles.RoleDescriptor{Tier: roles.TierUnitMember}
}
