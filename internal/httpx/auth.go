package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-storefront/internal/authx"
)

type ctxKey int

const identityKey ctxKey = 0

// IdentityFrom returns the authenticated identity, or Anonymous when the
// request carried no (valid) credential.
func IdentityFrom(ctx context.Context) authx.Identity {
	if id, ok := ctx.Value(identityKey).(authx.Identity); ok {
		return id
	}
	return authx.Anonymous
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// RequireAuth resolves the bearer token and rejects the request when it is
// missing or invalid. Anonymous browsing stays possible on routes that do
// not use this middleware.
func RequireAuth(v authx.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := v.Verify(r.Context(), bearerToken(r))
			if err != nil {
				fail(w, http.StatusUnauthorized, "not authorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
		})
	}
}

// RequireAdmin must be stacked after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IdentityFrom(r.Context()).Admin {
			fail(w, http.StatusForbidden, "administrator only")
			return
		}
		next.ServeHTTP(w, r)
	})
}
