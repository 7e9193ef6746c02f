package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal headers are set by the upstream authenticating proxy.
const (
	UserHeader  = "X-Admin-User"
	RolesHeader = "X-Admin-Roles"
)

// Principal is the authenticated admin user acting on the request.
type Principal struct {
	UserID string
	Roles  []string
}

// IsZero reports whether no user is attached.
func (p Principal) IsZero() bool {
	return strings.TrimSpace(p.UserID) == ""
}

// ContextWithPrincipal returns a new context that carries the authenticated principal.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the authenticated principal from the context, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey).(Principal)
	if !ok || p.IsZero() {
		return Principal{}, false
	}
	return p, true
}

// PrincipalMiddleware reads the principal headers and rejects requests without a user.
func PrincipalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := strings.TrimSpace(r.Header.Get(UserHeader))
		if user == "" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		var roles []string
		for _, role := range strings.Split(r.Header.Get(RolesHeader), ",") {
			if role = strings.TrimSpace(role); role != "" {
				roles = append(roles, role)
			}
		}
		ctx := ContextWithPrincipal(r.Context(), Principal{UserID: user, Roles: roles})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
