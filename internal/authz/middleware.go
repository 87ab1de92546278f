package authz

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/meridian-pm/meridian/internal/shared"
)

// RoleSource resolves a user ID to its current role string. Implemented by
// the users repository; used when a session predates the role field.
type RoleSource interface {
	RoleOf(ctx context.Context, userID string) (string, error)
}

// Middleware wires authorization helpers for HTTP handlers. A false answer
// from the resolver always surfaces as a bare 403; the response does not
// reveal whether the role was denied, unknown or misconfigured.
type Middleware struct {
	Resolver *Resolver
	Roles    RoleSource
	Logger   *slog.Logger
}

// RequireAny ensures the current user holds at least one of the required
// permissions.
func (m Middleware) RequireAny(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			role, ok := m.currentRole(r)
			if !ok || !m.Resolver.HasAnyPermission(r.Context(), role, perms...) {
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAll ensures the current user holds every required permission.
func (m Middleware) RequireAll(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			role, ok := m.currentRole(r)
			if !ok || !m.Resolver.HasAllPermissions(r.Context(), role, perms...) {
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireLevel ensures the current user's role carries at least the
// authority of the required built-in role. Custom roles have no level and
// always fail this check; gate their features with permissions instead.
func (m Middleware) RequireLevel(required Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := m.currentRole(r)
			if !ok || !HasRoleLevel(role, required) {
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) currentRole(r *http.Request) (string, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return "", false
	}
	if role := sess.Role(); role != "" {
		return role, true
	}
	userID := sess.User()
	if userID == "" || m.Roles == nil {
		return "", false
	}
	role, err := m.Roles.RoleOf(r.Context(), userID)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("authz: resolve role for session", slog.String("user", userID), slog.Any("error", err))
		}
		return "", false
	}
	return role, role != ""
}

func forbidden(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}
