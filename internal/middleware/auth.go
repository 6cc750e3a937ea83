package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
)

type ctxKey int

const userKey ctxKey = iota

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// WithUser stores u on ctx.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// BearerToken reads the Authorization header, falling back to the token query
// parameter for websocket upgrades where browsers cannot set headers.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// Authenticate rejects requests without a valid token with 401. A user already
// resolved earlier in the chain is accepted as is.
func Authenticate(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromContext(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}
			token := BearerToken(r)
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "Access denied. No token provided.")
				return
			}
			u, err := a.Authenticate(r.Context(), token)
			if err != nil {
				writeJSONError(w, apperr.Status(err), apperr.Message(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// OptionalAuthenticate attaches the user when a valid token is present and never rejects.
func OptionalAuthenticate(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := BearerToken(r); token != "" && UserFromContext(r.Context()) == nil {
				if u, err := a.Authenticate(r.Context(), token); err == nil {
					r = r.WithContext(WithUser(r.Context(), u))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authorize requires an authenticated user holding one of roles. Mount after Authenticate.
func Authorize(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := UserFromContext(r.Context())
			if u == nil {
				writeJSONError(w, http.StatusUnauthorized, "Access denied. No token provided.")
				return
			}
			if len(roles) > 0 && !u.HasRole(roles...) {
				writeJSONError(w, http.StatusForbidden, "Access denied. Insufficient permissions.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
