package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mmynk/debtbook/internal/auth"
	"github.com/mmynk/debtbook/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UserKey is the context key for storing the authenticated user.
const UserKey contextKey = "user"

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// UserFromContext extracts the authenticated user from the context.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserKey).(*models.User)
	return user, ok && user != nil
}

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	if user, ok := UserFromContext(ctx); ok {
		return user.ID
	}
	return ""
}

// RequireSession returns a middleware that validates the session token and
// requires authentication. The token is read from the session cookie or
// the Authorization header; the user is added to the request context.
func RequireSession(sessions *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := sessions.FromRequest(r)
			if err != nil {
				WriteUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(attach(r.Context(), claims.User())))
		})
	}
}

// OptionalSession returns a middleware that adds the user to the context
// when a valid session is present, but allows requests without one.
func OptionalSession(sessions *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Invalid tokens are treated as absent.
			if claims, err := sessions.FromRequest(r); err == nil {
				r = r.WithContext(attach(r.Context(), claims.User()))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// StaticUser returns a middleware that authenticates every request as user.
// Only for local development with authentication disabled.
func StaticUser(user *models.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(attach(r.Context(), user)))
		})
	}
}

// WriteUnauthorized writes the 401 response used for unauthenticated requests.
func WriteUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Authentication required"})
}

func attach(ctx context.Context, user *models.User) context.Context {
	setLoggedUser(ctx, user.ID)
	return WithUser(ctx, user)
}
