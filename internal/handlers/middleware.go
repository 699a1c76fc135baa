package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"cardquiz/internal/models"
	"cardquiz/internal/security"
	"cardquiz/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const UserContextKey ContextKey = "user"

// Authenticator resolves a bearer token to its user
type Authenticator interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	auth Authenticator
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(auth Authenticator) *Middleware {
	return &Middleware{auth: auth}
}

// RequireAuth rejects requests without a valid bearer token
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := security.BearerToken(r)
		if token == "" {
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		user, ok := m.resolve(w, r, token)
		if !ok {
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), UserContextKey, user)))
	}
}

// OptionalAuth lets guests through. A token that is present but no longer
// valid is still rejected so the client can sign in again.
func (m *Middleware) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := security.BearerToken(r)
		if token == "" {
			next(w, r)
			return
		}

		user, ok := m.resolve(w, r, token)
		if !ok {
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), UserContextKey, user)))
	}
}

func (m *Middleware) resolve(w http.ResponseWriter, r *http.Request, token string) (*models.User, bool) {
	user, err := m.auth.CurrentUser(r.Context(), token)
	switch {
	case err == nil:
		return user, true
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrSessionExpired):
		respondWithError(w, http.StatusUnauthorized, "Session expired, please sign in again", "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to validate session", err)
	}
	return nil, false
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// userID is the signed-in user's id, or 0 for guests
func userID(r *http.Request) int64 {
	if user := GetUserFromContext(r.Context()); user != nil {
		return user.ID
	}
	return 0
}
