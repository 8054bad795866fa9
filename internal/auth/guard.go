package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmarrec/authflow-be/internal/api/respond"
	"github.com/dmarrec/authflow-be/internal/apperr"
	"github.com/dmarrec/authflow-be/internal/models"
)

// UserResolver loads a user by ID so the guard can confirm the token's
// subject still exists.
type UserResolver interface {
	GetUserByID(id string) (models.User, error)
}

// contextKey is the private type for context values set by this package.
type contextKey string

const userKey = contextKey("authUser")

// Guard is the middleware protecting authenticated routes. It validates the
// bearer token and attaches the resolved user to the request context.
type Guard struct {
	issuer *Issuer
	users  UserResolver
}

// NewGuard creates a Guard over the given issuer and user lookup.
func NewGuard(issuer *Issuer, users UserResolver) *Guard {
	return &Guard{issuer: issuer, users: users}
}

// Middleware rejects requests without a valid token and resolves the
// identity for downstream handlers.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var tokenStr string

		// 1. Try to get the token from the Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, "Bearer ")
			if len(parts) == 2 {
				tokenStr = strings.TrimSpace(parts[1])
			}
		}

		// 2. If not in header, fall back to the cookie
		if tokenStr == "" {
			if cookie, err := r.Cookie("token"); err == nil {
				tokenStr = cookie.Value
			}
		}

		if tokenStr == "" {
			respond.Error(w, apperr.Unauthorized("Access denied. No token provided. Please log in."))
			return
		}

		userID, err := g.issuer.Verify(tokenStr)
		if err != nil {
			respond.Error(w, apperr.Unauthorized("Invalid or expired token. Please log in again."))
			return
		}

		user, err := g.users.GetUserByID(userID)
		if err != nil {
			respond.Error(w, apperr.Unauthorized("Invalid token. User no longer exists."))
			return
		}

		ctx := WithUser(r.Context(), &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFrom extracts the authenticated user placed by the guard, if any.
func UserFrom(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}
