package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	identityapp "github.com/replytics/dashboard-api/internal/identity_service/app"
	identitydomain "github.com/replytics/dashboard-api/internal/identity_service/domain"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const AuthenticatedUserContextKey = ContextKey("authenticatedUser")

// AuthenticatedUser is the session attached to every authenticated request.
// BusinessID is the tenant boundary: handlers must scope every read and write
// with it and never accept a business id from the client.
type AuthenticatedUser struct {
	UserID     string
	Email      string
	Name       string
	BusinessID string
}

// GetAuthenticatedUser extracts the session from the request context.
func GetAuthenticatedUser(ctx context.Context) (AuthenticatedUser, bool) {
	user, ok := ctx.Value(AuthenticatedUserContextKey).(AuthenticatedUser)
	return user, ok
}

// SessionValidator verifies an access token and loads its user.
type SessionValidator interface {
	ValidateAccessToken(ctx context.Context, tokenString string) (*identitydomain.User, *identityapp.SessionClaims, error)
}

// BusinessResolver maps a user to the business they own.
type BusinessResolver interface {
	EnsureProfile(ctx context.Context, userID string, ownerName string) (string, error)
}

// AuthMiddleware authenticates dashboard requests: Bearer token -> verified
// session -> resolved business context. A token whose bid claim disagrees with
// the user's actual business is a cross-tenant attempt and gets 403.
func AuthMiddleware(sessions SessionValidator, businesses BusinessResolver, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(r.Context(), "Authorization header missing", "path", r.URL.Path)
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.WarnContext(r.Context(), "Invalid Authorization header format", "path", r.URL.Path)
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			user, claims, err := sessions.ValidateAccessToken(r.Context(), parts[1])
			if err != nil {
				switch {
				case errors.Is(err, identityapp.ErrTokenInvalid), errors.Is(err, identityapp.ErrUserInactive):
					logger.WarnContext(r.Context(), "Token validation failed", "error", err)
					http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				default:
					logger.ErrorContext(r.Context(), "Error validating token", "error", err)
					http.Error(w, "Internal server error", http.StatusInternalServerError)
				}
				return
			}

			businessID, err := businesses.EnsureProfile(r.Context(), user.ID, user.Name)
			if err != nil {
				logger.ErrorContext(r.Context(), "Failed to resolve business context", "error", err, "user_id", user.ID)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			if claims.BusinessID != "" && claims.BusinessID != businessID {
				logger.WarnContext(r.Context(), "Token business claim mismatch",
					"user_id", user.ID, "claim_business_id", claims.BusinessID, "actual_business_id", businessID)
				http.Error(w, "Forbidden: business context mismatch", http.StatusForbidden)
				return
			}

			authUser := AuthenticatedUser{
				UserID:     user.ID,
				Email:      user.Email,
				Name:       user.Name,
				BusinessID: businessID,
			}
			ctx := context.WithValue(r.Context(), AuthenticatedUserContextKey, authUser)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
