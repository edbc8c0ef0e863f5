package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rockquest/rockquest-backend/internal/apierror"
	"github.com/rockquest/rockquest-backend/internal/models"
	"github.com/rockquest/rockquest-backend/internal/services"
)

type contextKey string

const (
	userContextKey  contextKey = "user"
	adminContextKey contextKey = "admin_id"
)

var verifier *services.IdentityVerifier

// InitAuth installs the token verifier used by RequireRole.
func InitAuth(v *services.IdentityVerifier) {
	verifier = v
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// UserFrom returns the authenticated user placed in the context by RequireRole.
func UserFrom(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userContextKey).(*models.User)
	return u, ok
}

// AdminFrom returns the admin id placed in the context by RequireAdmin.
func AdminFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(adminContextKey).(uuid.UUID)
	return id, ok
}

// RequireRole verifies the bearer token, loads the user row, rejects
// suspended or inactive accounts, and enforces role membership. With no roles
// listed, any authenticated active user passes. This is the single
// authorization point; handlers never re-check roles ad hoc.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				// Browser WebSocket clients cannot set headers
				token = r.URL.Query().Get("token")
			}

			subject, err := verifier.Verify(token)
			if err != nil {
				apierror.Write(w, err)
				return
			}

			user, err := services.GetUserByID(r.Context(), subject)
			if err != nil {
				// A valid token without a profile row is forbidden, not 404:
				// the caller must complete their profile first.
				if apierror.From(err).Kind == apierror.KindNotFound {
					apierror.Write(w, apierror.Forbidden("profile not completed"))
					return
				}
				apierror.Write(w, err)
				return
			}

			if !user.IsActive || user.Suspended {
				apierror.Write(w, apierror.Forbidden("account is suspended"))
				return
			}

			if len(allowed) > 0 && !allowed[user.Role] {
				apierror.Write(w, apierror.Forbidden("insufficient role"))
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity verifies the bearer token only, without requiring a user
// row. Used by profile completion, which runs before the row exists.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := verifier.Verify(BearerToken(r.Header.Get("Authorization")))
		if err != nil {
			apierror.Write(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, &models.User{ID: subject})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin validates the admin session token from Redis.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r.Header.Get("Authorization"))
		adminID, ok, err := services.ValidateAdminSession(token)
		if err != nil || !ok {
			apierror.Write(w, apierror.New(apierror.KindUnauthorized, "admin authentication required"))
			return
		}
		ctx := context.WithValue(r.Context(), adminContextKey, adminID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
