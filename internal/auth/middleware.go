package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/redmonkez12/expense-tracker/internal/httputil"
	"github.com/redmonkez12/expense-tracker/internal/logging"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const UserIDContextKey ContextKey = "user_id"

const bearerScheme = "Bearer"

// Middleware handles authentication for protected routes
type Middleware struct {
	tokenService TokenService
}

func NewMiddleware(tokenService TokenService) *Middleware {
	return &Middleware{tokenService: tokenService}
}

// RequireAuth validates the bearer token. A request that carries no token is
// refused with 403; a token that fails verification gets 401.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "No token provided", httputil.CodeMissingAuth, http.StatusForbidden)
			return
		}

		// The auth scheme is case-insensitive (RFC 9110, section 11.1)
		scheme, token, _ := strings.Cut(authHeader, " ")
		if !strings.EqualFold(scheme, bearerScheme) {
			httputil.RespondErrorWithCode(w, "Unauthorized", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		token = strings.TrimSpace(token)
		if token == "" {
			httputil.RespondErrorWithCode(w, "No token provided", httputil.CodeMissingAuth, http.StatusForbidden)
			return
		}

		claims, err := m.tokenService.VerifyToken(token)
		if err != nil {
			logger.Debug("token verification failed", "error", err.Error())
			if errors.Is(err, ErrExpiredToken) {
				httputil.RespondErrorWithCode(w, "Unauthorized", httputil.CodeTokenExpired, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "Unauthorized", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			httputil.RespondErrorWithCode(w, "Unauthorized", httputil.CodeInvalidTokenUserID, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// WithUserID stores the authenticated user id in ctx
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(uuid.UUID)
	return userID, ok
}
