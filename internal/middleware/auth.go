package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"catalog-api/internal/domain"
	"catalog-api/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const CallerKey contextKey = "caller"

// Authenticator resolves a bearer token to the calling user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Caller, error)
}

// Authentication failure messages
const (
	MsgUnauthenticated = "Unauthenticated."
	MsgTokenExpired    = "Token has expired"
	MsgTokenInvalid    = "Token is invalid"
)

var errNoToken = errors.New("missing bearer token")

// RequireAuth rejects the request with 401 unless it carries a valid token
func RequireAuth(auth Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := resolveCaller(r, auth)
			if err != nil {
				switch {
				case errors.Is(err, errNoToken):
					logger.Debug("Missing authorization header")
					RespondWithError(w, http.StatusUnauthorized, MsgUnauthenticated)
				case errors.Is(err, service.ErrTokenExpired):
					logger.Debug("Expired token")
					RespondWithError(w, http.StatusUnauthorized, MsgTokenExpired)
				case errors.Is(err, service.ErrInvalidToken):
					logger.Debug("Invalid token")
					RespondWithError(w, http.StatusUnauthorized, MsgTokenInvalid)
				default:
					logger.Error("Token verification failed", zap.Error(err))
					RespondWithError(w, http.StatusInternalServerError, MsgInternalError)
				}
				return
			}

			logger.Debug("User authenticated", zap.Int64("user_id", caller.UserID))
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), CallerKey, caller)))
		})
	}
}

// OptionalAuth attaches the caller when the token is valid and otherwise
// lets the request through as anonymous.
func OptionalAuth(auth Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := resolveCaller(r, auth)
			if err != nil {
				if !errors.Is(err, errNoToken) {
					logger.Debug("Ignoring unusable token", zap.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), CallerKey, caller)))
		})
	}
}

// GetCaller extracts the authenticated caller from request context
func GetCaller(ctx context.Context) (*domain.Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(*domain.Caller)
	return caller, ok && caller != nil
}

func resolveCaller(r *http.Request, auth Authenticator) (*domain.Caller, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errNoToken
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, service.ErrInvalidToken
	}

	return auth.Authenticate(r.Context(), strings.TrimSpace(token))
}
