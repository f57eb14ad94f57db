package transport

import (
	"errors"
	"net/http"
	"strconv"

	"catalog-api/internal/domain"
	"catalog-api/internal/middleware"
	"catalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ListPolicy decides how an empty listing is answered
type ListPolicy struct {
	// EmptyIsNotFound answers 404 with the listing's empty message instead
	// of 200 with an empty array.
	EmptyIsNotFound bool
}

// callerHandler is a handler that runs for an authenticated caller
type callerHandler func(w http.ResponseWriter, r *http.Request, caller domain.Caller)

// withCaller resolves the caller placed in the context by RequireAuth and
// passes it explicitly.
func withCaller(h callerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			middleware.RespondWithError(w, http.StatusUnauthorized, middleware.MsgUnauthenticated)
			return
		}
		h(w, r, *caller)
	}
}

// optionalCaller returns nil for anonymous requests
func optionalCaller(r *http.Request) *domain.Caller {
	caller, _ := middleware.GetCaller(r.Context())
	return caller
}

// parseID reads a positive integer URL parameter
func parseID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// respondList sends items, or the empty message when the policy says so
func respondList[T any](w http.ResponseWriter, policy ListPolicy, items []T, emptyMessage string) {
	if len(items) == 0 {
		if policy.EmptyIsNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, emptyMessage)
			return
		}
		middleware.RespondSuccess(w, http.StatusOK, "", []T{})
		return
	}
	middleware.RespondSuccess(w, http.StatusOK, "", items)
}

// respondRequestError answers a failed decode or validation
func respondRequestError(w http.ResponseWriter, logger *zap.Logger, err error) {
	logger.Debug("Request validation failed", zap.Error(err))
	if fields := middleware.FormatValidationErrors(err); len(fields) > 0 {
		middleware.RespondWithValidationErrors(w, fields)
		return
	}
	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}

// respondServiceError maps service errors to the envelope. notFound is the
// message used for any not-found sentinel.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, notFound string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		logger.Debug("Validation failed", zap.Error(err))
		middleware.RespondWithValidationErrors(w, verr.Fields)
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired):
		logger.Debug("Authentication failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusUnauthorized, middleware.MsgUnauthenticated)
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrNotFavorited):
		logger.Debug("Not found", zap.Error(err))
		middleware.RespondWithError(w, http.StatusNotFound, notFound)
	case errors.Is(err, service.ErrAlreadyFavorited):
		middleware.RespondWithError(w, http.StatusUnprocessableEntity, MsgAlreadyFavorited)
	default:
		logger.Error("Request failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, middleware.MsgInternalError)
	}
}
