package transport

import (
	"errors"
	"net/http"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/middleware"
	"catalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8,eqfield=PasswordConfirmation"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// RefreshResponse is returned by refresh
type RefreshResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *domain.User `json:"user"`
}

// AuthHandler handles HTTP requests for identity and sessions
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes registers the credential routes. limiter guards the
// unauthenticated ones.
func (h *AuthHandler) RegisterRoutes(r chi.Router, requireAuth, limiter func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(limiter)
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/logout", withCaller(h.Logout))
		r.Post("/refresh", withCaller(h.Refresh))
		r.Get("/authenticated-user", withCaller(h.CurrentUser))
	})
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondRequestError(w, h.logger, err)
		return
	}

	result, err := h.authService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondServiceError(w, h.logger, err, MsgUserNotFound)
		return
	}

	h.logger.Info("User registered successfully", zap.Int64("user_id", result.User.ID))
	middleware.RespondSuccess(w, http.StatusOK, MsgRegistered, AuthResponse{User: result.User, Token: result.Token})
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondRequestError(w, h.logger, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Debug("Login failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusUnauthorized, MsgBadCredentials)
			return
		}
		respondServiceError(w, h.logger, err, MsgUserNotFound)
		return
	}

	h.logger.Info("User logged in successfully", zap.Int64("user_id", result.User.ID))
	middleware.RespondSuccess(w, http.StatusOK, MsgLoggedIn, AuthResponse{User: result.User, Token: result.Token})
}

// Logout revokes the token the request was made with
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	if err := h.authService.Logout(r.Context(), caller); err != nil {
		respondServiceError(w, h.logger, err, MsgUserNotFound)
		return
	}

	h.logger.Info("User logged out", zap.Int64("user_id", caller.UserID))
	middleware.RespondSuccess(w, http.StatusOK, MsgLoggedOut, nil)
}

// Refresh exchanges the current token for a new one
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	result, err := h.authService.Refresh(r.Context(), caller)
	if err != nil {
		respondServiceError(w, h.logger, err, MsgUserNotFound)
		return
	}

	middleware.RespondSuccess(w, http.StatusOK, MsgTokenRefreshed, RefreshResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
		ExpiresIn:   int64(time.Until(result.ExpiresAt).Round(time.Second) / time.Second),
		User:        result.User,
	})
}

// CurrentUser echoes the caller's user record
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	user, err := h.authService.CurrentUser(r.Context(), caller)
	if err != nil {
		respondServiceError(w, h.logger, err, MsgUserNotFound)
		return
	}
	middleware.RespondSuccess(w, http.StatusOK, MsgUserRetrieved, user)
}
