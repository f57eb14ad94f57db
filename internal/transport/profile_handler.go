package transport

import (
	"net/http"

	"catalog-api/internal/domain"
	"catalog-api/internal/middleware"
	"catalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UpdateProfileRequest represents a self-update. Email and password are
// only changed when present.
type UpdateProfileRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

// ProfileHandler handles HTTP requests for the caller's own profile
type ProfileHandler struct {
	profileService service.ProfileService
	logger         *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileService service.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, logger: logger}
}

// RegisterRoutes registers the profile routes
func (h *ProfileHandler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.With(requireAuth).Post("/edit-profile-data", withCaller(h.Update))
}

// Update applies a partial profile update
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	var req UpdateProfileRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondRequestError(w, h.logger, err)
		return
	}

	user, err := h.profileService.Update(r.Context(), caller, domain.ProfilePatch{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, MsgUserNotFound)
		return
	}

	h.logger.Info("Profile updated", zap.Int64("user_id", user.ID))
	middleware.RespondSuccess(w, http.StatusOK, MsgProfileUpdated, user)
}
