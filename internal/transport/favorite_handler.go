package transport

import (
	"net/http"

	"catalog-api/internal/domain"
	"catalog-api/internal/middleware"
	"catalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FavoriteRequest names the product to add or remove
type FavoriteRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

// FavoriteHandler handles HTTP requests for a user's favorites
type FavoriteHandler struct {
	favoriteService service.FavoriteService
	policy          ListPolicy
	logger          *zap.Logger
}

// NewFavoriteHandler creates a new FavoriteHandler
func NewFavoriteHandler(favoriteService service.FavoriteService, policy ListPolicy, logger *zap.Logger) *FavoriteHandler {
	return &FavoriteHandler{
		favoriteService: favoriteService,
		policy:          policy,
		logger:          logger,
	}
}

// RegisterRoutes registers all favorite routes
func (h *FavoriteHandler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/favorite-products", withCaller(h.List))
		r.Post("/add-favorite-products", withCaller(h.Add))
		r.Post("/remove-favorite-products", withCaller(h.Remove))
	})
}

// List returns the caller's favorites with their products
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	favorites, err := h.favoriteService.List(r.Context(), caller)
	if err != nil {
		respondServiceError(w, h.logger, err, MsgNoFavorites)
		return
	}
	respondList(w, h.policy, favorites, MsgNoFavorites)
}

// Add favorites a product
func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	var req FavoriteRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondRequestError(w, h.logger, err)
		return
	}

	favorite, err := h.favoriteService.Add(r.Context(), caller, req.ProductID)
	if err != nil {
		respondServiceError(w, h.logger, err, MsgProductMissing)
		return
	}

	h.logger.Info("Favorite added",
		zap.Int64("user_id", caller.UserID),
		zap.Int64("product_id", req.ProductID),
	)
	middleware.RespondSuccess(w, http.StatusCreated, MsgFavoriteAdded, favorite)
}

// Remove un-favorites a product
func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	var req FavoriteRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondRequestError(w, h.logger, err)
		return
	}

	if err := h.favoriteService.Remove(r.Context(), caller, req.ProductID); err != nil {
		respondServiceError(w, h.logger, err, MsgNotInFavorites)
		return
	}
	middleware.RespondSuccess(w, http.StatusOK, MsgFavoriteRemoved, nil)
}
