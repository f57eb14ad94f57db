package transport

import (
	"net/http"

	"catalog-api/internal/domain"
	"catalog-api/internal/middleware"
	"catalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CategoryForm represents the multipart fields of a category create or edit
type CategoryForm struct {
	Name string `form:"name" validate:"required,max=255"`
}

// CategoryHandler handles HTTP requests for categories
type CategoryHandler struct {
	categoryService service.CategoryService
	policy          ListPolicy
	maxUpload       int64
	logger          *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService service.CategoryService, policy ListPolicy, maxUpload int64, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		policy:          policy,
		maxUpload:       maxUpload,
		logger:          logger,
	}
}

// RegisterRoutes registers all category routes
func (h *CategoryHandler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Route("/category", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/index", h.List)
		r.Post("/add", h.Create)
		r.Post("/edit/{id}", h.Update)
		r.Post("/delete/{id}", h.Delete)
	})
}

// List returns every category
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, MsgNoCategories)
		return
	}
	respondList(w, h.policy, categories, MsgNoCategories)
}

// Create handles a multipart category upload
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(w, r, h.maxUpload)
	if err != nil {
		respondRequestError(w, h.logger, err)
		return
	}
	defer form.Close()

	name, _ := form.value("name")
	fields := middleware.FormatValidationErrors(middleware.ValidateRequest(&CategoryForm{Name: name}))
	image, imageErr := form.image("image", true)
	if fields, err = mergeFieldErrors(fields, imageErr); err != nil {
		respondServiceError(w, h.logger, err, MsgCategoryMissing)
		return
	}
	if len(fields) > 0 {
		middleware.RespondWithValidationErrors(w, fields)
		return
	}

	category, err := h.categoryService.Create(r.Context(), name, *image)
	if err != nil {
		respondServiceError(w, h.logger, err, MsgCategoryMissing)
		return
	}
	middleware.RespondSuccess(w, http.StatusCreated, MsgCategoryCreated, category)
}

// Update renames a category and optionally replaces its image. An unknown id
// is a 404 before the form is looked at.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, MsgCategoryMissing)
		return
	}
	if _, err := h.categoryService.Get(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, MsgCategoryMissing)
		return
	}

	form, err := parseForm(w, r, h.maxUpload)
	if err != nil {
		respondRequestError(w, h.logger, err)
		return
	}
	defer form.Close()

	name, _ := form.value("name")
	fields := middleware.FormatValidationErrors(middleware.ValidateRequest(&CategoryForm{Name: name}))
	image, imageErr := form.image("image", false)
	if fields, err = mergeFieldErrors(fields, imageErr); err != nil {
		respondServiceError(w, h.logger, err, MsgCategoryMissing)
		return
	}
	if len(fields) > 0 {
		middleware.RespondWithValidationErrors(w, fields)
		return
	}

	category, err := h.categoryService.Update(r.Context(), id, domain.CategoryPatch{Name: name}, image)
	if err != nil {
		respondServiceError(w, h.logger, err, MsgCategoryMissing)
		return
	}
	middleware.RespondSuccess(w, http.StatusOK, MsgCategoryUpdated, category)
}

// Delete removes a category and, by cascade, its products
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, MsgCategoryMissing)
		return
	}

	if err := h.categoryService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, MsgCategoryMissing)
		return
	}
	middleware.RespondSuccess(w, http.StatusOK, MsgCategoryDeleted, nil)
}
