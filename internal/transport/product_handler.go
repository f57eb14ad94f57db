package transport

import (
	"net/http"
	"strconv"

	"catalog-api/internal/domain"
	"catalog-api/internal/middleware"
	"catalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateProductForm represents the multipart fields of a new product
type CreateProductForm struct {
	Name        string  `form:"name" validate:"required,max=255"`
	Description string  `form:"description" validate:"required"`
	Price       string  `form:"price" validate:"required,numeric,decimal_min=0,decimal_places=2,decimal_digits=10"`
	Color       *string `form:"color" validate:"omitnil,max=255"`
	Size        *string `form:"size" validate:"omitnil,max=255"`
	CategoryID  string  `form:"category_id" validate:"required,number"`
}

// EditProductForm represents a partial product edit. Absent fields are nil.
type EditProductForm struct {
	Name        *string `form:"name" validate:"omitnil,max=255"`
	Description *string `form:"description" validate:"omitnil"`
	Price       *string `form:"price" validate:"omitnil,numeric,decimal_min=0,decimal_places=2,decimal_digits=10"`
	Color       *string `form:"color" validate:"omitnil,max=255"`
	Size        *string `form:"size" validate:"omitnil,max=255"`
	CategoryID  *string `form:"category_id" validate:"omitnil,number"`
}

// SearchRequest is the query string of a product search
type SearchRequest struct {
	Query string `form:"query" validate:"required,max=255"`
}

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	productService service.ProductService
	policy         ListPolicy
	maxUpload      int64
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, policy ListPolicy, maxUpload int64, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		policy:         policy,
		maxUpload:      maxUpload,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes. The product index is open to
// anonymous callers, who see is_favorite=false.
func (h *ProductHandler) RegisterRoutes(r chi.Router, requireAuth, optionalAuth func(http.Handler) http.Handler) {
	r.With(optionalAuth).Get("/product/index", h.List)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/product/get-product-by-id/{id}", h.Get)
		r.Post("/product/add", h.Create)
		r.Post("/product/edit/{id}", h.Update)
		r.Post("/product/delete/{id}", h.Delete)
		r.Get("/display-popular-product", h.Popular)
		r.Get("/get-product-by-categoryId/{id}", h.ByCategory)
		r.Get("/search-product-by-name", h.Search)
	})
}

// List returns every product with the caller's favorite flags
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.productService.List(r.Context(), optionalCaller(r))
	if err != nil {
		respondServiceError(w, h.logger, err, MsgNoProducts)
		return
	}
	respondList(w, h.policy, views, MsgNoProducts)
}

// Get returns one product
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, MsgProductMissing)
		return
	}

	view, err := h.productService.Get(r.Context(), optionalCaller(r), id)
	if err != nil {
		respondServiceError(w, h.logger, err, MsgProductMissing)
		return
	}
	middleware.RespondSuccess(w, http.StatusOK, MsgProductRetrieved, view)
}

// Popular returns the best sellers
func (h *ProductHandler) Popular(w http.ResponseWriter, r *http.Request) {
	views, err := h.productService.Popular(r.Context(), optionalCaller(r))
	if err != nil {
		respondServiceError(w, h.logger, err, MsgNoPopular)
		return
	}
	respondList(w, h.policy, views, MsgNoPopular)
}

// ByCategory returns a category's products
func (h *ProductHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, MsgCategoryMissing)
		return
	}

	views, err := h.productService.ByCategory(r.Context(), optionalCaller(r), id)
	if err != nil {
		respondServiceError(w, h.logger, err, MsgCategoryMissing)
		return
	}
	respondList(w, h.policy, views, MsgNoCategoryProducts)
}

// Search matches products by name
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	req := SearchRequest{Query: r.URL.Query().Get("query")}
	if err := middleware.ValidateRequest(&req); err != nil {
		respondRequestError(w, h.logger, err)
		return
	}

	views, err := h.productService.Search(r.Context(), optionalCaller(r), req.Query)
	if err != nil {
		respondServiceError(w, h.logger, err, MsgNoProducts)
		return
	}
	respondList(w, h.policy, views, MsgNoProducts)
}

// Create handles a multipart product upload
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(w, r, h.maxUpload)
	if err != nil {
		respondRequestError(w, h.logger, err)
		return
	}
	defer form.Close()

	req := CreateProductForm{Color: form.optional("color"), Size: form.optional("size")}
	req.Name, _ = form.value("name")
	req.Description, _ = form.value("description")
	req.Price, _ = form.value("price")
	req.CategoryID, _ = form.value("category_id")

	fields := middleware.FormatValidationErrors(middleware.ValidateRequest(&req))
	image, imageErr := form.image("image", true)
	if fields, err = mergeFieldErrors(fields, imageErr); err != nil {
		respondServiceError(w, h.logger, err, MsgProductMissing)
		return
	}

	var (
		price      decimal.Decimal
		categoryID int64
	)
	if len(fields) == 0 {
		fields = map[string][]string{}
		price = parsePrice(req.Price, fields)
		categoryID = parseCategoryID(req.CategoryID, fields)
	}
	if len(fields) > 0 {
		middleware.RespondWithValidationErrors(w, fields)
		return
	}

	product, err := h.productService.Create(r.Context(), service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Color:       req.Color,
		Size:        req.Size,
		CategoryID:  categoryID,
	}, *image)
	if err != nil {
		respondServiceError(w, h.logger, err, MsgProductMissing)
		return
	}
	middleware.RespondSuccess(w, http.StatusCreated, MsgProductCreated, product)
}

// Update applies a partial product edit. An unknown id is a 404 before the
// form is looked at.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, MsgProductMissing)
		return
	}
	if _, err := h.productService.Get(r.Context(), nil, id); err != nil {
		respondServiceError(w, h.logger, err, MsgProductMissing)
		return
	}

	form, err := parseForm(w, r, h.maxUpload)
	if err != nil {
		respondRequestError(w, h.logger, err)
		return
	}
	defer form.Close()

	req := EditProductForm{
		Name:        form.optional("name"),
		Description: form.optional("description"),
		Price:       form.optional("price"),
		Color:       form.optional("color"),
		Size:        form.optional("size"),
		CategoryID:  form.optional("category_id"),
	}

	fields := middleware.FormatValidationErrors(middleware.ValidateRequest(&req))
	image, imageErr := form.image("image", false)
	if fields, err = mergeFieldErrors(fields, imageErr); err != nil {
		respondServiceError(w, h.logger, err, MsgProductMissing)
		return
	}

	patch := domain.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Size:        req.Size,
	}
	if len(fields) == 0 {
		fields = map[string][]string{}
		if req.Price != nil {
			price := parsePrice(*req.Price, fields)
			patch.Price = &price
		}
		if req.CategoryID != nil {
			categoryID := parseCategoryID(*req.CategoryID, fields)
			patch.CategoryID = &categoryID
		}
	}
	if len(fields) > 0 {
		middleware.RespondWithValidationErrors(w, fields)
		return
	}

	product, err := h.productService.Update(r.Context(), id, patch, image)
	if err != nil {
		respondServiceError(w, h.logger, err, MsgProductMissing)
		return
	}
	middleware.RespondSuccess(w, http.StatusOK, MsgProductUpdated, product)
}

// Delete removes a product
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, MsgProductMissing)
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, MsgProductMissing)
		return
	}
	middleware.RespondSuccess(w, http.StatusOK, MsgProductDeleted, nil)
}

// parsePrice converts a validated price, recording a field error otherwise
func parsePrice(raw string, fields map[string][]string) decimal.Decimal {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		fields["price"] = append(fields["price"], "The price field must be a number.")
	}
	return price
}

// parseCategoryID converts a validated category id, recording a field error
// when it does not fit a row id.
func parseCategoryID(raw string, fields map[string][]string) int64 {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		fields["category_id"] = append(fields["category_id"], service.MsgCategoryInvalid)
	}
	return id
}
