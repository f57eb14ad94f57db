package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/middleware"
	"catalog-api/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// envelope is the decoded form of both success and error responses
type envelope struct {
	Status  bool            `json:"status"`
	Message json.RawMessage `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return env
}

// messageText returns a plain string message
func (e envelope) messageText(t *testing.T) string {
	t.Helper()
	var msg string
	require.NoError(t, json.Unmarshal(e.Message, &msg))
	return msg
}

// fieldErrors returns a validation message map
func (e envelope) fieldErrors(t *testing.T) map[string][]string {
	t.Helper()
	var fields map[string][]string
	require.NoError(t, json.Unmarshal(e.Message, &fields))
	return fields
}

func testCaller(userID int64) *domain.Caller {
	return &domain.Caller{UserID: userID, SessionID: uuid.New(), ExpiresAt: time.Now().Add(time.Hour)}
}

// asCaller attaches caller the way RequireAuth does
func asCaller(r *http.Request, caller *domain.Caller) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.CallerKey, caller))
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// formFile is one file part of a multipart request
type formFile struct {
	field, name string
	content     []byte
}

func multipartRequest(t *testing.T, target string, values map[string]string, files ...formFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func nopLogger() *zap.Logger { return zap.NewNop() }

// stubAuthService returns canned results and records the caller it saw
type stubAuthService struct {
	result *service.AuthResult
	user   *domain.User
	err    error
	seen   *domain.Caller
}

func (s *stubAuthService) Register(ctx context.Context, name, email, password string) (*service.AuthResult, error) {
	return s.result, s.err
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	return s.result, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, caller domain.Caller) error {
	s.seen = &caller
	return s.err
}

func (s *stubAuthService) Refresh(ctx context.Context, caller domain.Caller) (*service.AuthResult, error) {
	s.seen = &caller
	return s.result, s.err
}

func (s *stubAuthService) Authenticate(ctx context.Context, token string) (*domain.Caller, error) {
	return nil, service.ErrInvalidToken
}

func (s *stubAuthService) CurrentUser(ctx context.Context, caller domain.Caller) (*domain.User, error) {
	s.seen = &caller
	return s.user, s.err
}

// stubProfileService records the patch it received
type stubProfileService struct {
	patch domain.ProfilePatch
	err   error
}

func (s *stubProfileService) Update(ctx context.Context, caller domain.Caller, patch domain.ProfilePatch) (*domain.User, error) {
	s.patch = patch
	if s.err != nil {
		return nil, s.err
	}
	user := &domain.User{ID: caller.UserID, Name: patch.Name}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	return user, nil
}

// stubCategoryService keeps categories in memory and records uploads
type stubCategoryService struct {
	mu         sync.Mutex
	categories []*domain.Category
	uploaded   []service.Upload
	patches    []domain.CategoryPatch
	err        error
}

func (s *stubCategoryService) List(ctx context.Context) ([]*domain.Category, error) {
	return s.categories, s.err
}

func (s *stubCategoryService) Get(ctx context.Context, id int64) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, service.ErrCategoryNotFound
}

func (s *stubCategoryService) Create(ctx context.Context, name string, image service.Upload) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	body, _ := io.ReadAll(image.Body)
	image.Body = bytes.NewReader(body)
	s.uploaded = append(s.uploaded, image)
	category := &domain.Category{ID: int64(len(s.categories) + 1), Name: name, Image: "categories/" + image.Filename}
	s.categories = append(s.categories, category)
	return category, nil
}

func (s *stubCategoryService) Update(ctx context.Context, id int64, patch domain.CategoryPatch, image *service.Upload) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.patches = append(s.patches, patch)
	for _, c := range s.categories {
		if c.ID == id {
			c.Name = patch.Name
			if image != nil {
				s.uploaded = append(s.uploaded, *image)
			}
			return c, nil
		}
	}
	return nil, service.ErrCategoryNotFound
}

func (s *stubCategoryService) Delete(ctx context.Context, id int64) error {
	if s.err != nil {
		return s.err
	}
	for i, c := range s.categories {
		if c.ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return service.ErrCategoryNotFound
}

// stubProductService returns views and records the caller and inputs
type stubProductService struct {
	views   []*domain.ProductView
	callers []*domain.Caller
	inputs  []service.ProductInput
	patches []domain.ProductPatch
	queries []string
	err     error
}

func (s *stubProductService) record(caller *domain.Caller) {
	s.callers = append(s.callers, caller)
}

func (s *stubProductService) List(ctx context.Context, caller *domain.Caller) ([]*domain.ProductView, error) {
	s.record(caller)
	return s.views, s.err
}

func (s *stubProductService) Get(ctx context.Context, caller *domain.Caller, id int64) (*domain.ProductView, error) {
	s.record(caller)
	if s.err != nil {
		return nil, s.err
	}
	for _, v := range s.views {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, service.ErrProductNotFound
}

func (s *stubProductService) Popular(ctx context.Context, caller *domain.Caller) ([]*domain.ProductView, error) {
	s.record(caller)
	return s.views, s.err
}

func (s *stubProductService) ByCategory(ctx context.Context, caller *domain.Caller, categoryID int64) ([]*domain.ProductView, error) {
	s.record(caller)
	if s.err != nil {
		return nil, s.err
	}
	var out []*domain.ProductView
	for _, v := range s.views {
		if v.CategoryID == categoryID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *stubProductService) Search(ctx context.Context, caller *domain.Caller, query string) ([]*domain.ProductView, error) {
	s.record(caller)
	s.queries = append(s.queries, query)
	return s.views, s.err
}

func (s *stubProductService) Create(ctx context.Context, input service.ProductInput, image service.Upload) (*domain.Product, error) {
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Product{
		ID:          1,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Color:       input.Color,
		Size:        input.Size,
		CategoryID:  input.CategoryID,
		Image:       "products/" + image.Filename,
	}, nil
}

func (s *stubProductService) Update(ctx context.Context, id int64, patch domain.ProductPatch, image *service.Upload) (*domain.Product, error) {
	s.patches = append(s.patches, patch)
	if s.err != nil {
		return nil, s.err
	}
	product := &domain.Product{ID: id, Name: "before"}
	patch.Apply(product)
	return product, nil
}

func (s *stubProductService) Delete(ctx context.Context, id int64) error {
	return s.err
}

// stubFavoriteService is a set keyed by (user, product)
type stubFavoriteService struct {
	mu        sync.Mutex
	favorites map[[2]int64]bool
	products  map[int64]bool
}

func newStubFavoriteService(productIDs ...int64) *stubFavoriteService {
	s := &stubFavoriteService{favorites: map[[2]int64]bool{}, products: map[int64]bool{}}
	for _, id := range productIDs {
		s.products[id] = true
	}
	return s
}

func (s *stubFavoriteService) Add(ctx context.Context, caller domain.Caller, productID int64) (*domain.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.products[productID] {
		return nil, service.NewValidationError("product_id", service.MsgProductInvalid)
	}
	key := [2]int64{caller.UserID, productID}
	if s.favorites[key] {
		return nil, service.ErrAlreadyFavorited
	}
	s.favorites[key] = true
	return &domain.Favorite{ID: int64(len(s.favorites)), UserID: caller.UserID, ProductID: productID}, nil
}

func (s *stubFavoriteService) Remove(ctx context.Context, caller domain.Caller, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int64{caller.UserID, productID}
	if !s.favorites[key] {
		return service.ErrNotFavorited
	}
	delete(s.favorites, key)
	return nil
}

func (s *stubFavoriteService) List(ctx context.Context, caller domain.Caller) ([]*domain.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Favorite
	for key := range s.favorites {
		if key[0] == caller.UserID {
			out = append(out, &domain.Favorite{UserID: key[0], ProductID: key[1]})
		}
	}
	return out, nil
}

func (s *stubFavoriteService) IsFavorited(ctx context.Context, userID, productID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favorites[[2]int64{userID, productID}], nil
}

func (s *stubFavoriteService) Project(ctx context.Context, caller *domain.Caller, products []*domain.Product) ([]*domain.ProductView, error) {
	views := make([]*domain.ProductView, len(products))
	for i, p := range products {
		views[i] = &domain.ProductView{Product: *p}
		if caller != nil {
			views[i].IsFavorite, _ = s.IsFavorited(ctx, caller.UserID, p.ID)
		}
	}
	return views, nil
}
