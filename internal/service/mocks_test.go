package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"

	"github.com/google/uuid"
)

// Mock repositories for testing
type mockUserRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[int64]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	for _, u := range m.users {
		if u.Email == user.Email && u.ID != user.ID {
			return repository.ErrUserAlreadyExists
		}
	}
	user.UpdatedAt = time.Now()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	found := *u
	return &found, nil
}

func (m *mockUserRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

type mockSessionRepository struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.Session
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{sessions: make(map[uuid.UUID]*domain.Session)}
}

func (m *mockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *session
	m.sessions[session.ID] = &stored
	return nil
}

func (m *mockSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	if session.Revoked {
		return nil, repository.ErrSessionRevoked
	}
	found := *session
	return &found, nil
}

func (m *mockSessionRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok || session.Revoked {
		return repository.ErrSessionNotFound
	}
	session.Revoked = true
	return nil
}

type mockCategoryRepository struct {
	nextID     int64
	categories map[int64]*domain.Category
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[int64]*domain.Category)}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	m.nextID++
	category.ID = m.nextID
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	out := make([]*domain.Category, 0, len(m.categories))
	for _, c := range m.categories {
		found := *c
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	found := *c
	return &found, nil
}

func (m *mockCategoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := m.categories[id]
	return ok, nil
}

type mockProductRepository struct {
	nextID     int64
	products   map[int64]*domain.Product
	categories *mockCategoryRepository
}

func newMockProductRepository(categories *mockCategoryRepository) *mockProductRepository {
	return &mockProductRepository{products: make(map[int64]*domain.Product), categories: categories}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if _, ok := m.categories.categories[product.CategoryID]; !ok {
		return repository.ErrProductCategoryMissing
	}
	m.nextID++
	product.ID = m.nextID
	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	if _, ok := m.categories.categories[product.CategoryID]; !ok {
		return repository.ErrProductCategoryMissing
	}
	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	found := *p
	return &found, nil
}

func (m *mockProductRepository) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := m.products[id]
	return ok, nil
}

func (m *mockProductRepository) filter(keep func(*domain.Product) bool) []*domain.Product {
	out := []*domain.Product{}
	for _, p := range m.products {
		if keep(p) {
			found := *p
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	return m.filter(func(*domain.Product) bool { return true }), nil
}

func (m *mockProductRepository) ListByCategory(ctx context.Context, categoryID int64) ([]*domain.Product, error) {
	return m.filter(func(p *domain.Product) bool { return p.CategoryID == categoryID }), nil
}

func (m *mockProductRepository) Popular(ctx context.Context, limit int) ([]*domain.Product, error) {
	out := m.filter(func(*domain.Product) bool { return true })
	sort.SliceStable(out, func(i, j int) bool { return out[i].SoldCount > out[j].SoldCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockProductRepository) SearchByName(ctx context.Context, query string) ([]*domain.Product, error) {
	q := strings.ToLower(query)
	return m.filter(func(p *domain.Product) bool { return strings.Contains(strings.ToLower(p.Name), q) }), nil
}

type favoriteKey struct{ userID, productID int64 }

type mockFavoriteRepository struct {
	mu        sync.Mutex
	nextID    int64
	favorites map[favoriteKey]*domain.Favorite
	products  *mockProductRepository
	listCalls int
}

func newMockFavoriteRepository(products *mockProductRepository) *mockFavoriteRepository {
	return &mockFavoriteRepository{favorites: make(map[favoriteKey]*domain.Favorite), products: products}
}

func (m *mockFavoriteRepository) Add(ctx context.Context, userID, productID int64) (*domain.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products.products[productID]; !ok {
		return nil, repository.ErrProductNotFound
	}
	key := favoriteKey{userID, productID}
	if _, ok := m.favorites[key]; ok {
		return nil, repository.ErrFavoriteAlreadyExists
	}
	m.nextID++
	favorite := &domain.Favorite{ID: m.nextID, UserID: userID, ProductID: productID, CreatedAt: time.Now()}
	m.favorites[key] = favorite
	return favorite, nil
}

func (m *mockFavoriteRepository) Remove(ctx context.Context, userID, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := favoriteKey{userID, productID}
	if _, ok := m.favorites[key]; !ok {
		return repository.ErrFavoriteNotFound
	}
	delete(m.favorites, key)
	return nil
}

func (m *mockFavoriteRepository) Exists(ctx context.Context, userID, productID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.favorites[favoriteKey{userID, productID}]
	return ok, nil
}

func (m *mockFavoriteRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Favorite{}
	for key, f := range m.favorites {
		if key.userID != userID {
			continue
		}
		found := *f
		if p, ok := m.products.products[key.productID]; ok {
			product := *p
			found.Product = &product
		}
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockFavoriteRepository) ProductIDsByUser(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	ids := make(map[int64]struct{})
	for key := range m.favorites {
		if key.userID == userID {
			ids[key.productID] = struct{}{}
		}
	}
	return ids, nil
}

// memDisk is an in-memory storage.Disk
type memDisk struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func newMemDisk() *memDisk {
	return &memDisk{objects: make(map[string][]byte)}
}

func (d *memDisk) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	if d.failPut {
		return io.ErrUnexpectedEOF
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.objects[key] = data
	return nil
}

func (d *memDisk) Delete(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.objects, key)
	return nil
}

func (d *memDisk) Exists(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.objects[key]
	return ok, nil
}

func (d *memDisk) URL(key string) string {
	return "http://cdn.test/" + key
}

func (d *memDisk) has(key string) bool {
	ok, _ := d.Exists(context.Background(), key)
	return ok
}

func testUpload(name string) Upload {
	return Upload{Filename: name, ContentType: "image/png", Body: bytes.NewReader([]byte("png-bytes"))}
}
