package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"catalog-api/internal/database"
	"catalog-api/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// testDB is nil when no container runtime is available; integration tests
// skip themselves in that case.
var testDB *sql.DB

func setupTestDB() (func(context.Context) error, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	connStr, err := dbContainer.ConnectionString(context.Background(), "sslmode=disable")
	if err != nil {
		return dbContainer.Terminate, err
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	if err := database.RunMigrations(db, "../../migrations", zap.NewNop()); err != nil {
		return dbContainer.Terminate, err
	}

	testDB = db
	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	teardown, err := setupTestDB()
	if err != nil {
		log.Printf("postgres container unavailable, integration tests will be skipped: %v", err)
	}

	code := m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Printf("could not teardown postgres container: %v", err)
		}
	}
	os.Exit(code)
}

func requireDB(t *testing.T) {
	t.Helper()
	if testDB == nil {
		t.Skip("postgres container not available")
	}
}

func resetTables(t *testing.T) {
	t.Helper()
	if _, err := testDB.Exec(`TRUNCATE favorites, products, categories, sessions, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func seedCategory(t *testing.T, name string) *domain.Category {
	t.Helper()
	category := &domain.Category{Name: name, Image: name + ".png"}
	if err := NewCategoryRepository(testDB).Create(context.Background(), category); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return category
}

func seedProduct(t *testing.T, categoryID int64, name string, sold int) *domain.Product {
	t.Helper()
	product := &domain.Product{
		Name:        name,
		Description: name + " description",
		Image:       name + ".jpg",
		Price:       decimal.RequireFromString("9.99"),
		SoldCount:   sold,
		CategoryID:  categoryID,
	}
	if err := NewProductRepository(testDB).Create(context.Background(), product); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func seedUser(t *testing.T, email string) *domain.User {
	t.Helper()
	user := &domain.User{Name: "Tester", Email: email, PasswordHash: "hash"}
	if err := NewUserRepository(testDB).Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// Property: registering the same email twice leaves exactly one user row
func TestProperty_EmailUniquenessIsEnforcedByStore(t *testing.T) {
	requireDB(t)
	resetTables(t)
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("second insert with same email fails and creates nothing", prop.ForAll(
		func(email string) bool {
			_, _ = testDB.Exec("DELETE FROM users WHERE email = $1", email)

			first := &domain.User{Name: "A", Email: email, PasswordHash: "h"}
			if err := repo.Create(ctx, first); err != nil {
				return false
			}
			second := &domain.User{Name: "B", Email: email, PasswordHash: "h"}
			if err := repo.Create(ctx, second); !errors.Is(err, ErrUserAlreadyExists) {
				return false
			}

			var count int
			if err := testDB.QueryRow("SELECT COUNT(*) FROM users WHERE email = $1", email).Scan(&count); err != nil {
				return false
			}
			return count == 1
		},
		gen.RegexMatch(`[a-z]{5,10}@[a-z]{3,8}\.(com|org|net)`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Concurrent adds of the same pair store one row; every other caller sees a conflict.
func TestFavoriteRepository_ConcurrentAddStoresOneRow(t *testing.T) {
	requireDB(t)
	resetTables(t)
	ctx := context.Background()

	user := seedUser(t, "fan@example.com")
	category := seedCategory(t, "shoes")
	product := seedProduct(t, category.ID, "runner", 0)
	repo := NewFavoriteRepository(testDB)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Add(ctx, user.ID, product.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrFavoriteAlreadyExists):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || conflicts != workers-1 {
		t.Errorf("expected 1 success and %d conflicts, got %d and %d", workers-1, succeeded, conflicts)
	}

	var count int
	if err := testDB.QueryRow(`SELECT COUNT(*) FROM favorites WHERE user_id = $1 AND product_id = $2`,
		user.ID, product.ID).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected one stored favorite, got %d", count)
	}
}

func TestProductRepository_PopularOrdersBySoldCount(t *testing.T) {
	requireDB(t)
	resetTables(t)
	ctx := context.Background()

	category := seedCategory(t, "mugs")
	for i, sold := range []int{50, 10, 30} {
		seedProduct(t, category.ID, string(rune('a'+i)), sold)
	}

	products, err := NewProductRepository(testDB).Popular(ctx, PopularLimit)
	if err != nil {
		t.Fatalf("popular: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(products))
	}
	for i, want := range []int{50, 30, 10} {
		if products[i].SoldCount != want {
			t.Errorf("position %d: expected sold_count %d, got %d", i, want, products[i].SoldCount)
		}
	}
}

func TestProductRepository_SearchIsCaseInsensitive(t *testing.T) {
	requireDB(t)
	resetTables(t)
	ctx := context.Background()

	category := seedCategory(t, "tops")
	seedProduct(t, category.ID, "Blue Shirt", 0)
	seedProduct(t, category.ID, "Red Scarf", 0)

	products, err := NewProductRepository(testDB).SearchByName(ctx, "SHIRT")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Blue Shirt" {
		t.Errorf("unexpected search result %+v", products)
	}
}

func TestProductRepository_DeleteThenFind(t *testing.T) {
	requireDB(t)
	resetTables(t)
	ctx := context.Background()
	repo := NewProductRepository(testDB)

	category := seedCategory(t, "bags")
	product := seedProduct(t, category.ID, "tote", 1)

	if err := repo.Delete(ctx, product.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, product.ID); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound after delete, got %v", err)
	}
}

func TestCategoryRepository_DeleteCascadesToFavorites(t *testing.T) {
	requireDB(t)
	resetTables(t)
	ctx := context.Background()

	user := seedUser(t, "cascade@example.com")
	category := seedCategory(t, "hats")
	product := seedProduct(t, category.ID, "cap", 0)
	favorites := NewFavoriteRepository(testDB)
	if _, err := favorites.Add(ctx, user.ID, product.ID); err != nil {
		t.Fatalf("add favorite: %v", err)
	}

	if err := NewCategoryRepository(testDB).Delete(ctx, category.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	list, err := favorites.ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("list favorites: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected favorites to be removed with their product, got %d", len(list))
	}
}
