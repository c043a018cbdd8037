//go:build integration

package handlers_integrated_test_suite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rogerio-castellano/storefront/internal/auth"
	"github.com/rogerio-castellano/storefront/internal/cart"
	"github.com/rogerio-castellano/storefront/internal/checkout"
	"github.com/rogerio-castellano/storefront/internal/db"
	handler "github.com/rogerio-castellano/storefront/internal/http/handlers"
	mw "github.com/rogerio-castellano/storefront/internal/http/middleware"
	rl "github.com/rogerio-castellano/storefront/internal/http/rate_limiter"
	"github.com/rogerio-castellano/storefront/internal/http/router"
	"github.com/rogerio-castellano/storefront/internal/inventory"
	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/rogerio-castellano/storefront/internal/repo"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const adminPassword = "secret"

var (
	token        string
	database     *sql.DB
	productRepo  *repo.PostgresProductRepository
	movementRepo *repo.PostgresMovementRepository
	userRepo     *repo.PostgresUserRepository
	orderRepo    *repo.PostgresOrderRepository
	testRouter   http.Handler
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("storefront"),
		postgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("❌ Could not start postgres: %v", err)
	}

	code := run(ctx, m, container)

	if err := container.Terminate(ctx); err != nil {
		log.Printf("⚠️ Failed to terminate container: %v", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, m *testing.M, container *postgres.PostgresContainer) int {
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Printf("❌ Could not build connection string: %v", err)
		return 1
	}

	database, err = db.Connect(dsn)
	if err != nil {
		log.Printf("❌ Could not connect to database: %v", err)
		return 1
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Printf("❌ Could not migrate database: %v", err)
		return 1
	}

	uploads, err := os.MkdirTemp("", "storefront-uploads")
	if err != nil {
		log.Printf("❌ Could not create upload dir: %v", err)
		return 1
	}
	defer os.RemoveAll(uploads)

	tokens := auth.NewTokens("integration-secret", time.Hour)
	setupTestRepos(tokens, uploads)
	if err := createAdmin(ctx, adminPassword); err != nil {
		log.Printf("❌ Could not create admin: %v", err)
		return 1
	}

	testRouter = router.NewRouter(tokens, rl.New(1000, 1000), uploads)
	token, err = generateToken(testRouter, "admin", adminPassword)
	if err != nil {
		log.Printf("❌ Could not log in as admin: %v", err)
		return 1
	}

	return m.Run()
}

func setupTestRepos(tokens *auth.Tokens, uploads string) {
	ledger := inventory.NewLedger(inventory.DefaultLowStockThreshold)

	productRepo = repo.NewPostgresProductRepository(database)
	movementRepo = repo.NewPostgresMovementRepository(database)
	userRepo = repo.NewPostgresUserRepository(database)
	orderRepo = repo.NewPostgresOrderRepository(database)
	cartRepo := repo.NewPostgresCartRepository(database)

	handler.SetProductRepo(productRepo)
	handler.SetMovementRepo(movementRepo)
	handler.SetUserRepo(userRepo)
	handler.SetOrderRepo(orderRepo)
	handler.SetMetricsRepo(repo.NewPostgresMetricsRepository(database, ledger))
	handler.SetCartService(cart.NewService(productRepo, cartRepo))
	handler.SetCheckoutEngine(checkout.NewEngine(
		repo.NewPostgresCheckoutStore(database, 5*time.Second),
		ledger,
	))
	handler.SetLedger(ledger)
	handler.SetTokens(tokens)
	handler.SetUploadDir(uploads)
}

func createAdmin(ctx context.Context, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = userRepo.CreateUser(ctx, models.User{
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	})
	return err
}

// clearAllData empties every table except users.
func clearAllData(t *testing.T) {
	t.Helper()
	_, err := database.Exec(`TRUNCATE order_items, orders, cart_items, movements, products RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

func generateToken(r http.Handler, username, password string) (string, error) {
	body, _ := json.Marshal(handler.CredentialsRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp handler.LoginResult
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("token decoding failed: %v", err)
	}
	return resp.Token, nil
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createProduct(r http.Handler, p handler.ProductRequest) *httptest.ResponseRecorder {
	body, _ := json.Marshal(p)
	return adminRequest(r, http.MethodPost, "/products", bytes.NewReader(body))
}

func mustCreateProduct(t *testing.T, r http.Handler, name, amount string, stock int) int {
	t.Helper()
	w := createProduct(r, handler.ProductRequest{Name: name, Price: price(amount), StockQuantity: stock})
	if w.Code != http.StatusCreated {
		t.Fatalf("failed to create product %s: %d %s", name, w.Code, w.Body.String())
	}
	var resp handler.ProductResponse
	json.NewDecoder(w.Body).Decode(&resp)
	return resp.Id
}

func adjustProduct(r http.Handler, productID int, adj handler.QuantityAdjustmentRequest) *httptest.ResponseRecorder {
	body, _ := json.Marshal(adj)
	return adminRequest(r, http.MethodPost, fmt.Sprintf("/products/%d/adjust", productID), bytes.NewReader(body))
}

func adminRequest(r http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func multipartCSV(csvContent string, filename string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, _ := writer.CreateFormFile("file", filename)
	part.Write([]byte(csvContent))

	writer.Close()
	return &buf, writer.FormDataContentType()
}

func stockOf(t *testing.T, id int) int {
	t.Helper()
	p, err := productRepo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("product %d: %v", id, err)
	}
	return p.StockQuantity
}

type shopper struct {
	r      http.Handler
	cookie *http.Cookie
}

func newShopper(r http.Handler) *shopper {
	return &shopper{r: r, cookie: &http.Cookie{Name: mw.SessionCookie, Value: uuid.NewString()}}
}

func (s *shopper) do(method, path string, payload any) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	req.AddCookie(s.cookie)

	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func (s *shopper) add(productID, quantity int) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/cart/add", handler.AddToCartRequest{ProductID: productID, Quantity: quantity})
}

func (s *shopper) count() int {
	var resp handler.CartCountResult
	json.NewDecoder(s.do(http.MethodGet, "/cart/count", nil).Body).Decode(&resp)
	return resp.Count
}

func decodeMessage(w *httptest.ResponseRecorder) handler.MessageResult {
	var resp handler.MessageResult
	json.NewDecoder(w.Body).Decode(&resp)
	return resp
}
