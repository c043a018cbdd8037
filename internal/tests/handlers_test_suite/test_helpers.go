package handlers_test_suite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rogerio-castellano/storefront/internal/auth"
	"github.com/rogerio-castellano/storefront/internal/cart"
	"github.com/rogerio-castellano/storefront/internal/checkout"
	handler "github.com/rogerio-castellano/storefront/internal/http/handlers"
	mw "github.com/rogerio-castellano/storefront/internal/http/middleware"
	rl "github.com/rogerio-castellano/storefront/internal/http/rate_limiter"
	"github.com/rogerio-castellano/storefront/internal/http/router"
	"github.com/rogerio-castellano/storefront/internal/inventory"
	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/rogerio-castellano/storefront/internal/repo"
	"github.com/shopspring/decimal"
)

const adminPassword = "secret"

var (
	token        string
	productRepo  *repo.InMemoryProductRepository
	movementRepo *repo.InMemoryMovementRepository
	orderRepo    *repo.InMemoryOrderRepository
	userRepo     *repo.InMemoryUserRepository
	notifier     *recordingNotifier
	scheduler    *recordingScheduler
	uploads      string
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls [][]int
}

func (n *recordingNotifier) NotifyLowStock(_ context.Context, ids []int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, ids)
	return nil
}

func (n *recordingNotifier) notified() [][]int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([][]int(nil), n.calls...)
}

type recordingScheduler struct {
	days []time.Time
}

func (s *recordingScheduler) ScheduleDailyReport(_ context.Context, day time.Time) error {
	s.days = append(s.days, day)
	return nil
}

// newRouter builds the application over fresh in-memory repositories and
// logs in as admin.
func newRouter(t *testing.T) http.Handler {
	t.Helper()

	tokens := auth.NewTokens("test-secret", time.Hour)
	setupTestRepos(adminPassword, tokens)
	uploads = t.TempDir()
	handler.SetUploadDir(uploads)

	r := router.NewRouter(tokens, rl.New(1000, 1000), uploads)

	var err error
	token, err = generateToken(r, "admin", adminPassword)
	if err != nil {
		t.Fatalf("error generating token: %v", err)
	}
	return r
}

func setupTestRepos(password string, tokens *auth.Tokens) {
	ledger := inventory.NewLedger(inventory.DefaultLowStockThreshold)

	productRepo = repo.NewInMemoryProductRepository()
	movementRepo = repo.NewInMemoryMovementRepository()
	orderRepo = repo.NewInMemoryOrderRepository()
	userRepo = repo.NewInMemoryUserRepository()
	cartRepo := repo.NewInMemoryCartRepository(productRepo)
	notifier = &recordingNotifier{}
	scheduler = &recordingScheduler{}

	hash, _ := auth.HashPassword(password)
	userRepo.CreateUser(context.Background(), models.User{
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	})

	handler.SetProductRepo(productRepo)
	handler.SetMovementRepo(movementRepo)
	handler.SetUserRepo(userRepo)
	handler.SetOrderRepo(orderRepo)
	handler.SetMetricsRepo(repo.NewInMemoryMetricsRepository(productRepo, orderRepo, userRepo, ledger))
	handler.SetCartService(cart.NewService(productRepo, cartRepo))
	handler.SetCheckoutEngine(checkout.NewEngine(
		repo.NewInMemoryCheckoutStore(productRepo, cartRepo, orderRepo, movementRepo),
		ledger,
		checkout.WithNotifier(notifier),
	))
	handler.SetLedger(ledger)
	handler.SetTokens(tokens)
	handler.SetReportScheduler(scheduler)
}

func clearAllProducts() {
	productRepo.Clear()
}

func generateToken(r http.Handler, username, password string) (string, error) {
	payload := handler.CredentialsRequest{Username: username, Password: password}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp handler.LoginResult
	err := json.NewDecoder(w.Body).Decode(&resp)
	if err != nil {
		return "", fmt.Errorf("token decoding failed: %v", err)
	}
	return resp.Token, nil
}

func customerToken(r http.Handler, username string) (string, error) {
	body, _ := json.Marshal(handler.CredentialsRequest{Username: username, Password: "secret-password"})
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp handler.RegisterResult
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("register failed with %d: %v", w.Code, err)
	}
	return resp.Token, nil
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createProduct(r http.Handler, p handler.ProductRequest) *httptest.ResponseRecorder {
	body, _ := json.Marshal(p)
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// mustCreateProduct creates a product and returns its id.
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
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/products/%d/adjust", productID), bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func adminRequest(r http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func multipartFile(field, filename string, content []byte) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, _ := writer.CreateFormFile(field, filename)
	part.Write(content)

	writer.Close()
	return &buf, writer.FormDataContentType()
}

func multipartCSV(csvContent string, filename string) (*bytes.Buffer, string) {
	return multipartFile("file", filename, []byte(csvContent))
}

func addMovement(movement models.Movement) {
	movementRepo.AddMovement(movement)
}

// shopper is an anonymous visitor holding a session cookie, or a logged in
// customer when bearer is set.
type shopper struct {
	r      http.Handler
	cookie *http.Cookie
	bearer string
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
	if s.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+s.bearer)
	}

	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func (s *shopper) add(productID, quantity int) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/cart/add", handler.AddToCartRequest{ProductID: productID, Quantity: quantity})
}

func (s *shopper) checkout() *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/cart/checkout", nil)
}

func (s *shopper) cart() cart.Cart {
	var c cart.Cart
	json.NewDecoder(s.do(http.MethodGet, "/cart", nil).Body).Decode(&c)
	return c
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

func stockOf(t *testing.T, id int) int {
	t.Helper()
	p, err := productRepo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("product %d: %v", id, err)
	}
	return p.StockQuantity
}

func jsonBody(b []byte) io.Reader {
	return bytes.NewReader(b)
}
