package handlers

import (
	"context"
	"time"

	"github.com/rogerio-castellano/storefront/internal/auth"
	"github.com/rogerio-castellano/storefront/internal/cart"
	"github.com/rogerio-castellano/storefront/internal/checkout"
	"github.com/rogerio-castellano/storefront/internal/inventory"
	repo "github.com/rogerio-castellano/storefront/internal/repo"
)

// ReportScheduler queues a daily sales report.
type ReportScheduler interface {
	ScheduleDailyReport(ctx context.Context, day time.Time) error
}

var (
	productRepo  repo.ProductRepository
	movementRepo repo.MovementRepository
	metricsRepo  repo.MetricsRepository
	userRepo     repo.UserRepository
	orderRepo    repo.OrderRepository

	cartService    *cart.Service
	checkoutEngine *checkout.Engine
	ledger         = inventory.NewLedger(inventory.DefaultLowStockThreshold)
	tokens         = auth.NewTokens("super-secret-key", auth.DefaultTokenTTL)
	reports        ReportScheduler

	uploadDir = "./storage/products"
)

func SetProductRepo(r repo.ProductRepository) {
	productRepo = r
}

func SetMovementRepo(r repo.MovementRepository) {
	movementRepo = r
}

func SetMetricsRepo(r repo.MetricsRepository) {
	metricsRepo = r
}

func SetUserRepo(r repo.UserRepository) {
	userRepo = r
}

func SetOrderRepo(r repo.OrderRepository) {
	orderRepo = r
}

func SetCartService(s *cart.Service) {
	cartService = s
}

func SetCheckoutEngine(e *checkout.Engine) {
	checkoutEngine = e
}

func SetLedger(l *inventory.Ledger) {
	ledger = l
}

func SetTokens(t *auth.Tokens) {
	tokens = t
}

func SetReportScheduler(s ReportScheduler) {
	reports = s
}

// SetUploadDir sets where product images are written.
func SetUploadDir(dir string) {
	uploadDir = dir
}
