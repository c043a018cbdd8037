package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rogerio-castellano/storefront/internal/auth"
	"github.com/rogerio-castellano/storefront/internal/cart"
	"github.com/rogerio-castellano/storefront/internal/checkout"
	"github.com/rogerio-castellano/storefront/internal/config"
	"github.com/rogerio-castellano/storefront/internal/db"
	"github.com/rogerio-castellano/storefront/internal/events"
	"github.com/rogerio-castellano/storefront/internal/http/handlers"
	rl "github.com/rogerio-castellano/storefront/internal/http/rate_limiter"
	"github.com/rogerio-castellano/storefront/internal/http/router"
	"github.com/rogerio-castellano/storefront/internal/inventory"
	"github.com/rogerio-castellano/storefront/internal/notify"
	"github.com/rogerio-castellano/storefront/internal/redissvc"
	"github.com/rogerio-castellano/storefront/internal/repo"
)

// @title Storefront API
// @version 1.0
// @description Shop catalog, carts with stock validation, transactional checkout and inventory administration.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal("❌ Invalid configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	redisService := redissvc.NewRedisService(rdb)
	if err := redisService.Ping(ctx); err != nil {
		log.Fatalf("Could not connect to Redis: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("❌ Could not connect to database:", err)
	}
	defer database.Close()

	if cfg.Migrate {
		if err := db.Migrate(database); err != nil {
			log.Fatal("❌ Could not migrate database:", err)
		}
	}

	ledger := inventory.NewLedger(cfg.LowStockThreshold)
	productRepo := repo.NewPostgresProductRepository(database)
	userRepo := repo.NewPostgresUserRepository(database)
	metricsRepo := repo.NewPostgresMetricsRepository(database, ledger)

	dispatcher := &notify.Dispatcher{
		Products:   productRepo,
		Users:      userRepo,
		Metrics:    metricsRepo,
		Ledger:     ledger,
		Marker:     redisService,
		Mailer:     notify.NewSMTPMailer(cfg.SMTP),
		Cooldown:   cfg.LowStockCooldown,
		FallbackTo: cfg.SMTP.FallbackTo,
	}

	if cfg.SendReport {
		day := time.Now().AddDate(0, 0, -1)
		if err := dispatcher.SendDailyReport(ctx, day); err != nil {
			log.Fatalf("❌ Could not send daily report: %v", err)
		}
		return
	}

	queue := notify.NewQueue(redisService)

	var publisher interface {
		checkout.OrderPublisher
		Close() error
	} = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.OrdersTopic)
	}
	defer publisher.Close()

	engine := checkout.NewEngine(
		repo.NewPostgresCheckoutStore(database, cfg.CheckoutLockTimeout),
		ledger,
		checkout.WithNotifier(queue),
		checkout.WithPublisher(publisher),
	)

	tokens := auth.NewTokens(cfg.JWTSecret, auth.DefaultTokenTTL)
	limiter := rl.New(cfg.RateLimitRPS, cfg.RateLimitBurst)

	handlers.SetProductRepo(productRepo)
	handlers.SetMovementRepo(repo.NewPostgresMovementRepository(database))
	handlers.SetUserRepo(userRepo)
	handlers.SetMetricsRepo(metricsRepo)
	handlers.SetOrderRepo(repo.NewPostgresOrderRepository(database))
	handlers.SetCartService(cart.NewService(productRepo, repo.NewPostgresCartRepository(database)))
	handlers.SetCheckoutEngine(engine)
	handlers.SetLedger(ledger)
	handlers.SetTokens(tokens)
	handlers.SetReportScheduler(queue)
	handlers.SetUploadDir(cfg.UploadDir)

	hour, minute, _ := config.ParseClock(cfg.DailyReportAt)
	go dispatcher.Run(ctx, queue)
	go notify.StartDailyReport(ctx, queue, hour, minute)
	go limiter.StartVisitorCleanupLoop(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.NewRouter(tokens, limiter, cfg.UploadDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("⚠️ Graceful shutdown failed: %v", err)
		}
	}()

	log.Printf("✅ Server running on %s", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Println("👋 Server stopped")
}
