package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wordgame-economy/catalog"
	"wordgame-economy/config"
	"wordgame-economy/economy"
	"wordgame-economy/handlers"
	"wordgame-economy/middleware"
	"wordgame-economy/services"
	"wordgame-economy/store"
	"wordgame-economy/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jonboulle/clockwork"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()

	accounts, err := openStore(cfg, clock)
	if err != nil {
		log.Fatal("failed to open account store: ", err)
	}

	source, err := catalogSource(ctx, cfg)
	if err != nil {
		log.Fatal("failed to initialize catalog source: ", err)
	}
	loader := &catalog.Loader{
		Source: source,
		Options: catalog.Options{
			Random:          economy.NewSeededRandom(cfg.Economy.RandomSeed),
			Location:        cfg.Location(),
			DefaultCooldown: cfg.Economy.DefaultCooldown,
		},
	}
	cat, raw, err := loader.Load(ctx)
	if err != nil {
		log.Fatal("failed to load catalog: ", err)
	}
	holder := catalog.NewHolder(cat)

	tx := store.NewTransactor(accounts, cfg.RetryPolicy(), clock)
	ledger := services.NewInventoryLedger(accounts, tx, holder)
	accountService := services.NewAccountService(accounts, tx, holder, clock)
	purchases := services.NewPurchaseTransactor(accounts, tx, ledger, holder, clock)
	runtime := services.NewPowerUpRuntime(accounts, tx, ledger, holder, clock)
	daily := services.NewDailyRewardService(accounts, tx, ledger, holder, clock)
	progression := services.NewProgressionService(tx, holder, clock)

	// Instances that outlived the last process still need to expire
	if err := runtime.Restore(ctx); err != nil {
		log.Fatal("failed to restore power-up owners: ", err)
	}
	scheduler, err := runtime.StartEconomyScheduler(ctx, clock, cfg.Economy.SweepInterval, cfg.Economy.ReindexInterval)
	if err != nil {
		log.Fatal("failed to start scheduler: ", err)
	}

	syncClient := workers.NewCatalogSyncClient(loader, holder, raw, clock)
	go workers.PollCatalog(ctx, syncClient, cfg.Catalog.RefreshInterval)

	app := fiber.New(fiber.Config{
		BodyLimit: 64 * 1024,
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed (health and the SSE stream authenticate elsewhere)
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken, "/health", "/user/stream"))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Origins(),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, X-Device-ID, Cache-Control",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	handlers.SetupRoutes(app, handlers.Services{
		Accounts:    accountService,
		Ledger:      ledger,
		Purchases:   purchases,
		Runtime:     runtime,
		Daily:       daily,
		Progression: progression,
		Catalog:     holder,
		Tokens:      services.NewAuthServiceClient(cfg.AuthServiceURL, cfg.AuthServiceKey, cfg.AuthTimeout),
	})

	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%d", cfg.Port)
	log.Printf("✅ Catalog %s polling every %s", source, cfg.Catalog.RefreshInterval)
	log.Println("✅ GatewayAuthMiddleware enforced globally, all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", cfg.Origins())

	<-ctx.Done()
	log.Println("Shutting down server...")

	if err := scheduler.Shutdown(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// openStore picks PostgreSQL when DATABASE_URL is set and the in-memory store
// otherwise.
func openStore(cfg *config.Config, clock clockwork.Clock) (store.AccountStore, error) {
	if cfg.DatabaseURL == "" {
		log.Println("⚠️  DATABASE_URL not set, accounts live in memory only")
		return store.NewMemoryStore(), nil
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	gs := store.NewGormStore(db, clock, cfg.LockTimeout, cfg.WatchInterval)
	if err := gs.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return gs, nil
}

func catalogSource(ctx context.Context, cfg *config.Config) (catalog.Source, error) {
	if cfg.Catalog.Source == config.CatalogSourceR2 {
		return catalog.NewR2Source(ctx, catalog.R2Credentials{
			AccountID:       cfg.Catalog.R2AccountID,
			AccessKeyID:     cfg.Catalog.R2AccessKeyID,
			AccessKeySecret: cfg.Catalog.R2AccessKeySecret,
		}, cfg.Catalog.R2Bucket, cfg.Catalog.R2Key)
	}
	return catalog.FileSource{Path: cfg.Catalog.Path}, nil
}
