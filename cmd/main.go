package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docstore/internal/bootstrap"
	"docstore/internal/cache"
	"docstore/internal/config"
	"docstore/internal/models"
	"docstore/internal/repository"
	"docstore/internal/server"
	apperrors "docstore/internal/shared/errors"
	"docstore/internal/shared/eventbus"
	"docstore/internal/shared/logger"
	"docstore/internal/storage/mongodb"

	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("🚀 docstore - Starting Application...")

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewLogger()
	appLogger.Info("Application configuration loaded successfully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := mongodb.Connect(ctx, cfg.MongoURI, appLogger)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			appLogger.Error("Failed to close store: ", err)
		}
	}()
	appLogger.Info("MongoDB connection established successfully")

	// Change events from every repository funnel through one bus.
	bus := eventbus.NewBus(appLogger)
	for _, eventType := range []string{eventbus.EventDocumentAdded, eventbus.EventDocumentReplaced, eventbus.EventDocumentDeleted} {
		bus.Subscribe(eventType, func(ctx context.Context, event eventbus.ChangeEvent) error {
			appLogger.WithFields(map[string]interface{}{
				"container": event.Container,
				"document":  event.DocumentID,
			}).Debugf("change event %s", event.Type)
			return nil
		})
	}

	provisioner := repository.NewProvisioner(store, cfg.RepositoryOptions(), appLogger)

	invoices := repository.NewRepository[models.Invoice, string](provisioner, appLogger,
		repository.WithEventBus(bus))
	ledger := repository.NewDualKeyRepository[models.LedgerEntry, string, int](provisioner, appLogger,
		repository.WithEventBus(bus))

	// The HTTP layer reads invoices through the cache when redis is enabled.
	var invoiceResource server.Resource[models.Invoice, string] = invoices
	if cfg.Redis.Enabled {
		redisClient := cache.NewRedisClient(cfg.Redis)
		defer redisClient.Close()
		invoiceResource = cache.NewCachedRepository[models.Invoice, string](
			invoices, cache.NewRedisCache(redisClient), invoices.ContainerID(), cfg.CacheTTL, appLogger)
		appLogger.Info("Redis read-through cache enabled")
	}

	boot := bootstrap.New(cfg, store, appLogger)
	if err := boot.Run(ctx, func(ctx context.Context) error {
		return seed(ctx, invoices, ledger)
	}); err != nil {
		log.Fatalf("Bootstrap failed: %v", err)
	}

	app := server.New(appLogger, store.Ping)
	api := server.API(app)
	server.NewResourceHandler[models.Invoice, string](invoices.ContainerID(), invoiceResource, server.StringKey, appLogger).Register(api)

	serverAddr := cfg.Server.Addr()
	appLogger.Infof("🌟 All modules initialized. Starting HTTP server on %s", serverAddr)

	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(serverAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			log.Fatalf("Server startup failed: %v", err)
		}
	case sig := <-quit:
		appLogger.Infof("Received shutdown signal: %v", sig)
		fmt.Println("🛑 Shutting down server gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Error("Server forced to shutdown: ", err)
		}
		appLogger.Info("HTTP server stopped")
	}

	fmt.Println("✅ Application stopped gracefully.")
}

// seed loads a handful of documents so a freshly dropped development
// database has something to serve. Documents already present are left alone,
// keeping reruns idempotent.
func seed(ctx context.Context, invoices *repository.Repository[models.Invoice, string], ledger *repository.DualKeyRepository[models.LedgerEntry, string, int]) error {
	sample := []models.Invoice{
		{ID: "inv-1001", Name: "Acme Corp", Amount: 125.50, CreatedAt: time.Now().UTC()},
		{ID: "inv-1002", Name: "Globex", Amount: 980.00, CreatedAt: time.Now().UTC()},
	}
	for i := range sample {
		if _, err := invoices.Add(ctx, &sample[i]); err != nil && !apperrors.IsConflict(err) {
			return err
		}
	}

	entries := []models.LedgerEntry{
		{Region: "eu", Number: 1, Amount: 125.50, Memo: "opening"},
		{Region: "us", Number: 1, Amount: 980.00, Memo: "opening"},
	}
	for i := range entries {
		if _, err := ledger.Add(ctx, &entries[i]); err != nil && !apperrors.IsConflict(err) {
			return err
		}
	}
	return nil
}
