// Package main is the entry point for the Kota inventory API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kota/internal/domain/auth"
	"kota/internal/domain/inventory"
	"kota/internal/domain/location"
	v1 "kota/internal/infrastructure/http/v1"
	"kota/internal/infrastructure/storage/postgres"
	"kota/internal/infrastructure/storage/postgres/audit_repo"
	"kota/internal/infrastructure/storage/postgres/auth_repo"
	"kota/internal/infrastructure/storage/postgres/item_repo"
	"kota/internal/infrastructure/storage/postgres/ledger_repo"
	"kota/internal/infrastructure/storage/postgres/location_repo"
	"kota/pkg/config"
	"kota/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Env == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting kota server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DB.ConnectionString()))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	itemRepo := item_repo.NewRepo(txManager)
	ledgerRepo := ledger_repo.NewRepo(txManager)
	userRepo := auth_repo.NewRepo(txManager)

	auditRepo, err := audit_repo.NewRepo(txManager)
	if err != nil {
		log.Fatalw("failed to create audit repository", "error", err)
	}

	siteRepo := location_repo.NewSiteRepo(txManager)
	buildingRepo := location_repo.NewBuildingRepo(txManager)
	roomRepo := location_repo.NewRoomRepo(txManager)
	areaRepo := location_repo.NewAreaRepo(txManager)
	unitRepo := location_repo.NewStorageUnitRepo(txManager)
	binRepo := location_repo.NewBinRepo(txManager)

	// --- Services ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWT.Secret)
	jwtConfig.Issuer = cfg.JWT.Issuer
	jwtConfig.AccessTokenTTL = time.Duration(cfg.JWT.ExpirationMinutes) * time.Minute
	jwtService := auth.NewJWTService(jwtConfig)

	authService := auth.NewService(userRepo, auditRepo, jwtService, txManager)
	inventoryService := inventory.NewService(itemRepo, ledgerRepo, auditRepo, binRepo, txManager)
	locationService := location.NewService(
		siteRepo, buildingRepo, roomRepo, areaRepo, unitRepo, binRepo,
		auditRepo, txManager,
	)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:             pool,
		Logger:           log,
		JWTValidator:     jwtService,
		AuthService:      authService,
		InventoryService: inventoryService,
		LocationService:  locationService,
		AuditRepo:        auditRepo,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.HTTP.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
