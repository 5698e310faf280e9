// Package main seeds the database with an admin account and a small
// demo location tree. Safe to re-run: existing records are left alone.
package main

import (
	"context"
	"fmt"
	"os"

	"kota/internal/core/apperror"
	"kota/internal/core/id"
	"kota/internal/domain/auth"
	"kota/internal/domain/location"
	"kota/internal/infrastructure/storage/postgres"
	"kota/internal/infrastructure/storage/postgres/audit_repo"
	"kota/internal/infrastructure/storage/postgres/auth_repo"
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
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DB.ConnectionString()))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	userRepo := auth_repo.NewRepo(txManager)
	auditRepo, err := audit_repo.NewRepo(txManager)
	if err != nil {
		log.Fatalw("failed to create audit repository", "error", err)
	}

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWT.Secret))
	authService := auth.NewService(userRepo, auditRepo, jwtService, txManager)

	adminID, err := seedAdmin(ctx, userRepo, authService)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}
	log.Infow("admin account ready", "user_id", adminID)

	locationService := location.NewService(
		location_repo.NewSiteRepo(txManager),
		location_repo.NewBuildingRepo(txManager),
		location_repo.NewRoomRepo(txManager),
		location_repo.NewAreaRepo(txManager),
		location_repo.NewStorageUnitRepo(txManager),
		location_repo.NewBinRepo(txManager),
		auditRepo,
		txManager,
	)

	if err := seedLocations(ctx, locationService, adminID); err != nil {
		log.Fatalw("failed to seed locations", "error", err)
	}

	log.Info("seed complete")
}

func seedAdmin(ctx context.Context, users auth.UserRepository, svc *auth.Service) (id.ID, error) {
	const username = "admin"

	existing, err := users.GetByUsername(ctx, username)
	if err == nil {
		return existing.ID, nil
	}
	if !apperror.IsNotFound(err) {
		return id.Nil(), err
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "changeme1"
	}

	// Bootstrap: the first admin is its own audit actor.
	bootstrapID := id.New()
	user, err := svc.CreateUser(ctx, username, password, auth.RoleAdmin, bootstrapID)
	if err != nil {
		return id.Nil(), err
	}
	return user.ID, nil
}

func seedLocations(ctx context.Context, svc *location.Service, actorID id.ID) error {
	sites, err := svc.ListSites(ctx)
	if err != nil {
		return err
	}
	if len(sites) > 0 {
		return nil
	}

	site, err := svc.CreateSite(ctx, "HQ", "Headquarters", actorID)
	if err != nil {
		return err
	}
	building, err := svc.CreateBuilding(ctx, site.ID, "B1", "Main Building", actorID)
	if err != nil {
		return err
	}
	room, err := svc.CreateRoom(ctx, building.ID, "R101", "Workshop", actorID)
	if err != nil {
		return err
	}

	unit := &location.StorageUnit{
		RoomID: room.ID,
		Code:   "C1",
		Name:   "Parts Cabinet",
		Kind:   location.KindContainer,
		Type:   location.TypeCabinet,
	}
	created, err := svc.CreateStorageUnit(ctx, unit, actorID)
	if err != nil {
		return err
	}

	for i := 1; i <= 4; i++ {
		code := fmt.Sprintf("BIN-%02d", i)
		name := fmt.Sprintf("Bin %d", i)
		if _, err := svc.CreateBin(ctx, created.ID, code, name, location.KindBin, actorID); err != nil {
			return err
		}
	}

	return nil
}
