// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"kota/internal/domain/audit"
	"kota/internal/domain/auth"
	"kota/internal/domain/inventory"
	"kota/internal/domain/location"
	"kota/internal/infrastructure/http/v1/handlers"
	"kota/internal/infrastructure/http/v1/middleware"
	"kota/internal/infrastructure/storage/postgres"
	"kota/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool *postgres.Pool

	Logger *logger.Logger

	JWTValidator middleware.JWTValidator

	AuthService      *auth.Service
	InventoryService *inventory.Service
	LocationService  *location.Service
	AuditRepo        audit.Repository
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	itemHandler := handlers.NewItemHandler(cfg.InventoryService)
	locationHandler := handlers.NewLocationHandler(cfg.LocationService)
	auditHandler := handlers.NewAuditHandler(cfg.AuditRepo)

	api := router.Group("/api/v1")
	{
		api.POST("/auth/login", authHandler.Login)

		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerItemRoutes(protected, itemHandler)
		registerLocationRoutes(protected, locationHandler)

		admin := protected.Group("")
		admin.Use(middleware.RequireAdmin())

		registerUserRoutes(admin, authHandler)
		registerAuditRoutes(admin, auditHandler)
	}

	return router
}

func registerItemRoutes(g *gin.RouterGroup, h *handlers.ItemHandler) {
	items := g.Group("/items")
	{
		items.POST("", h.Create)
		items.GET("", h.List)
		items.GET("/low-stock", h.ListLowStock)
		items.POST("/bulk/add", h.BulkAdd)
		items.POST("/bulk/remove", h.BulkRemove)
		items.POST("/bulk/delete", h.BulkDelete)
		items.GET("/:id", h.Get)
		items.PUT("/:id", h.Update)
		items.DELETE("/:id", h.Delete)
		items.GET("/:id/location", h.GetLocation)
		items.GET("/:id/transactions", h.ListTransactions)
		items.POST("/:id/add", h.AddStock)
		items.POST("/:id/remove", h.RemoveStock)
	}

	g.GET("/transactions", h.ListRecentTransactions)
}

func registerLocationRoutes(g *gin.RouterGroup, h *handlers.LocationHandler) {
	sites := g.Group("/sites")
	{
		sites.POST("", h.CreateSite)
		sites.GET("", h.ListSites)
		sites.DELETE("/:id", h.DeleteSite)
		sites.POST("/:id/buildings", h.CreateBuilding)
		sites.GET("/:id/buildings", h.ListBuildings)
	}

	buildings := g.Group("/buildings")
	{
		buildings.DELETE("/:id", h.DeleteBuilding)
		buildings.POST("/:id/rooms", h.CreateRoom)
		buildings.GET("/:id/rooms", h.ListRooms)
	}

	rooms := g.Group("/rooms")
	{
		rooms.DELETE("/:id", h.DeleteRoom)
		rooms.POST("/:id/areas", h.CreateArea)
		rooms.GET("/:id/areas", h.ListAreas)
		rooms.GET("/:id/storage-units", h.ListStorageUnits)
	}

	areas := g.Group("/areas")
	{
		areas.DELETE("/:id", h.DeleteArea)
	}

	units := g.Group("/storage-units")
	{
		units.POST("", h.CreateStorageUnit)
		units.DELETE("/:id", h.DeleteStorageUnit)
		units.POST("/:id/bins", h.CreateBin)
		units.GET("/:id/bins", h.ListBins)
	}

	bins := g.Group("/bins")
	{
		bins.DELETE("/:id", h.DeleteBin)
		bins.GET("/:id/path", h.GetBinPath)
	}
}

func registerUserRoutes(g *gin.RouterGroup, h *handlers.AuthHandler) {
	users := g.Group("/users")
	{
		users.POST("", h.CreateUser)
		users.GET("", h.ListUsers)
		users.PUT("/:id/role", h.UpdateRole)
		users.DELETE("/:id", h.Deactivate)
		users.POST("/:id/reset-password", h.ResetPassword)
	}
}

func registerAuditRoutes(g *gin.RouterGroup, h *handlers.AuditHandler) {
	auditGroup := g.Group("/audit")
	{
		auditGroup.GET("", h.ListRecent)
		auditGroup.GET("/:entityType/:id", h.ListByEntity)
	}
}
