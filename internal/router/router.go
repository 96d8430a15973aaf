package router

import (
	"posync/internal/config"
	"posync/internal/engine"
	"posync/internal/handler"
	"posync/internal/middleware"
	"posync/internal/realtime"
	"posync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires the local API and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Engine ← Gateways ← DB/Redis
func New(cfg *config.Config, eng *engine.Engine, hub *realtime.Hub, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ErrorHandler())

	// ── Services ─────────────────────────────────────────────────────────────
	saleSvc := service.NewSaleService(eng)
	closureSvc := service.NewClosureService(eng)
	ledgerSvc := service.NewLedgerService(eng)
	storeSvc := service.NewStoreService(eng)
	syncSvc := service.NewSyncService(eng)

	// ── Handlers ─────────────────────────────────────────────────────────────
	salesH := handler.NewSalesHandler(saleSvc)
	closuresH := handler.NewClosuresHandler(closureSvc)
	ledgerH := handler.NewLedgerHandler(ledgerSvc)
	storeH := handler.NewStoreHandler(storeSvc)
	syncH := handler.NewSyncHandler(syncSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, eng.Status))

	// The signal stream authenticates through ?token=
	r.GET("/v1/sync/ws", realtime.ServeWs(hub, cfg.JWTSecret))

	Register(r, cfg.JWTSecret, eng.StoreID, Handlers{
		Sales:    salesH,
		Closures: closuresH,
		Ledger:   ledgerH,
		Store:    storeH,
		Sync:     syncH,
	})
	return r
}

// Handlers groups everything mounted under /v1.
type Handlers struct {
	Sales    *handler.SalesHandler
	Closures *handler.ClosuresHandler
	Ledger   *handler.LedgerHandler
	Store    *handler.StoreHandler
	Sync     *handler.SyncHandler
}

// Register mounts the protected /v1 routes. currentStore returns the store the
// agent serves; tokens bound to another store are rejected.
func Register(r *gin.Engine, secret string, currentStore func() string, h Handlers) {
	const (
		waiter  = middleware.RoleWaiter
		kitchen = middleware.RoleKitchen
		cashier = middleware.RoleCashier
		admin   = middleware.RoleAdmin
	)
	anyRole := middleware.RequireRole(waiter, kitchen, cashier, admin)
	floor := middleware.RequireRole(waiter, cashier, admin)
	till := middleware.RequireRole(cashier, admin)
	adminOnly := middleware.RequireRole(admin)

	v1 := r.Group("/v1", middleware.JWTAuth(secret), middleware.MatchStore(currentStore))
	{
		sync := v1.Group("/sync")
		{
			sync.GET("/status", anyRole, h.Sync.Status)
			sync.POST("/refresh", anyRole, h.Sync.Refresh)
			sync.POST("/visibility", anyRole, h.Sync.SetVisibility)
			sync.PUT("/store", adminOnly, h.Sync.SwitchStore)
			sync.GET("/pending", anyRole, h.Sync.Pending)
			sync.POST("/pending/:collection/:id/retry", anyRole, h.Sync.Retry)
		}

		sales := v1.Group("/sales")
		{
			sales.GET("", anyRole, h.Sales.List)
			sales.GET("/:id", anyRole, h.Sales.Get)
			sales.POST("", floor, h.Sales.Record)
			sales.POST("/:id/void", till, h.Sales.Void)
			sales.POST("/:id/pay", till, h.Sales.Pay)
			sales.POST("/:id/reopen", till, h.Sales.Reopen)
			// Kitchen display
			sales.PATCH("/:id/items/:line/kitchen", anyRole, h.Sales.SetKitchenStatus)
			sales.POST("/:id/items/:line/served", floor, h.Sales.MarkServed)
			sales.DELETE("/:id/items/:line", floor, h.Sales.RemoveItem)
		}

		closures := v1.Group("/closures", till)
		{
			closures.GET("", h.Closures.List)
			closures.POST("", h.Closures.Record)
			closures.POST("/close-day", h.Closures.CloseDay)
		}

		v1.GET("/expenses", till, h.Ledger.ListExpenses)
		v1.POST("/expenses", till, h.Ledger.RecordExpense)
		v1.GET("/cash-injections", till, h.Ledger.ListInjections)
		v1.POST("/cash-injections", till, h.Ledger.RecordInjection)

		v1.GET("/settings", anyRole, h.Store.GetSettings)
		v1.PUT("/settings", adminOnly, h.Store.SaveSettings)
		v1.GET("/menu", anyRole, h.Store.GetMenu)
		v1.PUT("/menu", adminOnly, h.Store.PublishMenu)

		v1.DELETE("/admin/:collection", adminOnly, h.Sync.Purge)
	}
}
