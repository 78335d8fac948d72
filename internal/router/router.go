package router

import (
	"time"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/mudogruer/istakip-18.01.26/internal/config"
	"github.com/mudogruer/istakip-18.01.26/internal/handler"
	"github.com/mudogruer/istakip-18.01.26/internal/middleware"
	"github.com/mudogruer/istakip-18.01.26/internal/repository"
	"github.com/mudogruer/istakip-18.01.26/internal/service"
	"github.com/mudogruer/istakip-18.01.26/internal/worker"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	jobRepo := repository.NewJobRepository(db)
	stockRepo := repository.NewStockRepository(db)
	productionRepo := repository.NewProductionOrderRepository(db)
	purchaseRepo := repository.NewPurchaseOrderRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	jobSvc := service.NewJobService(jobRepo)
	stockSvc := service.NewStockService(stockRepo, dispatcher)
	productionSvc := service.NewProductionService(productionRepo, jobRepo, rdb)
	purchaseSvc := service.NewPurchaseService(purchaseRepo, stockRepo)
	supplierSvc := service.NewSupplierService(supplierRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	jobsH := handler.NewJobsHandler(jobSvc, dispatcher, cfg.PDFStoragePath, cfg.OpsEmail)
	stockH := handler.NewStockHandler(stockSvc)
	productionH := handler.NewProductionHandler(productionSvc)
	purchaseH := handler.NewPurchaseHandler(purchaseSvc)
	suppliersH := handler.NewSuppliersHandler(supplierSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Protected routes. Roles: office, workshop, admin.
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		jobs := v1.Group("/jobs", middleware.RequireRole("office", "workshop", "admin"))
		{
			jobs.POST("", jobsH.Create)
			jobs.GET("", jobsH.List)
			jobs.GET("/:id", jobsH.Get)
			jobs.PUT("/:id/measure", jobsH.UpdateMeasure)
			jobs.PUT("/:id/offer", jobsH.UpdateOffer)
			jobs.POST("/:id/approval/start", jobsH.StartApproval)
			jobs.PUT("/:id/approval/payment", jobsH.UpdatePayment)
			jobs.PUT("/:id/stock", jobsH.UpdateStock)
			jobs.PUT("/:id/production", jobsH.UpdateProduction)
			jobs.PUT("/:id/assembly/schedule", jobsH.ScheduleAssembly)
			jobs.PUT("/:id/assembly/complete", jobsH.CompleteAssembly)
			jobs.PUT("/:id/status", jobsH.UpdateStatus)
			jobs.PUT("/:id/finance/close", middleware.RequireRole("office", "admin"), jobsH.CloseFinance)
			jobs.GET("/:id/finance/receipt", middleware.RequireRole("office", "admin"), jobsH.FinanceReceipt)
		}

		stock := v1.Group("/stock", middleware.RequireRole("office", "workshop", "admin"))
		{
			stock.POST("/items", stockH.CreateItem)
			stock.GET("/items", stockH.ListItems)
			stock.GET("/items/search", stockH.SearchItems)
			stock.GET("/items/by-code/:productCode/:colorCode", stockH.GetItemByCode)
			stock.GET("/items/:id", stockH.GetItem)
			stock.PUT("/items/:id", stockH.UpdateItem)
			stock.DELETE("/items/:id", middleware.RequireRole("admin"), stockH.DeleteItem)

			stock.POST("/movements", stockH.RecordMovement)
			stock.GET("/movements", stockH.ListMovements)
			stock.GET("/movements/export", stockH.ExportMovements)

			stock.POST("/bulk-reserve", stockH.BulkReserve)
			stock.GET("/reservations", stockH.ListReservations)
			stock.PUT("/reservations/:id/release", stockH.ReleaseReservation)

			stock.GET("/critical", stockH.CriticalItems)
			stock.GET("/availability-check", stockH.CheckAvailability)
		}

		production := v1.Group("/production", middleware.RequireRole("office", "workshop", "admin"))
		{
			production.GET("", productionH.List)
			production.POST("", productionH.Create)
			production.GET("/summary", productionH.Summary)
			production.GET("/alerts", productionH.Alerts)
			production.GET("/combinations", productionH.Combinations)
			production.GET("/by-job/:jobId", productionH.ByJob)
			production.GET("/:id", productionH.Get)
			production.PUT("/:id", productionH.Update)
			production.DELETE("/:id", productionH.Delete)
			production.POST("/:id/delivery", productionH.RecordDelivery)
			production.POST("/:id/issues/:issueId/resolve", productionH.ResolveIssue)
		}

		purchase := v1.Group("/purchase", middleware.RequireRole("office", "admin"))
		{
			purchase.POST("", purchaseH.Create)
			purchase.GET("", purchaseH.List)
			purchase.GET("/missing-items", purchaseH.MissingItems)
			purchase.GET("/pending-items", purchaseH.PendingItems)
			purchase.GET("/:id", purchaseH.Get)
			purchase.POST("/:id/items", purchaseH.AddItems)
			purchase.POST("/:id/send", purchaseH.Send)
			purchase.POST("/:id/delivery", purchaseH.ReceiveDelivery)
			purchase.DELETE("/:id", purchaseH.Delete)
		}

		suppliers := v1.Group("/suppliers", middleware.RequireRole("office", "admin"))
		{
			suppliers.POST("", suppliersH.Create)
			suppliers.GET("", suppliersH.List)
			suppliers.GET("/:id", suppliersH.Get)
			suppliers.PUT("/:id", suppliersH.Update)
			suppliers.DELETE("/:id", middleware.RequireRole("admin"), suppliersH.Delete)
			suppliers.POST("/:id/transactions", suppliersH.AddTransaction)
			suppliers.GET("/:id/transactions", suppliersH.Transactions)
			suppliers.DELETE("/:id/transactions/:txId", suppliersH.DeleteTransaction)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
