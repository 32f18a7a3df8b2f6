package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rp-tuning/rp-tuning-api/config"
	"github.com/rp-tuning/rp-tuning-api/controllers"
	"github.com/rp-tuning/rp-tuning-api/middleware"
	"github.com/rp-tuning/rp-tuning-api/models"
	"github.com/rp-tuning/rp-tuning-api/services"
)

func main() {
	log.Println("Starting RP Tuning API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	err = db.AutoMigrate(
		&models.Order{},
		&models.Client{},
		&models.Service{},
		&models.WorkLog{},
		&models.SystemSetting{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Initialize external services
	s3Service, err := services.InitS3Service()
	if err != nil {
		log.Fatalf("Failed to initialize S3 service: %v", err)
	}
	services.InitFileService(s3Service, cfg)
	services.InitMailer(cfg)
	services.InitPaymentGateway(cfg)

	router := setupRouter(cfg)

	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter builds the Gin engine with CORS, middleware and all routes
func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.Config{
		AllowOrigins:     []string{cfg.SiteBaseURL, "http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	adminPolicy := middleware.NewAdminPolicy(cfg)

	// Public API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		v1.GET("/services", controllers.ListServices)
		v1.GET("/system-status", controllers.GetSystemStatus)

		v1.POST("/orders", controllers.CreateOrder)
		v1.GET("/orders/:id", controllers.GetOrder)
		v1.POST("/orders/track", controllers.TrackOrder)
		v1.GET("/checkout/session/:sessionID", controllers.GetOrderBySession)
		v1.POST("/uploads/tune", controllers.UploadTuneFile)

		v1.GET("/portal/:slug", controllers.GetPortal)
		v1.GET("/portal/:slug/summary", controllers.GetPortalSummary)
	}

	// Admin routes require a valid token whose email matches the configured
	// admin account
	admin := v1.Group("/admin")
	admin.Use(middleware.EnsureValidToken(cfg))
	admin.Use(middleware.RequireAdmin(adminPolicy))
	{
		admin.GET("/me", controllers.AdminMe)

		admin.GET("/orders", controllers.ListOrders)
		admin.GET("/orders/:id", controllers.GetOrder)
		admin.PATCH("/orders/:id/status", controllers.UpdateOrderStatus)
		admin.PATCH("/orders/:id", controllers.UpdateOrderFields)
		admin.GET("/orders/:id/file", controllers.DownloadOrderFile)
		admin.POST("/orders/:id/result", controllers.UploadResultFile)

		admin.POST("/clients", controllers.CreateClient)
		admin.GET("/clients", controllers.ListClients)
		admin.DELETE("/clients/:id", controllers.DeleteClient)

		admin.POST("/services", controllers.CreateService)
		admin.PUT("/services/:id", controllers.UpdateService)
		admin.DELETE("/services/:id", controllers.DeleteService)

		admin.POST("/clients/:id/worklogs", controllers.CreateWorkLog)
		admin.GET("/clients/:id/worklogs", controllers.ListWorkLogs)
		admin.DELETE("/worklogs/:id", controllers.DeleteWorkLog)

		admin.GET("/settings/system-status", controllers.GetSystemStatusSetting)
		admin.PUT("/settings/system-status", controllers.UpdateSystemStatusSetting)
	}

	// Function endpoints answer 200 with a success flag once the body parses
	functions := router.Group("/functions/v1")
	{
		functions.POST("/send-order-confirmation", controllers.SendOrderConfirmation)
		functions.POST("/send-order-ready", controllers.SendOrderReady)
		functions.POST("/send-status-email", controllers.SendStatusEmail)
		functions.POST("/send-completion-email", controllers.SendCompletionEmail)
		functions.POST("/generate-invoice", controllers.GenerateInvoice)
		functions.POST("/create-checkout", controllers.CreateCheckout)
		functions.POST("/stripe-webhook", controllers.StripeWebhook)
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "RP Tuning API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
