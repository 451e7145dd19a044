package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chennaitransit/pass-backend/internal/config"
	"github.com/chennaitransit/pass-backend/internal/database"
	"github.com/chennaitransit/pass-backend/internal/handlers"
	"github.com/chennaitransit/pass-backend/internal/middleware"
	"github.com/chennaitransit/pass-backend/internal/models"
	"github.com/chennaitransit/pass-backend/internal/services"
	"github.com/chennaitransit/pass-backend/pkg/jwt"
	"github.com/chennaitransit/pass-backend/pkg/qrtoken"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Chennai Transit Pass Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize repositories
	userRepo := database.NewUserRepository(db)
	passRepo := database.NewPassRepository(db)
	transactionRepo := database.NewTransactionRepository(db)
	refreshTokenRepo := database.NewRefreshTokenRepository(db)
	resetTokenRepo := database.NewResetTokenRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	pricingService := services.NewPricingService()
	qrGenerator := qrtoken.NewGenerator()
	purchaseService := services.NewPurchaseService(
		transactionRepo,
		passRepo,
		pricingService,
		qrGenerator,
		logger,
	)
	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(
		jwtService,
		userRepo,
		refreshTokenRepo,
		resetTokenRepo,
		cfg,
		logger,
	)
	paymentHandler := handlers.NewPaymentHandler(purchaseService, logger)
	passHandler := handlers.NewPassHandler(passRepo, logger)
	transactionHandler := handlers.NewTransactionHandler(transactionRepo, logger)
	dashboardHandler := handlers.NewDashboardHandler(userRepo, passRepo, transactionRepo, logger)
	userHandler := handlers.NewUserHandler(userRepo, passRepo, transactionRepo, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Authentication routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password/:token", authHandler.ResetPassword)

			protected := auth.Group("")
			protected.Use(middleware.AuthMiddleware(jwtService))
			{
				protected.POST("/logout", authHandler.Logout)
			}
		}

		// Fare quotes are public so clients can show prices before login
		v1.POST("/payment/quote", paymentHandler.Quote(pricingService))

		// User routes (protected)
		user := v1.Group("/user")
		user.Use(middleware.AuthMiddleware(jwtService))
		{
			user.GET("/profile", authHandler.GetProfile)
			user.PUT("/profile", authHandler.UpdateProfile)
			user.POST("/change-password", authHandler.ChangePassword)
		}

		// Payment routes (protected)
		payment := v1.Group("/payment")
		payment.Use(middleware.AuthMiddleware(jwtService))
		{
			payment.POST("/buy-pass", paymentHandler.BuyPass)
		}

		// Pass routes (protected)
		passes := v1.Group("/passes")
		passes.Use(middleware.AuthMiddleware(jwtService))
		{
			passes.GET("", passHandler.ListPasses)
			passes.GET("/stats", passHandler.GetPassStats)
			passes.GET("/top-routes", middleware.RequireRole(models.RoleManager, models.RoleAdmin), passHandler.GetTopRoutes)
		}

		// Purchase history (protected)
		history := v1.Group("/history")
		history.Use(middleware.AuthMiddleware(jwtService))
		{
			history.GET("/passes", passHandler.GetHistory)
		}

		// Transaction routes (protected)
		transactions := v1.Group("/transactions")
		transactions.Use(middleware.AuthMiddleware(jwtService))
		{
			transactions.GET("", transactionHandler.ListTransactions)
			transactions.GET("/stats", transactionHandler.GetTransactionStats)
		}

		// Dashboard routes (protected)
		dashboard := v1.Group("/dashboard")
		dashboard.Use(middleware.AuthMiddleware(jwtService))
		{
			dashboard.GET("", dashboardHandler.GetDashboard)
			dashboard.GET("/admin", middleware.RequireRole(models.RoleAdmin), dashboardHandler.AdminDashboard)
			dashboard.GET("/manager", middleware.RequireRole(models.RoleManager, models.RoleAdmin), dashboardHandler.ManagerDashboard)
		}

		// Admin routes (admin only)
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService))
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/users", userHandler.ListUsers)
			admin.PUT("/users/:id/role", userHandler.UpdateUserRole)
			admin.DELETE("/users/:id", userHandler.DeleteUser)
			admin.GET("/stats", userHandler.GetAdminStats)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
			fields["role"] = userCtx.Role
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
		} else {
			status := c.Writer.Status()
			if status >= 500 {
				entry.Error("Request completed with server error")
			} else if status >= 400 {
				entry.Warn("Request completed with client error")
			} else {
				entry.Info("Request completed successfully")
			}
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
