package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hostelite/hostel-backend/internal/config"
	"github.com/hostelite/hostel-backend/internal/database"
	"github.com/hostelite/hostel-backend/internal/handlers"
	"github.com/hostelite/hostel-backend/internal/middleware"
	"github.com/hostelite/hostel-backend/internal/models"
	"github.com/hostelite/hostel-backend/internal/services"
	"github.com/hostelite/hostel-backend/pkg/imagekit"
	"github.com/hostelite/hostel-backend/pkg/jwt"
	"github.com/hostelite/hostel-backend/pkg/mailer"
	"github.com/hostelite/hostel-backend/pkg/mq"
	"github.com/hostelite/hostel-backend/pkg/razorpay"
	"github.com/shopspring/decimal"
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

	logger.Info("Starting Hostelite backend")
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
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Amounts are rendered as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	// Initialize database connection
	logger.Info("Connecting to database...")
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := database.NewConnection(connectCtx, cfg.Database)
	cancelConnect()
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize redis
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.WithError(err).Warn("Redis unreachable; meal cache and reset throttling will degrade")
	}

	// Initialize event publisher
	var publisher mq.Publisher = mq.NopPublisher{}
	if cfg.MQ.URL != "" {
		amqpPublisher, err := mq.NewAMQPPublisher(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.PublishTimeout)
		if err != nil {
			logger.WithError(err).Warn("RabbitMQ unavailable, domain events disabled")
		} else {
			publisher = amqpPublisher
			logger.WithField("exchange", cfg.MQ.Exchange).Info("Publishing domain events to RabbitMQ")
		}
	}
	defer publisher.Close()

	// Initialize mailer
	var mail mailer.Mailer
	if cfg.Mail.Mode == "smtp" {
		mail = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			Timeout:  cfg.Mail.Timeout,
		}, logger)
	} else {
		logger.Info("Mailer in development mode (OTP emails are logged, not sent)")
		mail = mailer.NewLogMailer(logger)
	}

	// Initialize repositories
	userRepository := database.NewUserRepository(db)
	roomRepository := database.NewRoomRepository(db)
	occupancyStore := database.NewOccupancyStore(db)
	paymentRepository := database.NewPaymentRepository(db)
	complaintRepository := database.NewComplaintRepository(db)
	mealRepository := database.NewMealRepository(db)
	profileRepository := database.NewProfileRepository(db)
	systemSettingRepository := database.NewSystemSettingRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	otpService := services.NewOTPService(db, cfg.OTP.Expiry, cfg.OTP.MaxAttempts)
	rateLimitService := services.NewRateLimitService(rdb, services.RateLimitConfig{
		MaxEmailRequests: cfg.RateLimit.MaxEmailRequests,
		EmailWindow:      cfg.RateLimit.EmailWindow,
		MaxIPRequests:    cfg.RateLimit.MaxIPRequests,
		IPWindow:         cfg.RateLimit.IPWindow,
	})
	auditService := services.NewAuditService(db)

	gateway := razorpay.NewClient(razorpay.Config{
		BaseURL:   cfg.Payment.BaseURL,
		KeyID:     cfg.Payment.KeyID,
		KeySecret: cfg.Payment.KeySecret,
		Timeout:   cfg.Payment.Timeout,
	}, logger)
	images := imagekit.NewClient(imagekit.Config{
		PrivateKey: cfg.ImageKit.PrivateKey,
		UploadURL:  cfg.ImageKit.UploadURL,
		Timeout:    cfg.ImageKit.Timeout,
	}, logger)

	authService := services.NewAuthService(
		userRepository,
		otpService,
		rateLimitService,
		auditService,
		mail,
		jwtService,
		services.AuthConfig{
			BcryptCost: cfg.Security.BcryptCost,
			OTPExpiry:  otpService.Expiry(),
			DevMode:    cfg.Mail.Mode == "dev",
		},
		logger,
	)
	roomService := services.NewRoomAssignmentService(occupancyStore, roomRepository, publisher, logger)
	paymentService := services.NewPaymentService(
		gateway,
		paymentRepository,
		auditService,
		publisher,
		cfg.Payment.KeySecret,
		cfg.Payment.Currency,
		logger,
	)
	complaintService := services.NewComplaintService(complaintRepository, publisher, logger)
	mealService := services.NewMealService(mealRepository, rdb, logger)
	userService := services.NewUserService(userRepository, roomService, profileRepository, auditService, logger)
	profileService := services.NewProfileService(profileRepository, images, logger)
	settingsService := services.NewSettingsService(systemSettingRepository)

	// Initialize and start cron service
	cronService := services.NewCronService(otpService, auditService, logger)
	if cfg.Cron.Enabled {
		if err := cronService.Start(); err != nil {
			logger.Fatalf("Failed to start cron service: %v", err)
		}
		logger.Info("Cron service started")
	}

	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, logger)
	roomHandler := handlers.NewRoomHandler(roomService, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)
	complaintHandler := handlers.NewComplaintHandler(complaintService, logger)
	mealHandler := handlers.NewMealHandler(mealService, logger)
	userHandler := handlers.NewUserHandler(userService, logger)
	profileHandler := handlers.NewProfileHandler(profileService, logger)
	systemSettingHandler := handlers.NewSystemSettingHandler(settingsService, logger)

	// Setup Gin router
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	authMiddleware := middleware.AuthMiddleware(jwtService, logger)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	staffOnly := middleware.RequireRole(models.RoleAdmin, models.RoleWarden)
	studentOnly := middleware.RequireRole(models.RoleStudent)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
		}

		rooms := api.Group("/rooms")
		rooms.Use(authMiddleware)
		{
			rooms.GET("", roomHandler.List)
			rooms.GET("/available", roomHandler.ListAvailable)
			rooms.POST("/create", adminOnly, roomHandler.CreateRooms)
			rooms.PUT("/assign", staffOnly, roomHandler.Assign)
			rooms.PUT("/unassign", staffOnly, roomHandler.Unassign)
		}

		payments := api.Group("/payments")
		payments.Use(authMiddleware)
		{
			payments.GET("", paymentHandler.ListMine)
			payments.POST("/create-order", paymentHandler.CreateOrder)
			payments.POST("/verify-payment", paymentHandler.VerifyPayment)
			payments.GET("/all", staffOnly, paymentHandler.ListAll)
			payments.GET("/export", adminOnly, paymentHandler.Export)
			payments.GET("/student/:studentId", paymentHandler.ListForStudent)
			payments.GET("/:id/receipt", paymentHandler.Receipt)
			payments.PUT("/:id/status", adminOnly, paymentHandler.OverrideStatus)
		}

		complaints := api.Group("/complaints")
		complaints.Use(authMiddleware)
		{
			complaints.POST("", studentOnly, complaintHandler.Create)
			complaints.GET("", complaintHandler.List)
			complaints.PUT("/:id", staffOnly, complaintHandler.UpdateStatus)
		}

		ratings := api.Group("/ratings")
		ratings.Use(authMiddleware)
		{
			ratings.POST("/submit", studentOnly, mealHandler.SubmitRating)
			ratings.GET("", mealHandler.ListRatings)
			ratings.DELETE("/:id", staffOnly, mealHandler.DeleteRating)
		}

		meals := api.Group("/meals")
		meals.Use(authMiddleware)
		{
			meals.POST("", staffOnly, mealHandler.SaveToday)
			meals.GET("/today", mealHandler.Today)
		}

		users := api.Group("/users")
		users.Use(authMiddleware)
		{
			users.GET("/me", authHandler.Me)
			users.GET("/role-counts", adminOnly, userHandler.RoleCounts)
			users.GET("/export", adminOnly, userHandler.Export)
			users.GET("", adminOnly, userHandler.List)
			users.GET("/:id", adminOnly, userHandler.Get)
			users.GET("/:id/activity", adminOnly, userHandler.Activity)
			users.PUT("/:id", adminOnly, userHandler.Update)
			users.DELETE("/:id", adminOnly, userHandler.Delete)
		}

		profile := api.Group("/profile")
		profile.Use(authMiddleware)
		{
			profile.POST("/submit", middleware.RequireRole(models.RoleStudent, models.RoleWarden), profileHandler.Submit)
			profile.GET("/me", profileHandler.Mine)
			profile.GET("/all", adminOnly, profileHandler.List)
			profile.GET("/user/:userId", adminOnly, profileHandler.ByUser)
			profile.GET("/download/:id", adminOnly, profileHandler.Download)
			profile.GET("/:id", adminOnly, profileHandler.ByID)
			profile.PUT("/:id", adminOnly, profileHandler.Update)
		}

		api.POST("/imagekit/upload", authMiddleware, profileHandler.UploadImage)

		admin := api.Group("/admin")
		admin.Use(authMiddleware, adminOnly)
		{
			admin.GET("/cron/status", func(c *gin.Context) {
				c.JSON(http.StatusOK, cronService.GetJobStatus())
			})
			admin.POST("/cron/cleanup", func(c *gin.Context) {
				go cronService.RunCleanupNow()
				c.JSON(http.StatusAccepted, gin.H{"message": "Cleanup triggered"})
			})
		}

		systemSettings := api.Group("/system-settings")
		systemSettings.Use(authMiddleware)
		{
			systemSettings.GET("", systemSettingHandler.Get)
			systemSettings.PUT("", adminOnly, systemSettingHandler.Update)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
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

	if cfg.Cron.Enabled {
		logger.Info("Stopping cron service...")
		cronService.Stop()
	}

	// Graceful shutdown with timeout
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

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
			"has_auth":   c.GetHeader("Authorization") != "",
		}

		// Add user context if available
		if userCtx, ok := middleware.GetUserContext(c); ok {
			fields["user_id"] = userCtx.UserID
			fields["role"] = userCtx.Role
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		// Log based on status code
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

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
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
