package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/projectday/navigator-backend/internal/config"
	"github.com/projectday/navigator-backend/internal/handlers"
	"github.com/projectday/navigator-backend/internal/middleware"
	"github.com/projectday/navigator-backend/internal/services"
	"github.com/projectday/navigator-backend/internal/storage"
	"github.com/projectday/navigator-backend/pkg/validator"
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

	logger.Info("Starting Project Day Navigator Backend")
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

	// Load the venue catalog; the app cannot run without it
	logger.Infof("Loading venue catalog from %s...", cfg.Event.VenuesPath)
	catalog, err := storage.NewVenueCatalog(cfg.Event.VenuesPath)
	if err != nil {
		logger.Fatalf("Failed to load venue catalog: %v", err)
	}
	logger.Infof("Venue catalog loaded: %d venues", catalog.Count())

	// Open the feedback store, creating the file with its header if absent
	feedbackStore, err := storage.NewFeedbackStore(cfg.Event.FeedbackCSV, catalog)
	if err != nil {
		logger.Fatalf("Failed to open feedback store: %v", err)
	}

	// Initialize services
	logger.Info("Initializing services...")
	phoneValidator := validator.NewPhoneValidator()
	nameValidator := validator.NewNameValidator()
	otpService := services.NewOTPService(cfg.OTP.Mode, cfg.OTP.DemoCode, cfg.OTPExpiry(), cfg.OTP.MaxAttempts, logger)
	rateLimitService := services.NewRateLimitService(services.RateLimitConfig{
		MaxPhoneRequests: cfg.RateLimit.PhoneRequests,
		PhoneWindow:      time.Duration(cfg.RateLimit.PhoneWindowMinutes) * time.Minute,
		MaxIPRequests:    cfg.RateLimit.IPRequests,
		IPWindow:         time.Duration(cfg.RateLimit.IPWindowMinutes) * time.Minute,
	})
	sessionService := services.NewSessionService(catalog, feedbackStore, otpService, phoneValidator, nameValidator, logger)

	if otpService.Mode() == services.OTPModeDemo {
		logger.Info("OTP running in demo mode: codes are returned in responses, no SMS is sent")
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(sessionService, otpService, rateLimitService, phoneValidator, cfg, logger)
	venueHandler := handlers.NewVenueHandler(catalog)
	sessionHandler := handlers.NewSessionHandler(sessionService, cfg)
	screenHandler := handlers.NewScreenHandler(catalog, cfg)
	healthHandler := handlers.NewHealthHandler(catalog, sessionService, version)

	// Set up router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	sessionRequired := middleware.SessionMiddleware(sessionService, logger)
	sessionOptional := middleware.OptionalSession(sessionService)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Health)

		// The screen controller also serves logged-out visitors: without a
		// valid session it answers with the login screen
		v1.GET("/session/screen", sessionOptional, screenHandler.Screen)

		auth := v1.Group("/auth")
		{
			auth.POST("/send-otp", authHandler.SendOTP)
			auth.POST("/verify-otp", authHandler.VerifyOTP)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", sessionRequired, authHandler.Logout)
		}

		venues := v1.Group("/venues", sessionRequired)
		{
			venues.GET("", venueHandler.List)
			venues.GET("/:id", venueHandler.Get)
		}

		session := v1.Group("/session", sessionRequired)
		{
			session.GET("", sessionHandler.Get)
			session.POST("/select-venue", sessionHandler.SelectVenue)
			session.POST("/arrive", sessionHandler.MarkArrived)
			session.POST("/feedback", sessionHandler.SubmitFeedback)
		}
	}

	// Periodically drop expired OTP records
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				if removed := otpService.CleanupExpired(); removed > 0 {
					logger.Debugf("Removed %d expired OTP records", removed)
				}
			}
		}
	}()

	// Start server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancelCleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
