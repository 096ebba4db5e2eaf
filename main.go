package main

import (
	"log"

	"linkly-be/internal/cache"
	"linkly-be/internal/config"
	"linkly-be/internal/controllers"
	"linkly-be/internal/database"
	"linkly-be/internal/filestore"
	"linkly-be/internal/middleware"
	"linkly-be/internal/repository"
	"linkly-be/internal/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Pick the storage backend: Postgres when DATABASE_URL is set, otherwise
	// JSON snapshots under DATA_DIR.
	var (
		urlRepo     repository.URLRepository
		userRepo    repository.UserRepository
		sessionRepo repository.SessionRepository
		usageRepo   repository.UsageRepository
		subRepo     repository.SubscriptionRepository
	)
	if cfg.UseDatabase() {
		db, err := database.NewConnection(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := database.RunMigrations(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}

		urlRepo = repository.NewURLRepository(db)
		userRepo = repository.NewUserRepository(db)
		sessionRepo = repository.NewSessionRepository(db)
		usageRepo = repository.NewUsageRepository(db)
		subRepo = repository.NewSubscriptionRepository(db)
		log.Println("Using PostgreSQL storage")
	} else {
		store, err := filestore.Open(cfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to open data directory %s: %v", cfg.DataDir, err)
		}

		urlRepo = store.URLs()
		userRepo = store.Users()
		sessionRepo = store.Sessions()
		usageRepo = store.Usage()
		subRepo = store.Subscriptions()
		log.Printf("Using file storage in %s", cfg.DataDir)
	}

	// Initialize Redis cache (optional - continue if Redis is unavailable)
	var cacheClient cache.Cache
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis (%v). Continuing without cache.", err)
		} else {
			cacheClient = client
			log.Println("Connected to Redis cache")
		}
	}

	// Initialize services
	urlService := service.NewURLService(urlRepo, cacheClient)
	authService := service.NewAuthService(userRepo, sessionRepo)
	quotaService := service.NewQuotaService(userRepo, usageRepo)
	subscriptionService := service.NewSubscriptionService(subRepo, userRepo, authService)

	// Initialize controllers
	shortenerController := controllers.NewShortenerController(urlService, quotaService, cfg.BaseURL)
	authController := controllers.NewAuthController(authService)
	apiController := controllers.NewAPIController(authService, urlService, quotaService, cfg.BaseURL)
	subscriptionController := controllers.NewSubscriptionController(subscriptionService)
	qrcodeController := controllers.NewQRCodeController(urlService, cfg.BaseURL)

	// Initialize rate limiters
	generalRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	authRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitAuthRPS), cfg.RateLimitAuthBurst)
	shortenRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitShortenRPS), cfg.RateLimitShortenBurst)
	redirectRateLimiter := middleware.NewRateLimiter(rate.Limit(30.0), 60) // More lenient for redirects (30 req/s, burst 60)

	// Create a Gin router
	router := gin.Default()

	// Health check endpoint (no rate limiting)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Redirect endpoint with lenient rate limiting
	router.GET("/:shortCode", redirectRateLimiter.LimitMiddleware(), shortenerController.RedirectToURL)

	// QR Code generation
	router.GET("/qrcode/:shortCode", generalRateLimiter.LimitMiddleware(), qrcodeController.GenerateQRCode)

	// Auth routes with stricter rate limiting
	auth := router.Group("/auth")
	auth.Use(authRateLimiter.LimitMiddleware())
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/logout", authController.Logout)
	}

	// URL shortening works for anonymous and authenticated callers alike
	router.POST("/shorten",
		shortenRateLimiter.LimitMiddleware(),
		middleware.OptionalSession(authService),
		shortenerController.CreateShortURL)
	router.GET("/shorten", generalRateLimiter.LimitMiddleware(), shortenerController.Totals)

	// Session-protected routes
	protected := router.Group("")
	protected.Use(generalRateLimiter.LimitMiddleware(), middleware.RequireSession(authService))
	{
		protected.GET("/user/stats", authController.Stats)
		protected.POST("/generate-api-key", authController.GenerateAPIKey)
	}

	// Public API, authenticated by API key
	v1 := router.Group("/v1")
	v1.Use(generalRateLimiter.LimitMiddleware())
	{
		v1.POST("/shorten", apiController.CreateShortURL)
		v1.GET("/shorten", apiController.Usage)
	}

	// Billing callback and admin surfaces
	router.POST("/subscriptions", generalRateLimiter.LimitMiddleware(), subscriptionController.Record)
	router.GET("/subscriptions", generalRateLimiter.LimitMiddleware(), subscriptionController.Summary)
	router.GET("/admin/urls", generalRateLimiter.LimitMiddleware(), shortenerController.AdminURLs)

	log.Printf("Server starting on http://localhost:%s", cfg.Port)
	router.Run(":" + cfg.Port)
}
