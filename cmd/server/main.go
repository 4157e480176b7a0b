package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chirpsocial/backend/internal/auth"
	"github.com/chirpsocial/backend/internal/cache"
	"github.com/chirpsocial/backend/internal/config"
	"github.com/chirpsocial/backend/internal/database"
	"github.com/chirpsocial/backend/internal/handlers"
	"github.com/chirpsocial/backend/internal/logger"
	"github.com/chirpsocial/backend/internal/metrics"
	"github.com/chirpsocial/backend/internal/middleware"
	"github.com/chirpsocial/backend/internal/notifications"
	"github.com/chirpsocial/backend/internal/push"
	"github.com/chirpsocial/backend/internal/realtime"
	"github.com/chirpsocial/backend/internal/repository"
	"github.com/chirpsocial/backend/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== Chirp backend starting ===",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port))

	metrics.Initialize()

	// Initialize database
	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis is optional; trending hashtags and redis-backed middleware
	// degrade gracefully without it
	redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		logger.Log.Warn("Redis unavailable, continuing without it", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Repositories and services
	userRepo := repository.NewUserRepository(database.DB)
	postRepo := repository.NewPostRepository(database.DB)
	authService := auth.NewService(cfg.JWTSecret)

	// Realtime gateway
	registry := realtime.NewRegistry()
	gateway := realtime.NewGateway(registry, cfg.JWTSecret)

	// Push delivery
	pushStore := push.NewSubscriptionStore(database.DB)
	pushAgent := push.NewAgent(pushStore, push.Options{
		Subscriber:      cfg.VAPIDSubscriber,
		VAPIDPublicKey:  cfg.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		Timeout:         time.Duration(cfg.PushTimeoutSeconds) * time.Second,
	})
	if !pushAgent.Enabled() {
		logger.Log.Warn("VAPID keys not configured, web push delivery disabled")
	}

	// Notification pipeline: durable store first, then realtime and push
	notificationService := notifications.NewService(notifications.NewStore(database.DB), gateway, pushAgent)

	h := handlers.NewHandlers(authService, userRepo, postRepo, notificationService, cfg)
	h.SetPushTools(pushStore, pushAgent)
	h.SetGateway(gateway)
	if redisClient != nil {
		h.SetRedisClient(redisClient)
	}

	// Media storage is optional in development
	if cfg.AWSBucket != "" {
		uploader, err := storage.NewS3Uploader(cfg.AWSRegion, cfg.AWSBucket, cfg.CDNBaseURL)
		if err != nil {
			logger.Log.Fatal("Failed to initialize S3 uploader", zap.Error(err))
		}
		if err := uploader.CheckBucketAccess(context.Background()); err != nil {
			logger.Log.Warn("S3 bucket access failed, media uploads will fail", zap.Error(err))
		}
		h.SetUploader(uploader)
	} else {
		logger.Log.Warn("AWS_BUCKET not configured, media uploads disabled")
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		dbStatus := "ok"
		if err := database.Health(); err != nil {
			dbStatus = "unavailable"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"database":  dbStatus,
			"timestamp": time.Now().UTC(),
			"service":   "chirp-backend",
		})
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := auth.Middleware(authService)

	api := r.Group("/api/v1")
	// Coarse per-IP limit shared across instances; endpoint-specific
	// in-memory limiters layer on top
	api.Use(middleware.RedisRateLimitMiddleware(300, time.Minute))
	{
		// Authentication routes
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", middleware.RateLimitAuth(), h.Register)
			authGroup.POST("/login", middleware.RateLimitAuth(), h.Login)
			authGroup.GET("/me", authMiddleware, h.GetMe)
		}

		// Post routes
		posts := api.Group("/posts")
		{
			posts.GET("/recent", middleware.ResponseCacheMiddleware(15*time.Second), h.GetRecentPosts)
			posts.GET("/:id", h.GetPost)
			posts.GET("/:id/comments", h.GetComments)
			posts.GET("/:id/poll", middleware.ResponseCacheMiddleware(10*time.Second), h.GetPoll)

			posts.POST("", authMiddleware, h.CreatePost)
			posts.DELETE("/:id", authMiddleware, h.DeletePost)
			posts.POST("/:id/like", authMiddleware, h.LikePost)
			posts.DELETE("/:id/like", authMiddleware, h.UnlikePost)
			posts.POST("/:id/comments", authMiddleware, h.CreateComment)
			posts.POST("/:id/poll/vote", authMiddleware, h.VotePoll)
		}

		api.POST("/polls", authMiddleware, h.CreatePoll)

		// Feed
		api.GET("/feed", authMiddleware, h.GetFeed)

		// User routes
		users := api.Group("/users")
		{
			users.GET("/search", middleware.RateLimitSearch(), h.SearchUsers)
			users.GET("/trending", middleware.ResponseCacheMiddleware(30*time.Second), h.GetTrendingUsers)
			users.GET("/:id", h.GetUser)
			users.GET("/:id/posts", h.GetUserPosts)
			users.GET("/:id/followers", h.GetFollowers)
			users.GET("/:id/following", h.GetFollowing)

			users.PATCH("/me", authMiddleware, h.UpdateProfile)
			users.POST("/me/avatar", authMiddleware, middleware.RateLimitUpload(), h.UploadAvatar)
			users.POST("/:id/follow", authMiddleware, h.FollowUser)
			users.DELETE("/:id/follow", authMiddleware, h.UnfollowUser)
		}

		// Hashtag routes
		hashtags := api.Group("/hashtags")
		{
			hashtags.GET("/trending", middleware.ResponseCacheMiddleware(30*time.Second), h.GetTrendingHashtags)
			hashtags.GET("/:tag/posts", h.GetPostsByHashtag)
		}

		// Notification routes
		notificationGroup := api.Group("/notifications")
		{
			notificationGroup.GET("/push/vapid-public-key", h.GetVAPIDPublicKey)

			notificationGroup.Use(authMiddleware)
			notificationGroup.GET("", h.GetNotifications)
			notificationGroup.GET("/counts", h.GetNotificationCounts)
			notificationGroup.PATCH("/:id/read", h.MarkNotificationRead)
			notificationGroup.POST("/read-all", h.MarkAllNotificationsRead)
			notificationGroup.POST("/push/subscribe", h.SubscribePush)
			notificationGroup.DELETE("/push/subscribe", h.UnsubscribePush)
			notificationGroup.GET("/push/subscriptions", h.GetPushSubscriptions)
			notificationGroup.POST("/push/test", h.SendTestPush)
		}

		// Media upload
		api.POST("/media", authMiddleware, middleware.RateLimitUpload(), h.UploadMedia)

		// WebSocket routes. Auth happens inside the gateway via
		// query param ?token=... or Authorization header
		ws := api.Group("/ws")
		{
			ws.GET("", gateway.HandleWebSocket)
			ws.GET("/connect", gateway.HandleWebSocket)
			ws.GET("/metrics", authMiddleware, gateway.HandleMetrics)
			ws.POST("/online", authMiddleware, gateway.HandleOnlineStatus)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("Chirp backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests and websocket sessions 30 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := gateway.Shutdown(ctx); err != nil {
		logger.Log.Warn("Gateway shutdown warning", zap.Error(err))
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
