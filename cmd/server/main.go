package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/steemit/agora/internal/api"
	"github.com/steemit/agora/internal/auth"
	"github.com/steemit/agora/internal/cache"
	"github.com/steemit/agora/internal/chain"
	"github.com/steemit/agora/internal/db"
	"github.com/steemit/agora/internal/ipfs"
	"github.com/steemit/agora/internal/membership"
	"github.com/steemit/agora/internal/notify"
	"github.com/steemit/agora/internal/outbox"
	"github.com/steemit/agora/internal/service"
	"github.com/steemit/agora/pkg/config"
	"github.com/steemit/agora/pkg/logging"
	"github.com/steemit/agora/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting Agora API Server")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// A nil cache disables sessions pinning, role caching and unread counters
	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	repo := db.NewRepository(database.DB)
	users := db.NewUserRepository(repo)
	communities := db.NewCommunityRepository(repo)
	members := db.NewMembershipRepository(repo)
	posts := db.NewPostRepository(repo)
	contributions := db.NewContributionRepository(repo)
	discussion := db.NewDiscussionRepository(repo)
	conversations := db.NewConversationRepository(repo)
	notifications := db.NewNotificationRepository(repo)

	roles := membership.NewResolver(members, redisCache)
	dispatcher := notify.NewDispatcher(notifications, redisCache)
	issuer := auth.NewIssuer(&cfg.Auth)

	svc := api.Services{
		Users:         service.NewUserService(users, redisCache, issuer),
		Communities:   service.NewCommunityService(communities, members, users, roles, dispatcher),
		Posts:         service.NewPostService(posts, members, roles, dispatcher),
		Reviews:       service.NewReviewService(posts, members, roles, dispatcher),
		Contributions: service.NewContributionService(posts, contributions, members, roles, dispatcher),
		Discussion:    service.NewDiscussionService(discussion, posts, roles, dispatcher),
		Conversations: service.NewConversationService(conversations, users, dispatcher),
		Notifications: service.NewNotificationService(notifications, redisCache),
		Uploads:       service.NewUploadService(ipfs.New(&cfg.IPFS), cfg.Server.MaxUpload),
	}

	// Create Gin router
	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(api.Recovery())

	router := api.NewRouter(svc, issuer, redisCache, &cfg.Server)
	router.AddHealthCheck("database", database.Health)
	if redisCache != nil {
		router.AddHealthCheck("redis", redisCache.Health)
	}
	router.SetupRoutes(engine)

	if cfg.Telemetry.Enabled && cfg.Telemetry.PrometheusEnabled {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go router.SweepLimiter(ctx, 5*time.Minute)

	var relay *outbox.Relay
	if cfg.Outbox.Embedded {
		relay = outbox.NewRelay(db.NewOutboxRepository(repo), chain.New(&cfg.Chain), &cfg.Outbox)
		if err := relay.Start(ctx); err != nil {
			logger.Fatal("Failed to start outbox relay", zap.Error(err))
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if relay != nil {
		relay.Stop()
	}
	cancel()

	logger.Info("Server exited")
}
