package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/steemit/agora/internal/chain"
	"github.com/steemit/agora/internal/db"
	"github.com/steemit/agora/internal/outbox"
	"github.com/steemit/agora/pkg/config"
	"github.com/steemit/agora/pkg/logging"
	"github.com/steemit/agora/pkg/telemetry"
)

func main() {
	once := flag.Bool("once", false, "deliver one batch and exit")
	requeue := flag.String("requeue", "", "move dead events of this kind (or \"all\") back to pending and exit")
	mintUser := flag.Int64("mint-user", 0, "queue an SBT mint for an existing user and exit")
	flag.Parse()

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
	logger.Info("Starting Agora outbox relay")

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

	repo := db.NewRepository(database.DB)
	events := db.NewOutboxRepository(repo)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch {
	case *requeue != "":
		kind := *requeue
		if kind == "all" {
			kind = ""
		}
		n, err := events.Requeue(ctx, kind)
		if err != nil {
			logger.Fatal("Requeue failed", zap.Error(err))
		}
		logger.Info("Requeued dead events", zap.String("kind", *requeue), zap.Int64("count", n))
		return

	case *mintUser > 0:
		user, err := db.NewUserRepository(repo).GetByID(ctx, *mintUser)
		if err != nil {
			logger.Fatal("Failed to load user", zap.Error(err))
		}
		if user == nil || user.Wallet() == "" {
			logger.Fatal("User has no linked wallet", zap.Int64("user_id", *mintUser))
		}
		if err := events.Enqueue(ctx, outbox.NewMintEvent(user)); err != nil {
			logger.Fatal("Failed to queue mint", zap.Error(err))
		}
		logger.Info("Queued SBT mint", zap.Int64("user_id", user.ID))
		return
	}

	relay := outbox.NewRelay(events, chain.New(&cfg.Chain), &cfg.Outbox)

	if *once {
		runCtx, runCancel := context.WithTimeout(ctx, 5*time.Minute)
		defer runCancel()
		n, err := relay.RunOnce(runCtx)
		if err != nil {
			logger.Fatal("Outbox run failed", zap.Error(err))
		}
		logger.Info("Outbox batch delivered", zap.Int("delivered", n))
		return
	}

	if err := relay.Start(ctx); err != nil {
		logger.Fatal("Failed to start outbox relay", zap.Error(err))
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down relay...")
	relay.Stop()
	logger.Info("Relay exited")
}
