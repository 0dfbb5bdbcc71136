// Package main provides the API server entry point for the truth market
// service.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/truth-market/internal/api"
	"github.com/truth-market/internal/config"
	"github.com/truth-market/internal/hedera"
	"github.com/truth-market/internal/logging"
	"github.com/truth-market/internal/settlement"
	"github.com/truth-market/internal/storage"
	"github.com/truth-market/internal/verify"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Record store: Postgres for real deployments, in-memory for demos
	var stores *storage.Stores
	switch cfg.Storage.Backend {
	case "postgres":
		postgres, err := storage.NewPostgresDB(&cfg.Storage.Postgres)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Postgres")
		}
		defer postgres.Close()

		stores = &storage.Stores{
			Claims: storage.NewClaimRepository(postgres),
			Sales:  storage.NewSaleRepository(postgres),
			Users:  storage.NewUserRepository(postgres),
			Badges: storage.NewBadgeRepository(postgres),
		}
		logger.Info("Postgres record store connected")
	case "memory":
		stores = storage.NewMemoryStores().Stores()
		logger.Warn("Using in-memory record store, data will not survive restarts")
	default:
		logger.WithField("backend", cfg.Storage.Backend).Fatal("Unknown storage backend")
	}

	// Redis cache is optional; without it verification results are cached in
	// process only and aggregates are computed per request
	var cacheService *storage.CacheService
	redis, err := storage.NewRedisCache(&cfg.Storage.Redis)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, continuing without shared cache")
	} else {
		defer redis.Close()
		cacheService = storage.NewCacheService(redis, cfg.Storage.CacheTTL)
		logger.Info("Redis cache connected")
	}

	verifier := verify.NewService(cfg.Verify, cacheService)

	ledger := hedera.NewClient(cfg.Ledger)

	var registry settlement.AgentRegistry
	if cfg.Ledger.RegistryContract != "" {
		registry = hedera.NewRegistry(ledger, cfg.Ledger)
		logger.WithField("contract", cfg.Ledger.RegistryContract).Info("Agent registry enabled")
	}

	var audit *settlement.AuditNotifier
	if cfg.Ledger.TopicID != "" {
		audit = settlement.NewAuditNotifier(ledger, cfg.Ledger.Timeout)
		logger.WithField("topicId", cfg.Ledger.TopicID).Info("Audit topic appends enabled")
	}

	engine := settlement.NewEngine(stores, verifier, ledger, registry, audit, cfg.Ledger.TruthAgentID)

	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RateLimitRPS:    cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:  cfg.RateLimit.Burst,
	}

	server := api.NewServer(serverConfig, engine, stores, cacheService)

	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	// Let in-flight audit appends drain before exit
	if audit != nil {
		audit.Wait()
	}

	logger.Info("Server exited")
}
