package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/ai"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/config"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/pnl"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/pricing"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/server"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/storage"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the API server
// It initializes all dependencies and starts the HTTP server with graceful shutdown
func main() {
	// Initialize structured logger with custom formatting
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)
	logrus.SetFormatter(logger.Formatter)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	// Load and validate configuration from environment variables
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Initialize Redis client for report and price caching
	rclient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}

	reportCache, err := storage.NewRedisReportCache(rclient, cfg.ReportTTL)
	if err != nil {
		logger.WithError(err).Fatal("failed to create report cache")
	}

	// ClickHouse persistence is optional; without it reports are cache-only
	var reportStore storage.ReportStore
	if store, err := storage.NewClickHouseStore(cfg); err != nil {
		logger.WithError(err).Warn("clickhouse unavailable, reports will not be persisted")
	} else {
		reportStore = store
		defer func() {
			_ = store.Close()
		}()
	}

	// Live price lookups behind a Redis read-through cache
	priceSource := pricing.NewCachedSource(rclient, pricing.NewJupiterClient(cfg.PriceAPIURL), cfg.PriceTTL)
	analyzer := pnl.NewAnalyzer(cfg).WithPriceSource(priceSource)

	// Initialize AI agent for report explanations and queries (optional)
	var agent *ai.Agent
	aiBase := ai.AgentConfig{
		ClickHouseAddr:     cfg.ClickHouseAddr,
		ClickHouseDatabase: cfg.ClickHouseDatabase,
		ClickHouseUsername: cfg.ClickHouseUsername,
		ClickHousePassword: cfg.ClickHousePassword,
		OpenRouterAPIKey:   cfg.OpenRouterAPIKey,
		Model:              cfg.OpenRouterModel,
		Logger:             logger,
	}

	// Only initialize AI if OpenRouter API key is provided
	if cfg.OpenRouterAPIKey != "" {
		a, err := ai.NewAgent(ctx, aiBase)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize ai agent")
		} else {
			agent = a
			defer func() {
				_ = agent.Close()
			}()
		}
	}

	// Create handlers with all dependencies injected
	h := &server.Handlers{
		Analyzer:     analyzer,
		Reports:      reportCache,
		Store:        reportStore,
		AI:           agent,
		AIBaseConfig: aiBase,
		DevMode:      cfg.DevMode,
		Logger:       logger,
	}

	// Create HTTP server with configuration and handlers
	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:      cfg.ListenAddr,
			DevMode:   cfg.DevMode,
			APIKey:    cfg.APIKey,
			RateLimit: cfg.RateLimit,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	// Setup graceful shutdown in a separate goroutine
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	// Start the HTTP server
	logger.WithField("addr", cfg.ListenAddr).Info("api server starting")
	if err := srv.Start(); err != nil {
		// "http: Server closed" is expected during graceful shutdown
		if err.Error() == "http: Server closed" {
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}

	// Wait for server to be fully shut down
	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}
