package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"scraper/internal/api"
	"scraper/internal/config"
	"scraper/internal/crawler"
	"scraper/internal/discovery"
	"scraper/internal/extract"
	"scraper/internal/identity"
	"scraper/internal/llm"
	"scraper/internal/memory"
	"scraper/internal/monitoring"
	"scraper/internal/orchestrator"
	"scraper/internal/policy"
	"scraper/internal/storage"
	"scraper/internal/strategy"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}
	if cfg.OpenAIAPIKey == "" {
		logger.Fatal("OPENAI_API_KEY is required for the extraction oracle")
	}

	// Initialize Storage Layer
	pgStore, err := storage.NewPostgresStore(cfg.PostgresURL)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	redisStore := storage.NewRedisStore(cfg.RedisAddr)

	// Initialize Monitoring
	metrics := monitoring.NewMetrics()

	// Oracles
	llmClient := llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	extractor := extract.NewLLMExtractor(llmClient, cfg.MinContentLength, logger)

	var chooser policy.Chooser = policy.Heuristic{}
	if !cfg.DisableStrategyLLM {
		chooser = policy.NewOracle(llmClient, logger)
	}

	// Fetch strategies
	pool := identity.NewPool(time.Now().UnixNano())
	fetchTimeout := time.Duration(cfg.FetchTimeout) * time.Second
	browserTimeout := time.Duration(cfg.BrowserTimeout) * time.Second
	strategies := strategy.NewSet(
		strategy.NewPlainRequest(fetchTimeout),
		strategy.NewRotatedRequest(fetchTimeout, pool),
		strategy.NewRenderedBrowser(browserTimeout, logger),
		strategy.NewHardenedBrowser(browserTimeout, pool),
	)

	// Core crawl pipeline
	mem := memory.NewStore()
	orch := orchestrator.New(chooser, strategies, mem, extractor, metrics, logger, cfg.MaxAttempts)
	disco := discovery.NewService(fetchTimeout, cfg.SitemapMaxDepth, metrics, logger)
	coreCrawler := crawler.NewCrawler(cfg, disco, orch, pgStore, redisStore, metrics, logger)

	// Initialize API Server
	server := api.NewServer(cfg, coreCrawler, pgStore, redisStore, metrics, logger)

	// Graceful Shutdown
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
