package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"copart-organizer/config"
	"copart-organizer/scraper/copart"
	"copart-organizer/server"
	"copart-organizer/services"
	"copart-organizer/storage"
	"copart-organizer/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.LogDebug)

	logger.Info("=== Salvage Lot Organizer starting ===")
	logger.Info("Config: port %d | concurrency %d | rate %dms | cache TTL %ds",
		cfg.Port, cfg.MaxConcurrency, cfg.RateLimitMs, cfg.CacheTTLSec)

	cache, err := storage.NewLotCache(time.Duration(cfg.CacheTTLSec) * time.Second)
	if err != nil {
		logger.Error("Failed to create lot cache: %v", err)
		os.Exit(1)
	}
	defer cache.Close()

	fetcher := copart.New(cfg, logger)
	defer fetcher.Close()

	extractor := services.NewExtractor(logger)
	store := storage.NewTrackedList(logger)

	srv := server.New(cfg, logger, fetcher, extractor, store, cache)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server stopped: %v", err)
		os.Exit(1)
	}

	logger.Info("Shut down cleanly")
}
