package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/macrotrack/planparse/internal/common"
	"github.com/macrotrack/planparse/internal/export"
	"github.com/macrotrack/planparse/internal/extract"
	"github.com/macrotrack/planparse/internal/llm/openai"
	"github.com/macrotrack/planparse/internal/pipeline"
	"github.com/macrotrack/planparse/internal/repository"
	"github.com/macrotrack/planparse/internal/server"
)

func main() {
	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, cfg.Database.DialTimeout, logger); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}

	var fallback extract.OCRFallback
	if cfg.OCRConfigured() {
		tf, err := extract.NewTextractFallback(ctx, cfg.OCR, logger)
		if err != nil {
			logger.Error("textract setup failed", "error", err)
			os.Exit(1)
		}
		fallback = tf
	} else {
		logger.Warn("OCR fallback not configured; scanned documents will need image uploads")
	}

	plans := repository.NewPlanRepository(pool, logger)
	processor := pipeline.NewProcessor(
		logger,
		extract.NewHTTPFetcher(cfg.Extract.FetchTimeout, cfg.Extract.MaxFileBytes, logger),
		extract.NewExtractor(fallback, logger),
		openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger),
		plans,
	)

	srv := server.New(logger, processor, plans, export.NewService(plans, logger), pool)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Handler(),
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
