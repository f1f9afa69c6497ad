package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/metrics"
	"github.com/SigNoz/storefront-go-client/internal/sandbox"
	"github.com/SigNoz/storefront-go-client/pkg/config"
	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Initialize OpenTelemetry metrics
	ctx := context.Background()
	appMetrics := metrics.NewNoop()
	if cfg.OTELMetricsEnabled {
		m, meterProvider, err := metrics.InitMetrics(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("failed to initialize metrics", zap.Error(err))
		}
		appMetrics = m
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := meterProvider.Shutdown(shutdownCtx); err != nil {
				logger.Error("error shutting down meter provider", zap.Error(err))
			}
		}()
	}

	backend := sandbox.New(sandbox.Options{
		Logger:  logger,
		Metrics: appMetrics,
		Pricing: sandbox.Pricing{ShippingFee: cfg.ShippingFee, TaxRate: cfg.TaxRate},
	})
	if cfg.SandboxSeed {
		backend.Store.SeedCatalogue()
		if cfg.APIToken != "" {
			if err := backend.Store.SeedAccount(cfg.APIToken); err != nil {
				logger.Fatal("failed to seed account", zap.Error(err))
			}
		}
		logger.Info("sandbox seeded", zap.Int("products", len(sandbox.Catalogue)), zap.Bool("account", cfg.APIToken != ""))
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.GetSandboxPortInt()),
		Handler:      backend.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("sandbox starting", zap.String("addr", server.Addr), zap.String("environment", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("sandbox failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down sandbox")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("sandbox forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("sandbox exited")
}
