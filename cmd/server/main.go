package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jafarshop/orderledger/internal/api"
	"github.com/jafarshop/orderledger/internal/app"
	"github.com/jafarshop/orderledger/internal/config"
	"github.com/jafarshop/orderledger/internal/logger"
	"github.com/jafarshop/orderledger/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	zl, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	zl.Info("Starting order ledger server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("ledger_store", cfg.Ledger.Store),
	)

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	router := api.NewRouter(cfg, a.Services(), zl)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Sync.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zl.Info("Server started successfully", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		zl.Info("Shutting down server...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Sync.Interval > 0 {
		g.Go(func() error {
			return service.RunSyncScheduler(ctx, cfg.Sync.Interval, a.Jobs, zl)
		})
	} else {
		zl.Info("Periodic sync disabled (SYNC_INTERVAL=0)")
	}

	if err := g.Wait(); err != nil {
		zl.Error("Server error", zap.Error(err))
		return
	}

	zl.Info("Server exited")
}
