// Package app wires configuration into repositories, clients and services.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/api/handlers"
	"github.com/jafarshop/orderledger/internal/cache"
	"github.com/jafarshop/orderledger/internal/config"
	"github.com/jafarshop/orderledger/internal/orders"
	"github.com/jafarshop/orderledger/internal/repository"
	"github.com/jafarshop/orderledger/internal/repository/memory"
	"github.com/jafarshop/orderledger/internal/repository/postgres"
	"github.com/jafarshop/orderledger/internal/service"
	"github.com/jafarshop/orderledger/internal/sheets"
	"github.com/jafarshop/orderledger/internal/shopify"
)

// App holds everything the server and the CLI tools share
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Repos   *repository.Repositories
	Shopify *shopify.Client
	Store   *sheets.Store
	Tabs    *sheets.CSVReader
	Sync    *service.SyncService
	Ledger  *service.LedgerService
	Reports *service.ReportService
	Jobs    *service.Jobs

	db    *sql.DB
	cache *cache.RedisCache
}

// New builds the application. Missing Google credentials or an unreachable Redis
// degrade to no sheet writes and no tab cache; a database failure is fatal.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	switch cfg.Ledger.Store {
	case config.StoreMemory:
		logger.Warn("Using in-memory ledger store, edits are lost on restart")
		a.Repos = memory.NewRepositories()
	default:
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := postgres.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		a.db = db
		a.Repos = postgres.NewRepositories(db, logger)
	}

	a.Shopify = shopify.NewClient(cfg.Shopify, logger)

	var sink service.SheetSink
	client, err := sheets.NewGoogleClient(ctx, cfg.Sheets, logger)
	if err != nil {
		logger.Warn("Sheets API unavailable, ledger and status writes are disabled", zap.Error(err))
	} else {
		a.Store = sheets.NewStore(client, cfg.Sheets.SpreadsheetID, logger)
		sink = a.Store
	}

	var tabCache sheets.TabCache
	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		logger.Warn("Failed to initialize Redis cache, continuing without caching", zap.Error(err))
	} else if redisCache.Enabled() {
		a.cache = redisCache
		tabCache = redisCache
	}
	a.Tabs = sheets.NewCSVReader(cfg.Sheets.CSVBaseURL, cfg.Sheets.SpreadsheetID, tabCache, logger)

	writer := service.NewLedgerWriter(sink, cfg.Sheets.LedgerTab, cfg.Sheets.WriteMode, logger)
	a.Sync = service.NewSyncService(a.Shopify, a.Repos, writer, service.SyncOptions{
		Query: shopify.OrderQuery{
			FinancialStatus: cfg.Shopify.FinancialStatus,
			PageSize:        cfg.Shopify.PageSize,
			MaxPages:        cfg.Shopify.MaxPages,
		},
		Allowed:   cfg.Ledger.AllowedPaymentStates,
		Normalize: orders.Options{DefaultStatus: cfg.Ledger.DefaultStatus},
	}, logger)
	a.Ledger = service.NewLedgerService(a.Repos, writer, a.Shopify, cfg.Shopify.NotifyCustomer, logger)
	a.Reports = service.NewReportService(a.Repos, a.Tabs, sink, cfg.Sheets.ShipmentsTab, cfg.Sheets.StockTab, logger)
	a.Jobs = service.NewJobs(a.Sync.Run, cfg.Sync.Timeout, logger)

	return a, nil
}

// Services returns the handler dependencies
func (a *App) Services() *handlers.Services {
	return &handlers.Services{
		Jobs:    a.Jobs,
		Ledger:  a.Ledger,
		Reports: a.Reports,
		Events:  a.Repos.SyncEvent,
	}
}

// Close waits for running jobs and releases connections
func (a *App) Close() {
	a.Jobs.Wait()
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.Logger.Warn("Failed to close Redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.Logger.Warn("Failed to close database", zap.Error(err))
		}
	}
}
