package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/internal/ledger"
	"github.com/jafarshop/orderledger/internal/orders"
	"github.com/jafarshop/orderledger/internal/repository"
	"github.com/jafarshop/orderledger/internal/shopify"
	"github.com/jafarshop/orderledger/pkg/errors"
)

// MaxSaveAttempts bounds merge-on-conflict retries of a ledger save
const MaxSaveAttempts = 3

// EmptyResultMessage is reported when the feed has no orders that pass the filter
const EmptyResultMessage = "no paid orders found; ledger and sheet left unchanged"

// SyncOptions configures the pipeline
type SyncOptions struct {
	Query     shopify.OrderQuery
	Allowed   domain.PaymentStates
	Normalize orders.Options
}

// SyncService runs fetch, filter, normalize, merge, save and write
type SyncService struct {
	source OrderSource
	repos  *repository.Repositories
	writer *LedgerWriter
	opts   SyncOptions
	logger *zap.Logger
}

// NewSyncService creates a new sync service
func NewSyncService(source OrderSource, repos *repository.Repositories, writer *LedgerWriter, opts SyncOptions, logger *zap.Logger) *SyncService {
	if opts.Allowed == nil {
		opts.Allowed = domain.DefaultAllowedPaymentStates()
	}
	if opts.Normalize.DefaultStatus == "" {
		opts.Normalize = orders.DefaultOptions()
	}
	return &SyncService{source: source, repos: repos, writer: writer, opts: opts, logger: logger}
}

// Run executes one sync. A partial fetch still merges, keeping rows the fetch could not see.
// A sheet write failure is a warning; the saved ledger stays authoritative.
func (s *SyncService) Run(ctx context.Context) (*SyncResult, error) {
	res := &SyncResult{Warnings: []string{}}

	fetched, err := s.source.ListOrders(ctx, s.opts.Query)
	res.Fetched = len(fetched)
	if err != nil {
		if len(fetched) == 0 {
			s.logger.Error("Order fetch failed", zap.Error(err))
			s.recordEvent(ctx, domain.EventSyncFailed, map[string]interface{}{"error": err.Error()})
			return nil, fmt.Errorf("failed to fetch orders: %w", err)
		}
		res.Partial = true
		res.Warnings = append(res.Warnings, fmt.Sprintf("partial order fetch (%d orders): %v", len(fetched), err))
		s.logger.Warn("Partial order fetch", zap.Int("orders", len(fetched)), zap.Error(err))
	}

	kept := orders.Filter(fetched, s.opts.Allowed)
	rows := orders.Normalize(kept, s.opts.Normalize)
	res.Kept = len(kept)
	res.Rows = len(rows)

	if len(rows) == 0 {
		res.Empty = true
		res.Message = EmptyResultMessage
		s.logger.Info("Sync found no orders to record", zap.Int("fetched", res.Fetched))
		s.recordEvent(ctx, domain.EventSyncCompleted, map[string]interface{}{"empty": true, "fetched": res.Fetched})
		return res, nil
	}

	saved, report, attempts, err := s.mergeAndSave(ctx, rows, ledger.MergeOptions{KeepMissing: res.Partial})
	res.Attempts = attempts
	if err != nil {
		s.recordEvent(ctx, domain.EventSyncFailed, map[string]interface{}{"error": err.Error(), "attempts": attempts})
		return nil, err
	}
	res.Merge = report
	res.Version = saved.Version

	if s.writer.Enabled() {
		sink, err := s.writer.Write(ctx, saved)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("sheet write failed: %v", err))
			s.logger.Warn("Sheet write failed after sync", zap.Error(err))
		}
		res.Sink = sink
	}

	s.logger.Info("Sync completed",
		zap.Int("fetched", res.Fetched),
		zap.Int("rows", res.Rows),
		zap.Int("added", report.Added),
		zap.Int("dropped", report.Dropped),
		zap.Int64("version", res.Version),
		zap.Bool("partial", res.Partial))
	s.recordEvent(ctx, domain.EventSyncCompleted, map[string]interface{}{
		"fetched":  res.Fetched,
		"rows":     res.Rows,
		"version":  res.Version,
		"partial":  res.Partial,
		"warnings": len(res.Warnings),
	})
	return res, nil
}

// mergeAndSave merges fresh rows into the stored ledger and saves it, re-reading and
// re-merging when a concurrent save moved the version.
func (s *SyncService) mergeAndSave(ctx context.Context, rows []domain.NormalizedRow, opts ledger.MergeOptions) (*domain.Ledger, ledger.MergeReport, int, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxSaveAttempts; attempt++ {
		prev, err := s.repos.Ledger.Get(ctx)
		if err != nil {
			return nil, ledger.MergeReport{}, attempt, fmt.Errorf("failed to load ledger: %w", err)
		}
		merged, report := ledger.Merge(prev, rows, opts)
		saved, err := s.repos.Ledger.Save(ctx, merged, prev.Version)
		if err == nil {
			return saved, report, attempt, nil
		}
		if !errors.IsConflict(err) {
			return nil, report, attempt, fmt.Errorf("failed to save ledger: %w", err)
		}
		lastErr = err
		s.logger.Warn("Ledger changed during sync, merging again", zap.Int("attempt", attempt), zap.Error(err))
	}
	return nil, ledger.MergeReport{}, MaxSaveAttempts, lastErr
}

func (s *SyncService) recordEvent(ctx context.Context, kind string, data map[string]interface{}) {
	recordEvent(ctx, s.repos, kind, data, s.logger)
}

func recordEvent(ctx context.Context, repos *repository.Repositories, kind string, data map[string]interface{}, logger *zap.Logger) {
	if repos == nil || repos.SyncEvent == nil {
		return
	}
	if err := repos.SyncEvent.Create(ctx, &domain.SyncEvent{Kind: kind, Data: data}); err != nil {
		logger.Warn("Failed to record sync event", zap.String("kind", kind), zap.Error(err))
	}
}
