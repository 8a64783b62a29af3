package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/internal/ledger"
	"github.com/jafarshop/orderledger/internal/repository"
	"github.com/jafarshop/orderledger/pkg/errors"
)

// LedgerService serves the editable grid and the actions taken on it
type LedgerService struct {
	repos          *repository.Repositories
	writer         *LedgerWriter
	pusher         FulfillmentPusher
	notifyCustomer bool
	logger         *zap.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(repos *repository.Repositories, writer *LedgerWriter, pusher FulfillmentPusher, notifyCustomer bool, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		repos:          repos,
		writer:         writer,
		pusher:         pusher,
		notifyCustomer: notifyCustomer,
		logger:         logger,
	}
}

// Get returns the ledger rows matching filter at the current version
func (s *LedgerService) Get(ctx context.Context, filter domain.RowFilter) (*LedgerView, error) {
	l, err := s.repos.Ledger.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	rows := filter.Apply(l.Rows)
	return &LedgerView{Version: l.Version, UpdatedAt: l.UpdatedAt, Total: len(l.Rows), Rows: rows}, nil
}

// ApplyEdits saves grid edits made against req.Version and flushes the ledger to the sheet.
// Edits against a stale version are rejected with *errors.ErrConflict.
func (s *LedgerService) ApplyEdits(ctx context.Context, req EditRequest) (*EditResult, error) {
	current, err := s.repos.Ledger.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	if current.Version != req.Version {
		return nil, &errors.ErrConflict{
			Message:         fmt.Sprintf("ledger changed: edited version %d, current version %d; reload and retry", req.Version, current.Version),
			ExpectedVersion: req.Version,
			CurrentVersion:  current.Version,
		}
	}

	edited, err := ledger.ApplyEdits(current, req.Edits)
	if err != nil {
		return nil, err
	}
	saved, err := s.repos.Ledger.Save(ctx, edited, req.Version)
	if err != nil {
		return nil, err
	}

	res := &EditResult{Version: saved.Version, Applied: len(req.Edits), Warnings: []string{}}
	s.flushInto(ctx, saved, &res.Sink, &res.Warnings)

	s.logger.Info("Ledger edited", zap.Int("edits", len(req.Edits)), zap.Int64("version", saved.Version))
	recordEvent(ctx, s.repos, domain.EventLedgerEdited, map[string]interface{}{"edits": len(req.Edits), "version": saved.Version}, s.logger)
	return res, nil
}

// Flush writes the stored ledger to the sheet (the grid's save action)
func (s *LedgerService) Flush(ctx context.Context) (*SinkResult, error) {
	l, err := s.repos.Ledger.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	res, err := s.writer.Write(ctx, l)
	if err != nil {
		return nil, err
	}
	recordEvent(ctx, s.repos, domain.EventLedgerFlushed, map[string]interface{}{"rows": res.Rows, "version": l.Version}, s.logger)
	return res, nil
}

func (s *LedgerService) flushInto(ctx context.Context, l *domain.Ledger, sink **SinkResult, warnings *[]string) {
	if !s.writer.Enabled() {
		return
	}
	res, err := s.writer.Write(ctx, l)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("sheet write failed: %v", err))
		s.logger.Warn("Sheet write failed after ledger edit", zap.Error(err))
		return
	}
	*sink = res
}

// PushTracking sends the tracking codes of the ledger to the shop as fulfillments.
// Each (order, code) pair is pushed once per call; a failed push is reported and the batch goes on.
func (s *LedgerService) PushTracking(ctx context.Context, req TrackingRequest) (*TrackingReport, error) {
	if s.pusher == nil {
		return nil, fmt.Errorf("shop client: %w", ErrNotConfigured)
	}
	l, err := s.repos.Ledger.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	var only map[domain.RowKey]struct{}
	if len(req.Keys) > 0 {
		only = make(map[domain.RowKey]struct{}, len(req.Keys))
		idx := l.Index()
		for _, k := range req.Keys {
			if _, ok := idx[k]; !ok {
				return nil, &errors.ErrNotFound{Resource: "ledger_row", ID: string(k)}
			}
			only[k] = struct{}{}
		}
	}

	type pair struct {
		orderID int64
		code    string
	}
	seen := map[pair]struct{}{}
	rep := &TrackingReport{Results: []TrackingResult{}, Warnings: []string{}}

	for _, row := range l.Rows {
		if only != nil {
			if _, ok := only[row.Key]; !ok {
				continue
			}
		}
		if row.TrackingCode == "" || row.OrderID == 0 {
			rep.Skipped++
			continue
		}
		p := pair{orderID: row.OrderID, code: row.TrackingCode}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}

		result := TrackingResult{OrderID: row.OrderID, TrackingCode: row.TrackingCode}
		if err := s.pusher.CreateFulfillment(ctx, row.OrderID, row.TrackingCode, s.notifyCustomer); err != nil {
			result.Error = err.Error()
			rep.Failed++
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("order %s: %v", strconv.FormatInt(row.OrderID, 10), err))
			s.logger.Warn("Tracking push failed", zap.Int64("order_id", row.OrderID), zap.String("tracking_code", row.TrackingCode), zap.Error(err))
		} else {
			result.OK = true
			rep.Pushed++
		}
		rep.Results = append(rep.Results, result)
	}

	s.logger.Info("Tracking push finished", zap.Int("pushed", rep.Pushed), zap.Int("failed", rep.Failed))
	recordEvent(ctx, s.repos, domain.EventTrackingPush, map[string]interface{}{"pushed": rep.Pushed, "failed": rep.Failed}, s.logger)
	return rep, nil
}

// ApplyFulfillment records a shipment reported by the shop webhook on the order's rows.
// It returns the number of rows changed; 0 means the order is unknown or already up to date.
func (s *LedgerService) ApplyFulfillment(ctx context.Context, orderID int64, trackingCode string) (int, error) {
	for attempt := 1; attempt <= MaxSaveAttempts; attempt++ {
		l, err := s.repos.Ledger.Get(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to load ledger: %w", err)
		}
		touched := ledger.ApplyFulfillment(l, orderID, trackingCode)
		if touched == 0 {
			return 0, nil
		}
		saved, err := s.repos.Ledger.Save(ctx, l, l.Version)
		if errors.IsConflict(err) {
			continue
		}
		if err != nil {
			return 0, err
		}

		var sink *SinkResult
		warnings := []string{}
		s.flushInto(ctx, saved, &sink, &warnings)
		recordEvent(ctx, s.repos, domain.EventWebhook, map[string]interface{}{"order_id": orderID, "rows": touched}, s.logger)
		return touched, nil
	}
	return 0, &errors.ErrConflict{Message: "ledger kept changing while applying fulfillment"}
}
