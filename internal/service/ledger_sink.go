package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/config"
	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/internal/sheets"
)

// LedgerWriter flushes the ledger to its spreadsheet tab. A nil sink disables writes.
type LedgerWriter struct {
	sink   SheetSink
	tab    string
	mode   string
	logger *zap.Logger
}

func NewLedgerWriter(sink SheetSink, tab, mode string, logger *zap.Logger) *LedgerWriter {
	if mode == "" {
		mode = config.WriteModeUpsert
	}
	return &LedgerWriter{sink: sink, tab: tab, mode: mode, logger: logger}
}

// Enabled reports whether a spreadsheet is configured
func (w *LedgerWriter) Enabled() bool {
	return w != nil && w.sink != nil
}

// Write stores the ledger rows in the tab using the configured write mode
func (w *LedgerWriter) Write(ctx context.Context, l *domain.Ledger) (*SinkResult, error) {
	if !w.Enabled() {
		return nil, fmt.Errorf("spreadsheet: %w", ErrNotConfigured)
	}
	if err := w.sink.EnsureTab(ctx, w.tab); err != nil {
		return nil, fmt.Errorf("failed to ensure tab %q: %w", w.tab, err)
	}

	records := l.Records()
	table := &sheets.Table{Header: records[0], Rows: records[1:]}
	res := &SinkResult{Tab: w.tab, Mode: w.mode, Rows: len(table.Rows)}

	switch w.mode {
	case config.WriteModeOverwrite:
		if err := w.sink.Overwrite(ctx, w.tab, table); err != nil {
			return nil, fmt.Errorf("failed to overwrite tab %q: %w", w.tab, err)
		}
	default:
		up, err := w.sink.Upsert(ctx, w.tab, table, domain.ColKey)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert tab %q: %w", w.tab, err)
		}
		res.Upsert = &up
	}

	w.logger.Info("Ledger written to sheet", zap.String("tab", w.tab), zap.String("mode", w.mode), zap.Int("rows", res.Rows))
	return res, nil
}
