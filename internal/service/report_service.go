package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/internal/report"
	"github.com/jafarshop/orderledger/internal/repository"
	"github.com/jafarshop/orderledger/internal/sheets"
)

// ShipmentStatusColumn is the shipments tab column the derived status is written to
const ShipmentStatusColumn = "Status"

// ReportService computes the dashboard reports over the ledger and the spreadsheet tabs
type ReportService struct {
	repos        *repository.Repositories
	tabs         TabReader
	sink         SheetSink
	shipmentsTab string
	stockTab     string
	logger       *zap.Logger
}

// NewReportService creates a new report service; sink may be nil when write-back is off
func NewReportService(repos *repository.Repositories, tabs TabReader, sink SheetSink, shipmentsTab, stockTab string, logger *zap.Logger) *ReportService {
	return &ReportService{
		repos:        repos,
		tabs:         tabs,
		sink:         sink,
		shipmentsTab: shipmentsTab,
		stockTab:     stockTab,
		logger:       logger,
	}
}

func (s *ReportService) rows(ctx context.Context, filter domain.RowFilter) ([]domain.NormalizedRow, error) {
	l, err := s.repos.Ledger.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	return filter.Apply(l.Rows), nil
}

// Products sums quantities per product
func (s *ReportService) Products(ctx context.Context, filter domain.RowFilter) ([]report.QuantityRow, error) {
	rows, err := s.rows(ctx, filter)
	if err != nil {
		return nil, err
	}
	return report.SumByProduct(rows), nil
}

// Variants sums quantities per (product, variant)
func (s *ReportService) Variants(ctx context.Context, filter domain.RowFilter) ([]report.QuantityRow, error) {
	rows, err := s.rows(ctx, filter)
	if err != nil {
		return nil, err
	}
	return report.SumByProductVariant(rows), nil
}

// Locations sums quantities per state and per city
func (s *ReportService) Locations(ctx context.Context, filter domain.RowFilter) (*LocationReport, error) {
	rows, err := s.rows(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &LocationReport{States: report.SumByState(rows), Cities: report.SumByCity(rows)}, nil
}

// CompareVariants compares the variants of a product between two periods
func (s *ReportService) CompareVariants(ctx context.Context, product string, variants []string, p1, p2 report.Period) (*report.VariantComparison, error) {
	rows, err := s.rows(ctx, domain.RowFilter{Product: product})
	if err != nil {
		return nil, err
	}
	return report.CompareVariants(rows, product, variants, p1, p2)
}

// Trend returns the daily quantity of a variant
func (s *ReportService) Trend(ctx context.Context, variant string, period report.Period) ([]report.DailyPoint, error) {
	rows, err := s.rows(ctx, domain.RowFilter{})
	if err != nil {
		return nil, err
	}
	return report.DailyTrend(rows, variant, period), nil
}

// Series builds point-indexed comparison series
func (s *ReportService) Series(ctx context.Context, reqs []report.SeriesRequest) ([]report.Series, error) {
	rows, err := s.rows(ctx, domain.RowFilter{})
	if err != nil {
		return nil, err
	}
	return report.CompareSeries(rows, reqs)
}

// readTab reads a tab; a failure degrades to an empty table and a warning
func (s *ReportService) readTab(ctx context.Context, tab string, header []string) (*sheets.Table, []string) {
	if s.tabs == nil {
		return &sheets.Table{Header: header, Rows: [][]string{}}, []string{fmt.Sprintf("tab %q: %v", tab, ErrNotConfigured)}
	}
	t, err := s.tabs.ReadTab(ctx, tab)
	if err != nil {
		s.logger.Warn("Failed to read sheet tab, using an empty table", zap.String("tab", tab), zap.Error(err))
		return &sheets.Table{Header: header, Rows: [][]string{}}, []string{fmt.Sprintf("could not read tab %q: %v", tab, err)}
	}
	return t, []string{}
}

// Shipments computes delivery statistics over the shipments tab, filtered by shipment date
func (s *ReportService) Shipments(ctx context.Context, from, to time.Time) *ShipmentReport {
	t, warnings := s.readTab(ctx, s.shipmentsTab, nil)
	shipments := report.FilterShipments(sheets.Shipments(t), from, to)
	return &ShipmentReport{
		Stats:     report.ComputeDeliveryStats(shipments),
		ByState:   report.DeliveryByState(shipments),
		Shipments: shipments,
		Warnings:  warnings,
	}
}

// Stock builds the stock report from the stock tab
func (s *ReportService) Stock(ctx context.Context) *StockView {
	t, warnings := s.readTab(ctx, s.stockTab, domain.StockColumns)
	return &StockView{StockReport: report.BuildStockReport(sheets.StockItems(t)), Warnings: warnings}
}

// WriteShipmentStatus writes the derived delivery status of every shipment row back to the tab.
// Values are patched by row position, so the tab is read fresh rather than from the cache.
// A failed read is returned as an error so the column is never written from an empty table.
func (s *ReportService) WriteShipmentStatus(ctx context.Context) (*StatusWriteResult, error) {
	if s.sink == nil || s.tabs == nil {
		return nil, fmt.Errorf("spreadsheet: %w", ErrNotConfigured)
	}
	t, err := s.readFresh(ctx, s.shipmentsTab)
	if err != nil {
		return nil, fmt.Errorf("failed to read tab %q: %w", s.shipmentsTab, err)
	}

	res := &StatusWriteResult{Tab: s.shipmentsTab, Rows: len(t.Rows)}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if sheets.IsBlank(row) {
			continue
		}
		sh := sheets.Shipments(&sheets.Table{Rows: [][]string{row}})[0]
		values[i] = sh.Status
		if sh.Status == domain.ShipmentDelivered {
			res.Delivered++
		} else {
			res.Pending++
		}
	}

	if err := s.sink.PatchColumn(ctx, s.shipmentsTab, ShipmentStatusColumn, values); err != nil {
		return nil, err
	}
	if inv, ok := s.tabs.(tabInvalidator); ok {
		if err := inv.Invalidate(ctx, s.shipmentsTab); err != nil {
			s.logger.Warn("Failed to invalidate cached tab", zap.String("tab", s.shipmentsTab), zap.Error(err))
		}
	}
	return res, nil
}

// readFresh reads a tab bypassing any cached copy: through the sink when it can read,
// otherwise through the tab reader after dropping its cache entry.
func (s *ReportService) readFresh(ctx context.Context, tab string) (*sheets.Table, error) {
	if r, ok := s.sink.(TabReader); ok {
		return r.ReadTab(ctx, tab)
	}
	if inv, ok := s.tabs.(tabInvalidator); ok {
		if err := inv.Invalidate(ctx, tab); err != nil {
			return nil, fmt.Errorf("failed to invalidate cached tab: %w", err)
		}
	}
	return s.tabs.ReadTab(ctx, tab)
}
