package sheets

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/cache"
	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/pkg/errors"
)

// DefaultCSVBaseURL serves the public CSV export of a spreadsheet
const DefaultCSVBaseURL = "https://docs.google.com"

// TabCache is the cache the CSV reader consults before fetching a tab
type TabCache interface {
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CSVReader reads tabs through the spreadsheet CSV export endpoint
type CSVReader struct {
	baseURL       string
	spreadsheetID string
	httpClient    *http.Client
	cache         TabCache
	logger        *zap.Logger
}

// NewCSVReader creates a reader; cache may be nil
func NewCSVReader(baseURL, spreadsheetID string, cache TabCache, logger *zap.Logger) *CSVReader {
	if baseURL == "" {
		baseURL = DefaultCSVBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVReader{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		spreadsheetID: spreadsheetID,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		cache:         cache,
		logger:        logger,
	}
}

// TabURL is {base}/spreadsheets/d/{id}/gviz/tq?tqx=out:csv&sheet={tab}
func (r *CSVReader) TabURL(tab string) string {
	return fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?tqx=out:csv&sheet=%s",
		r.baseURL, url.PathEscape(r.spreadsheetID), url.QueryEscape(tab))
}

// ReadTab fetches a tab as CSV, from the cache when possible
func (r *CSVReader) ReadTab(ctx context.Context, tab string) (*Table, error) {
	key := cache.TabCacheKey(r.spreadsheetID, tab)
	if r.cache != nil {
		var cached Table
		if err := r.cache.Get(ctx, key, &cached); err == nil {
			r.logger.Debug("Sheet tab served from cache", zap.String("tab", tab))
			return &cached, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.TabURL(tab), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tab %q: %w", tab, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &errors.ErrUpstream{Service: "sheets", StatusCode: resp.StatusCode, Body: string(body)}
	}

	table, err := ParseCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tab %q: %w", tab, err)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, table, 0); err != nil {
			r.logger.Warn("Failed to cache sheet tab", zap.String("tab", tab), zap.Error(err))
		}
	}
	return table, nil
}

// Invalidate drops the cached copy of tabs
func (r *CSVReader) Invalidate(ctx context.Context, tabs ...string) error {
	if r.cache == nil {
		return nil
	}
	keys := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		keys = append(keys, cache.TabCacheKey(r.spreadsheetID, tab))
	}
	return r.cache.Delete(ctx, keys...)
}

// ParseCSV reads a CSV export into a table; ragged rows are padded
func ParseCSV(rd io.Reader) (*Table, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	return NewTable(records), nil
}

// Shipments reads the shipments tab positionally: reference, shipped at, delivered at,
// state, city, tracking code.
func Shipments(t *Table) []domain.Shipment {
	out := make([]domain.Shipment, 0, len(t.Rows))
	for _, row := range t.Rows {
		if IsBlank(row) {
			continue
		}
		out = append(out, domain.NewShipment(cell(row, 0), cell(row, 1), cell(row, 2), cell(row, 3), cell(row, 4), cell(row, 5)))
	}
	return out
}

// StockItems reads the stock tab with the declared StockColumns layout; bad numbers become 0
func StockItems(t *Table) []domain.StockItem {
	out := make([]domain.StockItem, 0, len(t.Rows))
	for _, row := range t.Rows {
		product := strings.TrimSpace(cell(row, 0))
		if product == "" {
			continue
		}
		out = append(out, domain.StockItem{
			Product:  product,
			Quantity: domain.ParseNumber(cell(row, 1)),
			MinStock: domain.ParseNumber(cell(row, 2)),
			Spent:    domain.ParseNumber(cell(row, 3)),
		})
	}
	return out
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
