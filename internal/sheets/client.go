package sheets

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/jafarshop/orderledger/internal/config"
)

// ValuesClient is the slice of the Sheets API the store needs
type ValuesClient interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]string, error)
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, values [][]string) error
	BatchUpdate(ctx context.Context, spreadsheetID string, data []RangeValues) error
	AddSheet(ctx context.Context, spreadsheetID, title string, rows, cols int64) error
	SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error)
}

// RangeValues is one A1 range and the values written to it
type RangeValues struct {
	Range  string
	Values [][]string
}

// rawInput writes values as typed, without formula or date parsing
const rawInput = "RAW"

type googleClient struct {
	svc    *gsheets.Service
	logger *zap.Logger
}

// NewGoogleClient builds a Sheets API client from service-account credentials
func NewGoogleClient(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (ValuesClient, error) {
	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "":
		opts = append(opts, option.WithCredentialsFile(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")))
	default:
		return nil, fmt.Errorf("no Google service account credentials configured")
	}

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &googleClient{svc: svc, logger: logger}, nil
}

func (c *googleClient) Get(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", rng, err)
	}
	return toStrings(resp.Values), nil
}

func (c *googleClient) Clear(ctx context.Context, spreadsheetID, rng string) error {
	if _, err := c.svc.Spreadsheets.Values.Clear(spreadsheetID, rng, &gsheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear range %s: %w", rng, err)
	}
	return nil
}

func (c *googleClient) Update(ctx context.Context, spreadsheetID, rng string, values [][]string) error {
	vr := &gsheets.ValueRange{Values: toCells(values)}
	if _, err := c.svc.Spreadsheets.Values.Update(spreadsheetID, rng, vr).ValueInputOption(rawInput).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to update range %s: %w", rng, err)
	}
	return nil
}

func (c *googleClient) BatchUpdate(ctx context.Context, spreadsheetID string, data []RangeValues) error {
	req := &gsheets.BatchUpdateValuesRequest{ValueInputOption: rawInput}
	for _, d := range data {
		req.Data = append(req.Data, &gsheets.ValueRange{Range: d.Range, Values: toCells(d.Values)})
	}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to batch update %d ranges: %w", len(data), err)
	}
	return nil
}

func (c *googleClient) AddSheet(ctx context.Context, spreadsheetID, title string, rows, cols int64) error {
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{
					Title:          title,
					GridProperties: &gsheets.GridProperties{RowCount: rows, ColumnCount: cols},
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to add sheet %q: %w", title, err)
	}
	c.logger.Info("Added sheet", zap.String("title", title))
	return nil
}

func (c *googleClient) SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	resp, err := c.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet metadata: %w", err)
	}
	titles := make([]string, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return titles, nil
}

func toStrings(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			if cell != nil {
				out[i][j] = fmt.Sprint(cell)
			}
		}
	}
	return out
}

func toCells(values [][]string) [][]interface{} {
	out := make([][]interface{}, len(values))
	for i, row := range values {
		out[i] = make([]interface{}, len(row))
		for j, cell := range row {
			out[i][j] = cell
		}
	}
	return out
}
