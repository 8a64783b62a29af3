package sheets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/pkg/errors"
)

// New tabs are created with the grid size the dashboard always used
const (
	DefaultTabRows = 1000
	DefaultTabCols = 20
)

// Table is a header row plus data rows, every row padded to the header width
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// NewTable builds a table from raw sheet values; the first row is the header.
// Trailing blank rows are dropped.
func NewTable(values [][]string) *Table {
	t := &Table{Rows: [][]string{}}
	if len(values) == 0 {
		return t
	}
	t.Header = trimTrailingEmpty(values[0])
	body := values[1:]
	for len(body) > 0 && IsBlank(body[len(body)-1]) {
		body = body[:len(body)-1]
	}
	// interior blank rows stay so row positions keep matching the sheet
	for _, row := range body {
		t.Rows = append(t.Rows, pad(row, len(t.Header)))
	}
	return t
}

// Records returns the header followed by the rows
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Header)
	return append(out, t.Rows...)
}

// ColumnIndex finds a column by header name, -1 when absent
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// Store reads and writes tabs of one spreadsheet
type Store struct {
	client        ValuesClient
	spreadsheetID string
	logger        *zap.Logger
}

func NewStore(client ValuesClient, spreadsheetID string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, spreadsheetID: spreadsheetID, logger: logger}
}

// ReadTab reads every value of a tab
func (s *Store) ReadTab(ctx context.Context, tab string) (*Table, error) {
	values, err := s.client.Get(ctx, s.spreadsheetID, quoteTab(tab))
	if err != nil {
		return nil, err
	}
	return NewTable(values), nil
}

// EnsureTab adds the tab when the spreadsheet does not have it yet
func (s *Store) EnsureTab(ctx context.Context, tab string) error {
	titles, err := s.client.SheetTitles(ctx, s.spreadsheetID)
	if err != nil {
		return err
	}
	for _, t := range titles {
		if t == tab {
			return nil
		}
	}
	return s.client.AddSheet(ctx, s.spreadsheetID, tab, DefaultTabRows, DefaultTabCols)
}

// Overwrite clears the tab and writes the table from A1
func (s *Store) Overwrite(ctx context.Context, tab string, table *Table) error {
	if err := s.client.Clear(ctx, s.spreadsheetID, quoteTab(tab)); err != nil {
		return err
	}
	if err := s.client.Update(ctx, s.spreadsheetID, quoteTab(tab)+"!A1", table.Records()); err != nil {
		return err
	}
	s.logger.Info("Overwrote sheet tab", zap.String("tab", tab), zap.Int("rows", len(table.Rows)))
	return nil
}

// UpsertResult counts what an upsert wrote
type UpsertResult struct {
	Replaced int `json:"replaced"`
	Appended int `json:"appended"`
	Retained int `json:"retained"`
}

// Upsert merges table into the tab by keyColumn without clearing it.
//
// Remote rows whose key matches a local row are replaced in place, local rows with new
// keys are appended, and remote rows the table does not know are kept. When the remote
// tab has no key column yet (empty or legacy layout) the tab is overwritten instead.
func (s *Store) Upsert(ctx context.Context, tab string, table *Table, keyColumn string) (UpsertResult, error) {
	var res UpsertResult

	localKey := table.ColumnIndex(keyColumn)
	if localKey < 0 {
		return res, &errors.ErrValidation{
			Message: fmt.Sprintf("table has no key column %q", keyColumn),
			Fields:  map[string]string{"key_column": keyColumn},
		}
	}

	remote, err := s.ReadTab(ctx, tab)
	if err != nil {
		return res, err
	}
	remoteKey := remote.ColumnIndex(keyColumn)
	if remoteKey < 0 {
		s.logger.Warn("Remote tab has no key column, overwriting", zap.String("tab", tab), zap.String("key_column", keyColumn))
		res.Appended = len(table.Rows)
		return res, s.Overwrite(ctx, tab, table)
	}

	rows := make([][]string, len(table.Rows))
	local := make(map[string]int, len(table.Rows))
	for i, row := range table.Rows {
		rows[i] = pad(row, len(table.Header))
		local[rows[i][localKey]] = i
	}

	project := projector(remote.Header, table.Header)
	used := make(map[string]bool, len(table.Rows))
	out := &Table{Header: table.Header, Rows: make([][]string, 0, len(remote.Rows)+len(table.Rows))}
	for _, row := range remote.Rows {
		key := row[remoteKey]
		if i, ok := local[key]; ok && key != "" && !used[key] {
			out.Rows = append(out.Rows, rows[i])
			used[key] = true
			res.Replaced++
			continue
		}
		out.Rows = append(out.Rows, project(row))
		res.Retained++
	}
	for _, row := range rows {
		if used[row[localKey]] {
			continue
		}
		used[row[localKey]] = true
		out.Rows = append(out.Rows, row)
		res.Appended++
	}

	if err := s.client.Update(ctx, s.spreadsheetID, quoteTab(tab)+"!A1", out.Records()); err != nil {
		return res, err
	}
	s.logger.Info("Upserted sheet tab",
		zap.String("tab", tab),
		zap.Int("replaced", res.Replaced),
		zap.Int("appended", res.Appended),
		zap.Int("retained", res.Retained))
	return res, nil
}

// PatchColumn writes values into the named column, starting below the header row
func (s *Store) PatchColumn(ctx context.Context, tab, column string, values []string) error {
	header, err := s.client.Get(ctx, s.spreadsheetID, quoteTab(tab)+"!1:1")
	if err != nil {
		return err
	}
	t := NewTable(header)
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return &errors.ErrNotFound{Resource: "sheet_column", ID: tab + "/" + column}
	}
	if len(values) == 0 {
		return nil
	}

	col := ColumnLetter(idx)
	rng := fmt.Sprintf("%s!%s2:%s%d", quoteTab(tab), col, col, len(values)+1)
	cells := make([][]string, len(values))
	for i, v := range values {
		cells[i] = []string{v}
	}
	if err := s.client.BatchUpdate(ctx, s.spreadsheetID, []RangeValues{{Range: rng, Values: cells}}); err != nil {
		return err
	}
	s.logger.Info("Patched sheet column", zap.String("tab", tab), zap.String("column", column), zap.Int("rows", len(values)))
	return nil
}

// ColumnLetter converts a zero-based column index to A1 letters (0 -> A, 26 -> AA)
func ColumnLetter(idx int) string {
	var b []byte
	for n := idx + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// projector maps a remote row onto the local header by column name
func projector(remoteHeader, localHeader []string) func([]string) []string {
	pos := make([]int, len(localHeader))
	for i, h := range localHeader {
		pos[i] = -1
		for j, r := range remoteHeader {
			if strings.EqualFold(strings.TrimSpace(r), h) {
				pos[i] = j
				break
			}
		}
	}
	return func(row []string) []string {
		out := make([]string, len(localHeader))
		for i, j := range pos {
			if j >= 0 && j < len(row) {
				out[i] = row[j]
			}
		}
		return out
	}
}

func pad(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

// IsBlank reports whether every cell of row is empty
func IsBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimTrailingEmpty(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return row[:end]
}
