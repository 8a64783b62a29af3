package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is how order timestamps are written to the ledger sheet
const TimestampLayout = "2006-01-02 15:04:05"

// Ledger sheet columns, in sheet order. The positional layout must match the tab.
const (
	ColDate      = "data"
	ColCustomer  = "cliente"
	ColStatus    = "Status"
	ColProduct   = "produto"
	ColVariant   = "variante"
	ColQuantity  = "itens"
	ColOrderID   = "ID"
	ColTracking  = "Codigo de rastreio"
	ColSituation = "Situacao"
	ColShipping  = "forma_entrega"
	ColState     = "estado"
	ColCity      = "cidade"
	ColPayment   = "pagamento"
	ColKey       = "chave"
)

// LedgerHeaderRows is the number of header rows above the data in the ledger tab
const LedgerHeaderRows = 1

// LedgerColumns is the header row of the ledger tab
var LedgerColumns = []string{
	ColDate, ColCustomer, ColStatus, ColProduct, ColVariant, ColQuantity, ColOrderID,
	ColTracking, ColSituation, ColShipping, ColState, ColCity, ColPayment, ColKey,
}

// RowKey identifies a ledger row across reloads: order id plus line-item index
type RowKey string

// NewRowKey builds the key for line lineIndex of order orderID
func NewRowKey(orderID int64, lineIndex int) RowKey {
	return RowKey(fmt.Sprintf("%d:%d", orderID, lineIndex))
}

// NormalizedRow is one (Order, LineItem) pair plus the human-editable ledger fields
type NormalizedRow struct {
	Key            RowKey       `json:"key"`
	OrderID        int64        `json:"order_id"`
	LineIndex      int          `json:"line_index"`
	OrderedAt      time.Time    `json:"ordered_at"`
	Customer       string       `json:"customer"`
	Status         string       `json:"status"`
	StatusEdited   bool         `json:"status_edited,omitempty"`
	Product        string       `json:"product"`
	Variant        string       `json:"variant"`
	Quantity       int          `json:"quantity"`
	ShippingMethod string       `json:"shipping_method"`
	State          string       `json:"state"`
	City           string       `json:"city"`
	PaymentState   PaymentState `json:"payment_state"`
	TrackingCode   string       `json:"tracking_code"`
	Situation      string       `json:"situation"`
}

// HasTimestamp reports whether the order timestamp parsed
func (r *NormalizedRow) HasTimestamp() bool {
	return !r.OrderedAt.IsZero()
}

// Record stringifies the row in LedgerColumns order
func (r *NormalizedRow) Record() []string {
	ts := ""
	if r.HasTimestamp() {
		ts = r.OrderedAt.Format(TimestampLayout)
	}
	return []string{
		ts,
		r.Customer,
		r.Status,
		r.Product,
		r.Variant,
		strconv.Itoa(r.Quantity),
		strconv.FormatInt(r.OrderID, 10),
		r.TrackingCode,
		r.Situation,
		r.ShippingMethod,
		r.State,
		r.City,
		string(r.PaymentState),
		string(r.Key),
	}
}

// Ledger is the owned, versioned status document. Version increases on every save.
type Ledger struct {
	Version   int64           `json:"version"`
	Rows      []NormalizedRow `json:"rows"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Clone returns a deep copy so callers can edit without touching a shared document
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return &Ledger{}
	}
	rows := make([]NormalizedRow, len(l.Rows))
	copy(rows, l.Rows)
	return &Ledger{Version: l.Version, Rows: rows, UpdatedAt: l.UpdatedAt}
}

// Index maps row keys to their position in Rows
func (l *Ledger) Index() map[RowKey]int {
	idx := make(map[RowKey]int, len(l.Rows))
	for i, r := range l.Rows {
		idx[r.Key] = i
	}
	return idx
}

// Records returns the header row followed by every row stringified
func (l *Ledger) Records() [][]string {
	out := make([][]string, 0, len(l.Rows)+1)
	out = append(out, append([]string(nil), LedgerColumns...))
	for i := range l.Rows {
		out = append(out, l.Rows[i].Record())
	}
	return out
}

// RowFilter selects ledger rows for views and reports. Zero values match everything.
type RowFilter struct {
	From    time.Time
	To      time.Time
	Product string
	Variant string
	State   string
}

// Match reports whether r passes the filter. Date bounds compare calendar days, inclusive.
func (f RowFilter) Match(r *NormalizedRow) bool {
	if f.Product != "" && r.Product != f.Product {
		return false
	}
	if f.Variant != "" && r.Variant != f.Variant {
		return false
	}
	if f.State != "" && !strings.EqualFold(r.State, f.State) {
		return false
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		if !r.HasTimestamp() {
			return false
		}
		return InDateRange(r.OrderedAt, f.From, f.To)
	}
	return true
}

// Apply returns the rows that match the filter, preserving order
func (f RowFilter) Apply(rows []NormalizedRow) []NormalizedRow {
	out := make([]NormalizedRow, 0, len(rows))
	for i := range rows {
		if f.Match(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out
}

// DateOnly truncates t to its calendar day in t's location
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// InDateRange reports whether the calendar day of t lies in [from, to]; zero bounds are open.
// Each value is read as a calendar date in its own location.
func InDateRange(t, from, to time.Time) bool {
	day := dayNumber(t)
	if !from.IsZero() && day < dayNumber(from) {
		return false
	}
	if !to.IsZero() && day > dayNumber(to) {
		return false
	}
	return true
}

func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
