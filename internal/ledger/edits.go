package ledger

import (
	"fmt"
	"strings"

	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/pkg/errors"
)

// Edit changes the human-editable fields of one row. Nil fields are left alone.
type Edit struct {
	Key          domain.RowKey `json:"key" binding:"required"`
	Status       *string       `json:"status,omitempty"`
	TrackingCode *string       `json:"tracking_code,omitempty"`
	Situation    *string       `json:"situation,omitempty"`
}

// ApplyEdits validates every edit first and then applies them to a copy of l.
// Nothing is applied when any edit fails.
func ApplyEdits(l *domain.Ledger, edits []Edit) (*domain.Ledger, error) {
	out := l.Clone()
	idx := out.Index()

	for _, e := range edits {
		if _, ok := idx[e.Key]; !ok {
			return nil, &errors.ErrNotFound{Resource: "ledger_row", ID: string(e.Key)}
		}
		if e.Status != nil && !domain.IsValidStatus(*e.Status) {
			return nil, &errors.ErrValidation{
				Message: fmt.Sprintf("invalid status %q for row %s", *e.Status, e.Key),
				Fields:  map[string]string{"status": *e.Status},
			}
		}
		if e.Situation != nil && !domain.IsValidSituation(*e.Situation) {
			return nil, &errors.ErrValidation{
				Message: fmt.Sprintf("invalid situation %q for row %s", *e.Situation, e.Key),
				Fields:  map[string]string{"situation": *e.Situation},
			}
		}
	}

	for _, e := range edits {
		row := &out.Rows[idx[e.Key]]
		if e.Status != nil && *e.Status != row.Status {
			row.Status = *e.Status
			row.StatusEdited = true
		}
		if e.TrackingCode != nil {
			row.TrackingCode = strings.TrimSpace(*e.TrackingCode)
		}
		if e.Situation != nil {
			row.Situation = *e.Situation
		}
	}
	return out, nil
}

// ApplyFulfillment records a shipment reported by Shopify on every row of the order.
// Existing tracking codes and user-edited statuses are left alone. It returns the number of rows touched.
func ApplyFulfillment(l *domain.Ledger, orderID int64, trackingCode string) int {
	touched := 0
	trackingCode = strings.TrimSpace(trackingCode)
	for i := range l.Rows {
		row := &l.Rows[i]
		if row.OrderID != orderID {
			continue
		}
		changed := false
		if row.TrackingCode == "" && trackingCode != "" {
			row.TrackingCode = trackingCode
			changed = true
		}
		if !row.StatusEdited && row.Status != domain.StatusFulfilled {
			row.Status = domain.StatusFulfilled
			changed = true
		}
		if changed {
			touched++
		}
	}
	return touched
}
