package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Order is a Shopify REST order (subset of fields the ledger uses)
type Order struct {
	ID                int64            `json:"id"`
	Name              string           `json:"name,omitempty"`
	CreatedAt         string           `json:"created_at"`
	FinancialStatus   PaymentState     `json:"financial_status"`
	FulfillmentStatus *string          `json:"fulfillment_status"`
	Customer          *Customer        `json:"customer"`
	ShippingAddress   *ShippingAddress `json:"shipping_address"`
	ShippingLines     []ShippingLine   `json:"shipping_lines"`
	LineItems         []LineItem       `json:"line_items"`
}

// Customer is the order's customer; any field may be null in the feed
type Customer struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// ShippingAddress is the order's shipping address
type ShippingAddress struct {
	Province     *string `json:"province"`
	ProvinceCode *string `json:"province_code,omitempty"`
	City         *string `json:"city"`
}

// ShippingLine is one shipping method applied to the order
type ShippingLine struct {
	Title string `json:"title"`
}

// LineItem is one product/variant/quantity entry of an order
type LineItem struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	VariantTitle *string `json:"variant_title"`
	Quantity     int     `json:"quantity"`
}

// SyncEvent is an audit record for sync runs, ledger saves and tracking pushes
type SyncEvent struct {
	ID        uuid.UUID              `json:"id"`
	Kind      string                 `json:"kind"`
	Data      map[string]interface{} `json:"data,omitempty"` // JSONB
	CreatedAt time.Time              `json:"created_at"`
}

// Sync event kinds
const (
	EventSyncCompleted = "sync.completed"
	EventSyncFailed    = "sync.failed"
	EventLedgerEdited  = "ledger.edited"
	EventLedgerFlushed = "ledger.flushed"
	EventTrackingPush  = "tracking.pushed"
	EventWebhook       = "webhook.fulfillment"
)

// MarshalData encodes event data for storage
func (e *SyncEvent) MarshalData() ([]byte, error) {
	if e.Data == nil {
		return nil, nil
	}
	return json.Marshal(e.Data)
}

// StrValue dereferences a nullable string from the feed
func StrValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
