package service

import (
	"time"

	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/internal/ledger"
	"github.com/jafarshop/orderledger/internal/report"
	"github.com/jafarshop/orderledger/internal/sheets"
)

// SyncResult describes one pipeline run
type SyncResult struct {
	Fetched  int                `json:"fetched"`
	Kept     int                `json:"kept"`
	Rows     int                `json:"rows"`
	Empty    bool               `json:"empty"`
	Partial  bool               `json:"partial"`
	Message  string             `json:"message,omitempty"`
	Merge    ledger.MergeReport `json:"merge"`
	Version  int64              `json:"version"`
	Attempts int                `json:"attempts"`
	Sink     *SinkResult        `json:"sink,omitempty"`
	Warnings []string           `json:"warnings"`
}

// SinkResult describes a ledger write to the spreadsheet
type SinkResult struct {
	Tab    string               `json:"tab"`
	Mode   string               `json:"mode"`
	Rows   int                  `json:"rows"`
	Upsert *sheets.UpsertResult `json:"upsert,omitempty"`
}

// LedgerView is the filtered ledger returned to the grid
type LedgerView struct {
	Version   int64                  `json:"version"`
	UpdatedAt time.Time              `json:"updated_at"`
	Total     int                    `json:"total"`
	Rows      []domain.NormalizedRow `json:"rows"`
}

// EditRequest carries grid edits made against a ledger version
type EditRequest struct {
	Version int64         `json:"version"`
	Edits   []ledger.Edit `json:"edits" binding:"required,min=1,dive"`
}

// EditResult is the saved ledger and any sheet write warnings
type EditResult struct {
	Version  int64       `json:"version"`
	Applied  int         `json:"applied"`
	Sink     *SinkResult `json:"sink,omitempty"`
	Warnings []string    `json:"warnings"`
}

// TrackingRequest limits a tracking push to some rows; empty pushes every row with a code
type TrackingRequest struct {
	Keys []domain.RowKey `json:"keys"`
}

// TrackingResult is the outcome of one (order, code) push
type TrackingResult struct {
	OrderID      int64  `json:"order_id"`
	TrackingCode string `json:"tracking_code"`
	OK           bool   `json:"ok"`
	Error        string `json:"error,omitempty"`
}

// TrackingReport summarizes a tracking push batch
type TrackingReport struct {
	Pushed   int              `json:"pushed"`
	Failed   int              `json:"failed"`
	Skipped  int              `json:"skipped"`
	Results  []TrackingResult `json:"results"`
	Warnings []string         `json:"warnings"`
}

// LocationReport holds the per-state and per-city sums
type LocationReport struct {
	States []report.QuantityRow `json:"states"`
	Cities []report.QuantityRow `json:"cities"`
}

// ShipmentReport is the delivery dashboard payload
type ShipmentReport struct {
	Stats     report.DeliveryStats   `json:"stats"`
	ByState   []report.StateDelivery `json:"by_state"`
	Shipments []domain.Shipment      `json:"shipments"`
	Warnings  []string               `json:"warnings"`
}

// StockView is the stock report plus read warnings
type StockView struct {
	report.StockReport
	Warnings []string `json:"warnings"`
}

// StatusWriteResult describes a shipment status write-back
type StatusWriteResult struct {
	Tab       string `json:"tab"`
	Rows      int    `json:"rows"`
	Delivered int    `json:"delivered"`
	Pending   int    `json:"pending"`
}
