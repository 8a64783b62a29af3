package service

import (
	"context"
	stderrors "errors"

	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/internal/sheets"
	"github.com/jafarshop/orderledger/internal/shopify"
)

// ErrNotConfigured is returned when an action needs an integration that is not configured
var ErrNotConfigured = stderrors.New("integration not configured")

// OrderSource lists orders from the shop
type OrderSource interface {
	ListOrders(ctx context.Context, q shopify.OrderQuery) ([]domain.Order, error)
}

// FulfillmentPusher records tracking numbers on shop orders
type FulfillmentPusher interface {
	CreateFulfillment(ctx context.Context, orderID int64, trackingNumber string, notifyCustomer bool) error
}

// SheetSink writes tabs of the spreadsheet
type SheetSink interface {
	EnsureTab(ctx context.Context, tab string) error
	Overwrite(ctx context.Context, tab string, table *sheets.Table) error
	Upsert(ctx context.Context, tab string, table *sheets.Table, keyColumn string) (sheets.UpsertResult, error)
	PatchColumn(ctx context.Context, tab, column string, values []string) error
}

// TabReader reads a tab of the spreadsheet
type TabReader interface {
	ReadTab(ctx context.Context, tab string) (*sheets.Table, error)
}

// tabInvalidator is implemented by tab readers that cache
type tabInvalidator interface {
	Invalidate(ctx context.Context, tabs ...string) error
}
