package orders

import (
	"strings"
	"time"

	"github.com/jafarshop/orderledger/internal/domain"
)

// Options controls how orders become ledger rows
type Options struct {
	// DefaultStatus labels rows whose order has no fulfillment state yet
	DefaultStatus string
}

// DefaultOptions uses the canonical "Aguardando" fallback status
func DefaultOptions() Options {
	return Options{DefaultStatus: domain.DefaultStatusLabel}
}

// Filter keeps orders whose payment state is allowed and that have at least one line item
func Filter(orders []domain.Order, allowed domain.PaymentStates) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if !allowed.Contains(o.FinancialStatus) {
			continue
		}
		if len(o.LineItems) == 0 {
			continue
		}
		out = append(out, o)
	}
	return out
}

// NormalizeOrder flattens an order into one row per line item
func NormalizeOrder(o domain.Order, opts Options) []domain.NormalizedRow {
	if len(o.LineItems) == 0 {
		return nil
	}

	orderedAt := time.Time{}
	if t := domain.ParseTimestamp(o.CreatedAt); t != nil {
		orderedAt = *t
	}

	status := strings.TrimSpace(domain.StrValue(o.FulfillmentStatus))
	if status == "" {
		status = opts.DefaultStatus
		if status == "" {
			status = domain.DefaultStatusLabel
		}
	}

	shippingMethod := domain.NotAvailable
	if len(o.ShippingLines) > 0 && strings.TrimSpace(o.ShippingLines[0].Title) != "" {
		shippingMethod = o.ShippingLines[0].Title
	}

	state, city := domain.NotAvailable, domain.NotAvailable
	if o.ShippingAddress != nil {
		state = orSentinel(domain.StrValue(o.ShippingAddress.Province))
		city = orSentinel(domain.StrValue(o.ShippingAddress.City))
	}

	customer := customerName(o.Customer)

	rows := make([]domain.NormalizedRow, 0, len(o.LineItems))
	for i, item := range o.LineItems {
		rows = append(rows, domain.NormalizedRow{
			Key:            domain.NewRowKey(o.ID, i),
			OrderID:        o.ID,
			LineIndex:      i,
			OrderedAt:      orderedAt,
			Customer:       customer,
			Status:         status,
			Product:        item.Title,
			Variant:        domain.StrValue(item.VariantTitle),
			Quantity:       item.Quantity,
			ShippingMethod: shippingMethod,
			State:          state,
			City:           city,
			PaymentState:   o.FinancialStatus,
		})
	}
	return rows
}

// Normalize flattens every order in feed order
func Normalize(orders []domain.Order, opts Options) []domain.NormalizedRow {
	var rows []domain.NormalizedRow
	for _, o := range orders {
		rows = append(rows, NormalizeOrder(o, opts)...)
	}
	return rows
}

// FilterAndNormalize runs the filter and the normalizer in one pass
func FilterAndNormalize(orders []domain.Order, allowed domain.PaymentStates, opts Options) []domain.NormalizedRow {
	return Normalize(Filter(orders, allowed), opts)
}

func customerName(c *domain.Customer) string {
	if c == nil {
		return ""
	}
	first := domain.StrValue(c.FirstName)
	last := domain.StrValue(c.LastName)
	return strings.TrimSpace(first + " " + last)
}

func orSentinel(s string) string {
	if strings.TrimSpace(s) == "" {
		return domain.NotAvailable
	}
	return s
}
