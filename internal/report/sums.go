package report

import (
	"sort"

	"github.com/jafarshop/orderledger/internal/domain"
)

// QuantityRow is one group of an aggregation
type QuantityRow struct {
	Product  string  `json:"product,omitempty"`
	Variant  string  `json:"variant,omitempty"`
	State    string  `json:"state,omitempty"`
	City     string  `json:"city,omitempty"`
	Quantity int     `json:"quantity"`
	Share    float64 `json:"share"`
}

func (q QuantityRow) key() string {
	return q.Product + "\x00" + q.Variant + "\x00" + q.State + "\x00" + q.City
}

// Percent is part/total*100, or 0 when total is 0
func Percent(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

// TotalQuantity sums the quantity of every row
func TotalQuantity(rows []domain.NormalizedRow) int {
	total := 0
	for i := range rows {
		total += rows[i].Quantity
	}
	return total
}

// SumByProduct sums quantities per product
func SumByProduct(rows []domain.NormalizedRow) []QuantityRow {
	return group(rows, func(r *domain.NormalizedRow) (QuantityRow, bool) {
		return QuantityRow{Product: r.Product}, true
	})
}

// SumByProductVariant sums quantities per (product, variant); rows without a variant are skipped
func SumByProductVariant(rows []domain.NormalizedRow) []QuantityRow {
	return group(rows, func(r *domain.NormalizedRow) (QuantityRow, bool) {
		if r.Variant == "" {
			return QuantityRow{}, false
		}
		return QuantityRow{Product: r.Product, Variant: r.Variant}, true
	})
}

// SumByState sums quantities per state
func SumByState(rows []domain.NormalizedRow) []QuantityRow {
	return group(rows, func(r *domain.NormalizedRow) (QuantityRow, bool) {
		return QuantityRow{State: r.State}, true
	})
}

// SumByCity sums quantities per (state, city)
func SumByCity(rows []domain.NormalizedRow) []QuantityRow {
	return group(rows, func(r *domain.NormalizedRow) (QuantityRow, bool) {
		return QuantityRow{State: r.State, City: r.City}, true
	})
}

func group(rows []domain.NormalizedRow, keyOf func(*domain.NormalizedRow) (QuantityRow, bool)) []QuantityRow {
	byKey := map[string]*QuantityRow{}
	total := 0
	for i := range rows {
		g, ok := keyOf(&rows[i])
		if !ok {
			continue
		}
		k := g.key()
		acc, found := byKey[k]
		if !found {
			acc = &g
			byKey[k] = acc
		}
		acc.Quantity += rows[i].Quantity
		total += rows[i].Quantity
	}

	out := make([]QuantityRow, 0, len(byKey))
	for _, g := range byKey {
		g.Share = Percent(float64(g.Quantity), float64(total))
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].key() < out[j].key()
	})
	return out
}

// Variants lists the distinct non-empty variants of product in first-seen order
func Variants(rows []domain.NormalizedRow, product string) []string {
	seen := map[string]struct{}{}
	var out []string
	for i := range rows {
		if rows[i].Product != product || rows[i].Variant == "" {
			continue
		}
		if _, ok := seen[rows[i].Variant]; ok {
			continue
		}
		seen[rows[i].Variant] = struct{}{}
		out = append(out, rows[i].Variant)
	}
	return out
}
