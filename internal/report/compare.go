package report

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/pkg/errors"
)

// MaxSeries bounds the number of series CompareSeries accepts
const MaxSeries = 5

// Period is an inclusive calendar-date range; zero bounds are open
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (p Period) contains(r *domain.NormalizedRow) bool {
	if p.From.IsZero() && p.To.IsZero() {
		return true
	}
	return r.HasTimestamp() && domain.InDateRange(r.OrderedAt, p.From, p.To)
}

// VariantShare is one variant's total in a period and its share of the period total
type VariantShare struct {
	Variant string  `json:"variant"`
	Period1 int     `json:"period1"`
	Share1  float64 `json:"share1"`
	Period2 int     `json:"period2"`
	Share2  float64 `json:"share2"`
}

// TopVariant is the best-selling variant of a period
type TopVariant struct {
	Variant  string `json:"variant"`
	Quantity int    `json:"quantity"`
}

// VariantComparison compares the variants of one product between two periods
type VariantComparison struct {
	Product   string         `json:"product"`
	Variants  []VariantShare `json:"variants"`
	Total1    int            `json:"total1"`
	Total2    int            `json:"total2"`
	Delta     int            `json:"delta"`
	ChangePct float64        `json:"change_pct"`
	Top1      *TopVariant    `json:"top1,omitempty"`
	Top2      *TopVariant    `json:"top2,omitempty"`
}

// CompareVariants totals the chosen variants of product in each period.
// With no variants chosen the first two variants of the product are used.
func CompareVariants(rows []domain.NormalizedRow, product string, variants []string, p1, p2 Period) (*VariantComparison, error) {
	variants = uniqueNames(variants)
	if len(variants) == 0 {
		variants = Variants(rows, product)
		if len(variants) > 2 {
			variants = variants[:2]
		}
	}
	if len(variants) < 2 {
		return nil, &errors.ErrValidation{
			Message: fmt.Sprintf("at least 2 variants are needed to compare %q", product),
			Fields:  map[string]string{"variants": "min 2"},
		}
	}

	chosen := make(map[string]int, len(variants))
	for i, v := range variants {
		chosen[v] = i
	}
	shares := make([]VariantShare, len(variants))
	for i, v := range variants {
		shares[i].Variant = v
	}

	cmp := &VariantComparison{Product: product}
	for i := range rows {
		r := &rows[i]
		idx, ok := chosen[r.Variant]
		if r.Product != product || !ok {
			continue
		}
		if p1.contains(r) {
			shares[idx].Period1 += r.Quantity
			cmp.Total1 += r.Quantity
		}
		if p2.contains(r) {
			shares[idx].Period2 += r.Quantity
			cmp.Total2 += r.Quantity
		}
	}

	for i := range shares {
		shares[i].Share1 = Round2(Percent(float64(shares[i].Period1), float64(cmp.Total1)))
		shares[i].Share2 = Round2(Percent(float64(shares[i].Period2), float64(cmp.Total2)))
	}
	cmp.Variants = shares
	cmp.Delta = cmp.Total2 - cmp.Total1
	if cmp.Total1 > 0 {
		cmp.ChangePct = Round2(float64(cmp.Delta) / float64(cmp.Total1) * 100)
	}
	cmp.Top1 = top(shares, func(s VariantShare) int { return s.Period1 })
	cmp.Top2 = top(shares, func(s VariantShare) int { return s.Period2 })
	return cmp, nil
}

func top(shares []VariantShare, qty func(VariantShare) int) *TopVariant {
	var best *TopVariant
	for _, s := range shares {
		q := qty(s)
		if q == 0 {
			continue
		}
		if best == nil || q > best.Quantity {
			best = &TopVariant{Variant: s.Variant, Quantity: q}
		}
	}
	return best
}

// DailyPoint is the quantity ordered on one calendar day
type DailyPoint struct {
	Date     string `json:"date"`
	Point    int    `json:"point,omitempty"`
	Quantity int    `json:"quantity"`
}

// DailyTrend sums the quantity of variant per calendar day, oldest first.
// Rows without a timestamp are skipped.
func DailyTrend(rows []domain.NormalizedRow, variant string, period Period) []DailyPoint {
	byDay := map[string]int{}
	for i := range rows {
		r := &rows[i]
		if r.Variant != variant || !r.HasTimestamp() || !period.contains(r) {
			continue
		}
		byDay[r.OrderedAt.Format("2006-01-02")] += r.Quantity
	}

	out := make([]DailyPoint, 0, len(byDay))
	for day, qty := range byDay {
		out = append(out, DailyPoint{Date: day, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// SeriesRequest selects one variant over a period
type SeriesRequest struct {
	Variant string `json:"variant" binding:"required"`
	Period
}

// Series is a daily trend indexed by point (1..n) with its summary figures
type Series struct {
	Label   string       `json:"label"`
	Variant string       `json:"variant"`
	Points  []DailyPoint `json:"points"`
	Total   int          `json:"total"`
	Mean    float64      `json:"mean"`
	Max     int          `json:"max"`
}

// CompareSeries builds up to MaxSeries daily series so periods of different dates line up by point
func CompareSeries(rows []domain.NormalizedRow, reqs []SeriesRequest) ([]Series, error) {
	if len(reqs) == 0 || len(reqs) > MaxSeries {
		return nil, &errors.ErrValidation{
			Message: fmt.Sprintf("between 1 and %d series can be compared", MaxSeries),
			Fields:  map[string]string{"series": fmt.Sprintf("got %d", len(reqs))},
		}
	}

	out := make([]Series, 0, len(reqs))
	for i, req := range reqs {
		points := DailyTrend(rows, req.Variant, req.Period)
		s := Series{
			Label:   fmt.Sprintf("%s (Comp %d)", req.Variant, i+1),
			Variant: req.Variant,
			Points:  points,
		}
		for j := range points {
			points[j].Point = j + 1
			s.Total += points[j].Quantity
			if points[j].Quantity > s.Max {
				s.Max = points[j].Quantity
			}
		}
		if len(points) > 0 {
			s.Mean = float64(s.Total) / float64(len(points))
		}
		out = append(out, s)
	}
	return out, nil
}

// Round2 rounds to two decimals
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// uniqueNames drops blank and repeated names, keeping first-seen order.
func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup || n == "" {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
