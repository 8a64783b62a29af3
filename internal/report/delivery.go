package report

import (
	"math"
	"sort"
	"time"

	"github.com/jafarshop/orderledger/internal/domain"
)

// DeliveryStats summarizes delivery times of a set of shipments
type DeliveryStats struct {
	Total          int     `json:"total"`
	WithDays       int     `json:"with_days"`
	MeanDays       float64 `json:"mean_days"`
	MedianDays     float64 `json:"median_days"`
	StdDevDays     float64 `json:"std_dev_days"`
	PctWithin3Days float64 `json:"pct_within_3_days"`
	PctOver5Days   float64 `json:"pct_over_5_days"`
	Delivered      int     `json:"delivered"`
	NotDelivered   int     `json:"not_delivered"`
	PctDelivered   float64 `json:"pct_delivered"`
}

// StateDelivery is the per-state delivery summary
type StateDelivery struct {
	State          string  `json:"state"`
	Shipments      int     `json:"shipments"`
	PctWithin3Days float64 `json:"pct_within_3_days"`
	MeanDays       float64 `json:"mean_days"`
}

// ComputeDeliveryStats computes the delivery figures. Day statistics only use shipments
// with a known delivery time; the delivered counts use every shipment.
func ComputeDeliveryStats(shipments []domain.Shipment) DeliveryStats {
	stats := DeliveryStats{Total: len(shipments)}

	days := make([]float64, 0, len(shipments))
	for _, s := range shipments {
		if s.DeliveredAt != nil {
			stats.Delivered++
		} else {
			stats.NotDelivered++
		}
		if s.DaysToDeliver != nil {
			days = append(days, float64(*s.DaysToDeliver))
		}
	}
	stats.PctDelivered = Percent(float64(stats.Delivered), float64(stats.Total))

	stats.WithDays = len(days)
	if len(days) == 0 {
		return stats
	}

	within, over := 0, 0
	for _, d := range days {
		if d <= 3 {
			within++
		}
		if d > 5 {
			over++
		}
	}
	stats.MeanDays = Mean(days)
	stats.MedianDays = Median(days)
	stats.StdDevDays = StdDev(days)
	stats.PctWithin3Days = Percent(float64(within), float64(len(days)))
	stats.PctOver5Days = Percent(float64(over), float64(len(days)))
	return stats
}

// DeliveryByState groups shipments with a known delivery time by state, largest first
func DeliveryByState(shipments []domain.Shipment) []StateDelivery {
	byState := map[string][]float64{}
	for _, s := range shipments {
		if s.DaysToDeliver == nil {
			continue
		}
		byState[s.State] = append(byState[s.State], float64(*s.DaysToDeliver))
	}

	out := make([]StateDelivery, 0, len(byState))
	for state, days := range byState {
		within := 0
		for _, d := range days {
			if d <= 3 {
				within++
			}
		}
		out = append(out, StateDelivery{
			State:          state,
			Shipments:      len(days),
			PctWithin3Days: Percent(float64(within), float64(len(days))),
			MeanDays:       Mean(days),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Shipments != out[j].Shipments {
			return out[i].Shipments > out[j].Shipments
		}
		return out[i].State < out[j].State
	})
	return out
}

// FilterShipments keeps shipments whose shipment date falls in [from, to]. Zero bounds are open.
// Shipments without a shipment date are always excluded.
func FilterShipments(shipments []domain.Shipment, from, to time.Time) []domain.Shipment {
	out := make([]domain.Shipment, 0, len(shipments))
	for _, s := range shipments {
		if s.ShippedAt == nil {
			continue
		}
		if domain.InDateRange(*s.ShippedAt, from, to) {
			out = append(out, s)
		}
	}
	return out
}

// Mean of values, 0 for none
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median of values, 0 for none
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// StdDev is the sample standard deviation (N-1), 0 for fewer than two values
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	sq := 0.0
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / float64(len(values)-1))
}
