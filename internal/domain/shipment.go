package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// TrackingLinkBase is the carrier tracking page; the code is appended
const TrackingLinkBase = "https://www2.jtexpress.com.br/rastreio/track?codigo="

// Shipment is one row of the shipments tab with its derived columns
type Shipment struct {
	Reference     string     `json:"reference"`
	ShippedAt     *time.Time `json:"shipped_at"`
	DeliveredAt   *time.Time `json:"delivered_at"`
	State         string     `json:"state"`
	City          string     `json:"city"`
	TrackingCode  string     `json:"tracking_code"`
	DaysToDeliver *int       `json:"days_to_deliver"`
	Status        string     `json:"status"`
	TrackingLink  string     `json:"tracking_link"`
}

// NewShipment derives days, status and tracking link from the raw cells
func NewShipment(reference, shipped, delivered, state, city, tracking string) Shipment {
	s := Shipment{
		Reference:    strings.TrimSpace(reference),
		ShippedAt:    ParseTimestamp(shipped),
		DeliveredAt:  ParseTimestamp(delivered),
		State:        strings.ToUpper(strings.TrimSpace(state)),
		City:         TitleCase(strings.TrimSpace(city)),
		TrackingCode: strings.TrimSpace(tracking),
	}
	if s.ShippedAt != nil && s.DeliveredAt != nil {
		days := CalendarDaysBetween(*s.ShippedAt, *s.DeliveredAt)
		s.DaysToDeliver = &days
	}
	if s.DeliveredAt != nil {
		s.Status = ShipmentDelivered
	} else {
		s.Status = ShipmentPending
	}
	s.TrackingLink = TrackingLinkBase + s.TrackingCode
	return s
}

// CalendarDaysBetween is the number of calendar days from start to end
func CalendarDaysBetween(start, end time.Time) int {
	a := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(b.Sub(a).Hours() / 24))
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	// Slash dates are month-first; day-first only when the first field cannot be a month
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
}

// ParseTimestamp parses the date formats found in the feed and the sheets.
// Unparsable or empty values return nil rather than an error.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "nat") {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// ParseNumber coerces a sheet cell to a number; anything unparsable is 0
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	// Sheets exported with a pt-BR locale use a decimal comma
	if f, err := strconv.ParseFloat(strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", "."), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return 0
}

// TitleCase upper-cases the first letter of every word and lower-cases the rest
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	startOfWord := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if startOfWord {
				b.WriteRune(unicode.ToUpper(r))
			} else {
				b.WriteRune(unicode.ToLower(r))
			}
			startOfWord = false
			continue
		}
		b.WriteRune(r)
		startOfWord = true
	}
	return b.String()
}
