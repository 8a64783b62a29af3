package ledger

import (
	"sort"

	"github.com/jafarshop/orderledger/internal/domain"
)

// MergeOptions controls how rows missing from the fresh feed are treated
type MergeOptions struct {
	// KeepMissing carries previous rows absent from the fresh feed over untouched.
	// Set it when the fetch was partial.
	KeepMissing bool
}

// MergeReport counts what a merge did
type MergeReport struct {
	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Preserved int `json:"preserved"`
	Dropped   int `json:"dropped"`
	Kept      int `json:"kept"`
}

// Merge combines the previous ledger with freshly normalized rows.
//
// Fresh rows own every data column. For keys already in prev the tracking code and
// situation survive, and the status survives only when a user edited it. The result
// keeps prev's version; the repository bumps it on save.
func Merge(prev *domain.Ledger, fresh []domain.NormalizedRow, opts MergeOptions) (*domain.Ledger, MergeReport) {
	var report MergeReport

	prevRows := map[domain.RowKey]domain.NormalizedRow{}
	out := &domain.Ledger{}
	if prev != nil {
		out.Version = prev.Version
		out.UpdatedAt = prev.UpdatedAt
		for _, r := range prev.Rows {
			prevRows[r.Key] = r
		}
	}

	seen := make(map[domain.RowKey]struct{}, len(fresh))
	rows := make([]domain.NormalizedRow, 0, len(fresh)+len(prevRows))
	for _, r := range fresh {
		if _, dup := seen[r.Key]; dup {
			continue
		}
		seen[r.Key] = struct{}{}

		old, ok := prevRows[r.Key]
		if !ok {
			report.Added++
			rows = append(rows, r)
			continue
		}

		report.Updated++
		if old.TrackingCode != "" || old.Situation != "" || old.StatusEdited {
			report.Preserved++
		}
		r.TrackingCode = old.TrackingCode
		r.Situation = old.Situation
		if old.StatusEdited {
			r.Status = old.Status
			r.StatusEdited = true
		}
		rows = append(rows, r)
	}

	for key, old := range prevRows {
		if _, ok := seen[key]; ok {
			continue
		}
		if opts.KeepMissing {
			report.Kept++
			rows = append(rows, old)
			continue
		}
		report.Dropped++
	}

	SortRows(rows)
	out.Rows = rows
	return out, report
}

// SortRows orders rows newest first; rows without a timestamp go last, ties break on key
func SortRows(rows []domain.NormalizedRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.HasTimestamp() != b.HasTimestamp() {
			return a.HasTimestamp()
		}
		if !a.OrderedAt.Equal(b.OrderedAt) {
			return a.OrderedAt.After(b.OrderedAt)
		}
		return a.Key < b.Key
	})
}
