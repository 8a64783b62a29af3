package report

import (
	"sort"

	"github.com/jafarshop/orderledger/internal/domain"
)

// StockLine is a stock item with its derived figures
type StockLine struct {
	domain.StockItem
	Current float64 `json:"current"`
	Packs   int     `json:"packs"`
	Low     bool    `json:"low"`
}

// StockReport lists every item and the ones at or below their minimum
type StockReport struct {
	Items    []StockLine `json:"items"`
	LowStock []StockLine `json:"low_stock"`
}

// BuildStockReport derives current quantity and packs per item, sorted by product
func BuildStockReport(items []domain.StockItem) StockReport {
	rep := StockReport{Items: make([]StockLine, 0, len(items)), LowStock: []StockLine{}}
	for _, it := range items {
		line := StockLine{StockItem: it, Current: it.Current(), Packs: it.Packs(), Low: it.IsLow()}
		rep.Items = append(rep.Items, line)
		if line.Low {
			rep.LowStock = append(rep.LowStock, line)
		}
	}
	sort.SliceStable(rep.Items, func(i, j int) bool { return rep.Items[i].Product < rep.Items[j].Product })
	sort.SliceStable(rep.LowStock, func(i, j int) bool { return rep.LowStock[i].Product < rep.LowStock[j].Product })
	return rep
}
