package domain

import "math"

// PackSize is the number of pieces in one pack
const PackSize = 20

// StockColumns is the declared layout of the stock tab
var StockColumns = []string{"Produto", "Quantidade", "Estoque Mínimo", "Ja Gasto"}

// StockItem is one product row of the stock tab
type StockItem struct {
	Product  string  `json:"product"`
	Quantity float64 `json:"quantity"`
	MinStock float64 `json:"min_stock"`
	Spent    float64 `json:"spent"`
}

// Current is the quantity left after what was already spent, never negative
func (s StockItem) Current() float64 {
	return math.Max(0, s.Quantity-s.Spent)
}

// Packs is the number of whole packs the current quantity fills
func (s StockItem) Packs() int {
	return int(math.Floor(s.Current() / PackSize))
}

// IsLow reports whether the current quantity is at or below the minimum
func (s StockItem) IsLow() bool {
	return s.Current() <= s.MinStock
}
