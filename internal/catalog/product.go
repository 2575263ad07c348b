package catalog

import "github.com/shopspring/decimal"

// CategoryAll is the sentinel meaning "no category filter".
const CategoryAll = "all"

// Product is a catalog entry. Products are immutable once loaded; prices are
// fixed-point cents.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	PriceCents  int64  `json:"price_cents"`
	Image       string `json:"image"`
}

// FormatPrice renders cents as a two-decimal amount, e.g. 250 -> "2.50".
func FormatPrice(cents int64) string {
	return decimal.NewFromInt(cents).Shift(-2).StringFixed(2)
}
