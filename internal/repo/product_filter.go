package repo

import "github.com/shopspring/decimal"

const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceLow  = "price_low"
	SortPriceHigh = "price_high"
	SortName      = "name"
	SortStockLow  = "stock_low"
	SortStockHigh = "stock_high"
)

type ProductFilter struct {
	Search         string
	Sort           string
	MinPrice       *decimal.Decimal
	MaxPrice       *decimal.Decimal
	MinQty         *int
	MaxQty         *int
	IncludeDeleted bool
	Offset         *int
	Limit          *int
}

var productOrderBy = map[string]string{
	SortNewest:    "created_at DESC, id DESC",
	SortOldest:    "created_at ASC, id ASC",
	SortPriceLow:  "price ASC, id ASC",
	SortPriceHigh: "price DESC, id ASC",
	SortName:      "name ASC, id ASC",
	SortStockLow:  "stock_quantity ASC, id ASC",
	SortStockHigh: "stock_quantity DESC, id ASC",
}

// NormalizeSort returns sort when it is one of allowed (or any known sort
// when allowed is empty), and SortNewest otherwise.
func NormalizeSort(sort string, allowed ...string) string {
	if _, known := productOrderBy[sort]; !known {
		return SortNewest
	}
	if len(allowed) == 0 {
		return sort
	}
	for _, a := range allowed {
		if a == sort {
			return sort
		}
	}
	return SortNewest
}
