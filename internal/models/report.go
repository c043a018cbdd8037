package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductSales is a per-product row of a sales report.
type ProductSales struct {
	ProductID int             `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// SalesReport aggregates the orders placed during one calendar day.
type SalesReport struct {
	Date           time.Time       `json:"date"`
	TotalOrders    int             `json:"total_orders"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalItemsSold int             `json:"total_items_sold"`
	ProductSales   []ProductSales  `json:"product_sales"`
}

func (r SalesReport) Empty() bool {
	return r.TotalOrders == 0
}
