package models

import "github.com/shopspring/decimal"

type DailySales struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type Dashboard struct {
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TodayRevenue   decimal.Decimal `json:"today_revenue"`
	RevenueChange  float64         `json:"revenue_change"`
	TotalOrders    int             `json:"total_orders"`
	TodayOrders    int             `json:"today_orders"`
	OrdersChange   float64         `json:"orders_change"`
	TotalProducts  int             `json:"total_products"`
	LowStockCount  int             `json:"low_stock_count"`
	TotalCustomers int             `json:"total_customers"`
	SalesChart     []DailySales    `json:"sales_chart"`
	TopProducts    []ProductSales  `json:"top_products"`
	RecentOrders   []Order         `json:"recent_orders"`
}
