package repo

import (
	"context"
	"sort"
	"time"

	"github.com/rogerio-castellano/storefront/internal/inventory"
	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/shopspring/decimal"
)

type InMemoryMetricsRepository struct {
	products *InMemoryProductRepository
	orders   *InMemoryOrderRepository
	users    UserRepository
	ledger   *inventory.Ledger
}

func NewInMemoryMetricsRepository(
	products *InMemoryProductRepository,
	orders *InMemoryOrderRepository,
	users UserRepository,
	ledger *inventory.Ledger,
) *InMemoryMetricsRepository {
	return &InMemoryMetricsRepository{products: products, orders: orders, users: users, ledger: ledger}
}

func (r *InMemoryMetricsRepository) GetDashboard(ctx context.Context, now time.Time) (models.Dashboard, error) {
	d := models.Dashboard{
		TotalRevenue: decimal.Zero,
		SalesChart:   []models.DailySales{},
	}
	orders := r.orders.all()

	for _, o := range orders {
		d.TotalRevenue = d.TotalRevenue.Add(o.TotalAmount)
	}
	d.TotalOrders = len(orders)

	todayStart, todayEnd := dayBounds(now)
	todayRevenue, todayOrders := sumOrders(orders, todayStart, todayEnd)
	yesterdayRevenue, yesterdayOrders := sumOrders(orders, todayStart.AddDate(0, 0, -1), todayStart)
	d.TodayRevenue, d.TodayOrders = todayRevenue, todayOrders
	d.RevenueChange = percentChange(todayRevenue, yesterdayRevenue)
	d.OrdersChange = percentChange(decimal.NewFromInt(int64(todayOrders)), decimal.NewFromInt(int64(yesterdayOrders)))

	for _, p := range r.products.all() {
		if p.Deleted() {
			continue
		}
		d.TotalProducts++
		if r.ledger.IsLowStock(p) {
			d.LowStockCount++
		}
	}

	customers, err := r.users.CountByRole(ctx, models.RoleCustomer)
	if err != nil {
		return d, err
	}
	d.TotalCustomers = customers

	for i := chartDays - 1; i >= 0; i-- {
		start := todayStart.AddDate(0, 0, -i)
		revenue, count := sumOrders(orders, start, start.AddDate(0, 0, 1))
		d.SalesChart = append(d.SalesChart, models.DailySales{Date: start.Format(time.DateOnly), Revenue: revenue, Orders: count})
	}

	top := productSales(orders, monthStart(now), todayEnd)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Quantity > top[j].Quantity })
	d.TopProducts = paginate(top, nil, ptr(topProductsLimit))

	if d.RecentOrders, err = r.orders.Recent(ctx, recentOrdersLimit); err != nil {
		return d, err
	}
	return d, nil
}

func (r *InMemoryMetricsRepository) SalesReport(_ context.Context, day time.Time) (models.SalesReport, error) {
	start, end := dayBounds(day)
	report := models.SalesReport{Date: start, TotalRevenue: decimal.Zero}

	orders := r.orders.all()
	for _, o := range orders {
		if o.CreatedAt.Before(start) || !o.CreatedAt.Before(end) {
			continue
		}
		report.TotalOrders++
		report.TotalRevenue = report.TotalRevenue.Add(o.TotalAmount)
		report.TotalItemsSold += o.TotalItems
	}

	report.ProductSales = productSales(orders, start, end)
	sort.SliceStable(report.ProductSales, func(i, j int) bool {
		return report.ProductSales[i].Revenue.GreaterThan(report.ProductSales[j].Revenue)
	})
	return report, nil
}

func sumOrders(orders []models.Order, start, end time.Time) (decimal.Decimal, int) {
	revenue, count := decimal.Zero, 0
	for _, o := range orders {
		if o.CreatedAt.Before(start) || !o.CreatedAt.Before(end) {
			continue
		}
		revenue = revenue.Add(o.TotalAmount)
		count++
	}
	return revenue, count
}

// productSales groups the items of orders created in [start, end) by
// product, ordered by product id.
func productSales(orders []models.Order, start, end time.Time) []models.ProductSales {
	byProduct := map[int]*models.ProductSales{}
	for _, o := range orders {
		if o.CreatedAt.Before(start) || !o.CreatedAt.Before(end) {
			continue
		}
		for _, it := range o.Items {
			ps, ok := byProduct[it.ProductID]
			if !ok {
				ps = &models.ProductSales{ProductID: it.ProductID, Name: it.ProductName, Revenue: decimal.Zero}
				byProduct[it.ProductID] = ps
			}
			ps.Quantity += it.Quantity
			ps.Revenue = ps.Revenue.Add(it.Subtotal)
		}
	}

	out := make([]models.ProductSales, 0, len(byProduct))
	for _, ps := range byProduct {
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func ptr[T any](v T) *T {
	return &v
}
