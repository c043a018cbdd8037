package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/rogerio-castellano/storefront/internal/inventory"
	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/shopspring/decimal"
)

type PostgresMetricsRepository struct {
	db     *sql.DB
	orders *PostgresOrderRepository
	ledger *inventory.Ledger
}

func NewPostgresMetricsRepository(db *sql.DB, ledger *inventory.Ledger) *PostgresMetricsRepository {
	return &PostgresMetricsRepository{db: db, orders: NewPostgresOrderRepository(db), ledger: ledger}
}

func (r *PostgresMetricsRepository) GetDashboard(ctx context.Context, now time.Time) (models.Dashboard, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var d models.Dashboard

	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(total_amount), 0), COUNT(*) FROM orders`).
		Scan(&d.TotalRevenue, &d.TotalOrders); err != nil {
		return d, err
	}

	todayStart, todayEnd := dayBounds(now)
	todayRevenue, todayOrders, err := r.orderTotals(ctx, todayStart, todayEnd)
	if err != nil {
		return d, err
	}
	yesterdayRevenue, yesterdayOrders, err := r.orderTotals(ctx, todayStart.AddDate(0, 0, -1), todayStart)
	if err != nil {
		return d, err
	}
	d.TodayRevenue, d.TodayOrders = todayRevenue, todayOrders
	d.RevenueChange = percentChange(todayRevenue, yesterdayRevenue)
	d.OrdersChange = percentChange(decimal.NewFromInt(int64(todayOrders)), decimal.NewFromInt(int64(yesterdayOrders)))

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE stock_quantity < COALESCE(low_stock_threshold, $1))
		FROM products WHERE deleted_at IS NULL`, r.ledger.DefaultThreshold()).
		Scan(&d.TotalProducts, &d.LowStockCount)
	if err != nil {
		return d, err
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, models.RoleCustomer).
		Scan(&d.TotalCustomers); err != nil {
		return d, err
	}

	d.SalesChart = []models.DailySales{}
	for i := chartDays - 1; i >= 0; i-- {
		start := todayStart.AddDate(0, 0, -i)
		revenue, count, err := r.orderTotals(ctx, start, start.AddDate(0, 0, 1))
		if err != nil {
			return d, err
		}
		d.SalesChart = append(d.SalesChart, models.DailySales{Date: start.Format(time.DateOnly), Revenue: revenue, Orders: count})
	}

	if d.TopProducts, err = r.productSales(ctx, monthStart(now), todayEnd, "SUM(oi.quantity) DESC", topProductsLimit); err != nil {
		return d, err
	}

	if d.RecentOrders, err = r.orders.Recent(ctx, recentOrdersLimit); err != nil {
		return d, err
	}
	return d, nil
}

func (r *PostgresMetricsRepository) SalesReport(ctx context.Context, day time.Time) (models.SalesReport, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	start, end := dayBounds(day)
	report := models.SalesReport{Date: start}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_amount), 0), COALESCE(SUM(total_items), 0)
		FROM orders WHERE created_at >= $1 AND created_at < $2`, start, end).
		Scan(&report.TotalOrders, &report.TotalRevenue, &report.TotalItemsSold)
	if err != nil {
		return report, err
	}

	report.ProductSales, err = r.productSales(ctx, start, end, "SUM(oi.subtotal) DESC", 0)
	return report, err
}

func (r *PostgresMetricsRepository) orderTotals(ctx context.Context, start, end time.Time) (decimal.Decimal, int, error) {
	var (
		revenue decimal.Decimal
		count   int
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_amount), 0), COUNT(*)
		FROM orders WHERE created_at >= $1 AND created_at < $2`, start, end).Scan(&revenue, &count)
	return revenue, count, err
}

// productSales groups order items of [start, end) by product. limit 0
// returns every product.
func (r *PostgresMetricsRepository) productSales(ctx context.Context, start, end time.Time, orderBy string, limit int) ([]models.ProductSales, error) {
	query := `
		SELECT oi.product_id, MAX(oi.product_name), SUM(oi.quantity), SUM(oi.subtotal)
		FROM order_items oi JOIN orders o ON o.id = oi.order_id
		WHERE o.created_at >= $1 AND o.created_at < $2
		GROUP BY oi.product_id
		ORDER BY ` + orderBy + `, oi.product_id`
	args := []any{start, end}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := []models.ProductSales{}
	for rows.Next() {
		var ps models.ProductSales
		if err := rows.Scan(&ps.ProductID, &ps.Name, &ps.Quantity, &ps.Revenue); err != nil {
			return nil, err
		}
		sales = append(sales, ps)
	}
	return sales, rows.Err()
}
