package repo

import (
	"context"
	"time"

	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/shopspring/decimal"
)

const (
	chartDays         = 7
	topProductsLimit  = 5
	recentOrdersLimit = 5
)

type MetricsRepository interface {
	// GetDashboard aggregates the admin dashboard as of now.
	GetDashboard(ctx context.Context, now time.Time) (models.Dashboard, error)
	// SalesReport aggregates the orders created during day's calendar day,
	// in day's location.
	SalesReport(ctx context.Context, day time.Time) (models.SalesReport, error)
}

// dayBounds returns [start of t's day, start of the next day).
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// percentChange is the change from prev to cur in percent, rounded to one
// decimal. It is 0 when prev is 0.
func percentChange(cur, prev decimal.Decimal) float64 {
	if prev.IsZero() {
		return 0
	}
	f, _ := cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(1).Float64()
	return f
}
