package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rogerio-castellano/storefront/internal/inventory"
	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/rogerio-castellano/storefront/internal/redissvc"
	"github.com/rogerio-castellano/storefront/internal/repo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, html})
	return nil
}

type fixture struct {
	mr       *miniredis.Miniredis
	queue    *Queue
	products *repo.InMemoryProductRepository
	orders   *repo.InMemoryOrderRepository
	mailer   *fakeMailer
	d        *Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	rs := redissvc.NewRedisService(rdb)

	products := repo.NewInMemoryProductRepository()
	orders := repo.NewInMemoryOrderRepository()
	users := repo.NewInMemoryUserRepository()
	ledger := inventory.NewLedger(5)
	for _, u := range []models.User{
		{Username: "boss", Email: "boss@example.com", Role: models.RoleAdmin},
		{Username: "ops", Email: "ops@example.com", Role: models.RoleAdmin},
		{Username: "buyer", Email: "buyer@example.com", Role: models.RoleCustomer},
	} {
		_, err := users.CreateUser(context.Background(), u)
		require.NoError(t, err)
	}

	mailer := &fakeMailer{}
	return &fixture{
		mr:       mr,
		queue:    NewQueue(rs),
		products: products,
		orders:   orders,
		mailer:   mailer,
		d: &Dispatcher{
			Products: products,
			Users:    users,
			Metrics:  repo.NewInMemoryMetricsRepository(products, orders, users, ledger),
			Ledger:   ledger,
			Marker:   rs,
			Mailer:   mailer,
			Cooldown: 24 * time.Hour,
		},
	}
}

func (f *fixture) product(t *testing.T, stock int) models.Product {
	t.Helper()
	p, err := f.products.Create(context.Background(), models.Product{
		Name: "Kettle", Price: decimal.NewFromInt(25), StockQuantity: stock,
	})
	require.NoError(t, err)
	return p
}

// drain handles every queued job.
func (f *fixture) drain(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for f.mr.Exists(QueueKey) {
		job, ok, err := f.queue.Next(ctx, time.Second)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, f.d.Handle(ctx, job))
	}
}

func TestLowStockAlert_OneEmailPerAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, 0)

	require.NoError(t, f.queue.NotifyLowStock(ctx, []int{p.ID}))
	f.drain(t)

	require.Len(t, f.mailer.sent, 2)
	assert.ElementsMatch(t, []string{"boss@example.com", "ops@example.com"},
		[]string{f.mailer.sent[0].To, f.mailer.sent[1].To})
	assert.Contains(t, f.mailer.sent[0].Subject, "Kettle")
	assert.Contains(t, f.mailer.sent[0].Body, "Current stock: <strong>0</strong>")
	assert.True(t, f.mr.Exists(LowStockKey(p.ID)))
}

func TestLowStockAlert_SuppressedWithinCooldown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, 2)

	for range 3 {
		require.NoError(t, f.queue.NotifyLowStock(ctx, []int{p.ID}))
		f.drain(t)
	}
	assert.Len(t, f.mailer.sent, 2, "one alert per admin")

	f.mr.FastForward(24*time.Hour + time.Minute)

	sent, err := f.d.SendLowStockAlert(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, sent, "marker expires by time alone")
	assert.Len(t, f.mailer.sent, 4)
}

func TestLowStockAlert_SkippedWhenRestocked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, 1)

	_, err := f.products.AdjustQuantity(ctx, p.ID, 20)
	require.NoError(t, err)

	sent, err := f.d.SendLowStockAlert(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, f.mailer.sent)
	assert.False(t, f.mr.Exists(LowStockKey(p.ID)))
}

func TestLowStockAlert_ReleasesMarkerWhenAllSendsFail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, 1)
	f.mailer.err = errors.New("smtp down")

	sent, err := f.d.SendLowStockAlert(ctx, p.ID)
	require.Error(t, err)
	assert.False(t, sent)
	assert.False(t, f.mr.Exists(LowStockKey(p.ID)))

	f.mailer.err = nil
	sent, err = f.d.SendLowStockAlert(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestLowStockAlert_FallbackRecipient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.d.Users = repo.NewInMemoryUserRepository()
	p := f.product(t, 0)

	_, err := f.d.SendLowStockAlert(ctx, p.ID)
	require.ErrorIs(t, err, ErrNoRecipients)

	f.d.FallbackTo = "alerts@example.com"
	sent, err := f.d.SendLowStockAlert(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "alerts@example.com", f.mailer.sent[0].To)
}

func TestDailyReport_EmptyDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	day := time.Date(2026, 5, 4, 0, 0, 0, 0, time.Local)
	require.NoError(t, f.queue.ScheduleDailyReport(ctx, day))
	f.drain(t)

	require.Len(t, f.mailer.sent, 2)
	assert.Contains(t, f.mailer.sent[0].Subject, "2026-05-04")
	assert.Contains(t, f.mailer.sent[0].Body, "No orders were placed")
}

func TestDailyReport_WithOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	day := time.Date(2026, 5, 4, 0, 0, 0, 0, time.Local)
	f.orders.Add(models.Order{
		CreatedAt:   day.Add(10 * time.Hour),
		TotalAmount: decimal.RequireFromString("50.00"),
		TotalItems:  1,
		Items: []models.OrderItem{{
			ProductID: 1, ProductName: "Kettle", ProductPrice: decimal.NewFromInt(25),
			Quantity: 2, Subtotal: decimal.NewFromInt(50),
		}},
	})

	require.NoError(t, f.d.SendDailyReport(ctx, day))
	require.NotEmpty(t, f.mailer.sent)
	body := f.mailer.sent[0].Body
	assert.NotContains(t, body, "No orders were placed")
	assert.Contains(t, body, "<td>Kettle</td><td>2</td><td>50.00</td>")
	assert.Contains(t, body, "Revenue: <strong>50.00</strong>")
}

func TestHandle_UnknownJob(t *testing.T) {
	f := newFixture(t)
	assert.Error(t, f.d.Handle(context.Background(), Job{Type: "nope"}))
}

func TestNextRun(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 5, 4, 17, 30, 0, 0, loc)

	assert.Equal(t, time.Date(2026, 5, 4, 18, 0, 0, 0, loc), NextRun(now, 18, 0))
	assert.Equal(t, time.Date(2026, 5, 5, 9, 0, 0, 0, loc), NextRun(now, 9, 0))
	assert.Equal(t, time.Date(2026, 5, 5, 17, 30, 0, 0, loc), NextRun(now, 17, 30))
}

func TestScheduleDailyReportOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := time.Date(2026, 5, 4, 0, 0, 0, 0, time.Local)

	// a second replica shares the same Redis
	rdb := redis.NewClient(&redis.Options{Addr: f.mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	other := NewQueue(redissvc.NewRedisService(rdb))

	queued, err := f.queue.ScheduleDailyReportOnce(ctx, day)
	require.NoError(t, err)
	assert.True(t, queued)

	queued, err = other.ScheduleDailyReportOnce(ctx, day)
	require.NoError(t, err)
	assert.False(t, queued)

	queued, err = other.ScheduleDailyReportOnce(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, queued)

	jobs, err := f.mr.List(QueueKey)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
	assert.True(t, f.mr.Exists(DailyReportKey(day)))
	ttl := f.mr.TTL(DailyReportKey(day))
	assert.Equal(t, 26*time.Hour, ttl)
}
