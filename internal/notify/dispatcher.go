// Package notify sends admin emails: low-stock alerts, deduplicated with a
// time-expiring marker, and the daily sales report. Work arrives through a
// Redis job queue so request handlers never wait on mail delivery.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/rogerio-castellano/storefront/internal/inventory"
	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/rogerio-castellano/storefront/internal/repo"
)

const DefaultCooldown = 24 * time.Hour

var ErrNoRecipients = errors.New("no notification recipients")

// Marker is a set-if-absent key store with expiry.
type Marker interface {
	MarkIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

func LowStockKey(productID int) string {
	return fmt.Sprintf("low_stock_sent_%d", productID)
}

type Dispatcher struct {
	Products   repo.ProductRepository
	Users      repo.UserRepository
	Metrics    repo.MetricsRepository
	Ledger     *inventory.Ledger
	Marker     Marker
	Mailer     Mailer
	Cooldown   time.Duration
	FallbackTo string
	Now        func() time.Time
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Dispatcher) cooldown() time.Duration {
	if d.Cooldown > 0 {
		return d.Cooldown
	}
	return DefaultCooldown
}

// Run handles queued jobs until ctx is done.
func (d *Dispatcher) Run(ctx context.Context, q *Queue) {
	log.Println("📬 Notification worker started")
	for {
		if ctx.Err() != nil {
			log.Println("📭 Notification worker stopped")
			return
		}

		job, ok, err := q.Next(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("❌ Failed to read notification job: %v", err)
				time.Sleep(time.Second)
			}
			continue
		}
		if !ok {
			continue
		}

		if err := d.Handle(ctx, job); err != nil {
			log.Printf("❌ Notification job %s failed: %v", job.Type, err)
		}
	}
}

func (d *Dispatcher) Handle(ctx context.Context, job Job) error {
	switch job.Type {
	case JobLowStock:
		_, err := d.SendLowStockAlert(ctx, job.ProductID)
		return err
	case JobDailyReport:
		day, err := time.ParseInLocation(time.DateOnly, job.Date, d.now().Location())
		if err != nil {
			return fmt.Errorf("invalid report date %q: %w", job.Date, err)
		}
		return d.SendDailyReport(ctx, day)
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}

// SendLowStockAlert emails every admin about the product unless an alert
// went out within the cooldown or the product is no longer low. It reports
// whether emails were sent.
func (d *Dispatcher) SendLowStockAlert(ctx context.Context, productID int) (bool, error) {
	p, err := d.Products.GetByID(ctx, productID)
	if errors.Is(err, repo.ErrProductNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if p.Deleted() || !d.Ledger.IsLowStock(p) {
		return false, nil
	}

	to, err := d.recipients(ctx)
	if err != nil {
		return false, err
	}

	key := LowStockKey(p.ID)
	first, err := d.Marker.MarkIfAbsent(ctx, key, d.cooldown())
	if err != nil {
		return false, fmt.Errorf("mark low stock alert for product %d: %w", p.ID, err)
	}
	if !first {
		return false, nil
	}

	body, err := render("low_stock.html", lowStockData{
		Product:   p,
		Threshold: d.Ledger.Threshold(p),
		Cooldown:  d.cooldown(),
		CheckedAt: d.now(),
	})
	if err != nil {
		_ = d.Marker.Release(ctx, key)
		return false, err
	}

	subject := fmt.Sprintf("⚠️ Low stock: %s (%d left)", p.Name, p.StockQuantity)
	if err := d.sendAll(to, subject, body); err != nil {
		// let the next purchase retry
		_ = d.Marker.Release(ctx, key)
		return false, err
	}
	log.Printf("📬 Low stock alert sent for product %d", p.ID)
	return true, nil
}

// SendDailyReport emails the sales report of day's calendar day.
func (d *Dispatcher) SendDailyReport(ctx context.Context, day time.Time) error {
	report, err := d.Metrics.SalesReport(ctx, day)
	if err != nil {
		return fmt.Errorf("build sales report: %w", err)
	}

	to, err := d.recipients(ctx)
	if err != nil {
		return err
	}

	body, err := render("daily_report.html", report)
	if err != nil {
		return err
	}

	subject := "📊 Daily Sales Report " + report.Date.Format(time.DateOnly)
	if err := d.sendAll(to, subject, body); err != nil {
		return err
	}
	log.Printf("📬 Daily sales report for %s sent (%d orders)", report.Date.Format(time.DateOnly), report.TotalOrders)
	return nil
}

func (d *Dispatcher) recipients(ctx context.Context) ([]string, error) {
	emails, err := d.Users.ListEmailsByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("list admin emails: %w", err)
	}
	if len(emails) == 0 && d.FallbackTo != "" {
		emails = []string{d.FallbackTo}
	}
	if len(emails) == 0 {
		return nil, ErrNoRecipients
	}
	return emails, nil
}

// sendAll mails every recipient and fails only when nobody received it.
func (d *Dispatcher) sendAll(to []string, subject, body string) error {
	var errs []error
	for _, addr := range to {
		if err := d.Mailer.Send(addr, subject, body); err != nil {
			log.Printf("❌ Failed to send %q to %s: %v", subject, addr, err)
			errs = append(errs, err)
		}
	}
	if len(errs) == len(to) {
		return errors.Join(errs...)
	}
	return nil
}
