package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/rogerio-castellano/storefront/internal/redissvc"
)

const QueueKey = "storefront:jobs"

// dailyReportMarkTTL outlives the day so late replicas still see the marker.
const dailyReportMarkTTL = 26 * time.Hour

const (
	JobLowStock    = "low_stock"
	JobDailyReport = "daily_report"
)

type Job struct {
	Type       string    `json:"type"`
	ProductID  int       `json:"product_id,omitempty"`
	Date       string    `json:"date,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Queue is a FIFO of notification jobs kept in a Redis list.
type Queue struct {
	rs *redissvc.RedisService
}

func NewQueue(rs *redissvc.RedisService) *Queue {
	return &Queue{rs: rs}
}

func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.rs.Push(ctx, QueueKey, payload)
}

// Next waits up to timeout for a job. ok is false when none arrived.
func (q *Queue) Next(ctx context.Context, timeout time.Duration) (job Job, ok bool, err error) {
	payload, err := q.rs.Pop(ctx, QueueKey, timeout)
	if err != nil || payload == nil {
		return Job{}, false, err
	}
	if err := json.Unmarshal(payload, &job); err != nil {
		return Job{}, false, fmt.Errorf("decode job %q: %w", payload, err)
	}
	return job, true, nil
}

// NotifyLowStock schedules one alert job per product.
func (q *Queue) NotifyLowStock(ctx context.Context, productIDs []int) error {
	for _, id := range productIDs {
		if err := q.Enqueue(ctx, Job{Type: JobLowStock, ProductID: id}); err != nil {
			return fmt.Errorf("enqueue low stock alert for product %d: %w", id, err)
		}
	}
	return nil
}

// ScheduleDailyReport schedules the sales report of day.
func (q *Queue) ScheduleDailyReport(ctx context.Context, day time.Time) error {
	return q.Enqueue(ctx, Job{Type: JobDailyReport, Date: day.Format(time.DateOnly)})
}

func DailyReportKey(day time.Time) string {
	return "daily_report_" + day.Format(time.DateOnly)
}

// ScheduleDailyReportOnce queues day's report unless another process already
// did. It reports whether the job was queued.
func (q *Queue) ScheduleDailyReportOnce(ctx context.Context, day time.Time) (bool, error) {
	key := DailyReportKey(day)
	ok, err := q.rs.MarkIfAbsent(ctx, key, dailyReportMarkTTL)
	if err != nil || !ok {
		return false, err
	}
	if err := q.ScheduleDailyReport(ctx, day); err != nil {
		if relErr := q.rs.Release(ctx, key); relErr != nil {
			log.Printf("⚠️ Failed to release %s: %v", key, relErr)
		}
		return false, err
	}
	return true, nil
}
