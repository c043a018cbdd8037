package notify

import (
	"context"
	"log"
	"time"
)

// NextRun returns the first hour:minute wall-clock time strictly after now.
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// StartDailyReport queues the previous day's sales report every day at
// hour:minute until ctx is done. With several replicas running, only the
// first to reach the marker queues the report.
func StartDailyReport(ctx context.Context, q *Queue, hour, minute int) {
	for {
		next := NextRun(time.Now(), hour, minute)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		day := next.AddDate(0, 0, -1)
		queued, err := q.ScheduleDailyReportOnce(ctx, day)
		switch {
		case err != nil:
			log.Printf("❌ Failed to schedule daily report for %s: %v", day.Format(time.DateOnly), err)
		case !queued:
			log.Printf("📭 Daily report for %s already scheduled elsewhere", day.Format(time.DateOnly))
		}
	}
}
