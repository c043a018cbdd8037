package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	repo "github.com/rogerio-castellano/storefront/internal/repo"
)

// GetDashboardMetricsHandler godoc
// @Summary Dashboard metrics for admin view
// @Tags metrics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Dashboard
// @Failure 500 {string} string "Internal error"
// @Router /dashboard [get]
func GetDashboardMetricsHandler(w http.ResponseWriter, r *http.Request) {
	m, err := metricsRepo.GetDashboard(r.Context(), time.Now())
	if err != nil {
		log.Printf("❌ Failed to fetch dashboard: %v", err)
		http.Error(w, "failed to fetch metrics", http.StatusInternalServerError)
		return
	}
	respond(w, http.StatusOK, m)
}

// GetOrderHandler godoc
// @Summary Get an order with its item snapshots
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} models.Order
// @Failure 400 {string} string "Invalid ID"
// @Failure 404 {string} string "Not found"
// @Router /orders/{id} [get]
func GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid order ID", http.StatusBadRequest)
		return
	}

	order, err := orderRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch order", http.StatusInternalServerError)
		return
	}
	respond(w, http.StatusOK, order)
}

// SendDailyReportHandler godoc
// @Summary Queue the daily sales report email
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param date query string false "Report day (YYYY-MM-DD), defaults to yesterday"
// @Success 202 {object} ReportScheduledResult
// @Failure 400 {string} string "Invalid date"
// @Failure 503 {string} string "Reports unavailable"
// @Router /admin/reports/daily [post]
func SendDailyReportHandler(w http.ResponseWriter, r *http.Request) {
	if reports == nil {
		http.Error(w, "reports are not configured", http.StatusServiceUnavailable)
		return
	}

	day := time.Now().AddDate(0, 0, -1)
	if s := r.URL.Query().Get("date"); s != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, s, time.Local)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		day = parsed
	}

	if err := reports.ScheduleDailyReport(r.Context(), day); err != nil {
		log.Printf("❌ Failed to schedule daily report: %v", err)
		http.Error(w, "could not schedule report", http.StatusInternalServerError)
		return
	}
	respond(w, http.StatusAccepted, ReportScheduledResult{
		Message: "Daily report scheduled",
		Date:    day.Format(time.DateOnly),
	})
}
