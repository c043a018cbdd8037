package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	models "github.com/rogerio-castellano/storefront/internal/models"
	repo "github.com/rogerio-castellano/storefront/internal/repo"
)

// AdjustQuantityHandler godoc
// @Summary Adjust stock of a product
// @Description Restocks (positive delta) or corrects stock; stock never drops below zero
// @Tags inventory
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param adjustment body QuantityAdjustmentRequest true "Quantity change"
// @Success 200 {object} ProductResponse
// @Failure 400 {string} string "Invalid adjustment"
// @Failure 404 {string} string "Not found"
// @Failure 409 {string} string "Stock would become negative"
// @Failure 500 {string} string "Internal error"
// @Router /products/{id}/adjust [post]
// @Security BearerAuth
func AdjustQuantityHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	var req QuantityAdjustmentRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	if req.Delta == 0 {
		http.Error(w, "delta cannot be zero", http.StatusBadRequest)
		return
	}

	product, err := productRepo.AdjustQuantity(r.Context(), id, req.Delta)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrInvalidQuantityChange):
			http.Error(w, "quantity cannot be negative", http.StatusConflict)
		case errors.Is(err, repo.ErrProductNotFound):
			http.Error(w, "product not found", http.StatusNotFound)
		default:
			http.Error(w, "could not update quantity", http.StatusInternalServerError)
		}
		return
	}
	if err := movementRepo.Log(r.Context(), id, req.Delta, models.MovementAdjustment); err != nil {
		log.Printf("❌ Could not log movement for product %d: %v", id, err)
	}

	if ledger.IsLowStock(product) {
		log.Printf("⚠️ ALERT: Product %d (%s) is below threshold! Qty=%d, Threshold=%d",
			product.ID, product.Name, product.StockQuantity, ledger.Threshold(product))
	}

	respond(w, http.StatusOK, toProductResponse(product))
}

func movementFilter(r *http.Request) (repo.MovementFilter, error) {
	var mf repo.MovementFilter
	var err error

	if mf.Since, err = parseTimestamp(r.URL.Query().Get("since")); err != nil {
		return mf, errors.New("invalid since date format")
	}
	if mf.Until, err = parseTimestamp(r.URL.Query().Get("until")); err != nil {
		return mf, errors.New("invalid until date format")
	}
	return mf, nil
}

// GetMovementsHandler godoc
// @Summary Get product movement logs
// @Tags movements
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param since query string false "Filter movements from this timestamp (RFC3339)"
// @Param until query string false "Filter movements until this timestamp (RFC3339)"
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {object} MovementsSearchResult
// @Failure 400 {string} string "Invalid input"
// @Failure 404 {string} string "Product not found"
// @Failure 500 {string} string "Internal error"
// @Router /products/{id}/movements [get]
func GetMovementsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	if _, err := productRepo.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch product", http.StatusInternalServerError)
		return
	}

	mf, err := movementFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil {
			http.Error(w, "invalid limit format", http.StatusBadRequest)
			return
		}
		if v <= 0 {
			http.Error(w, "limit must be greater than zero", http.StatusBadRequest)
			return
		}
		mf.Limit = &v
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		v, err := strconv.Atoi(offsetStr)
		if err != nil {
			http.Error(w, "invalid offset format", http.StatusBadRequest)
			return
		}
		if v < 0 {
			http.Error(w, "offset must be zero or positive", http.StatusBadRequest)
			return
		}
		mf.Offset = &v
	}

	movements, total, err := movementRepo.GetByProductID(r.Context(), id, mf)
	if err != nil {
		log.Printf("could not retrieve movements for product %d: %v", id, err)
		http.Error(w, "could not retrieve movements", http.StatusInternalServerError)
		return
	}

	response := MovementsSearchResult{
		Data: make([]MovementResponse, len(movements)),
		Meta: Meta{TotalCount: total},
	}
	for i, m := range movements {
		response.Data[i] = MovementResponse{
			ID:        m.ID,
			ProductID: m.ProductID,
			Delta:     m.Delta,
			Reason:    m.Reason,
			CreatedAt: m.CreatedAt,
		}
	}

	respond(w, http.StatusOK, response)
}

// ExportMovementsHandler godoc
// @Summary Export product movement logs
// @Tags movements
// @Produce text/csv, application/json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param format query string true "Export format (csv or json)"
// @Param since query string false "Filter from timestamp (RFC3339)"
// @Param until query string false "Filter until timestamp (RFC3339)"
// @Success 200 {file} file
// @Failure 400 {string} string "Invalid input"
// @Failure 500 {string} string "Internal error"
// @Router /products/{id}/movements/export [get]
func ExportMovementsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	format := r.URL.Query().Get("format")
	if format != "csv" && format != "json" {
		http.Error(w, "format must be 'csv' or 'json'", http.StatusBadRequest)
		return
	}

	mf, err := movementFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	movements, _, err := movementRepo.GetByProductID(r.Context(), id, mf)
	if err != nil {
		http.Error(w, "could not retrieve movements", http.StatusInternalServerError)
		return
	}

	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="movements.json"`)
		if err := json.NewEncoder(w).Encode(movements); err != nil {
			log.Printf("Failed to write JSON response: %v", err)
		}

	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="movements.csv"`)

		csvWriter := csv.NewWriter(w)
		_ = csvWriter.Write([]string{"id", "product_id", "delta", "reason", "created_at"})
		for _, m := range movements {
			_ = csvWriter.Write([]string{
				strconv.Itoa(m.ID),
				strconv.Itoa(m.ProductID),
				strconv.Itoa(m.Delta),
				m.Reason,
				m.CreatedAt,
			})
		}
		csvWriter.Flush()
	}
}
