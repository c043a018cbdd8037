//go:build integration

package handlers_integrated_test_suite

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	handler "github.com/rogerio-castellano/storefront/internal/http/handlers"
)

func TestAdjustQuantityHandler(t *testing.T) {
	clearAllData(t)
	r := testRouter
	id := mustCreateProduct(t, r, "InventoryItem", "10", 10)

	t.Run("Increase quantity", func(t *testing.T) {
		w := adjustProduct(r, id, handler.QuantityAdjustmentRequest{Delta: 5})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 OK, got %d", w.Code)
		}
		var resp handler.ProductResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.StockQuantity != 15 {
			t.Errorf("expected quantity 15, got %v", resp.StockQuantity)
		}
	})

	t.Run("Too much decrease (underflow)", func(t *testing.T) {
		w := adjustProduct(r, id, handler.QuantityAdjustmentRequest{Delta: -100})
		if w.Code != http.StatusConflict {
			t.Errorf("expected 409 Conflict, got %d", w.Code)
		}
		if got := stockOf(t, id); got != 15 {
			t.Errorf("expected stock unchanged, got %d", got)
		}
	})

	t.Run("Unknown product", func(t *testing.T) {
		if w := adjustProduct(r, 999999, handler.QuantityAdjustmentRequest{Delta: 1}); w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})
}

func TestGetMovements(t *testing.T) {
	clearAllData(t)
	r := testRouter
	id := mustCreateProduct(t, r, "Tracked", "1", 100)

	for _, d := range []int{-5, 3, -1} {
		adjustProduct(r, id, handler.QuantityAdjustmentRequest{Delta: d})
	}
	_, err := database.Exec(`INSERT INTO movements (product_id, delta, reason, created_at) VALUES ($1, 7, 'adjustment', '2025-01-01T10:00:00Z')`, id)
	if err != nil {
		t.Fatalf("failed to seed movement: %v", err)
	}

	w := adminRequest(r, http.MethodGet, fmt.Sprintf("/products/%d/movements?limit=2", id), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp handler.MovementsSearchResult
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Meta.TotalCount != 4 || len(resp.Data) != 2 {
		t.Errorf("unexpected page: %+v", resp.Meta)
	}

	w = adminRequest(r, http.MethodGet, fmt.Sprintf("/products/%d/movements?until=2025-02-01T00:00:00Z", id), nil)
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Meta.TotalCount != 1 || resp.Data[0].Delta != 7 {
		t.Errorf("expected only the seeded movement, got %+v", resp.Data)
	}
}

func TestExportMovementsCSV(t *testing.T) {
	clearAllData(t)
	r := testRouter
	id := mustCreateProduct(t, r, "Exported", "1", 10)
	adjustProduct(r, id, handler.QuantityAdjustmentRequest{Delta: -4})

	w := adminRequest(r, http.MethodGet, fmt.Sprintf("/products/%d/movements/export?format=csv", id), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	if len(records) != 2 || records[1][2] != "-4" {
		t.Errorf("unexpected csv: %v", records)
	}
}
