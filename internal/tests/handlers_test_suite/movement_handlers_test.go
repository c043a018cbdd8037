package handlers_test_suite

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	handler "github.com/rogerio-castellano/storefront/internal/http/handlers"
	"github.com/rogerio-castellano/storefront/internal/models"
)

func TestAdjustQuantityHandler(t *testing.T) {
	r := newRouter(t)
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

	t.Run("Decrease into low stock", func(t *testing.T) {
		w := adjustProduct(r, id, handler.QuantityAdjustmentRequest{Delta: -12})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 OK, got %d", w.Code)
		}
		var resp handler.ProductResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.StockQuantity != 3 || !resp.LowStock {
			t.Errorf("expected quantity 3 flagged low, got %d/%v", resp.StockQuantity, resp.LowStock)
		}
	})

	t.Run("Too much decrease (underflow)", func(t *testing.T) {
		w := adjustProduct(r, id, handler.QuantityAdjustmentRequest{Delta: -100})
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
		if stockOf(t, id) != 3 {
			t.Errorf("stock changed after rejected adjustment")
		}
	})

	t.Run("Zero delta", func(t *testing.T) {
		w := adjustProduct(r, id, handler.QuantityAdjustmentRequest{Delta: 0})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("Unknown product", func(t *testing.T) {
		w := adjustProduct(r, 999, handler.QuantityAdjustmentRequest{Delta: 1})
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("Adjustments are logged", func(t *testing.T) {
		w := adminRequest(r, http.MethodGet, fmt.Sprintf("/products/%d/movements", id), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 OK, got %d", w.Code)
		}
		var res handler.MovementsSearchResult
		json.NewDecoder(w.Body).Decode(&res)
		if res.Meta.TotalCount != 2 {
			t.Fatalf("expected 2 movements, got %d", res.Meta.TotalCount)
		}
		for _, m := range res.Data {
			if m.Reason != models.MovementAdjustment {
				t.Errorf("expected adjustment reason, got %q", m.Reason)
			}
		}
	})
}

func TestGetMovementsHandler_FiltersAndPagination(t *testing.T) {
	r := newRouter(t)
	id := mustCreateProduct(t, r, "Tracked", "5", 100)

	base := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	for i := range 5 {
		addMovement(models.Movement{
			ProductID: id,
			Delta:     i + 1,
			Reason:    models.MovementAdjustment,
			CreatedAt: base.AddDate(0, 0, i).Format(time.RFC3339),
		})
	}

	get := func(query string) (int, handler.MovementsSearchResult) {
		w := adminRequest(r, http.MethodGet, fmt.Sprintf("/products/%d/movements%s", id, query), nil)
		var res handler.MovementsSearchResult
		json.NewDecoder(w.Body).Decode(&res)
		return w.Code, res
	}

	code, res := get("?since=2025-07-02T00:00:00Z&until=2025-07-04T00:00:00Z")
	if code != http.StatusOK || res.Meta.TotalCount != 2 {
		t.Errorf("expected 2 movements in range, got %d (%d)", res.Meta.TotalCount, code)
	}

	code, res = get("?limit=2&offset=1")
	if code != http.StatusOK || len(res.Data) != 2 || res.Meta.TotalCount != 5 {
		t.Errorf("unexpected page: %d items of %d (%d)", len(res.Data), res.Meta.TotalCount, code)
	}

	for _, q := range []string{"?since=yesterday", "?limit=0", "?offset=-1", "?limit=abc"} {
		if code, _ := get(q); code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, code)
		}
	}

	if w := adminRequest(r, http.MethodGet, "/products/999/movements", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown product, got %d", w.Code)
	}
}

func TestExportMovementsHandler(t *testing.T) {
	r := newRouter(t)
	id := mustCreateProduct(t, r, "Exported", "5", 10)
	adjustProduct(r, id, handler.QuantityAdjustmentRequest{Delta: 4})

	w := adminRequest(r, http.MethodGet, fmt.Sprintf("/products/%d/movements/export?format=csv", id), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %s", ct)
	}
	records, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	if len(records) != 2 || records[0][3] != "reason" || records[1][2] != "4" {
		t.Errorf("unexpected csv: %v", records)
	}

	w = adminRequest(r, http.MethodGet, fmt.Sprintf("/products/%d/movements/export?format=json", id), nil)
	var movements []models.Movement
	if err := json.NewDecoder(w.Body).Decode(&movements); err != nil || len(movements) != 1 {
		t.Errorf("unexpected json export: %v %v", movements, err)
	}

	w = adminRequest(r, http.MethodGet, fmt.Sprintf("/products/%d/movements/export?format=xml", id), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown format, got %d", w.Code)
	}
}
