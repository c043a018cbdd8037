//go:build integration

package handlers_integrated_test_suite

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	handler "github.com/rogerio-castellano/storefront/internal/http/handlers"
)

func importCSV(r http.Handler, content, mode string) *httptest.ResponseRecorder {
	body, contentType := multipartCSV(content, "products.csv")
	path := "/products/import"
	if mode != "" {
		path += "?mode=" + mode
	}
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestImportProductsHandler(t *testing.T) {
	clearAllData(t)
	r := testRouter
	mustCreateProduct(t, r, "Existing", "1", 1)

	csv := strings.Join([]string{
		"name,price,stock_quantity,low_stock_threshold",
		"Pen,1.50,100,10",
		"Existing,9.99,50,",
		"Ruler,2.00,20,",
	}, "\n")

	w := importCSV(r, csv, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res handler.ImportProductsResult
	json.NewDecoder(w.Body).Decode(&res)
	if res.ImportedProductsCount != 2 || len(res.Errors) != 1 {
		t.Errorf("unexpected result: %+v", res)
	}

	pen, err := productRepo.GetByName(t.Context(), "Pen")
	if err != nil {
		t.Fatalf("Pen not imported: %v", err)
	}
	if pen.LowStockThreshold == nil || *pen.LowStockThreshold != 10 || !pen.Price.Equal(price("1.50")) {
		t.Errorf("unexpected Pen: %+v", pen)
	}

	w = importCSV(r, "name,price,stock_quantity\nExisting,9.99,50\n", "update")
	json.NewDecoder(w.Body).Decode(&res)
	if res.ImportedProductsCount != 1 {
		t.Errorf("expected 1 updated, got %+v", res)
	}
	existing, _ := productRepo.GetByName(t.Context(), "Existing")
	if existing.StockQuantity != 50 || !existing.Price.Equal(price("9.99")) {
		t.Errorf("expected Existing to be updated, got %+v", existing)
	}
}
