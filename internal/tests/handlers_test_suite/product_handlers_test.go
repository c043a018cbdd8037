package handlers_test_suite

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	handler "github.com/rogerio-castellano/storefront/internal/http/handlers"
)

func TestCreateProductHandler_Valid(t *testing.T) {
	r := newRouter(t)

	w := createProduct(r, handler.ProductRequest{Name: "Laptop", Price: price("1500.00"), StockQuantity: 3})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d", w.Code)
	}

	var resp handler.ProductResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}

	if resp.Name != "Laptop" {
		t.Errorf("expected name 'Laptop', got %v", resp.Name)
	}
	if !resp.Price.Equal(price("1500")) {
		t.Errorf("expected price 1500, got %v", resp.Price)
	}
	if resp.StockQuantity != 3 {
		t.Errorf("expected stock 3, got %v", resp.StockQuantity)
	}
	if resp.LowStockThreshold != 5 || !resp.LowStock {
		t.Errorf("expected default threshold 5 and low stock, got %d/%v", resp.LowStockThreshold, resp.LowStock)
	}
}

func TestCreateProductHandler_ThresholdOverride(t *testing.T) {
	r := newRouter(t)
	threshold := 2

	w := createProduct(r, handler.ProductRequest{Name: "Cable", Price: price("3.50"), StockQuantity: 3, LowStockThreshold: &threshold})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d", w.Code)
	}
	var resp handler.ProductResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.LowStockThreshold != 2 || resp.LowStock {
		t.Errorf("expected threshold 2 and not low stock, got %d/%v", resp.LowStockThreshold, resp.LowStock)
	}
}

func TestCreateProductHandler_Invalid(t *testing.T) {
	r := newRouter(t)
	negative := -1

	tests := []struct {
		name           string
		payload        handler.ProductRequest
		expectedErrors []string
	}{
		{"Empty name and price", handler.ProductRequest{Name: ""}, []string{"Name", "Price"}},
		{"Empty name only", handler.ProductRequest{Name: "", Price: price("100")}, []string{"Name"}},
		{"Invalid price only", handler.ProductRequest{Name: "Mouse", Price: price("-5")}, []string{"Price"}},
		{"Negative quantity", handler.ProductRequest{Name: "Keyboard", Price: price("50"), StockQuantity: -1}, []string{"StockQuantity"}},
		{"Negative threshold", handler.ProductRequest{Name: "Pad", Price: price("5"), LowStockThreshold: &negative}, []string{"LowStockThreshold"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := createProduct(r, tt.payload)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}

			var errs []handler.ProductValidationError
			if err := json.NewDecoder(w.Body).Decode(&errs); err != nil {
				t.Fatalf("failed to decode validation errors: %v", err)
			}
			if len(errs) != len(tt.expectedErrors) {
				t.Fatalf("expected %d errors, got %d: %+v", len(tt.expectedErrors), len(errs), errs)
			}
			for i, field := range tt.expectedErrors {
				if errs[i].Field != field {
					t.Errorf("expected error on %s, got %s", field, errs[i].Field)
				}
			}
		})
	}
}

func TestCreateProductHandler_DuplicateName(t *testing.T) {
	r := newRouter(t)
	mustCreateProduct(t, r, "Laptop", "10", 1)

	w := createProduct(r, handler.ProductRequest{Name: "Laptop", Price: price("12"), StockQuantity: 1})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestProductRoutes_RequireAdmin(t *testing.T) {
	r := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}

	customer, err := customerToken(r, "shopper")
	if err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Authorization", "Bearer "+customer)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for customer, got %d", w.Code)
	}
}

func catalog(r http.Handler, query string) handler.ProductsSearchResult {
	req := httptest.NewRequest(http.MethodGet, "/"+query, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp handler.ProductsSearchResult
	json.NewDecoder(w.Body).Decode(&resp)
	return resp
}

func names(res handler.ProductsSearchResult) []string {
	out := make([]string, len(res.Data))
	for i, p := range res.Data {
		out[i] = p.Name
	}
	return out
}

func TestCatalogHandler(t *testing.T) {
	r := newRouter(t)
	mustCreateProduct(t, r, "Blue Mug", "8", 10)
	mustCreateProduct(t, r, "Red Mug", "12", 10)
	lampID := mustCreateProduct(t, r, "Lamp", "30", 10)
	gone := mustCreateProduct(t, r, "Retired Mug", "1", 10)
	adminRequest(r, http.MethodDelete, fmt.Sprintf("/products/%d", gone), nil)

	t.Run("Excludes deleted products", func(t *testing.T) {
		res := catalog(r, "")
		if res.Meta.TotalCount != 3 {
			t.Errorf("expected 3 products, got %d", res.Meta.TotalCount)
		}
		if res.Meta.PerPage != 12 {
			t.Errorf("expected 12 per page, got %d", res.Meta.PerPage)
		}
	})

	t.Run("Search is case-insensitive", func(t *testing.T) {
		res := catalog(r, "?search=mug&sort=price_low")
		got := strings.Join(names(res), ",")
		if got != "Blue Mug,Red Mug" {
			t.Errorf("unexpected results: %s", got)
		}
	})

	t.Run("Sort by price high", func(t *testing.T) {
		res := catalog(r, "?sort=price_high")
		if len(res.Data) == 0 || res.Data[0].Id != lampID {
			t.Errorf("expected Lamp first, got %v", names(res))
		}
	})

	t.Run("Admin-only sort falls back to newest", func(t *testing.T) {
		res := catalog(r, "?sort=stock_low")
		if len(res.Data) == 0 || res.Data[0].Id != lampID {
			t.Errorf("expected newest first, got %v", names(res))
		}
	})

	t.Run("Pagination", func(t *testing.T) {
		res := catalog(r, "?sort=name&per_page=2&page=2")
		if len(res.Data) != 1 || res.Data[0].Name != "Red Mug" {
			t.Errorf("unexpected page: %v", names(res))
		}
		if res.Meta.TotalCount != 3 || res.Meta.Page != 2 {
			t.Errorf("unexpected meta: %+v", res.Meta)
		}
	})
}

func TestFilterProductsHandler_IncludesDeleted(t *testing.T) {
	r := newRouter(t)
	mustCreateProduct(t, r, "Keyboard", "40", 10)
	gone := mustCreateProduct(t, r, "Mouse", "20", 1)
	adminRequest(r, http.MethodDelete, fmt.Sprintf("/products/%d", gone), nil)

	w := adminRequest(r, http.MethodGet, "/products?sort=stock_low", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res handler.ProductsSearchResult
	json.NewDecoder(w.Body).Decode(&res)

	if res.Meta.TotalCount != 2 || res.Meta.PerPage != 10 {
		t.Fatalf("unexpected meta: %+v", res.Meta)
	}
	if res.Data[0].Id != gone || res.Data[0].DeletedAt == nil {
		t.Errorf("expected deleted Mouse first, got %+v", res.Data[0])
	}

	w = adminRequest(r, http.MethodGet, "/products?minPrice=30&maxPrice=10", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for inverted price range, got %d", w.Code)
	}
}

func TestShowProduct_SoftDeleteAndRestore(t *testing.T) {
	r := newRouter(t)
	id := mustCreateProduct(t, r, "Chair", "45", 4)
	path := fmt.Sprintf("/product/%d", id)

	show := func() int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Code
	}

	if code := show(); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	if w := adminRequest(r, http.MethodDelete, fmt.Sprintf("/products/%d", id), nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if code := show(); code != http.StatusNotFound {
		t.Errorf("expected deleted product to be hidden, got %d", code)
	}
	if w := adminRequest(r, http.MethodDelete, fmt.Sprintf("/products/%d", id), nil); w.Code != http.StatusNotFound {
		t.Errorf("expected second delete to 404, got %d", w.Code)
	}

	if w := adminRequest(r, http.MethodGet, fmt.Sprintf("/products/%d", id), nil); w.Code != http.StatusOK {
		t.Errorf("expected admin to see deleted product, got %d", w.Code)
	}

	if w := adminRequest(r, http.MethodPost, fmt.Sprintf("/products/%d/restore", id), nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on restore, got %d", w.Code)
	}
	if code := show(); code != http.StatusOK {
		t.Errorf("expected restored product to be visible, got %d", code)
	}
}

func TestUpdateProductHandler(t *testing.T) {
	r := newRouter(t)
	id := mustCreateProduct(t, r, "Desk", "100", 10)

	body, _ := json.Marshal(handler.ProductRequest{Name: "Standing Desk", Price: price("250"), StockQuantity: 2})
	w := adminRequest(r, http.MethodPut, fmt.Sprintf("/products/%d", id), strings.NewReader(string(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp handler.ProductResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Name != "Standing Desk" || resp.StockQuantity != 2 || !resp.LowStock {
		t.Errorf("unexpected product: %+v", resp)
	}

	w = adminRequest(r, http.MethodPut, "/products/999", strings.NewReader(string(body)))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestUploadProductImageHandler(t *testing.T) {
	r := newRouter(t)
	id := mustCreateProduct(t, r, "Poster", "15", 3)
	path := fmt.Sprintf("/products/%d/image", id)

	t.Run("Stores a png", func(t *testing.T) {
		body, contentType := multipartFile("image", "poster.png", pngHeader)
		req := httptest.NewRequest(http.MethodPost, path, body)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp handler.ProductResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if !strings.HasPrefix(resp.Image, handler.ImagePublicPath) || !strings.HasSuffix(resp.Image, ".png") {
			t.Fatalf("unexpected image path %q", resp.Image)
		}
		if _, err := os.Stat(filepath.Join(uploads, filepath.Base(resp.Image))); err != nil {
			t.Errorf("image not written: %v", err)
		}

		served := httptest.NewRecorder()
		r.ServeHTTP(served, httptest.NewRequest(http.MethodGet, resp.Image, nil))
		if served.Code != http.StatusOK {
			t.Errorf("expected stored image to be served, got %d", served.Code)
		}
	})

	t.Run("Rejects non images", func(t *testing.T) {
		body, contentType := multipartFile("image", "notes.png", []byte("just some text"))
		req := httptest.NewRequest(http.MethodPost, path, body)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("Rejects images over 2MB", func(t *testing.T) {
		big := append(append([]byte{}, pngHeader...), make([]byte, 2<<20)...)
		body, contentType := multipartFile("image", "huge.png", big)
		req := httptest.NewRequest(http.MethodPost, path, body)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}
