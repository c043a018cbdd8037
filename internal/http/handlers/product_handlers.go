package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	models "github.com/rogerio-castellano/storefront/internal/models"
	repo "github.com/rogerio-castellano/storefront/internal/repo"
)

const (
	shopPerPage  = 12
	adminPerPage = 10
	maxPerPage   = 100
)

var shopSorts = []string{repo.SortPriceLow, repo.SortPriceHigh, repo.SortNewest, repo.SortName}

// CreateProductHandler godoc
// @Summary Create a new product
// @Description Adds a product to the catalog
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body ProductRequest true "Product to add"
// @Success 201 {object} ProductResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {string} string "Duplicated name"
// @Router /products [post]
func CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	validationErrors := validateProduct(req)
	if len(validationErrors) > 0 {
		respond(w, http.StatusBadRequest, validationErrors)
		return
	}

	created, err := productRepo.Create(r.Context(), models.Product{
		Name:              strings.TrimSpace(req.Name),
		Price:             req.Price,
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicatedValueUnique) {
			http.Error(w, "could not create product: product name duplicated", http.StatusConflict)
			return
		}
		log.Printf("❌ Could not create product: %v", err)
		http.Error(w, "could not create product", http.StatusInternalServerError)
		return
	}

	respond(w, http.StatusCreated, toProductResponse(created))
}

// GetProductByIDHandler godoc
// @Summary Get product by ID (admin, includes deleted)
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} ProductResponse
// @Failure 400 {string} string "Invalid ID"
// @Failure 404 {string} string "Not found"
// @Failure 500 {string} string "Internal error"
// @Router /products/{id} [get]
func GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	product, err := productRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch product", http.StatusInternalServerError)
		return
	}
	respond(w, http.StatusOK, toProductResponse(product))
}

// ShowProductHandler godoc
// @Summary Product detail for the shop
// @Tags shop
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} ProductResponse
// @Failure 404 {string} string "Not found"
// @Router /product/{id} [get]
func ShowProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	product, err := productRepo.GetByID(r.Context(), id)
	if errors.Is(err, repo.ErrProductNotFound) || (err == nil && product.Deleted()) {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "could not fetch product", http.StatusInternalServerError)
		return
	}
	respond(w, http.StatusOK, toProductResponse(product))
}

// DeleteProductHandler godoc
// @Summary Soft delete a product
// @Tags products
// @Param id path int true "Product ID"
// @Success 204 "Deleted successfully"
// @Failure 400 {string} string "Invalid ID"
// @Failure 404 {string} string "Not found"
// @Failure 500 {string} string "Internal error"
// @Router /products/{id} [delete]
// @Security BearerAuth
func DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}
	if err := productRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not delete product", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreProductHandler godoc
// @Summary Restore a soft deleted product
// @Tags products
// @Param id path int true "Product ID"
// @Success 204 "Restored"
// @Failure 404 {string} string "Not found"
// @Failure 409 {string} string "Name taken by an active product"
// @Router /products/{id}/restore [post]
// @Security BearerAuth
func RestoreProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}
	err = productRepo.Restore(r.Context(), id)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, repo.ErrProductNotFound):
		http.Error(w, "product not found", http.StatusNotFound)
	case errors.Is(err, repo.ErrDuplicatedValueUnique):
		http.Error(w, "an active product already uses this name", http.StatusConflict)
	default:
		http.Error(w, "could not restore product", http.StatusInternalServerError)
	}
}

// UpdateProductHandler godoc
// @Summary Update a product
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param product body ProductRequest true "Updated product"
// @Success 200 {object} ProductResponse
// @Failure 400 {object} map[string]any
// @Failure 404 {string} string "Not found"
// @Failure 500 {string} string "Internal error"
// @Router /products/{id} [put]
// @Security BearerAuth
func UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	var req ProductRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	validationErrors := validateProduct(req)
	if len(validationErrors) > 0 {
		respond(w, http.StatusBadRequest, validationErrors)
		return
	}

	updated, err := productRepo.Update(r.Context(), models.Product{
		ID:                id,
		Name:              strings.TrimSpace(req.Name),
		Price:             req.Price,
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrProductNotFound):
			http.Error(w, "product not found", http.StatusNotFound)
		case errors.Is(err, repo.ErrDuplicatedValueUnique):
			http.Error(w, "could not update product: product name duplicated", http.StatusConflict)
		default:
			http.Error(w, "could not update product", http.StatusInternalServerError)
		}
		return
	}

	respond(w, http.StatusOK, toProductResponse(updated))
}

func pagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page, perPage = 1, defaultPerPage
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && v > 0 {
		perPage = min(v, maxPerPage)
	}
	return page, perPage
}

func listProducts(w http.ResponseWriter, r *http.Request, filter repo.ProductFilter, page, perPage int) {
	offset := (page - 1) * perPage
	filter.Offset = &offset
	filter.Limit = &perPage

	products, total, err := productRepo.Filter(r.Context(), filter)
	if err != nil {
		log.Printf("❌ Could not filter products: %v", err)
		http.Error(w, "could not filter products", http.StatusInternalServerError)
		return
	}

	resp := ProductsSearchResult{
		Data: make([]ProductResponse, len(products)),
		Meta: Meta{TotalCount: total, Page: page, PerPage: perPage},
	}
	for i, p := range products {
		resp.Data[i] = toProductResponse(p)
	}
	respond(w, http.StatusOK, resp)
}

// CatalogHandler godoc
// @Summary Shop catalog
// @Description Lists active products, 12 per page by default
// @Tags shop
// @Produce json
// @Param search query string false "Name contains (case-insensitive)"
// @Param sort query string false "price_low|price_high|newest|name"
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Success 200 {object} ProductsSearchResult
// @Failure 500 {string} string "Internal error"
// @Router / [get]
func CatalogHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := pagination(r, shopPerPage)
	listProducts(w, r, repo.ProductFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Sort:   repo.NormalizeSort(q.Get("sort"), shopSorts...),
	}, page, perPage)
}

// FilterProductsHandler godoc
// @Summary Filter and paginate products (admin, includes deleted)
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name contains (case-insensitive)"
// @Param sort query string false "newest|oldest|price_low|price_high|name|stock_low|stock_high"
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Param minQty query int false "Minimum quantity"
// @Param maxQty query int false "Maximum quantity"
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Success 200 {object} ProductsSearchResult
// @Failure 400 {string} string "Invalid query"
// @Failure 500 {string} string "Internal error"
// @Router /products [get]
func FilterProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repo.ProductFilter{
		Search:         strings.TrimSpace(q.Get("search")),
		Sort:           repo.NormalizeSort(q.Get("sort")),
		MinPrice:       parseDecimalPtr(q.Get("minPrice")),
		MaxPrice:       parseDecimalPtr(q.Get("maxPrice")),
		MinQty:         parseIntPtr(q.Get("minQty")),
		MaxQty:         parseIntPtr(q.Get("maxQty")),
		IncludeDeleted: true,
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		http.Error(w, "minPrice cannot be greater than maxPrice", http.StatusBadRequest)
		return
	}

	page, perPage := pagination(r, adminPerPage)
	listProducts(w, r, filter, page, perPage)
}
