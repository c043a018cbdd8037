package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	models "github.com/rogerio-castellano/storefront/internal/models"
	"github.com/shopspring/decimal"
)

const (
	importSkip   = "skip"
	importUpdate = "update"
)

type csvRow struct {
	Name          string
	Price         decimal.Decimal
	StockQuantity int
	Threshold     *int
	err           error
}

var requiredColumns = []string{"name", "price", "stock_quantity"}

func parseCSV(file io.Reader) ([]csvRow, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV header")
	}

	index := map[string]int{}
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	field := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []csvRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV read error: %v", err)
		}

		row := csvRow{Name: field(record, "name")}
		if row.Price, err = decimal.NewFromString(field(record, "price")); err != nil {
			row.err = errors.New("invalid price")
		}
		if row.StockQuantity, err = strconv.Atoi(field(record, "stock_quantity")); err != nil && row.err == nil {
			row.err = errors.New("invalid stock_quantity")
		}
		if t := field(record, "low_stock_threshold"); t != "" {
			v, err := strconv.Atoi(t)
			if err != nil && row.err == nil {
				row.err = errors.New("invalid low_stock_threshold")
			}
			row.Threshold = &v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func validateRow(r csvRow) error {
	if r.err != nil {
		return r.err
	}
	if r.Name == "" {
		return errors.New("missing name")
	}
	if !r.Price.IsPositive() {
		return errors.New("invalid price")
	}
	if r.StockQuantity < 0 {
		return errors.New("invalid stock_quantity")
	}
	if r.Threshold != nil && *r.Threshold < 0 {
		return errors.New("invalid low_stock_threshold")
	}
	return nil
}

// ImportProductsHandler godoc
// @Summary Import products via CSV
// @Description Columns: name,price,stock_quantity,low_stock_threshold
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Param mode query string false "Import mode (skip|update)"
// @Success 200 {object} ImportProductsResult
// @Failure 400 {string} string "Invalid file"
// @Failure 500 {string} string "Internal error"
// @Router /products/import [post]
// @Security BearerAuth
func ImportProductsHandler(w http.ResponseWriter, r *http.Request) {
	mode := strings.ToLower(r.URL.Query().Get("mode"))
	if mode != importUpdate {
		mode = importSkip
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	records, err := parseCSV(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	imported := 0
	errorsList := []ProductValidationError{}
	rowError := func(rowNum int, format string, args ...any) {
		errorsList = append(errorsList, ProductValidationError{
			Field:       fmt.Sprintf("row %d", rowNum),
			Description: fmt.Sprintf(format, args...),
		})
	}

	for i, rec := range records {
		rowNum := i + 2 // header is row 1

		if err := validateRow(rec); err != nil {
			rowError(rowNum, "%v", err)
			continue
		}

		existing, err := productRepo.GetByName(ctx, rec.Name)
		if err == nil {
			if mode == importSkip {
				rowError(rowNum, "product '%s' already exists", rec.Name)
				continue
			}
			existing.Price = rec.Price
			existing.StockQuantity = rec.StockQuantity
			existing.LowStockThreshold = rec.Threshold
			if _, err := productRepo.Update(ctx, existing); err != nil {
				rowError(rowNum, "failed to update '%s'", rec.Name)
				continue
			}
			imported++
			continue
		}

		_, err = productRepo.Create(ctx, models.Product{
			Name:              rec.Name,
			Price:             rec.Price,
			StockQuantity:     rec.StockQuantity,
			LowStockThreshold: rec.Threshold,
		})
		if err != nil {
			rowError(rowNum, "%v", err)
			continue
		}
		imported++
	}

	err = writeJSON(w, http.StatusOK, ImportProductsResult{
		ImportedProductsCount: imported,
		Errors:                errorsList,
	})
	if err != nil {
		http.Error(w, "", http.StatusInternalServerError)
	}
}
