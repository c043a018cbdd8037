package handlers

import (
	"time"

	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/shopspring/decimal"
)

type ProductRequest struct {
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	StockQuantity     int             `json:"stock_quantity"`
	LowStockThreshold *int            `json:"low_stock_threshold,omitempty"`
}

type ProductResponse struct {
	Id                int             `json:"id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	StockQuantity     int             `json:"stock_quantity"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	LowStock          bool            `json:"low_stock"`
	Image             string          `json:"image,omitempty"`
	DeletedAt         *time.Time      `json:"deleted_at,omitempty"`
}

type Meta struct {
	TotalCount int `json:"total_count"`
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
}

type ProductsSearchResult struct {
	Data []ProductResponse `json:"data"`
	Meta Meta              `json:"meta,omitempty"`
}

type QuantityAdjustmentRequest struct {
	Delta int `json:"delta"` // can be positive or negative
}

type MovementResponse struct {
	ID        int    `json:"id"`
	ProductID int    `json:"product_id"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"created_at"`
}

type MovementsSearchResult struct {
	Data []MovementResponse `json:"data"`
	Meta Meta               `json:"meta,omitempty"`
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

type RegisterAsAdminRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

type LoginResult struct {
	Token string `json:"token"`
}

type RegisterResult struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type ImportProductsResult struct {
	ImportedProductsCount int                      `json:"imported"`
	Errors                []ProductValidationError `json:"errors"`
}

type AddToCartRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

type UpdateCartRequest struct {
	Quantity int `json:"quantity"`
}

type MessageResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type CartMutationResult struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message"`
	CartCount int              `json:"cart_count"`
	Item      *models.CartItem `json:"item,omitempty"`
}

type CartCountResult struct {
	Count int `json:"count"`
}

type CheckoutResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Order   models.Order `json:"order"`
}

type ReportScheduledResult struct {
	Message string `json:"message"`
	Date    string `json:"date"`
}

func toProductResponse(p models.Product) ProductResponse {
	return ProductResponse{
		Id:                p.ID,
		Name:              p.Name,
		Price:             p.Price,
		StockQuantity:     p.StockQuantity,
		LowStockThreshold: ledger.Threshold(p),
		LowStock:          ledger.IsLowStock(p),
		Image:             p.Image,
		DeletedAt:         p.DeletedAt,
	}
}
