package models

// Movement is one entry of a product's stock history.
type Movement struct {
	ID        int    `json:"id"`
	ProductID int    `json:"product_id"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"created_at"`
}

const (
	MovementAdjustment = "adjustment"
	MovementSale       = "sale"
)
