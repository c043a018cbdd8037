package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/rogerio-castellano/storefront/internal/cart"
	"github.com/rogerio-castellano/storefront/internal/checkout"
	mw "github.com/rogerio-castellano/storefront/internal/http/middleware"
	"github.com/rogerio-castellano/storefront/internal/inventory"
	repo "github.com/rogerio-castellano/storefront/internal/repo"
)

const (
	msgAdded           = "✓ Product added to cart successfully!"
	msgUpdated         = "Cart quantity updated!"
	msgPurchased       = "Purchase completed successfully!"
	msgEmptyCart       = "Your cart is empty."
	msgCheckoutFailed  = "Checkout failed. Please try again."
	msgInvalidQuantity = "Quantity must be between 1 and 99."
)

// cartError maps cart and checkout failures onto a status and a message
// safe to show to the shopper.
func cartError(err error, fallback string) (int, string) {
	var stockErr *inventory.StockError
	var unavailable *checkout.UnavailableError
	switch {
	case errors.As(err, &stockErr):
		return http.StatusConflict, stockErr.Error()
	case errors.As(err, &unavailable):
		return http.StatusNotFound, unavailable.Error()
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusBadRequest, msgEmptyCart
	case errors.Is(err, repo.ErrProductNotFound):
		return http.StatusNotFound, "Product not found."
	case errors.Is(err, repo.ErrCartItemNotFound):
		return http.StatusNotFound, "Cart item not found."
	case errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest, msgInvalidQuantity
	case errors.Is(err, cart.ErrNoIdentity):
		return http.StatusBadRequest, "No cart session."
	}
	log.Printf("❌ %s: %v", fallback, err)
	return http.StatusInternalServerError, fallback
}

func cartCount(r *http.Request) int {
	n, err := cartService.GetCount(r.Context(), mw.IdentityFrom(r.Context()))
	if err != nil {
		log.Printf("⚠️ Could not count cart: %v", err)
	}
	return n
}

// AddToCartHandler godoc
// @Summary Add a product to the cart
// @Description The line quantity never exceeds the product's stock
// @Tags cart
// @Accept json
// @Produce json
// @Param item body AddToCartRequest true "Product and quantity (1..99)"
// @Success 200 {object} CartMutationResult
// @Failure 400 {object} MessageResult
// @Failure 404 {object} MessageResult
// @Failure 409 {object} MessageResult "Out of stock, insufficient stock or cart limit reached"
// @Router /cart/add [post]
func AddToCartHandler(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if err := readJSON(w, r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request.")
		return
	}
	if !validCartQuantity(req.Quantity) {
		respondMessage(w, http.StatusBadRequest, msgInvalidQuantity)
		return
	}

	owner := mw.IdentityFrom(r.Context())
	item, err := cartService.AddItem(r.Context(), owner, req.ProductID, req.Quantity)
	if err != nil {
		status, msg := cartError(err, "Could not add product to cart.")
		respondMessage(w, status, msg)
		return
	}

	respond(w, http.StatusOK, CartMutationResult{
		Success:   true,
		Message:   msgAdded,
		CartCount: cartCount(r),
		Item:      &item,
	})
}

// UpdateCartItemHandler godoc
// @Summary Change the quantity of a cart line
// @Tags cart
// @Accept json
// @Produce json
// @Param cartItemId path int true "Cart item ID"
// @Param quantity body UpdateCartRequest true "New quantity (1..99)"
// @Success 200 {object} CartMutationResult
// @Failure 400 {object} MessageResult
// @Failure 404 {object} MessageResult
// @Failure 409 {object} MessageResult
// @Router /cart/{cartItemId} [put]
func UpdateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "cartItemId")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid cart item.")
		return
	}

	var req UpdateCartRequest
	if err := readJSON(w, r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request.")
		return
	}
	if !validCartQuantity(req.Quantity) {
		respondMessage(w, http.StatusBadRequest, msgInvalidQuantity)
		return
	}

	item, err := cartService.UpdateItem(r.Context(), mw.IdentityFrom(r.Context()), itemID, req.Quantity)
	if err != nil {
		status, msg := cartError(err, "Could not update cart.")
		respondMessage(w, status, msg)
		return
	}

	respond(w, http.StatusOK, CartMutationResult{
		Success:   true,
		Message:   msgUpdated,
		CartCount: cartCount(r),
		Item:      &item,
	})
}

// RemoveCartItemHandler godoc
// @Summary Remove a line from the cart
// @Tags cart
// @Produce json
// @Param cartItemId path int true "Cart item ID"
// @Success 200 {object} CartMutationResult
// @Failure 404 {object} MessageResult
// @Router /cart/{cartItemId} [delete]
func RemoveCartItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "cartItemId")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid cart item.")
		return
	}

	msg, err := cartService.RemoveItem(r.Context(), mw.IdentityFrom(r.Context()), itemID)
	if err != nil {
		status, text := cartError(err, "Could not remove item.")
		respondMessage(w, status, text)
		return
	}

	respond(w, http.StatusOK, CartMutationResult{
		Success:   true,
		Message:   msg,
		CartCount: cartCount(r),
	})
}

// GetCartHandler godoc
// @Summary Current cart
// @Tags cart
// @Produce json
// @Success 200 {object} cart.Cart
// @Failure 500 {object} MessageResult
// @Router /cart [get]
func GetCartHandler(w http.ResponseWriter, r *http.Request) {
	c, err := cartService.GetItems(r.Context(), mw.IdentityFrom(r.Context()))
	if err != nil {
		status, msg := cartError(err, "Could not load cart.")
		respondMessage(w, status, msg)
		return
	}
	respond(w, http.StatusOK, c)
}

// CartCountHandler godoc
// @Summary Number of units in the cart
// @Tags cart
// @Produce json
// @Success 200 {object} CartCountResult
// @Router /cart/count [get]
func CartCountHandler(w http.ResponseWriter, r *http.Request) {
	n, err := cartService.GetCount(r.Context(), mw.IdentityFrom(r.Context()))
	if err != nil {
		log.Printf("⚠️ Could not count cart: %v", err)
	}
	respond(w, http.StatusOK, CartCountResult{Count: n})
}

// CheckoutHandler godoc
// @Summary Purchase the cart
// @Description All lines are purchased or none; stock is locked for the duration
// @Tags cart
// @Produce json
// @Success 200 {object} CheckoutResult
// @Failure 400 {object} MessageResult "Empty cart"
// @Failure 404 {object} MessageResult "Product no longer available"
// @Failure 409 {object} MessageResult "Not enough stock"
// @Failure 500 {object} MessageResult
// @Router /cart/checkout [post]
func CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	owner := mw.IdentityFrom(r.Context())
	res, err := checkoutEngine.Checkout(r.Context(), owner)
	if err != nil {
		status, msg := cartError(err, msgCheckoutFailed)
		respondMessage(w, status, msg)
		return
	}

	log.Printf("✅ Order %d placed by %s: %s", res.Order.ID, owner, res.Order.TotalAmount.StringFixed(2))
	respond(w, http.StatusOK, CheckoutResult{
		Success: true,
		Message: msgPurchased,
		Order:   res.Order,
	})
}
