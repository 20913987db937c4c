package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/shoply/storefront/internal/domain/cart"
	"github.com/shoply/storefront/internal/domain/catalog"
	"github.com/shoply/storefront/internal/domain/coupon"
)

// addToCart adds one unit of the slugged item to the current user's cart and
// redirects to the order summary.
func (h *Handler) addToCart(c *gin.Context) {
	slug := c.Param("slug")

	res, err := h.cart.AddItem(c.Request.Context(), currentUser(c), slug)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "item not found",
			})
			return
		}
		internalError(c, "add to cart", err)
		return
	}

	if res.QuantityUpdated {
		flashRedirect(c, flashInfo, "This item quantity was updated", routeOrderSummary)
		return
	}
	flashRedirect(c, flashInfo, "This item was added to your cart", routeOrderSummary)
}

// removeFromCart drops the whole line for the slugged item, regardless of
// quantity. Failure branches redirect to the product page, not the cart.
func (h *Handler) removeFromCart(c *gin.Context) {
	slug := c.Param("slug")

	_, err := h.cart.RemoveItem(c.Request.Context(), currentUser(c), slug)
	switch {
	case err == nil:
		flashRedirect(c, flashInfo, "This item was removed from your cart", routeOrderSummary)
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": "item not found",
		})
	case errors.Is(err, cart.ErrLineNotFound):
		flashRedirect(c, flashInfo, "Could not find item", productURL(slug))
	case errors.Is(err, cart.ErrNoActiveOrder):
		flashRedirect(c, flashInfo, "Your cart is empty", productURL(slug))
	default:
		internalError(c, "remove from cart", err)
	}
}

// decrementCartItem lowers the slugged item's quantity by one, removing the
// line entirely at quantity 1. Failure branches match removeFromCart.
func (h *Handler) decrementCartItem(c *gin.Context) {
	slug := c.Param("slug")

	_, err := h.cart.DecrementItem(c.Request.Context(), currentUser(c), slug)
	switch {
	case err == nil:
		flashRedirect(c, flashInfo, "This item was updated", routeOrderSummary)
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": "item not found",
		})
	case errors.Is(err, cart.ErrLineNotFound):
		flashRedirect(c, flashInfo, "Could not find item", productURL(slug))
	case errors.Is(err, cart.ErrNoActiveOrder):
		flashRedirect(c, flashInfo, "Your cart is empty", productURL(slug))
	default:
		internalError(c, "decrement cart item", err)
	}
}

// orderSummary shows the active order. An empty cart redirects home with a
// warning.
func (h *Handler) orderSummary(c *gin.Context) {
	order, err := h.cart.ActiveOrder(c.Request.Context(), currentUser(c))
	if err != nil {
		if errors.Is(err, cart.ErrNoActiveOrder) {
			flashRedirect(c, flashWarning, "Your shopping cart is empty", routeHome)
			return
		}
		internalError(c, "order summary", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": orderJSON(order),
		"flash": popFlash(c),
	})
}

// applyCoupon attaches a coupon to the active order. Every outcome lands
// back on the checkout page.
func (h *Handler) applyCoupon(c *gin.Context) {
	code := c.PostForm("code")
	if code == "" {
		// Blank code fails form validation; like the checkout form, an
		// invalid submission redirects back silently.
		c.Redirect(http.StatusSeeOther, routeCheckout)
		return
	}

	_, err := h.cart.ApplyCoupon(c.Request.Context(), currentUser(c), code)
	switch {
	case err == nil:
		flashRedirect(c, flashSuccess, "Successfully added coupon", routeCheckout)
	case errors.Is(err, coupon.ErrNotFound):
		flashRedirect(c, flashInfo, "This coupon does not exist", routeCheckout)
	case errors.Is(err, cart.ErrNoActiveOrder):
		flashRedirect(c, flashInfo, "Your cart is empty", routeCheckout)
	default:
		internalError(c, "apply coupon", err)
	}
}
