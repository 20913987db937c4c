package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/shoply/storefront/internal/domain/cart"
	"github.com/shoply/storefront/internal/domain/checkout"
)

// checkoutPage shows the checkout form alongside the active order.
//
// With no active order it flashes "Your cart is empty" and redirects back to
// /checkout. A client that follows the redirect with an empty cart loops.
func (h *Handler) checkoutPage(c *gin.Context) {
	order, err := h.cart.ActiveOrder(c.Request.Context(), currentUser(c))
	if err != nil {
		if errors.Is(err, cart.ErrNoActiveOrder) {
			flashRedirect(c, flashInfo, "Your cart is empty", routeCheckout)
			return
		}
		internalError(c, "checkout page", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": orderJSON(order),
		"form":  checkoutFormSpec(),
		"flash": popFlash(c),
	})
}

// submitCheckout validates the posted address form, captures the billing
// address, and branches on the payment option.
func (h *Handler) submitCheckout(c *gin.Context) {
	form := checkout.AddressForm{
		StreetAddress: c.PostForm("street_address"),
		District:      c.PostForm("district"),
		Country:       c.PostForm("country"),
		Zip:           c.PostForm("zip"),
		PaymentOption: c.PostForm("payment_option"),
	}

	res, err := h.checkout.Submit(c.Request.Context(), currentUser(c), form)
	if err != nil {
		var ferrs checkout.FieldErrors
		switch {
		case errors.Is(err, cart.ErrNoActiveOrder):
			flashRedirect(c, flashWarning, "Your shopping cart is empty", routeOrderSummary)
		case errors.As(err, &ferrs):
			// A malformed form falls through without a message.
			c.Redirect(http.StatusSeeOther, routeCheckout)
		case errors.Is(err, checkout.ErrInvalidPaymentOption):
			flashRedirect(c, flashWarning, "Invalid payment option selected", routeCheckout)
		default:
			internalError(c, "submit checkout", err)
		}
		return
	}

	switch res.Outcome {
	case checkout.OutcomePaymentRedirect:
		c.Redirect(http.StatusSeeOther, "/payment/mobilemoney")
	case checkout.OutcomeCashOnDelivery:
		flashRedirect(c, flashSuccess, "Your order will be paid for on delivery", routeOrderSummary)
	default:
		internalError(c, "submit checkout", errors.Errorf("unexpected outcome %q", res.Outcome))
	}
}

// paymentPage is the payment-collection stub. It requires a completed
// checkout (billing address attached) and hands off to the gateway
// integration, which lives outside this service.
func (h *Handler) paymentPage(c *gin.Context) {
	order, err := h.checkout.EnterPayment(c.Request.Context(), currentUser(c))
	if err != nil {
		if errors.Is(err, checkout.ErrCheckoutIncomplete) {
			flashRedirect(c, flashWarning, "You have not completed the checkout page", routeCheckout)
			return
		}
		internalError(c, "payment page", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":          orderJSON(order),
		"payment_option": c.Param("option"),
		"flash":          popFlash(c),
	})
}
