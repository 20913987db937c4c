// Package handler exposes the storefront over HTTP. Mutating routes mirror
// the web flow they serve: they answer 303 redirects and carry their
// user-visible status message in a one-shot flash cookie, which the next
// page load consumes.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/shoply/storefront/internal/domain/auth"
	"github.com/shoply/storefront/internal/domain/cart"
	"github.com/shoply/storefront/internal/domain/catalog"
	"github.com/shoply/storefront/internal/domain/checkout"
)

// Route targets used by redirects across the handler.
const (
	routeHome         = "/"
	routeLogin        = "/login"
	routeOrderSummary = "/order-summary"
	routeCheckout     = "/checkout"
)

// Handler holds the domain dependencies for all HTTP routes.
type Handler struct {
	items    catalog.Repository
	cart     *cart.Service
	checkout *checkout.Service
	sessions auth.Repository
	pepper   []byte
	now      func() time.Time
}

// New constructs a Handler with the required domain dependencies. The pepper
// is the server-side HMAC key for session token hashing.
func New(
	items catalog.Repository,
	cartSvc *cart.Service,
	checkoutSvc *checkout.Service,
	sessions auth.Repository,
	pepper []byte,
) *Handler {
	return &Handler{
		items:    items,
		cart:     cartSvc,
		checkout: checkoutSvc,
		sessions: sessions,
		pepper:   pepper,
		now:      time.Now,
	}
}

// Register mounts all storefront routes on the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.GET(routeHome, func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, "/products")
	})
	r.GET(routeLogin, h.login)
	r.GET("/products", h.listProducts)
	r.GET("/products/:slug", h.getProduct)

	authed := r.Group("", h.authenticate(), h.requireLogin())
	authed.POST("/cart/add/:slug", h.addToCart)
	authed.POST("/cart/remove/:slug", h.removeFromCart)
	authed.POST("/cart/decrement/:slug", h.decrementCartItem)
	authed.GET(routeOrderSummary, h.orderSummary)
	authed.GET(routeCheckout, h.checkoutPage)
	authed.POST(routeCheckout, h.submitCheckout)
	authed.POST("/checkout/coupon", h.applyCoupon)
	authed.GET("/payment/:option", h.paymentPage)
}

// login is the identity boundary stub. Real authentication lives outside
// this service; sessions are seeded externally.
func (h *Handler) login(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "sign in to continue",
		"flash":   popFlash(c),
	})
}

// internalError logs the error and answers a 500 without leaking details.
func internalError(c *gin.Context, msg string, err error) {
	zctx.From(c.Request.Context()).Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    http.StatusInternalServerError,
		"message": "internal error",
	})
}

func productURL(slug string) string {
	return "/products/" + slug
}

// orderJSON renders an order for summary and checkout pages.
func orderJSON(o *cart.Order) gin.H {
	lines := make([]gin.H, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = gin.H{
			"id":       l.ID,
			"quantity": l.Quantity,
			"item": gin.H{
				"title":    l.Item.Title,
				"price":    l.Item.Price,
				"slug":     l.Item.Slug,
				"category": l.Item.Category,
				"label":    l.Item.Label,
			},
		}
	}
	out := gin.H{
		"id":         o.ID,
		"start_date": o.StartDate,
		"ordered":    o.Ordered,
		"lines":      lines,
	}
	if o.CouponID != nil {
		out["coupon_id"] = *o.CouponID
	}
	if o.BillingAddressID != nil {
		out["billing_address_id"] = *o.BillingAddressID
	}
	return out
}

func itemJSON(it catalog.Item) gin.H {
	return gin.H{
		"title":    it.Title,
		"price":    it.Price,
		"slug":     it.Slug,
		"category": it.Category,
		"label":    it.Label,
	}
}

// checkoutFormSpec describes the checkout form for clients, in place of a
// rendered template.
func checkoutFormSpec() gin.H {
	return gin.H{
		"fields": []gin.H{
			{"name": "street_address", "required": true},
			{"name": "district", "required": false},
			{"name": "country", "required": true},
			{"name": "zip", "required": true},
			{"name": "payment_option", "required": true, "choices": []string{
				string(checkout.PaymentMobileMoney),
				string(checkout.PaymentCashOnDelivery),
			}},
		},
	}
}
