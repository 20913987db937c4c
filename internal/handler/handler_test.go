package handler_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoply/storefront/internal/domain/auth"
	"github.com/shoply/storefront/internal/domain/cart"
	"github.com/shoply/storefront/internal/domain/catalog"
	"github.com/shoply/storefront/internal/domain/checkout"
	"github.com/shoply/storefront/internal/domain/coupon"
	"github.com/shoply/storefront/internal/handler"
	"github.com/shoply/storefront/internal/storage/memory"
)

const (
	testPepper = "test-pepper"
	testToken  = "session-token-1"
)

func tokenHash(token string) string {
	mac := hmac.New(sha256.New, []byte(testPepper))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestServer(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	store.SeedItem(catalog.Item{
		ID:       "i1",
		Title:    "Widget",
		Price:    decimal.RequireFromString("10.00"),
		Slug:     "widget",
		Category: "shirts",
	})
	store.SeedCoupon(coupon.Coupon{ID: "c1", Code: "SAVE5", Amount: decimal.RequireFromString("5.00")})
	store.SeedUser(auth.User{ID: "u1", Username: "alice"})
	store.SeedSession(auth.Session{
		ID:        "s1",
		UserID:    "u1",
		TokenHash: tokenHash(testToken),
		ExpiresAt: time.Now().Add(time.Hour),
	})

	cartSvc := cart.NewService(store.Items(), store.Coupons(), store.Orders(), store.Lines())
	checkoutSvc := checkout.NewService(store.Orders(), store.Billing())

	h := handler.New(store.Items(), cartSvc, checkoutSvc, store.Sessions(), []byte(testPepper))
	r := gin.New()
	h.Register(r)
	return r, store
}

// do performs a request as the seeded logged-in user.
func do(r *gin.Engine, method, path string, form url.Values) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.AddCookie(&http.Cookie{Name: "session_token", Value: testToken})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// flashFrom extracts the flash message a response set, or "".
func flashFrom(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "flash" && ck.MaxAge > 0 {
			decoded, err := url.QueryUnescape(ck.Value)
			require.NoError(t, err)
			_, msg, _ := strings.Cut(decoded, "|")
			return msg
		}
	}
	return ""
}

func validCheckoutForm() url.Values {
	return url.Values{
		"street_address": {"Acacia John Babiha"},
		"district":       {"Kampala"},
		"country":        {"UG"},
		"zip":            {"10101"},
		"payment_option": {"COD"},
	}
}

func TestCartRoutesRequireLogin(t *testing.T) {
	r, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/cart/add/widget", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestExpiredSessionIsRejected(t *testing.T) {
	r, store := newTestServer(t)
	store.SeedSession(auth.Session{
		ID:        "s2",
		UserID:    "u1",
		TokenHash: tokenHash("stale-token"),
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	req := httptest.NewRequest(http.MethodGet, "/order-summary", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "stale-token"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestListProducts(t *testing.T) {
	r, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "widget")
}

func TestGetProduct_NotFound(t *testing.T) {
	r, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/products/no-such", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddToCart(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(r, http.MethodPost, "/cart/add/widget", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/order-summary", w.Header().Get("Location"))
	assert.Equal(t, "This item was added to your cart", flashFrom(t, w))

	// Second add bumps the quantity instead of adding a line.
	w = do(r, http.MethodPost, "/cart/add/widget", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "This item quantity was updated", flashFrom(t, w))
}

func TestAddToCart_UnknownSlug(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(r, http.MethodPost, "/cart/add/no-such", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveFromCart_EmptyCartRedirectsToProduct(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(r, http.MethodPost, "/cart/remove/widget", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/products/widget", w.Header().Get("Location"))
	assert.Equal(t, "Your cart is empty", flashFrom(t, w))
}

func TestOrderSummary(t *testing.T) {
	r, _ := newTestServer(t)
	do(r, http.MethodPost, "/cart/add/widget", nil)

	w := do(r, http.MethodGet, "/order-summary", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Widget")
}

func TestOrderSummary_EmptyCart(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(r, http.MethodGet, "/order-summary", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, "Your shopping cart is empty", flashFrom(t, w))
}

func TestCheckoutGet_EmptyCartSelfRedirect(t *testing.T) {
	r, _ := newTestServer(t)

	// The empty-cart flash redirects back to /checkout itself.
	w := do(r, http.MethodGet, "/checkout", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/checkout", w.Header().Get("Location"))
	assert.Equal(t, "Your cart is empty", flashFrom(t, w))
}

func TestCheckoutSubmit_CashOnDelivery(t *testing.T) {
	r, store := newTestServer(t)
	do(r, http.MethodPost, "/cart/add/widget", nil)

	w := do(r, http.MethodPost, "/checkout", validCheckoutForm())
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/order-summary", w.Header().Get("Location"))
	assert.Equal(t, "Your order will be paid for on delivery", flashFrom(t, w))

	order, err := store.Orders().ActiveForUser(t.Context(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, order.BillingAddressID)
	assert.False(t, order.Ordered)
}

func TestCheckoutSubmit_MobileMoney(t *testing.T) {
	r, _ := newTestServer(t)
	do(r, http.MethodPost, "/cart/add/widget", nil)

	form := validCheckoutForm()
	form.Set("payment_option", "MM")
	w := do(r, http.MethodPost, "/checkout", form)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/payment/mobilemoney", w.Header().Get("Location"))
}

func TestCheckoutSubmit_InvalidOption(t *testing.T) {
	r, _ := newTestServer(t)
	do(r, http.MethodPost, "/cart/add/widget", nil)

	form := validCheckoutForm()
	form.Set("payment_option", "BTC")
	w := do(r, http.MethodPost, "/checkout", form)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/checkout", w.Header().Get("Location"))
	assert.Equal(t, "Invalid payment option selected", flashFrom(t, w))
}

func TestCheckoutSubmit_ValidationFailureIsSilent(t *testing.T) {
	r, _ := newTestServer(t)
	do(r, http.MethodPost, "/cart/add/widget", nil)

	form := validCheckoutForm()
	form.Set("zip", "")
	w := do(r, http.MethodPost, "/checkout", form)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/checkout", w.Header().Get("Location"))
	assert.Empty(t, flashFrom(t, w))
}

func TestCheckoutSubmit_EmptyCart(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(r, http.MethodPost, "/checkout", validCheckoutForm())
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/order-summary", w.Header().Get("Location"))
	assert.Equal(t, "Your shopping cart is empty", flashFrom(t, w))
}

func TestApplyCoupon(t *testing.T) {
	r, _ := newTestServer(t)
	do(r, http.MethodPost, "/cart/add/widget", nil)

	w := do(r, http.MethodPost, "/checkout/coupon", url.Values{"code": {"SAVE5"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/checkout", w.Header().Get("Location"))
	assert.Equal(t, "Successfully added coupon", flashFrom(t, w))
}

func TestApplyCoupon_UnknownCode(t *testing.T) {
	r, store := newTestServer(t)
	do(r, http.MethodPost, "/cart/add/widget", nil)

	w := do(r, http.MethodPost, "/checkout/coupon", url.Values{"code": {"BADCODE"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/checkout", w.Header().Get("Location"))
	assert.Equal(t, "This coupon does not exist", flashFrom(t, w))

	order, err := store.Orders().ActiveForUser(t.Context(), "u1")
	require.NoError(t, err)
	assert.Nil(t, order.CouponID)
}

func TestPaymentPage_IncompleteCheckout(t *testing.T) {
	r, _ := newTestServer(t)
	do(r, http.MethodPost, "/cart/add/widget", nil)

	w := do(r, http.MethodGet, "/payment/mobilemoney", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/checkout", w.Header().Get("Location"))
	assert.Equal(t, "You have not completed the checkout page", flashFrom(t, w))
}

func TestPaymentPage_AfterCheckout(t *testing.T) {
	r, _ := newTestServer(t)
	do(r, http.MethodPost, "/cart/add/widget", nil)

	form := validCheckoutForm()
	form.Set("payment_option", "MM")
	do(r, http.MethodPost, "/checkout", form)

	w := do(r, http.MethodGet, "/payment/mobilemoney", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mobilemoney")
}
