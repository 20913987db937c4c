package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	sessionCookie  = "session_token"
	userContextKey = "storefront.user_id"
)

// hashToken computes the HMAC-SHA256 of a session token under the server
// pepper. Only this hash is ever stored or compared.
func (h *Handler) hashToken(token string) string {
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// authenticate resolves the current user from the session cookie or a bearer
// token and stores the user ID in the request context. Unauthenticated
// requests pass through with no user set; requireLogin rejects them.
func (h *Handler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.Next()
			return
		}

		sess, err := h.sessions.FindSessionByTokenHash(c.Request.Context(), h.hashToken(token))
		if err != nil || sess.ExpiresAt.Before(h.now()) {
			c.Next()
			return
		}

		c.Set(userContextKey, sess.UserID)
		c.Next()
	}
}

// requireLogin redirects unauthenticated requests to the login page.
func (h *Handler) requireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(userContextKey); !ok {
			c.Redirect(http.StatusSeeOther, routeLogin)
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentUser returns the authenticated user's ID. Routes behind
// requireLogin can rely on it being present.
func currentUser(c *gin.Context) string {
	return c.GetString(userContextKey)
}

// sessionToken extracts the raw session token from the request: the session
// cookie first, then an Authorization bearer header.
func sessionToken(c *gin.Context) string {
	if v, err := c.Cookie(sessionCookie); err == nil && v != "" {
		return v
	}
	auth := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return token
	}
	return ""
}
