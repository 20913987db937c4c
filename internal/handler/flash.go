package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// Flash severity levels, matching the tone of the messages they carry.
const (
	flashInfo    = "info"
	flashSuccess = "success"
	flashWarning = "warning"
)

const flashCookie = "flash"

// flash is a one-shot status message for the next page load.
type flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// setFlash stores a message in the flash cookie. The next popFlash consumes
// it. Only one message is kept; a later set wins.
func setFlash(c *gin.Context, level, message string) {
	v := url.QueryEscape(level + "|" + message)
	c.SetCookie(flashCookie, v, 60, "/", "", false, true)
}

// popFlash returns the pending flash message, clearing the cookie.
// Returns nil when there is none.
func popFlash(c *gin.Context) *flash {
	v, err := c.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)

	decoded, err := url.QueryUnescape(v)
	if err != nil {
		return nil
	}
	level, message, ok := strings.Cut(decoded, "|")
	if !ok {
		return nil
	}
	return &flash{Level: level, Message: message}
}

// flashRedirect sets a flash message and answers a 303 to target.
func flashRedirect(c *gin.Context, level, message, target string) {
	setFlash(c, level, message)
	c.Redirect(http.StatusSeeOther, target)
}
