package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/shoply/storefront/internal/domain/catalog"
)

// listProducts returns every item in the catalog.
func (h *Handler) listProducts(c *gin.Context) {
	items, err := h.items.List(c.Request.Context())
	if err != nil {
		internalError(c, "list items", err)
		return
	}

	out := make([]gin.H, len(items))
	for i, it := range items {
		out[i] = itemJSON(it)
	}
	c.JSON(http.StatusOK, gin.H{
		"items": out,
		"flash": popFlash(c),
	})
}

// getProduct returns a single item by slug.
func (h *Handler) getProduct(c *gin.Context) {
	it, err := h.items.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "item not found",
			})
			return
		}
		internalError(c, "get item", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item":  itemJSON(*it),
		"flash": popFlash(c),
	})
}
