package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// pushConfigured reports whether finished-session pushes can be signed.
func (h *Handler) pushConfigured() bool {
	return h.webpush != nil && h.webpush.VAPIDPublicKey != ""
}

// GetVAPIDPublicKey hands the application server key to the page, which
// needs it to subscribe for "fueling finished" pushes.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if !h.pushConfigured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push notifications are disabled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"public_key": h.webpush.VAPIDPublicKey})
}
