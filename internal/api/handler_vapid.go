package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-backend/internal/apperr"
)

// GetVAPIDPublicKey returns the VAPID public key to the client.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		fail(c, apperr.Unavailable("push notifications are not configured"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"public_key": h.webpush.VAPIDPublicKey})
}
