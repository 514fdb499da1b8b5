package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-backend/internal/service"
)

// ListNotices returns notices newest first, limited by ?limit=.
func (h *Handler) ListNotices(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	notices, err := h.svc.Notices.List(c.Request.Context(), principal(c), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, notices)
}

func (h *Handler) PostNotice(c *gin.Context) {
	var req service.PostNoticeInput
	if !bindJSON(c, &req) {
		return
	}
	notice, err := h.svc.Notices.Post(c.Request.Context(), principal(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, notice)
}

func (h *Handler) DeleteNotice(c *gin.Context) {
	if err := h.svc.Notices.Delete(c.Request.Context(), principal(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
