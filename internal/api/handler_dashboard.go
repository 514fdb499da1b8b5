package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dashboard returns the administrator overview.
func (h *Handler) Dashboard(c *gin.Context) {
	summary, err := h.svc.Dashboard.Summary(c.Request.Context(), principal(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CheckConsistency reports occupancy drift without repairing it.
func (h *Handler) CheckConsistency(c *gin.Context) {
	report, err := h.svc.Consistency.Check(c.Request.Context(), principal(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clean": report.Clean(), "report": report})
}

// Reconcile recomputes bed occupancy from student assignments.
func (h *Handler) Reconcile(c *gin.Context) {
	result, err := h.svc.Consistency.Reconcile(c.Request.Context(), principal(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": result.Changed(), "result": result})
}
