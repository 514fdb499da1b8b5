package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListStudents returns the visible students, filtered by ?q= on name or email.
func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.svc.Residency.Search(c.Request.Context(), principal(c), c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) GetStudent(c *gin.Context) {
	st, err := h.svc.Residency.Get(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type bedRequest struct {
	BedID string `json:"bed_id"`
}

func (h *Handler) AssignBed(c *gin.Context) {
	var req bedRequest
	if !bindJSON(c, &req) {
		return
	}
	st, err := h.svc.Residency.AssignBed(c.Request.Context(), principal(c), c.Param("id"), req.BedID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// UnassignBed frees the student's bed. The body is optional; without a
// bed_id the current bed is released.
func (h *Handler) UnassignBed(c *gin.Context) {
	var req bedRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	st, err := h.svc.Residency.UnassignBed(c.Request.Context(), principal(c), c.Param("id"), req.BedID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type activeRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *Handler) SetStudentActive(c *gin.Context) {
	var req activeRequest
	if !bindJSON(c, &req) {
		return
	}
	st, err := h.svc.Residency.SetActive(c.Request.Context(), principal(c), c.Param("id"), *req.Active)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
