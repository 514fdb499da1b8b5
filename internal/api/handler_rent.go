package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-backend/internal/auth"
	"hostel-backend/internal/model"
	"hostel-backend/internal/service"
)

// ListRent supports ?status= and ?student_id=; residents only see their
// own records.
func (h *Handler) ListRent(c *gin.Context) {
	h.listRent(c, c.Query("student_id"))
}

// StudentRent lists one student's rent history.
func (h *Handler) StudentRent(c *gin.Context) {
	h.listRent(c, c.Param("id"))
}

func (h *Handler) listRent(c *gin.Context, studentID string) {
	q := service.RentQuery{
		Status:    model.RentStatus(c.Query("status")),
		StudentID: studentID,
	}
	records, err := h.svc.Rent.List(c.Request.Context(), principal(c), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) CreateRent(c *gin.Context) {
	var req service.CreateRentInput
	if !bindJSON(c, &req) {
		return
	}
	rent, err := h.svc.Rent.CreateRecord(c.Request.Context(), principal(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rent)
}

func (h *Handler) RentSummary(c *gin.Context) {
	summary, err := h.svc.Rent.Summary(c.Request.Context(), principal(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type rentTransition func(ctx context.Context, p auth.Principal, rentID string) (*model.Rent, error)

func (h *Handler) transitionRent(c *gin.Context, apply rentTransition) {
	rent, err := apply(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rent)
}

func (h *Handler) MarkRentPaid(c *gin.Context) {
	h.transitionRent(c, h.svc.Rent.MarkPaid)
}

func (h *Handler) MarkRentOverdue(c *gin.Context) {
	h.transitionRent(c, h.svc.Rent.MarkOverdue)
}

func (h *Handler) UndoRent(c *gin.Context) {
	h.transitionRent(c, h.svc.Rent.Undo)
}
