package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-backend/internal/model"
	"hostel-backend/internal/service"
)

// ListComplaints supports ?status=; residents only see their own.
func (h *Handler) ListComplaints(c *gin.Context) {
	status := model.ComplaintStatus(c.Query("status"))
	complaints, err := h.svc.Complaints.List(c.Request.Context(), principal(c), status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, complaints)
}

func (h *Handler) FileComplaint(c *gin.Context) {
	var req service.FileComplaintInput
	if !bindJSON(c, &req) {
		return
	}
	complaint, err := h.svc.Complaints.File(c.Request.Context(), principal(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, complaint)
}

type complaintStatusRequest struct {
	Status model.ComplaintStatus `json:"status" binding:"required"`
}

func (h *Handler) SetComplaintStatus(c *gin.Context) {
	var req complaintStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	complaint, err := h.svc.Complaints.SetStatus(c.Request.Context(), principal(c), c.Param("id"), req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

type complaintResponseRequest struct {
	Response string `json:"response"`
}

// RespondToComplaint stores the admin response and moves the complaint to IN_PROGRESS.
func (h *Handler) RespondToComplaint(c *gin.Context) {
	var req complaintResponseRequest
	if !bindJSON(c, &req) {
		return
	}
	complaint, err := h.svc.Complaints.Respond(c.Request.Context(), principal(c), c.Param("id"), req.Response)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}
