package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-backend/internal/mw"
	"hostel-backend/internal/service"
)

// Register creates an account. A signed-in administrator may create
// further administrators.
func (h *Handler) Register(c *gin.Context) {
	var req service.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	caller := mw.OptionalPrincipal(c, h.tokens, h.svc.Identity)
	session, err := h.svc.Identity.Register(c.Request.Context(), caller, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.svc.Identity.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) Me(c *gin.Context) {
	me, err := h.svc.Identity.Me(c.Request.Context(), principal(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, me)
}
