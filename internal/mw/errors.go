package mw

import (
	"github.com/gin-gonic/gin"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/logger"
)

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Error  string            `json:"error"`
	Type   apperr.Type       `json:"type"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Abort converts err to an AppError, writes it and stops the chain.
// Internal errors are logged with their cause and reported generically.
func Abort(c *gin.Context, err error) {
	appErr := apperr.From(err)
	if appErr.Type == apperr.TypeInternal {
		logger.WithComponent("api").Error("request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.Code, ErrorBody{
		Error:  appErr.Message,
		Type:   appErr.Type,
		Fields: appErr.Fields,
	})
}
