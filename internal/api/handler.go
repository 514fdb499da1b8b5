package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/auth"
	"hostel-backend/internal/mw"
	"hostel-backend/internal/realtime"
	"hostel-backend/internal/service"
	"hostel-backend/internal/store"
)

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	Store     store.Store
	Services  *service.Services
	Tokens    mw.TokenVerifier
	Policy    service.Authorizer
	Hub       *realtime.Hub
	WebPush   *webpush.Options
	Keepalive time.Duration
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	svc       *service.Services
	tokens    mw.TokenVerifier
	policy    service.Authorizer
	hub       *realtime.Hub
	webpush   *webpush.Options
	keepalive time.Duration
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	keepalive := d.Keepalive
	if keepalive <= 0 {
		keepalive = 30 * time.Second
	}
	return &Handler{
		store:     d.Store,
		svc:       d.Services,
		tokens:    d.Tokens,
		policy:    d.Policy,
		hub:       d.Hub,
		webpush:   d.WebPush,
		keepalive: keepalive,
	}
}

// Health reports whether the database answers.
func (h *Handler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		fail(c, apperr.Unavailable("database unavailable"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// principal returns the caller set by mw.Authenticate.
func principal(c *gin.Context) auth.Principal {
	p, _ := mw.PrincipalFrom(c)
	return p
}

func fail(c *gin.Context, err error) {
	mw.Abort(c, err)
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		fail(c, apperr.BadRequest("invalid request"))
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, fallback int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		fail(c, apperr.ValidationFields(map[string]string{key: "number"}))
		return 0, false
	}
	return n, true
}
