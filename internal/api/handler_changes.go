package api

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/auth"
	"hostel-backend/internal/logger"
	"hostel-backend/internal/realtime"
)

const sseContentType = "text/event-stream"

// dashboardTables are the tables whose changes alter the dashboard.
var dashboardTables = []string{
	realtime.TableRooms,
	realtime.TableBeds,
	realtime.TableStudents,
	realtime.TableComplaints,
	realtime.TableNotices,
	realtime.TableRent,
}

// Changes streams change events as SSE. ?tables=a,b limits the tables and
// ?event=INSERT|UPDATE|DELETE|* the change type. The subscription is closed
// when the client disconnects.
func (h *Handler) Changes(c *gin.Context) {
	if err := h.policy.Authorize(principal(c), auth.ResourceChanges, auth.ActionRead); err != nil {
		fail(c, err)
		return
	}
	tables, err := parseTables(c.Query("tables"))
	if err != nil {
		fail(c, err)
		return
	}
	filter, ok := realtime.ParseEventType(c.Query("event"))
	if !ok {
		fail(c, apperr.ValidationFields(map[string]string{"event": "oneof"}))
		return
	}

	sub := h.hub.Subscribe(tables, filter)
	defer sub.Close()

	setupSSE(c)
	if !sendConnected(c) {
		return
	}
	err = realtime.WatchWithKeepalive(c.Request.Context(), sub, h.keepalive, func(_ context.Context, e realtime.Event) error {
		return sendEvent(c, "change", e)
	}, h.keepaliveFunc(c))
	logStreamEnd(c, "changes", err)
}

// DashboardStream sends the dashboard summary and re-sends it after every
// change that can affect it.
func (h *Handler) DashboardStream(c *gin.Context) {
	ctx := c.Request.Context()
	p := principal(c)
	summary, err := h.svc.Dashboard.Summary(ctx, p)
	if err != nil {
		fail(c, err)
		return
	}

	sub := h.hub.Subscribe(dashboardTables, realtime.EventAll)
	defer sub.Close()

	setupSSE(c)
	if !sendConnected(c) || sendEvent(c, "summary", summary) != nil {
		return
	}
	// One summary per wake-up, however many tables changed.
	err = realtime.WatchBatches(c.Request.Context(), sub, h.keepalive, func(ctx context.Context, _ []realtime.Event) error {
		summary, err := h.svc.Dashboard.Summary(ctx, p)
		if err != nil {
			return err
		}
		return sendEvent(c, "summary", summary)
	}, h.keepaliveFunc(c))
	logStreamEnd(c, "dashboard", err)
}

func (h *Handler) keepaliveFunc(c *gin.Context) func() error {
	return func() error {
		return sendComment(c, "keepalive")
	}
}

// logStreamEnd records why a stream stopped. A client disconnect cancels
// the request context; anything else is a failed write.
func logStreamEnd(c *gin.Context, stream string, err error) {
	log := logger.WithComponent("sse")
	switch {
	case err == nil:
		log.Debug("stream closed", "stream", stream)
	case errors.Is(err, context.Canceled):
		log.Debug("client disconnected", "stream", stream, "client_ip", c.ClientIP())
	default:
		log.Debug("stream ended", "stream", stream, "client_ip", c.ClientIP(), "error", err)
	}
}

func parseTables(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var tables []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !realtime.KnownTable(t) {
			return nil, apperr.ValidationFields(map[string]string{"tables": "unknown table " + t})
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func setupSSE(c *gin.Context) {
	c.Header("Content-Type", sseContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

func sendConnected(c *gin.Context) bool {
	return sendComment(c, "connected") == nil
}

func sendComment(c *gin.Context, text string) error {
	if _, err := c.Writer.WriteString(": " + text + "\n\n"); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

func sendEvent(c *gin.Context, name string, data any) error {
	c.SSEvent(name, data)
	if err := c.Request.Context().Err(); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}
