package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"project-planner/backend/internal/events"
)

const defaultHeartbeat = 25 * time.Second

type EventHandler struct {
	broker    events.Broker
	heartbeat time.Duration
}

func NewEventHandler(broker events.Broker, heartbeat time.Duration) *EventHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &EventHandler{broker: broker, heartbeat: heartbeat}
}

// Stream pushes refresh events to the dashboard as Server-Sent Events until
// the client disconnects. Each event is named after the list that changed.
func (h *EventHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	ch, cancel := h.broker.Subscribe(ctx)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent("ready", gin.H{"heartbeat": h.heartbeat.String()})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			c.SSEvent(string(event.Kind), event)
			c.Writer.Flush()
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			c.Writer.Flush()
		}
	}
}
